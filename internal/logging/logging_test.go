package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mobil-koeln/efa-cli/internal/testutil"
)

func TestSetup(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	testutil.AssertNil(t, Setup(&buf, "warn", "json"))
	testutil.AssertEqual(t, zerolog.GlobalLevel(), zerolog.WarnLevel)

	log.Info().Msg("hidden")
	log.Warn().Str("stop", "1").Msg("API error")

	entries := testutil.LogEntries(t, &buf)
	testutil.AssertLen(t, entries, 1)
	testutil.AssertEqual(t, entries[0].Message(), "API error")
	testutil.AssertTrue(t, entries[0]["time"] != nil)
}

func TestSetup_EmptyLevelDefaultsToInfo(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	testutil.AssertNil(t, Setup(&bytes.Buffer{}, "", "console"))
	testutil.AssertEqual(t, zerolog.GlobalLevel(), zerolog.InfoLevel)
}

func TestSetup_InvalidLevel(t *testing.T) {
	testutil.AssertError(t, Setup(&bytes.Buffer{}, "loud", "console"))
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "console")
	logger.Warn().Msg("API timeout")

	testutil.AssertContains(t, buf.String(), "API timeout")
	testutil.AssertContains(t, buf.String(), "WRN")
}
