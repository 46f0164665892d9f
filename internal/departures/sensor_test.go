package departures

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mobil-koeln/efa-cli/internal/api"
	"github.com/mobil-koeln/efa-cli/internal/models"
	"github.com/mobil-koeln/efa-cli/internal/testutil"
)

func sampleSource(t *testing.T) *staticSource {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	testutil.AssertNil(t, err)

	var resp models.StopEventsResponse
	testutil.AssertNil(t, json.Unmarshal([]byte(testutil.SampleStopEventsResponse), &resp))

	return &staticSource{resp: &resp, loc: loc}
}

func newTestSensor(t *testing.T, cfg SensorConfig, source Source) *Sensor {
	t.Helper()
	if cfg.StopID == "" {
		cfg.StopID = "de:09362:12009"
	}
	s := NewSensor(cfg, NewFetcher(source, WithFetcherLogger(zerolog.Nop())))
	s.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestSensor_BeforeFirstUpdate(t *testing.T) {
	s := newTestSensor(t, SensorConfig{}, sampleSource(t))

	list, ok := s.Departures()
	testutil.AssertFalse(t, ok)
	testutil.AssertTrue(t, list == nil)
	testutil.AssertEqual(t, s.State(), StateUnavailable)
	testutil.AssertEqual(t, s.Icon(), models.DefaultIcon)
	testutil.AssertTrue(t, s.LastUpdated().IsZero())

	deps, _ := s.Attributes()["departures"].([]map[string]any)
	testutil.AssertNotNil(t, deps)
	testutil.AssertLen(t, deps, 0)
}

func TestSensor_Update(t *testing.T) {
	s := newTestSensor(t, SensorConfig{Name: "Hauptbahnhof", WalkingTime: 3 * time.Minute}, sampleSource(t))

	s.Update(context.Background())

	list, ok := s.Departures()
	testutil.AssertTrue(t, ok)
	testutil.AssertLen(t, list, 3)
	testutil.AssertEqual(t, s.Icon(), "mdi:bus")
	// 12:07Z is 13:07 in Regensburg
	testutil.AssertEqual(t, s.State(), "Next 1 Wernerwerkstraße at 13:07")
	testutil.AssertFalse(t, s.LastUpdated().IsZero())

	attrs := s.Attributes()
	testutil.AssertEqual(t, attrs["friendly_name"], any("Hauptbahnhof"))
	testutil.AssertEqual(t, attrs["stop_id"], any("de:09362:12009"))
	testutil.AssertEqual(t, attrs["walking_time"], any(3))
	testutil.AssertEqual(t, attrs["icon"], any("mdi:bus"))

	deps := attrs["departures"].([]map[string]any)
	testutil.AssertLen(t, deps, 3)
	testutil.AssertEqual(t, deps[0]["transportation_line"], any("1"))
	testutil.AssertEqual(t, deps[0]["estimated"], any("2024-03-01T13:07:00+01:00"))
	testutil.AssertTrue(t, deps[1]["estimated"] == nil)
}

func TestSensor_WalkingTimeFilter(t *testing.T) {
	s := newTestSensor(t, SensorConfig{WalkingTime: 8 * time.Minute}, sampleSource(t))

	s.Update(context.Background())

	// Bus 1 leaves at 12:07 by estimate, before the 12:08 cutoff
	list, _ := s.Departures()
	testutil.AssertLen(t, list, 2)
	testutil.AssertEqual(t, list[0].TransportationLine, "6")
	testutil.AssertEqual(t, list[1].TransportationLine, "RB51")
}

func TestSensor_TransportTypeFilter(t *testing.T) {
	s := newTestSensor(t, SensorConfig{
		TransportTypes: map[models.TransportType]bool{models.TransportBus: false},
	}, sampleSource(t))

	s.Update(context.Background())

	list, _ := s.Departures()
	testutil.AssertLen(t, list, 1)
	testutil.AssertEqual(t, list[0].TransportType, models.TransportRegional)
	testutil.AssertEqual(t, s.Icon(), "mdi:train")
	testutil.AssertFalse(t, s.Enabled(models.TransportBus))
	testutil.AssertTrue(t, s.Enabled(models.TransportTram))
}

func TestSensor_FailedUpdateIsEmptyNotAbsent(t *testing.T) {
	s := newTestSensor(t, SensorConfig{}, &staticSource{err: api.ErrNetwork})

	s.Update(context.Background())

	list, ok := s.Departures()
	testutil.AssertTrue(t, ok)
	testutil.AssertNotNil(t, list)
	testutil.AssertLen(t, list, 0)
	testutil.AssertEqual(t, s.State(), StateUnavailable)
}

func TestSensor_UpdateReplacesList(t *testing.T) {
	source := sampleSource(t)
	s := newTestSensor(t, SensorConfig{}, source)

	s.Update(context.Background())
	list, _ := s.Departures()
	testutil.AssertLen(t, list, 3)
	firstChange := s.LastChanged()

	source.resp = &models.StopEventsResponse{StopEvents: []models.StopEventResponse{}}
	s.now = func() time.Time { return time.Date(2024, 3, 1, 12, 1, 0, 0, time.UTC) }
	s.Update(context.Background())

	list, _ = s.Departures()
	testutil.AssertLen(t, list, 0)
	testutil.AssertTrue(t, s.LastChanged().After(firstChange))
}

func TestSensor_Identity(t *testing.T) {
	s := newTestSensor(t, SensorConfig{}, sampleSource(t))

	testutil.AssertEqual(t, s.Name(), "Stop ID: de:09362:12009")
	testutil.AssertEqual(t, s.UniqueID(), "stop_de:09362:12009_departures")
	testutil.AssertEqual(t, s.EntityID(), "sensor.stop_de_09362_12009_departures")
	testutil.AssertEqual(t, s.WalkingTime(), DefaultWalkingTime)
}

func TestSensor_ConcurrentReads(t *testing.T) {
	s := newTestSensor(t, SensorConfig{}, sampleSource(t))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Update(context.Background())
		}()
		go func() {
			defer wg.Done()
			_ = s.Attributes()
			_ = s.State()
		}()
	}
	wg.Wait()

	list, ok := s.Departures()
	testutil.AssertTrue(t, ok)
	testutil.AssertLen(t, list, 3)
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"stop_4014080_departures":        "stop_4014080_departures",
		"stop_de:09362:12009_departures": "stop_de_09362_12009_departures",
		"Stop  Äußere--Ring":             "stop_u_ere_ring",
		"__x__":                          "x",
	}
	for in, want := range tests {
		testutil.AssertEqual(t, slugify(in), want)
	}
}
