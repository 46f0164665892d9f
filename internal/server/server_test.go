package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/mobil-koeln/efa-cli/internal/api"
	"github.com/mobil-koeln/efa-cli/internal/departures"
	"github.com/mobil-koeln/efa-cli/internal/models"
	"github.com/mobil-koeln/efa-cli/internal/testutil"
)

type fixtureSource struct {
	calls atomic.Int32
}

func (s *fixtureSource) GetDepartureMonitor(context.Context, api.DepartureMonitorRequest) (*models.StopEventsResponse, error) {
	s.calls.Add(1)
	var resp models.StopEventsResponse
	if err := json.Unmarshal([]byte(testutil.SampleStopEventsResponse), &resp); err != nil {
		return nil, err
	}
	// Shift the fixture into the future so walking time keeps every event
	future := time.Now().Add(time.Hour).UTC()
	for i := range resp.StopEvents {
		resp.StopEvents[i].DepartureTimePlanned = future.Add(time.Duration(i) * time.Minute).Format(time.RFC3339)
		resp.StopEvents[i].DepartureTimeEstimated = ""
	}
	return &resp, nil
}

func (s *fixtureSource) Timezone() *time.Location {
	return time.UTC
}

func newTestServer(t *testing.T) (*Server, *fixtureSource) {
	t.Helper()
	source := &fixtureSource{}
	fetcher := departures.NewFetcher(source, departures.WithFetcherLogger(zerolog.Nop()))

	sensors := []*departures.Sensor{
		departures.NewSensor(departures.SensorConfig{Name: "Hauptbahnhof", StopID: "de:09362:12009"}, fetcher),
		departures.NewSensor(departures.SensorConfig{StopID: "4014080"}, fetcher),
	}
	poller := departures.NewPoller(sensors, time.Minute, departures.WithPollerLogger(zerolog.Nop()))

	return New(poller, WithLogger(zerolog.Nop())), source
}

func doRequest(t *testing.T, app *fiber.App, method, path string) (int, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, path, nil))
	testutil.AssertNil(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	testutil.AssertNil(t, err)
	return resp.StatusCode, body
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	status, body := doRequest(t, s.App(), "GET", "/healthz")
	testutil.AssertEqual(t, status, 200)

	var got map[string]any
	testutil.AssertNil(t, json.Unmarshal(body, &got))
	testutil.AssertEqual(t, got["status"], any("ok"))
	testutil.AssertEqual(t, got["sensors"], any(float64(2)))
}

func TestStates_BeforeUpdate(t *testing.T) {
	s, source := newTestServer(t)

	status, body := doRequest(t, s.App(), "GET", "/api/states")
	testutil.AssertEqual(t, status, 200)
	testutil.AssertEqual(t, source.calls.Load(), int32(0))

	var states []EntityState
	testutil.AssertNil(t, json.Unmarshal(body, &states))
	testutil.AssertLen(t, states, 2)
	testutil.AssertEqual(t, states[0].EntityID, "sensor.stop_4014080_departures")
	testutil.AssertEqual(t, states[0].State, departures.StateUnavailable)
	testutil.AssertTrue(t, states[0].LastUpdated == nil)
}

func TestUpdateThenState(t *testing.T) {
	s, source := newTestServer(t)

	status, _ := doRequest(t, s.App(), "POST", "/api/update")
	testutil.AssertEqual(t, status, 200)
	testutil.AssertEqual(t, source.calls.Load(), int32(2))

	status, body := doRequest(t, s.App(), "GET", "/api/states/sensor.stop_de_09362_12009_departures")
	testutil.AssertEqual(t, status, 200)

	var state EntityState
	testutil.AssertNil(t, json.Unmarshal(body, &state))
	testutil.AssertContains(t, state.State, "Next 6 Klinikum at ")
	testutil.AssertEqual(t, state.Attributes["friendly_name"], any("Hauptbahnhof"))
	testutil.AssertEqual(t, state.Attributes["icon"], any("mdi:bus"))
	testutil.AssertTrue(t, state.LastUpdated != nil)

	deps, ok := state.Attributes["departures"].([]any)
	testutil.AssertTrue(t, ok)
	testutil.AssertLen(t, deps, 3)
}

func TestState_NotFound(t *testing.T) {
	s, _ := newTestServer(t)

	status, body := doRequest(t, s.App(), "GET", "/api/states/sensor.nope")
	testutil.AssertEqual(t, status, 404)
	testutil.AssertEqual(t, string(body), `{"message":"Entity not found."}`)
}

func TestUnknownRoute(t *testing.T) {
	s, _ := newTestServer(t)

	status, body := doRequest(t, s.App(), "GET", "/nowhere")
	testutil.AssertEqual(t, status, 404)
	testutil.AssertContains(t, string(body), `"message"`)
}

func TestMetricsRoute(t *testing.T) {
	s, _ := newTestServer(t)

	doRequest(t, s.App(), "POST", "/api/update")
	status, body := doRequest(t, s.App(), "GET", "/metrics")
	testutil.AssertEqual(t, status, 200)
	testutil.AssertContains(t, string(body), `efa_departures{stop="4014080"} 3`)
	testutil.AssertContains(t, string(body), "efa_http_requests_total")
}
