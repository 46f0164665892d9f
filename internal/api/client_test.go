package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mobil-koeln/efa-cli/internal/testutil"
)

func TestNewClient(t *testing.T) {
	client, err := NewClient()
	testutil.AssertNil(t, err)
	testutil.AssertTrue(t, client.httpClient != nil)
	testutil.AssertEqual(t, client.baseURL, BaseURL)
	testutil.AssertEqual(t, client.httpClient.Timeout, DefaultTimeout)
	testutil.AssertEqual(t, client.userAgent, defaultUserAgent)
	testutil.AssertTrue(t, client.cache == nil)
}

func TestNewClient_Options(t *testing.T) {
	customClient := &http.Client{Timeout: 5 * time.Second}
	mc := newMockCache()

	client, err := NewClient(
		WithHTTPClient(customClient),
		WithTimeout(7*time.Second),
		WithBaseURL("http://localhost:1234/efa"),
		WithUserAgent("test-agent"),
		WithCache(mc),
	)
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, client.httpClient, customClient)
	testutil.AssertEqual(t, customClient.Timeout, 7*time.Second)
	testutil.AssertEqual(t, client.baseURL, "http://localhost:1234/efa")
	testutil.AssertEqual(t, client.userAgent, "test-agent")
	testutil.AssertTrue(t, client.cache != nil)
}

func TestClient_Timezone(t *testing.T) {
	client, err := NewClient()
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, client.Timezone().String(), "Europe/Berlin")
}

func TestDepartureMonitorRequest_Params(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	testutil.AssertNil(t, err)

	t.Run("required parameters only", func(t *testing.T) {
		params := DepartureMonitorRequest{StopID: "de:09362:12009"}.Params(loc)

		testutil.AssertEqual(t, params.Get("mode"), "direct")
		testutil.AssertEqual(t, params.Get("outputFormat"), "rapidJSON")
		testutil.AssertEqual(t, params.Get("type_dm"), "any")
		testutil.AssertEqual(t, params.Get("useRealtime"), "1")
		testutil.AssertEqual(t, params.Get("name_dm"), "de:09362:12009")
		testutil.AssertEqual(t, len(params), 5)
	})

	t.Run("reference time and limit", func(t *testing.T) {
		params := DepartureMonitorRequest{
			StopID:   "4014080",
			DateTime: time.Date(2024, 3, 1, 11, 5, 0, 0, time.UTC),
			Limit:    10,
		}.Params(loc)

		testutil.AssertEqual(t, params.Get("itdDate"), "20240301")
		testutil.AssertEqual(t, params.Get("itdTime"), "1205")
		testutil.AssertEqual(t, params.Get("limit"), "10")
	})
}

func TestGetDepartureMonitor_Success(t *testing.T) {
	ms := testutil.NewMockServer(testutil.JSONHandler(http.StatusOK, testutil.SampleStopEventsResponse))
	defer ms.Close()

	client := newTestClient(t, ms.URL)

	resp, err := client.GetDepartureMonitor(context.Background(), DepartureMonitorRequest{StopID: "de:09362:12009"})
	testutil.AssertNil(t, err)
	testutil.AssertLen(t, resp.StopEvents, 3)
	testutil.AssertEqual(t, resp.StopEvents[0].Transportation.Number, "6")

	req := ms.LastRequest()
	testutil.AssertEqual(t, req.Method, http.MethodGet)
	testutil.AssertEqual(t, req.URL.Path, EndpointDepartureMonitor)
	testutil.AssertEqual(t, req.URL.Query().Get("name_dm"), "de:09362:12009")
	testutil.AssertEqual(t, req.Header.Get("User-Agent"), defaultUserAgent)

	_, err = uuid.Parse(req.Header.Get("X-Request-ID"))
	testutil.AssertNil(t, err)
}

func TestGetDepartureMonitor_MissingStopEvents(t *testing.T) {
	ms := testutil.NewMockServer(testutil.JSONHandler(http.StatusOK, testutil.SampleMissingStopEventsResponse))
	defer ms.Close()

	resp, err := newTestClient(t, ms.URL).GetDepartureMonitor(context.Background(), DepartureMonitorRequest{StopID: "1"})
	testutil.AssertNil(t, err)
	testutil.AssertTrue(t, resp.StopEvents == nil)
}

func TestGetDepartureMonitor_MissingStopID(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1")

	_, err := client.GetDepartureMonitor(context.Background(), DepartureMonitorRequest{})
	testutil.AssertErrorIs(t, err, ErrInvalidRequest)
}

func TestGetDepartureMonitor_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    error
		notWant error
	}{
		{"invalid JSON", http.StatusOK, `invalid json`, ErrMalformedResponse, ErrNetwork},
		{"array instead of object", http.StatusOK, `[1, 2]`, ErrMalformedResponse, ErrNetwork},
		{"stopEvents not a list", http.StatusOK, `{"stopEvents": "none"}`, ErrMalformedResponse, ErrNetwork},
		{"server error", http.StatusInternalServerError, `{}`, ErrNetwork, ErrMalformedResponse},
		{"not found", http.StatusNotFound, ``, ErrNotFound, ErrTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := testutil.NewMockServer(testutil.JSONHandler(tt.status, tt.body))
			defer ms.Close()

			_, err := newTestClient(t, ms.URL).GetDepartureMonitor(context.Background(), DepartureMonitorRequest{StopID: "1"})
			testutil.AssertError(t, err)
			testutil.AssertErrorIs(t, err, tt.want)
			testutil.AssertFalse(t, errors.Is(err, tt.notWant))
		})
	}
}

func TestGetDepartureMonitor_ConnectionRefused(t *testing.T) {
	ms := testutil.NewMockServer(testutil.JSONHandler(http.StatusOK, `{}`))
	url := ms.URL
	ms.Close()

	_, err := newTestClient(t, url).GetDepartureMonitor(context.Background(), DepartureMonitorRequest{StopID: "1"})
	testutil.AssertErrorIs(t, err, ErrNetwork)
	testutil.AssertFalse(t, errors.Is(err, ErrTimeout))
}

func TestGetDepartureMonitor_ClientTimeout(t *testing.T) {
	ms := testutil.NewMockServer(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	defer ms.Close()

	client, err := NewClient(WithBaseURL(ms.URL), WithTimeout(50*time.Millisecond))
	testutil.AssertNil(t, err)

	_, err = client.GetDepartureMonitor(context.Background(), DepartureMonitorRequest{StopID: "1"})
	testutil.AssertErrorIs(t, err, ErrTimeout)
	testutil.AssertFalse(t, errors.Is(err, ErrNetwork))
}

func TestGetDepartureMonitor_ContextDeadline(t *testing.T) {
	ms := testutil.NewMockServer(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	defer ms.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(t, ms.URL).GetDepartureMonitor(ctx, DepartureMonitorRequest{StopID: "1"})
	testutil.AssertErrorIs(t, err, ErrTimeout)
}

func TestGetDepartureMonitor_ContextCanceled(t *testing.T) {
	ms := testutil.NewMockServer(testutil.JSONHandler(http.StatusOK, testutil.SampleEmptyStopEventsResponse))
	defer ms.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(t, ms.URL).GetDepartureMonitor(ctx, DepartureMonitorRequest{StopID: "1"})
	testutil.AssertErrorIs(t, err, ErrNetwork)
	testutil.AssertErrorIs(t, err, context.Canceled)
}

func TestSearchStops_Success(t *testing.T) {
	ms := testutil.NewMockServer(testutil.JSONHandler(http.StatusOK, testutil.SampleLocationResponse))
	defer ms.Close()

	locations, err := newTestClient(t, ms.URL).SearchStops(context.Background(), "Hauptbahnhof")
	testutil.AssertNil(t, err)
	testutil.AssertLen(t, locations, 2)
	testutil.AssertEqual(t, locations[0].ID, "de:09362:12009")
	testutil.AssertTrue(t, locations[0].IsBest)

	query := ms.LastRequest().URL.Query()
	testutil.AssertEqual(t, ms.LastRequest().URL.Path, EndpointStopFinder)
	testutil.AssertEqual(t, query.Get("name_sf"), "Hauptbahnhof")
	testutil.AssertEqual(t, query.Get("type_sf"), "any")
	testutil.AssertEqual(t, query.Get("outputFormat"), OutputFormat)
	testutil.AssertEqual(t, query.Get("coordOutputFormat"), CoordinateFormat)
}

func TestSearchStops_EmptyQuery(t *testing.T) {
	_, err := newTestClient(t, "http://127.0.0.1:1").SearchStops(context.Background(), "")
	testutil.AssertErrorIs(t, err, ErrInvalidRequest)
}

func TestSearchStops_InvalidJSON(t *testing.T) {
	ms := testutil.NewMockServer(testutil.JSONHandler(http.StatusOK, `<html>`))
	defer ms.Close()

	_, err := newTestClient(t, ms.URL).SearchStops(context.Background(), "Dom")
	testutil.AssertErrorIs(t, err, ErrMalformedResponse)
}

func TestGetDepartureMonitorRaw_Success(t *testing.T) {
	ms := testutil.NewMockServer(testutil.JSONHandler(http.StatusOK, testutil.SampleEmptyStopEventsResponse))
	defer ms.Close()

	raw, err := newTestClient(t, ms.URL).GetDepartureMonitorRaw(context.Background(), DepartureMonitorRequest{StopID: "1"})
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, string(raw), testutil.SampleEmptyStopEventsResponse)
}

func TestClient_WithCache(t *testing.T) {
	ms := testutil.NewMockServer(testutil.JSONHandler(http.StatusOK, testutil.SampleStopEventsResponse))
	defer ms.Close()

	mc := newMockCache()
	client, err := NewClient(WithBaseURL(ms.URL), WithCache(mc))
	testutil.AssertNil(t, err)

	req := DepartureMonitorRequest{StopID: "de:09362:12009"}

	_, err = client.GetDepartureMonitor(context.Background(), req)
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, ms.RequestCount(), 1)

	_, err = client.GetDepartureMonitor(context.Background(), req)
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, ms.RequestCount(), 1)
	testutil.AssertEqual(t, mc.len(), 1)
}

func TestClient_CacheSkipsErrors(t *testing.T) {
	ms := testutil.NewMockServer(testutil.JSONHandler(http.StatusBadGateway, `{}`))
	defer ms.Close()

	mc := newMockCache()
	client, err := NewClient(WithBaseURL(ms.URL), WithCache(mc))
	testutil.AssertNil(t, err)

	_, err = client.GetDepartureMonitor(context.Background(), DepartureMonitorRequest{StopID: "1"})
	testutil.AssertError(t, err)
	testutil.AssertEqual(t, mc.len(), 0)
}

func TestExtractEndpoint(t *testing.T) {
	testutil.AssertEqual(t, extractEndpoint("https://efa.rvv.de/efa/XML_DM_REQUEST?name_dm=1"), "/efa/XML_DM_REQUEST")
	testutil.AssertEqual(t, extractEndpoint("://bad"), "://bad")
}

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[key]
	return data, ok
}

func (m *mockCache) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockCache) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(WithBaseURL(baseURL), WithTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}
