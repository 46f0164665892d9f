package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"
	_ "time/tzdata" // Europe/Berlin must resolve on minimal hosts

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mobil-koeln/efa-cli/internal/cache"
	"github.com/mobil-koeln/efa-cli/internal/metrics"
	"github.com/mobil-koeln/efa-cli/internal/models"
)

const (
	// DefaultTimeout bounds a single request including reading the body
	DefaultTimeout   = 30 * time.Second
	defaultCacheTTL  = 20 * time.Second
	defaultUserAgent = "efa-cli"
)

// Cache interface for caching HTTP responses
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte) error
}

// Client is the API client for an EFA installation
type Client struct {
	httpClient *http.Client
	baseURL    string
	timezone   *time.Location
	cache      Cache
	userAgent  string
	logger     zerolog.Logger
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithTimeout sets the HTTP client timeout
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL points the client at another EFA installation
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithUserAgent sets the User-Agent header sent with every request
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithCache enables caching with the provided cache implementation
func WithCache(cache Cache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithDefaultCache enables caching with the default file cache
func WithDefaultCache() ClientOption {
	return func(c *Client) {
		fc, err := cache.NewFileCache(cache.DefaultCacheDir(), defaultCacheTTL)
		if err == nil {
			c.cache = fc
		}
	}
}

// NewClient creates a new API client
func NewClient(opts ...ClientOption) (*Client, error) {
	tz, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone: %w", err)
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		baseURL:   BaseURL,
		timezone:  tz,
		userAgent: defaultUserAgent,
		logger:    log.Logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Timezone returns the client's timezone
func (c *Client) Timezone() *time.Location {
	return c.timezone
}

// DepartureMonitorRequest contains parameters for a departure monitor query
type DepartureMonitorRequest struct {
	StopID   string    // Stop identifier understood by EFA (required)
	DateTime time.Time // Reference time (defaults to now on the server)
	Limit    int       // Maximum number of departures (server default when 0)
}

// Params builds the query parameters for the request
func (r DepartureMonitorRequest) Params(loc *time.Location) url.Values {
	params := url.Values{}
	params.Set("mode", "direct")
	params.Set("outputFormat", OutputFormat)
	params.Set("type_dm", "any")
	params.Set("useRealtime", "1")
	params.Set("name_dm", r.StopID)

	if !r.DateTime.IsZero() {
		dt := r.DateTime
		if loc != nil {
			dt = dt.In(loc)
		}
		params.Set("itdDate", dt.Format("20060102"))
		params.Set("itdTime", dt.Format("1504"))
	}
	if r.Limit > 0 {
		params.Set("limit", strconv.Itoa(r.Limit))
	}

	return params
}

// GetDepartureMonitor fetches and decodes the departure monitor for a stop.
// Stop events are returned in API order.
func (c *Client) GetDepartureMonitor(ctx context.Context, req DepartureMonitorRequest) (*models.StopEventsResponse, error) {
	body, err := c.GetDepartureMonitorRaw(ctx, req)
	if err != nil {
		return nil, err
	}

	var resp models.StopEventsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &MalformedResponseError{Endpoint: EndpointDepartureMonitor, Err: err}
	}

	return &resp, nil
}

// GetDepartureMonitorRaw fetches the departure monitor and returns raw JSON
func (c *Client) GetDepartureMonitorRaw(ctx context.Context, req DepartureMonitorRequest) (json.RawMessage, error) {
	if req.StopID == "" {
		return nil, ErrMissingField("stop_id")
	}

	reqURL := c.baseURL + EndpointDepartureMonitor + "?" + req.Params(c.timezone).Encode()

	return c.doRequest(ctx, reqURL)
}

// SearchStops searches for stops by name
func (c *Client) SearchStops(ctx context.Context, query string) ([]models.Location, error) {
	body, err := c.SearchStopsRaw(ctx, query)
	if err != nil {
		return nil, err
	}

	var resp models.LocationsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &MalformedResponseError{Endpoint: EndpointStopFinder, Err: err}
	}

	locations := make([]models.Location, 0, len(resp.Locations))
	for _, entry := range resp.Locations {
		locations = append(locations, *entry.ToLocation())
	}

	return locations, nil
}

// SearchStopsRaw searches for stops and returns raw JSON
func (c *Client) SearchStopsRaw(ctx context.Context, query string) (json.RawMessage, error) {
	if query == "" {
		return nil, ErrMissingField("query")
	}

	params := url.Values{}
	params.Set("outputFormat", OutputFormat)
	params.Set("type_sf", "any")
	params.Set("name_sf", query)
	params.Set("coordOutputFormat", CoordinateFormat)
	params.Set("locationServerActive", "1")

	reqURL := c.baseURL + EndpointStopFinder + "?" + params.Encode()

	return c.doRequest(ctx, reqURL)
}

// doRequest performs an HTTP GET request with optional caching
func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	if c.cache != nil {
		if data, ok := c.cache.Get(ctx, reqURL); ok {
			metrics.CacheRequests.WithLabelValues("hit").Inc()
			return data, nil
		}
		metrics.CacheRequests.WithLabelValues("miss").Inc()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)

	endpoint := extractEndpoint(reqURL)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug().
		Str("request_id", requestID).
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("EFA request")

	if resp.StatusCode != http.StatusOK {
		return nil, NewAPIError(resp.StatusCode, resp.Status, endpoint)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}

	if c.cache != nil {
		_ = c.cache.Set(ctx, reqURL, body)
	}

	return body, nil
}

// classifyTransportError maps a failed exchange to ErrTimeout or ErrNetwork
func classifyTransportError(ctx context.Context, err error) error {
	var netErr net.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrNetwork, err)
}

// extractEndpoint extracts the endpoint path from a full URL
func extractEndpoint(fullURL string) string {
	u, err := url.Parse(fullURL)
	if err != nil {
		return fullURL
	}
	return u.Path
}
