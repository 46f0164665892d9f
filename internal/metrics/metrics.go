package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Fetch outcomes
const (
	OutcomeOK        = "ok"
	OutcomeTimeout   = "timeout"
	OutcomeNetwork   = "network_error"
	OutcomeMalformed = "malformed"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "efa",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "efa",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// FetchTotal counts departure fetches by stop and outcome
	FetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "efa",
		Name:      "fetch_total",
		Help:      "Total departure monitor fetches",
	}, []string{"stop", "outcome"})

	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "efa",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of departure monitor fetches",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"stop"})

	// Departures is the number of departures currently held per stop
	Departures = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "efa",
		Name:      "departures",
		Help:      "Departures currently exposed per stop",
	}, []string{"stop"})

	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "efa",
		Subsystem: "cache",
		Name:      "requests_total",
		Help:      "Response cache lookups by result",
	}, []string{"result"})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()
		status := strconv.Itoa(c.Response().StatusCode())

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
