// Package server exposes departure sensors over HTTP.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mobil-koeln/efa-cli/internal/departures"
	"github.com/mobil-koeln/efa-cli/internal/metrics"
)

// Server serves the state API for a poller's sensors
type Server struct {
	app     *fiber.App
	poller  *departures.Poller
	sensors map[string]*departures.Sensor
	logger  zerolog.Logger
	started time.Time
}

// Option configures the Server
type Option func(*Server)

// WithLogger sets the access logger
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New creates a server for the sensors of poller
func New(poller *departures.Poller, opts ...Option) *Server {
	s := &Server{
		poller:  poller,
		sensors: make(map[string]*departures.Sensor),
		logger:  log.Logger,
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, sensor := range poller.Sensors() {
		s.sensors[sensor.EntityID()] = sensor
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "efa",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	s.setupRoutes()

	return s
}

// App returns the underlying fiber application
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown is called
func (s *Server) Listen(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("HTTP server listening")
	return s.app.Listen(addr)
}

// Shutdown stops the server, waiting for open requests until ctx expires
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) setupRoutes() {
	s.app.Use(metrics.Middleware())
	s.app.Get("/metrics", metrics.Handler())

	s.app.Use(requestid.New())
	s.app.Use(accessLog(s.logger))

	s.app.Get("/healthz", s.handleHealth)

	states := s.app.Group("/api")
	states.Get("/states", s.handleStates)
	states.Get("/states/:entity_id", s.handleState)
	states.Post("/update", s.handleUpdate)
}

// errorHandler renders every error as {"message": ...}
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"message": err.Error()})
}

func accessLog(logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		event := logger.Debug()
		switch {
		case err != nil || status >= 500:
			event = logger.Error().Err(err)
		case status >= 400:
			event = logger.Info()
		}

		event.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
			Msg("HTTP request")

		return err
	}
}
