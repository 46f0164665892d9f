// Package departures fetches, orders and holds departure lists for stops.
package departures

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mobil-koeln/efa-cli/internal/api"
	"github.com/mobil-koeln/efa-cli/internal/metrics"
	"github.com/mobil-koeln/efa-cli/internal/models"
)

// Source is the departure monitor the fetcher reads from. *api.Client
// implements it.
type Source interface {
	GetDepartureMonitor(ctx context.Context, req api.DepartureMonitorRequest) (*models.StopEventsResponse, error)
	Timezone() *time.Location
}

// Fetcher turns departure monitor responses into ordered departure lists.
// It holds no mutable state and is safe for concurrent use.
type Fetcher struct {
	source Source
	logger zerolog.Logger
}

// FetcherOption configures the Fetcher
type FetcherOption func(*Fetcher)

// WithFetcherLogger sets the logger failures are reported to
func WithFetcherLogger(l zerolog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// NewFetcher creates a fetcher reading from source
func NewFetcher(source Source, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		source: source,
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Load performs one departure monitor request and returns the stop events
// sorted by planned time. Events sharing a planned time keep API order.
// A response without stopEvents yields an empty list.
func (f *Fetcher) Load(ctx context.Context, req api.DepartureMonitorRequest) (models.DepartureList, error) {
	resp, err := f.source.GetDepartureMonitor(ctx, req)
	if err != nil {
		return nil, err
	}

	logger := f.logger.With().Str("stop", req.StopID).Logger()

	if resp.StopEvents == nil {
		logger.Debug().Msg("response has no stopEvents")
		return models.DepartureList{}, nil
	}

	loc := f.source.Timezone()
	list := make(models.DepartureList, 0, len(resp.StopEvents))
	skipped := 0
	for i := range resp.StopEvents {
		event, ok := resp.StopEvents[i].ToStopEvent(loc)
		if !ok {
			skipped++
			continue
		}
		list = append(list, event)
	}

	if skipped > 0 {
		logger.Error().Int("count", skipped).Msg("skipped stop events without planned time")
	}

	slices.SortStableFunc(list, func(a, b models.StopEvent) int {
		return a.Planned.Compare(b.Planned)
	})

	logger.Debug().Int("count", len(list)).Msg("departures loaded")

	return list, nil
}

// Fetch is Load without errors: every failure is logged once and yields an
// empty, non-nil list.
func (f *Fetcher) Fetch(ctx context.Context, req api.DepartureMonitorRequest) models.DepartureList {
	start := time.Now()
	list, err := f.Load(ctx, req)
	metrics.FetchDuration.WithLabelValues(req.StopID).Observe(time.Since(start).Seconds())

	if err == nil {
		metrics.FetchTotal.WithLabelValues(req.StopID, metrics.OutcomeOK).Inc()
		return list
	}

	logger := f.logger.With().Str("stop", req.StopID).Logger()

	var outcome string
	switch {
	case errors.Is(err, api.ErrTimeout):
		outcome = metrics.OutcomeTimeout
		logger.Warn().Err(err).Msg("API timeout")
	case errors.Is(err, api.ErrMalformedResponse):
		outcome = metrics.OutcomeMalformed
		logger.Error().Err(err).Msg("API invalid JSON")
	default:
		outcome = metrics.OutcomeNetwork
		logger.Warn().Err(err).Msg("API error")
	}
	metrics.FetchTotal.WithLabelValues(req.StopID, outcome).Inc()

	return models.DepartureList{}
}
