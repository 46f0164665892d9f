package departures

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

// DefaultScanInterval is the time between two polls of every sensor
const DefaultScanInterval = 60 * time.Second

const defaultMaxConcurrency = 4

// Poller updates a fixed set of sensors on an interval
type Poller struct {
	sensors        []*Sensor
	interval       time.Duration
	maxConcurrency int
	logger         zerolog.Logger

	// serializes UpdateAll so updates of one sensor never overlap
	mu sync.Mutex
}

// PollerOption configures the Poller
type PollerOption func(*Poller)

// WithMaxConcurrency bounds how many sensors update at the same time
func WithMaxConcurrency(n int) PollerOption {
	return func(p *Poller) {
		if n > 0 {
			p.maxConcurrency = n
		}
	}
}

// WithPollerLogger sets the poller's logger
func WithPollerLogger(l zerolog.Logger) PollerOption {
	return func(p *Poller) {
		p.logger = l
	}
}

// NewPoller creates a poller. A non-positive interval selects the default.
func NewPoller(sensors []*Sensor, interval time.Duration, opts ...PollerOption) *Poller {
	if interval <= 0 {
		interval = DefaultScanInterval
	}
	p := &Poller{
		sensors:        sensors,
		interval:       interval,
		maxConcurrency: defaultMaxConcurrency,
		logger:         log.Logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Sensors returns the polled sensors
func (p *Poller) Sensors() []*Sensor {
	return p.sensors
}

// Interval returns the poll interval
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// UpdateAll updates every sensor and waits for all of them
func (p *Poller) UpdateAll(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()

	wp := pool.New().WithMaxGoroutines(p.maxConcurrency)
	for _, sensor := range p.sensors {
		sensor := sensor // per-iteration copy (pre-Go 1.22 loop semantics)
		wp.Go(func() {
			sensor.Update(ctx)
		})
	}
	wp.Wait()

	p.logger.Debug().
		Int("count", len(p.sensors)).
		Dur("duration", time.Since(start)).
		Msg("sensors updated")
}

// Run updates all sensors immediately and then once per interval until ctx
// is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info().
		Int("sensors", len(p.sensors)).
		Dur("interval", p.interval).
		Msg("poller started")

	p.UpdateAll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("poller stopped")
			return
		case <-ticker.C:
			p.UpdateAll(ctx)
		}
	}
}
