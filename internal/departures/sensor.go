package departures

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mobil-koeln/efa-cli/internal/api"
	"github.com/mobil-koeln/efa-cli/internal/metrics"
	"github.com/mobil-koeln/efa-cli/internal/models"
)

// DefaultWalkingTime is used when a stop has no walking time configured
const DefaultWalkingTime = time.Minute

// StateUnavailable is the summary state when there is no next departure
const StateUnavailable = "N/A"

// SensorConfig describes one monitored stop
type SensorConfig struct {
	Name        string
	StopID      string
	WalkingTime time.Duration
	Limit       int

	// TransportTypes switches types off by mapping them to false.
	// Types missing from the map are shown.
	TransportTypes map[models.TransportType]bool
}

// Sensor holds the latest departure list of one stop
type Sensor struct {
	cfg     SensorConfig
	fetcher *Fetcher
	now     func() time.Time

	mu          sync.RWMutex
	departures  models.DepartureList
	state       string
	lastUpdated time.Time
	lastChanged time.Time
}

// NewSensor creates a sensor for the stop described by cfg
func NewSensor(cfg SensorConfig, fetcher *Fetcher) *Sensor {
	if cfg.WalkingTime <= 0 {
		cfg.WalkingTime = DefaultWalkingTime
	}
	return &Sensor{
		cfg:     cfg,
		fetcher: fetcher,
		now:     time.Now,
		state:   StateUnavailable,
	}
}

// Update fetches the stop's departures, drops those the user cannot reach
// or does not want, and replaces the stored list.
func (s *Sensor) Update(ctx context.Context) {
	list := s.fetcher.Fetch(ctx, api.DepartureMonitorRequest{
		StopID: s.cfg.StopID,
		Limit:  s.cfg.Limit,
	})

	now := s.now()
	list = s.filter(list, now)
	state := summary(list)

	s.mu.Lock()
	if state != s.state || s.lastChanged.IsZero() {
		s.lastChanged = now
	}
	s.departures = list
	s.state = state
	s.lastUpdated = now
	s.mu.Unlock()

	metrics.Departures.WithLabelValues(s.cfg.StopID).Set(float64(len(list)))
}

func (s *Sensor) filter(list models.DepartureList, now time.Time) models.DepartureList {
	cutoff := now.Add(s.cfg.WalkingTime)
	kept := make(models.DepartureList, 0, len(list))
	for _, event := range list {
		if !s.Enabled(event.TransportType) {
			continue
		}
		if event.Departure().Before(cutoff) {
			continue
		}
		kept = append(kept, event)
	}
	return kept
}

// Enabled reports whether departures of type tt are shown
func (s *Sensor) Enabled(tt models.TransportType) bool {
	enabled, ok := s.cfg.TransportTypes[tt]
	return !ok || enabled
}

// Departures returns the current list. ok is false until the first update.
func (s *Sensor) Departures() (list models.DepartureList, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.departures == nil {
		return nil, false
	}
	return slices.Clone(s.departures), true
}

// Next returns the sensor's next departure
func (s *Sensor) Next() (models.StopEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Next(s.departures)
}

// StopID returns the monitored stop
func (s *Sensor) StopID() string {
	return s.cfg.StopID
}

// WalkingTime returns the effective walking time
func (s *Sensor) WalkingTime() time.Duration {
	return s.cfg.WalkingTime
}

// Name returns the configured name or a name derived from the stop
func (s *Sensor) Name() string {
	if s.cfg.Name != "" {
		return s.cfg.Name
	}
	return "Stop ID: " + s.cfg.StopID
}

// UniqueID identifies the sensor across restarts
func (s *Sensor) UniqueID() string {
	return fmt.Sprintf("stop_%s_departures", s.cfg.StopID)
}

// EntityID is the sensor's address in the state API
func (s *Sensor) EntityID() string {
	return "sensor." + slugify(s.UniqueID())
}

// Icon returns the icon of the next departure
func (s *Sensor) Icon() string {
	if next, ok := s.Next(); ok && next.Icon != "" {
		return next.Icon
	}
	return models.DefaultIcon
}

// State returns a one-line summary of the next departure
func (s *Sensor) State() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Attributes returns the state attributes, departures first
func (s *Sensor) Attributes() map[string]any {
	list, _ := s.Departures()
	departures := make([]map[string]any, 0, len(list))
	for _, event := range list {
		departures = append(departures, event.ToMap())
	}

	return map[string]any{
		"departures":    departures,
		"friendly_name": s.Name(),
		"icon":          s.Icon(),
		"stop_id":       s.cfg.StopID,
		"walking_time":  int(s.cfg.WalkingTime / time.Minute),
	}
}

// LastUpdated returns when Update last completed
func (s *Sensor) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}

// LastChanged returns when the summary state last changed
func (s *Sensor) LastChanged() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastChanged
}

func summary(list models.DepartureList) string {
	next, ok := Next(list)
	if !ok {
		return StateUnavailable
	}
	return fmt.Sprintf("Next %s %s at %s", next.TransportationLine, next.Direction, next.Departure().Format("15:04"))
}

func slugify(s string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
