// Package tui implements the interactive stop and departure browser.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mobil-koeln/efa-cli/internal/api"
	"github.com/mobil-koeln/efa-cli/internal/models"
)

type focusPanel int

const (
	focusSearch focusPanel = iota
	focusFilters
	focusAutoRefresh
	focusStops
	focusDepartures
	focusDirections
)

// StopSearcher resolves free text to stops. *api.Client implements it.
type StopSearcher interface {
	SearchStops(ctx context.Context, query string) ([]models.Location, error)
}

// BoardLoader loads the departure list of one stop. *departures.Fetcher
// implements it.
type BoardLoader interface {
	Load(ctx context.Context, req api.DepartureMonitorRequest) (models.DepartureList, error)
}

var typeLabels = map[models.TransportType]string{
	models.TransportSuburban: "S",
	models.TransportSubway:   "U",
	models.TransportTram:     "Tram",
	models.TransportBus:      "Bus",
	models.TransportFerry:    "Ferry",
	models.TransportExpress:  "Express",
	models.TransportRegional: "Regional",
}

// Model is the root Bubble Tea model for the TUI.
type Model struct {
	searcher StopSearcher
	loader   BoardLoader
	limit    int
	width    int
	height   int

	searchInput textinput.Model
	focus       focusPanel

	// Filter bar - transport types
	typeFilters  map[models.TransportType]bool
	filterCursor int

	// Auto-refresh
	autoRefresh bool
	lastUpdate  time.Time

	// Left panel - stops
	stops        []models.Location
	stopCursor   int
	stopsLoading bool
	stopsErr     error
	searchSeq    int

	// Right panel - departures
	selectedStop      *models.Location
	departures        models.DepartureList
	departureCursor   int
	departuresLoading bool
	departuresErr     error

	// Right panel - direction filter
	directionList    []string
	directionFilters []bool
	directionCursor  int
}

// Option configures the Model
type Option func(*Model)

// WithStops preloads the stop list, e.g. with the configured departures.
func WithStops(stops []models.Location) Option {
	return func(m *Model) {
		m.stops = stops
	}
}

// WithLimit caps the number of departures requested per board.
func WithLimit(limit int) Option {
	return func(m *Model) {
		m.limit = limit
	}
}

// New creates a new TUI model.
func New(searcher StopSearcher, loader BoardLoader, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "Search stop..."
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 40

	filters := make(map[models.TransportType]bool, len(models.TransportTypes))
	for _, tt := range models.TransportTypes {
		filters[tt] = true
	}

	m := Model{
		searcher:    searcher,
		loader:      loader,
		searchInput: ti,
		focus:       focusSearch,
		typeFilters: filters,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// typeEnabled reports whether departures of tt are shown. Unknown types
// are always shown.
func (m Model) typeEnabled(tt models.TransportType) bool {
	enabled, ok := m.typeFilters[tt]
	return !ok || enabled
}

// Init returns the initial command (textinput blink).
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}
