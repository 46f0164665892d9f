package tui

import (
	"time"

	"github.com/mobil-koeln/efa-cli/internal/models"
)

// autoRefreshTickMsg is sent every refresh interval when auto-refresh is enabled.
type autoRefreshTickMsg time.Time

// countdownTickMsg is sent every second when auto-refresh is enabled to update countdown display.
type countdownTickMsg time.Time

// searchResultMsg carries stop search results back to the model.
// seq is used for stale-result detection.
type searchResultMsg struct {
	seq       int
	locations []models.Location
	err       error
}

// boardResultMsg carries the departure list of a specific stop.
type boardResultMsg struct {
	stopID     string
	departures models.DepartureList
	err        error
}
