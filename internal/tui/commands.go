package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mobil-koeln/efa-cli/internal/api"
)

const (
	apiTimeout          = 10 * time.Second
	autoRefreshInterval = 30 * time.Second
)

// autoRefreshTick returns a tea.Cmd that sends a tick after the refresh interval.
func autoRefreshTick() tea.Cmd {
	return tea.Tick(autoRefreshInterval, func(t time.Time) tea.Msg {
		return autoRefreshTickMsg(t)
	})
}

// countdownTick returns a tea.Cmd that sends a tick every second for countdown display.
func countdownTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return countdownTickMsg(t)
	})
}

// searchStops returns a tea.Cmd that searches for stops.
func searchStops(searcher StopSearcher, query string, seq int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), apiTimeout)
		defer cancel()

		locations, err := searcher.SearchStops(ctx, query)
		return searchResultMsg{
			seq:       seq,
			locations: locations,
			err:       err,
		}
	}
}

// fetchBoard returns a tea.Cmd that loads the departures of a stop.
func fetchBoard(loader BoardLoader, stopID string, limit int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), apiTimeout)
		defer cancel()

		list, err := loader.Load(ctx, api.DepartureMonitorRequest{
			StopID: stopID,
			Limit:  limit,
		})
		return boardResultMsg{
			stopID:     stopID,
			departures: list,
			err:        err,
		}
	}
}
