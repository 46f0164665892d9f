package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mobil-koeln/efa-cli/internal/models"
)

// Update handles all messages and key events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case searchResultMsg:
		return m.handleSearchResult(msg)

	case boardResultMsg:
		return m.handleBoardResult(msg)

	case autoRefreshTickMsg:
		return m.handleAutoRefreshTick()

	case countdownTickMsg:
		return m.handleCountdownTick()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Pass remaining messages to textinput when focused
	if m.focus == focusSearch {
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleSearchResult(msg searchResultMsg) (tea.Model, tea.Cmd) {
	// Ignore stale results
	if msg.seq != m.searchSeq {
		return m, nil
	}
	m.stopsLoading = false
	m.stopsErr = msg.err
	if msg.err != nil {
		return m, nil
	}

	// Only stops have a departure monitor
	m.stops = m.stops[:0:0]
	for _, loc := range msg.locations {
		if loc.IsStop() {
			m.stops = append(m.stops, loc)
		}
	}
	m.stopCursor = 0

	// Auto-select first stop and fetch departures
	if len(m.stops) > 0 {
		m.focus = focusStops
		m.searchInput.Blur()
		return m.selectStop(m.stops[0])
	}

	return m, nil
}

func (m Model) handleBoardResult(msg boardResultMsg) (tea.Model, tea.Cmd) {
	// Ignore if stop changed
	if m.selectedStop == nil || msg.stopID != m.selectedStop.ID {
		return m, nil
	}
	m.departuresLoading = false
	m.departuresErr = msg.err
	if msg.err != nil {
		return m, nil
	}

	m.departures = msg.departures
	m = m.rebuildDirectionList()

	// Clamp cursor if list shrank
	if visible := len(m.visibleDepartures()); m.departureCursor >= visible {
		m.departureCursor = max(visible-1, 0)
	}
	m.lastUpdate = time.Now()
	return m, nil
}

// selectStop makes stop the current board and starts loading it.
func (m Model) selectStop(stop models.Location) (tea.Model, tea.Cmd) {
	m.selectedStop = &stop
	m.departuresLoading = true
	m.departuresErr = nil
	m.departures = nil
	m.departureCursor = 0
	m.directionList = nil
	m.directionFilters = nil
	m.directionCursor = 0
	return m, fetchBoard(m.loader, stop.ID, m.limit)
}

// visibleDepartures applies the type and direction filters to the board.
func (m Model) visibleDepartures() models.DepartureList {
	active := m.activeDirections()
	result := make(models.DepartureList, 0, len(m.departures))
	for _, event := range m.departures {
		if !m.typeEnabled(event.TransportType) {
			continue
		}
		if active != nil && event.Direction != "" && !active[event.Direction] {
			continue
		}
		result = append(result, event)
	}
	return result
}

func (m Model) focusSearchInput() (tea.Model, tea.Cmd) {
	m.focus = focusSearch
	m.searchInput.Focus()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.focus {
	case focusSearch:
		return m.handleSearchKeys(msg)
	case focusFilters:
		return m.handleFilterKeys(msg)
	case focusAutoRefresh:
		return m.handleAutoRefreshKeys(msg)
	case focusStops:
		return m.handleStopKeys(msg)
	case focusDepartures:
		return m.handleDepartureKeys(msg)
	case focusDirections:
		return m.handleDirectionKeys(msg)
	}

	return m, nil
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		query := strings.TrimSpace(m.searchInput.Value())
		if query == "" {
			return m, nil
		}
		m.searchSeq++
		m.stopsLoading = true
		m.stopsErr = nil
		return m, searchStops(m.searcher, query, m.searchSeq)

	case "esc":
		m.searchInput.SetValue("")
		return m, nil

	case "tab":
		m.focus = focusFilters
		m.searchInput.Blur()
		return m, nil

	case "shift+tab":
		// Navigate backward to last available panel
		switch {
		case len(m.directionList) > 0:
			m.focus = focusDirections
		case len(m.departures) > 0:
			m.focus = focusDepartures
		case len(m.stops) > 0:
			m.focus = focusStops
		default:
			m.focus = focusAutoRefresh
		}
		m.searchInput.Blur()
		return m, nil
	}

	// Forward to textinput
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// pageSize is the number of list rows a page key moves.
func (m Model) pageSize() int {
	size := m.height - 10 // header, filter bar and status
	if size < 1 {
		size = 10
	}
	return size
}

// moveCursor applies a navigation key to a list cursor. ok is false when
// key is not a navigation key.
func (m Model) moveCursor(key string, cursor, total int) (next int, ok bool) {
	if total == 0 {
		return 0, isNavigationKey(key)
	}
	switch key {
	case "j", "down":
		cursor++
	case "k", "up":
		cursor--
	case "pgdown":
		cursor += m.pageSize()
	case "pgup":
		cursor -= m.pageSize()
	case "home":
		cursor = 0
	case "end":
		cursor = total - 1
	default:
		return cursor, false
	}
	return min(max(cursor, 0), total-1), true
}

func isNavigationKey(key string) bool {
	switch key {
	case "j", "down", "k", "up", "pgdown", "pgup", "home", "end":
		return true
	}
	return false
}

func (m Model) handleStopKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if cursor, ok := m.moveCursor(msg.String(), m.stopCursor, len(m.stops)); ok {
		m.stopCursor = cursor
		return m, nil
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "tab":
		if len(m.departures) > 0 {
			m.focus = focusDepartures
			return m, nil
		}
		return m.focusSearchInput()

	case "shift+tab":
		m.focus = focusAutoRefresh
		return m, nil

	case "esc", "/":
		return m.focusSearchInput()

	case "enter":
		if m.stopCursor < len(m.stops) {
			return m.selectStop(m.stops[m.stopCursor])
		}
	}

	return m, nil
}

func (m Model) handleDepartureKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if cursor, ok := m.moveCursor(msg.String(), m.departureCursor, len(m.visibleDepartures())); ok {
		m.departureCursor = cursor
		return m, nil
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "tab":
		if len(m.directionList) > 0 {
			m.focus = focusDirections
			return m, nil
		}
		return m.focusSearchInput()

	case "shift+tab", "esc":
		m.focus = focusStops
		return m, nil

	case "/":
		return m.focusSearchInput()

	case "r":
		if m.selectedStop != nil {
			return m, fetchBoard(m.loader, m.selectedStop.ID, m.limit)
		}
	}

	return m, nil
}

func (m Model) handleAutoRefreshKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case " ", "enter":
		m.autoRefresh = !m.autoRefresh
		if !m.autoRefresh {
			return m, nil
		}
		cmds := []tea.Cmd{autoRefreshTick(), countdownTick()}
		// Immediately refresh board if a stop is selected
		if m.selectedStop != nil {
			cmds = append(cmds, fetchBoard(m.loader, m.selectedStop.ID, m.limit))
		}
		return m, tea.Batch(cmds...)

	case "tab":
		if len(m.stops) > 0 {
			m.focus = focusStops
			return m, nil
		}
		return m.focusSearchInput()

	case "shift+tab":
		m.focus = focusFilters
		return m, nil

	case "esc", "/":
		return m.focusSearchInput()

	case "q":
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleAutoRefreshTick() (tea.Model, tea.Cmd) {
	if !m.autoRefresh {
		return m, nil
	}

	cmds := []tea.Cmd{autoRefreshTick()}

	// Refresh silently, existing data stays visible until new data arrives
	if m.selectedStop != nil {
		cmds = append(cmds, fetchBoard(m.loader, m.selectedStop.ID, m.limit))
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleCountdownTick() (tea.Model, tea.Cmd) {
	if !m.autoRefresh {
		return m, nil
	}
	return m, countdownTick()
}
