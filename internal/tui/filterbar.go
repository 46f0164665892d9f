package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mobil-koeln/efa-cli/internal/models"
)

// renderFilterBar renders the transport type chips and the auto-refresh
// toggle as bordered boxes side by side.
func (m Model) renderFilterBar() string {
	var types strings.Builder
	for i, tt := range models.TransportTypes {
		focused := m.focus == focusFilters && m.filterCursor == i
		if i > 0 {
			types.WriteString(" ")
		}
		types.WriteString(m.renderChip(typeLabels[tt], m.typeEnabled(tt), focused))
	}

	typesBorder := stylePanelNormal
	if m.focus == focusFilters {
		typesBorder = stylePanelFocused
	}
	typesBox := typesBorder.Render(types.String())

	refreshFocused := m.focus == focusAutoRefresh
	label := fmt.Sprintf("Auto-refresh %ds", int(autoRefreshInterval.Seconds()))
	refreshChip := m.renderChip(label, m.autoRefresh, refreshFocused)

	refreshBorder := stylePanelNormal
	if refreshFocused {
		refreshBorder = stylePanelFocused
	}
	refreshBox := refreshBorder.Render(refreshChip)

	boxes := lipgloss.JoinHorizontal(lipgloss.Top, typesBox, refreshBox)

	if m.lastUpdate.IsZero() {
		return boxes
	}

	updateText := "  Last update:\t" + m.lastUpdate.Format("15:04:05")
	if m.autoRefresh {
		remaining := max(autoRefreshInterval-time.Since(m.lastUpdate), 0)
		updateText += fmt.Sprintf("\t(refresh in %ds)", int(remaining.Seconds()))
	}

	return styleMuted.Render(updateText) + "\n" + boxes
}

// renderChip renders a single chip with cursor highlighting.
func (m Model) renderChip(label string, active bool, focused bool) string {
	if focused {
		if active {
			return styleChipCursor.Render("[" + label + "]")
		}
		return styleChipCursor.Render(" " + label + " ")
	}
	if active {
		return styleLine.Render("[" + label + "]")
	}
	return styleMuted.Render(" " + label + " ")
}

// handleFilterKeys handles key events when the transport type box is focused.
func (m Model) handleFilterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	types := models.TransportTypes

	switch msg.String() {
	case "h", "left":
		if m.filterCursor > 0 {
			m.filterCursor--
		}
		return m, nil

	case "l", "right":
		if m.filterCursor < len(types)-1 {
			m.filterCursor++
		}
		return m, nil

	case " ", "enter":
		tt := types[m.filterCursor]
		m.typeFilters[tt] = !m.typeEnabled(tt)
		return m.applyFilters(), nil

	case "a":
		return m.toggleAllTypes(), nil

	case "tab":
		m.focus = focusAutoRefresh
		return m, nil

	case "shift+tab":
		return m.focusSearchInput()

	case "esc", "/":
		return m.focusSearchInput()

	case "q":
		return m, tea.Quit
	}

	return m, nil
}

// toggleAllTypes enables every type unless all are enabled already, in
// which case it disables them all.
func (m Model) toggleAllTypes() Model {
	anyOff := false
	for _, tt := range models.TransportTypes {
		if !m.typeEnabled(tt) {
			anyOff = true
			break
		}
	}
	for _, tt := range models.TransportTypes {
		m.typeFilters[tt] = anyOff
	}
	return m.applyFilters()
}

// applyFilters keeps the departure cursor inside the filtered board.
func (m Model) applyFilters() Model {
	visible := len(m.visibleDepartures())
	if m.departureCursor >= visible {
		m.departureCursor = max(visible-1, 0)
	}
	return m
}
