package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mobil-koeln/efa-cli/internal/models"
	"github.com/mobil-koeln/efa-cli/internal/output"
)

// View renders the entire TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	header := renderHeader()
	searchBar := m.renderSearchBar()
	filterBar := m.renderFilterBar()
	statusBar := m.renderStatusBar()

	panelHeight := m.height -
		lipgloss.Height(header) -
		lipgloss.Height(searchBar) -
		lipgloss.Height(filterBar) -
		lipgloss.Height(statusBar)
	panelHeight = max(panelHeight, 3)

	// Panel widths: ~30% stops, ~20% directions, rest departures
	leftWidth := max(m.width*30/100-2, 20)
	dirWidth := max(m.width*20/100-2, 16)
	rightWidth := max(m.width-leftWidth-dirWidth-6, 20)

	leftBorder := stylePanelNormal
	if m.focus == focusStops {
		leftBorder = stylePanelFocused
	}
	leftPanel := leftBorder.
		Width(leftWidth).
		Height(panelHeight - 2).
		Render(m.renderStopList(leftWidth, panelHeight-2))

	rightBorder := stylePanelNormal
	if m.focus == focusDepartures {
		rightBorder = stylePanelFocused
	}
	rightPanel := rightBorder.
		Width(rightWidth).
		Height(panelHeight - 2).
		Render(m.renderDepartureList(rightWidth, panelHeight-2))

	dirBorder := stylePanelNormal
	if m.focus == focusDirections {
		dirBorder = stylePanelFocused
	}
	dirPanel := dirBorder.
		Width(dirWidth).
		Height(panelHeight - 2).
		Render(m.renderDirectionPanel(dirWidth, panelHeight-2))

	panels := lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, rightPanel, dirPanel)

	return lipgloss.JoinVertical(lipgloss.Left, header, searchBar, filterBar, panels, statusBar)
}

// renderHeader renders the brand name.
func renderHeader() string {
	title := "" +
		"  ___ ___ _     \n" +
		" | __| __/_\\    \n" +
		" | _|| _/ _ \\   \n" +
		" |___|_/_/ \\_\\  "

	return styleLogo.Render(title) + styleMuted.Render("departure monitor")
}

// renderSearchBar renders the search input at the top.
func (m Model) renderSearchBar() string {
	border := stylePanelNormal
	if m.focus == focusSearch {
		border = stylePanelFocused
	}

	content := styleHeader.Render("Search: ") + m.searchInput.View()

	return border.Width(m.width - 2).Render(content)
}

// renderStopList renders the left stop panel.
func (m Model) renderStopList(width, height int) string {
	title := styleHeader.Render("STOPS")

	switch {
	case m.stopsLoading:
		return title + "\n" + styleLoading.Render(" Searching...")
	case m.stopsErr != nil:
		return title + "\n" + styleError.Render(" Error: "+m.stopsErr.Error())
	case len(m.stops) == 0 && m.searchSeq > 0:
		return title + "\n" + styleMuted.Render(" No stops found")
	case len(m.stops) == 0:
		return title + "\n" + styleMuted.Render(" Type a stop name and press Enter")
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")

	maxVisible := max(height-2, 1)
	start, end := visibleRange(m.stopCursor, len(m.stops), maxVisible)

	for i := start; i < end; i++ {
		name := truncate(stopLabel(m.stops[i]), width-4)
		if i == m.stopCursor {
			b.WriteString(styleSelected.Render(" > " + name))
		} else {
			b.WriteString("   " + name)
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

// stopLabel names a stop the way the stop finder does, falling back to
// the id for preloaded stops without a name.
func stopLabel(loc models.Location) string {
	if loc.Name != "" {
		return loc.Name
	}
	return loc.ID
}

// renderDepartureList renders the departure table.
func (m Model) renderDepartureList(width, height int) string {
	title := "DEPARTURES"
	if m.selectedStop != nil {
		title += " for " + truncate(stopLabel(*m.selectedStop), width-16)
	}
	titleStr := styleHeader.Render(title)

	if m.selectedStop == nil {
		return titleStr + "\n" + styleMuted.Render(" Select a stop to view departures")
	}
	if m.departuresLoading {
		return titleStr + "\n" + styleLoading.Render(" Loading departures...")
	}
	if m.departuresErr != nil {
		return titleStr + "\n" + styleError.Render(" Error: "+m.departuresErr.Error())
	}

	events := m.visibleDepartures()
	if len(events) == 0 {
		return titleStr + "\n" + styleMuted.Render(" No departures found")
	}

	var b strings.Builder
	b.WriteString(titleStr)
	b.WriteString("\n")

	now := time.Now()
	maxVisible := max(height-2, 1)
	start, end := visibleRange(m.departureCursor, len(events), maxVisible)

	for i := start; i < end; i++ {
		selected := i == m.departureCursor && m.focus == focusDepartures
		b.WriteString(renderDepartureLine(events[i], width, now, selected))
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

// renderDepartureLine renders a single departure entry.
func renderDepartureLine(event models.StopEvent, width int, now time.Time, selected bool) string {
	timeStr := event.Planned.Format("15:04")
	delayStr := formatDelay(event.Delay, event.HasRealtime())

	line := event.TransportationLine
	if len(line) > 8 {
		line = line[:8]
	}
	lineStr := fmt.Sprintf("%-8s", line)

	platformStr := "      "
	if p := event.Platform; p != "" {
		if len(p) > 3 {
			p = p[:3]
		}
		platformStr = fmt.Sprintf("Pl.%-3s", p)
	}

	relative := fmt.Sprintf("%-9s", output.RelativeMinutes(event.Departure(), now))

	// time+sp+delay+sp+line+sp+platform+sp+relative+sp
	fixedWidth := 5 + 1 + 4 + 2 + 8 + 2 + 6 + 1 + 9 + 1
	maxDir := width - fixedWidth - 2 // cursor indicator + padding
	direction := truncate(event.Direction, maxDir)

	entry := fmt.Sprintf("%s %s  %s  %s %s %s",
		styleTime.Render(timeStr),
		delayStr,
		styleLine.Render(lineStr),
		stylePlatform.Render(platformStr),
		styleMuted.Render(relative),
		direction,
	)

	if selected {
		return styleSelected.Render(">") + entry
	}
	return " " + entry
}

// renderStatusBar renders context-aware keyboard hints at the bottom.
func (m Model) renderStatusBar() string {
	var hints string
	switch m.focus {
	case focusSearch:
		hints = "Enter:search  Tab:filters  Esc:clear  Ctrl+C:quit"
	case focusFilters:
		hints = "h/l:move  Space:toggle  a:all  Tab:auto-refresh  Esc:search  q:quit"
	case focusAutoRefresh:
		hints = "Space:toggle  Tab:stops  Esc:search  q:quit"
	case focusStops:
		hints = "j/k:navigate  PgUp/PgDn:page  Home/End:jump  Enter:select  Tab:departures  /:search  q:quit"
	case focusDepartures:
		hints = "j/k:navigate  PgUp/PgDn:page  r:reload  Tab:directions  Esc:stops  /:search  q:quit"
	case focusDirections:
		hints = "j/k:navigate  Space:toggle  a:all  Tab:search  Esc:search  q:quit"
	}

	return styleStatusBar.Width(m.width).Render(" " + hints)
}

// visibleRange calculates the start and end indices for a scrollable list.
func visibleRange(cursor, total, maxVisible int) (int, int) {
	if total <= maxVisible {
		return 0, total
	}

	start := max(cursor-maxVisible/2, 0)
	end := start + maxVisible
	if end > total {
		end = total
		start = max(end-maxVisible, 0)
	}
	return start, end
}

// truncate truncates a string to the given width in runes.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "~"
}
