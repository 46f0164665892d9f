package tui

import (
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// renderDirectionPanel renders the vertical direction filter panel.
func (m Model) renderDirectionPanel(width, height int) string {
	title := "DIRECTIONS"
	if m.focus == focusDirections {
		title = "▶ " + title
	}
	titleStr := styleHeader.Render(title)

	if len(m.directionList) == 0 {
		return titleStr + "\n" + styleMuted.Render(" No data")
	}

	// Reserve space for scrollbar
	contentWidth := width - 2

	maxVisible := max(height-2, 1)
	start, end := visibleRange(m.directionCursor, len(m.directionList), maxVisible)

	lines := make([]string, 0, maxVisible)
	for i := start; i < end; i++ {
		focused := m.focus == focusDirections && m.directionCursor == i
		active := i < len(m.directionFilters) && m.directionFilters[i]
		lines = append(lines, m.renderChip(truncate(m.directionList[i], contentWidth-3), active, focused))
	}
	for len(lines) < maxVisible {
		lines = append(lines, "")
	}

	scrollbarLines := strings.Split(renderScrollbar(m.directionCursor, len(m.directionList), maxVisible), "\n")

	var b strings.Builder
	for i, line := range lines {
		if w := lipgloss.Width(line); w < contentWidth {
			line += strings.Repeat(" ", contentWidth-w)
		}
		b.WriteString(line)
		if i < len(scrollbarLines) {
			b.WriteString(" ")
			b.WriteString(scrollbarLines[i])
		}
		if i < len(lines)-1 {
			b.WriteString("\n")
		}
	}

	return titleStr + "\n" + b.String()
}

// renderScrollbar renders a one column scrollbar of height lines whose
// thumb tracks cursor within total items.
func renderScrollbar(cursor, total, height int) string {
	if height <= 0 {
		return ""
	}

	lines := make([]string, height)
	if total == 0 {
		for i := range lines {
			lines[i] = " "
		}
		return strings.Join(lines, "\n")
	}

	thumb := max(height*height/max(total, height), 1)
	pos := 0
	if total > 1 {
		pos = cursor * (height - thumb) / (total - 1)
	}
	pos = min(max(pos, 0), height-thumb)

	for i := range lines {
		if i >= pos && i < pos+thumb {
			lines[i] = styleSelected.Render("█")
		} else {
			lines[i] = styleMuted.Render("│")
		}
	}
	return strings.Join(lines, "\n")
}

// handleDirectionKeys handles key events when the direction panel is focused.
func (m Model) handleDirectionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if cursor, ok := m.moveCursor(msg.String(), m.directionCursor, len(m.directionList)); ok {
		m.directionCursor = cursor
		return m, nil
	}

	switch msg.String() {
	case " ", "enter":
		if m.directionCursor < len(m.directionFilters) {
			m.directionFilters[m.directionCursor] = !m.directionFilters[m.directionCursor]
		}
		return m.applyFilters(), nil

	case "a":
		anyOff := slices.Contains(m.directionFilters, false)
		for i := range m.directionFilters {
			m.directionFilters[i] = anyOff
		}
		return m.applyFilters(), nil

	case "tab":
		return m.focusSearchInput()

	case "shift+tab":
		m.focus = focusDepartures
		return m, nil

	case "esc", "/":
		return m.focusSearchInput()

	case "q":
		return m, tea.Quit
	}

	return m, nil
}

// rebuildDirectionList extracts unique directions from the board, sorts
// them and preserves existing toggle states.
func (m Model) rebuildDirectionList() Model {
	prev := make(map[string]bool, len(m.directionList))
	for i, dir := range m.directionList {
		if i < len(m.directionFilters) {
			prev[dir] = m.directionFilters[i]
		}
	}

	var list []string
	for _, event := range m.departures {
		if event.Direction != "" && !slices.Contains(list, event.Direction) {
			list = append(list, event.Direction)
		}
	}
	slices.Sort(list)

	filters := make([]bool, len(list))
	for i, dir := range list {
		state, ok := prev[dir]
		filters[i] = !ok || state
	}

	m.directionList = list
	m.directionFilters = filters
	if m.directionCursor >= len(list) {
		m.directionCursor = max(len(list)-1, 0)
	}
	return m
}

// activeDirections returns the enabled directions, or nil when every
// direction is enabled.
func (m Model) activeDirections() map[string]bool {
	if !slices.Contains(m.directionFilters, false) {
		return nil
	}
	active := make(map[string]bool, len(m.directionList))
	for i, dir := range m.directionList {
		if i < len(m.directionFilters) && m.directionFilters[i] {
			active[dir] = true
		}
	}
	return active
}
