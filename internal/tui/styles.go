package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Colors matching the output package scheme
var (
	colorCyan    = lipgloss.Color("6")  // lines
	colorYellow  = lipgloss.Color("3")  // minor delays
	colorRed     = lipgloss.Color("1")  // major delays
	colorGreen   = lipgloss.Color("2")  // on time
	colorMagenta = lipgloss.Color("5")  // platforms
	colorWhite   = lipgloss.Color("15") // times, text
	colorGray    = lipgloss.Color("8")  // muted text
)

// Text styles
var (
	styleTime      = lipgloss.NewStyle().Foreground(colorWhite).Bold(true)
	styleDelay     = lipgloss.NewStyle().Foreground(colorYellow)
	styleDelayHigh = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	styleOnTime    = lipgloss.NewStyle().Foreground(colorGreen)
	styleLine      = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	stylePlatform  = lipgloss.NewStyle().Foreground(colorMagenta)
	styleMuted     = lipgloss.NewStyle().Foreground(colorGray)
	styleHeader    = lipgloss.NewStyle().Foreground(colorWhite).Bold(true)
)

// Panel border styles
var (
	stylePanelFocused = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorCyan)

	stylePanelNormal = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorGray)
)

// Selected item in a list
var styleSelected = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)

// Focused chip cursor in the filter bar, reverse video
var styleChipCursor = lipgloss.NewStyle().
	Foreground(lipgloss.Color("0")).
	Background(colorCyan).
	Bold(true)

// Status bar at the bottom
var styleStatusBar = lipgloss.NewStyle().
	Foreground(colorGray).
	Background(lipgloss.Color("0"))

var (
	styleLoading = lipgloss.NewStyle().Foreground(colorYellow).Italic(true)
	styleError   = lipgloss.NewStyle().Foreground(colorRed)
	styleLogo    = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
)

// formatDelay returns a styled delay string (4-char width). Departures
// without real-time data get a blank column.
func formatDelay(delay int, realtime bool) string {
	if !realtime {
		return "    "
	}
	s := fmt.Sprintf("%+4d", delay)
	switch {
	case delay >= 5:
		return styleDelayHigh.Render(s)
	case delay > 0:
		return styleDelay.Render(s)
	default:
		return styleOnTime.Render(s)
	}
}
