package output

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorMode represents the color output mode
type ColorMode int

const (
	// ColorAuto enables colors if output is a TTY
	ColorAuto ColorMode = iota
	// ColorAlways forces colors on
	ColorAlways
	// ColorNever disables colors
	ColorNever
)

// SprintfFunc formats like fmt.Sprintf, optionally wrapped in color codes
type SprintfFunc func(format string, a ...interface{}) string

// Colors holds the color functions for different output types
type Colors struct {
	Time      SprintfFunc
	Delay     SprintfFunc
	DelayHigh SprintfFunc
	OnTime    SprintfFunc
	Line      SprintfFunc
	Platform  SprintfFunc
	Dest      SprintfFunc
	Realtime  SprintfFunc
	Header    SprintfFunc
	Muted     SprintfFunc
}

// NewColors creates a new Colors instance based on the color mode
func NewColors(mode ColorMode) *Colors {
	useColors := false
	switch mode {
	case ColorAlways:
		useColors = true
		color.NoColor = false
	case ColorNever:
		useColors = false
	case ColorAuto:
		useColors = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}

	if !useColors {
		noColor := func(format string, a ...interface{}) string {
			if len(a) == 0 {
				return format
			}
			return fmt.Sprintf(format, a...)
		}
		return &Colors{
			Time:      noColor,
			Delay:     noColor,
			DelayHigh: noColor,
			OnTime:    noColor,
			Line:      noColor,
			Platform:  noColor,
			Dest:      noColor,
			Realtime:  noColor,
			Header:    noColor,
			Muted:     noColor,
		}
	}

	return &Colors{
		Time:      color.New(color.FgWhite, color.Bold).SprintfFunc(),
		Delay:     color.New(color.FgYellow).SprintfFunc(),
		DelayHigh: color.New(color.FgRed, color.Bold).SprintfFunc(),
		OnTime:    color.New(color.FgGreen).SprintfFunc(),
		Line:      color.New(color.FgCyan, color.Bold).SprintfFunc(),
		Platform:  color.New(color.FgMagenta).SprintfFunc(),
		Dest:      color.New(color.FgWhite).SprintfFunc(),
		Realtime:  color.New(color.FgGreen).SprintfFunc(),
		Header:    color.New(color.FgWhite, color.Bold).SprintfFunc(),
		Muted:     color.New(color.FgHiBlack).SprintfFunc(),
	}
}

// FormatDelay formats a delay in minutes (fixed 4-char width).
// Without real-time data the column stays blank.
func (c *Colors) FormatDelay(delay int, realtime bool) string {
	switch {
	case !realtime:
		return "    "
	case delay == 0:
		return c.OnTime("%4s", "+0")
	case delay >= 5:
		return c.DelayHigh("%+4d", delay)
	case delay > 0:
		return c.Delay("%+4d", delay)
	default:
		return c.OnTime("%4d", delay)
	}
}

// ParseColorMode parses a color mode string
func ParseColorMode(s string) ColorMode {
	switch s {
	case "always":
		return ColorAlways
	case "never":
		return ColorNever
	default:
		return ColorAuto
	}
}
