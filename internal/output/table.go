package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mobil-koeln/efa-cli/internal/models"
)

// TableOptions configures the table output
type TableOptions struct {
	Colors *Colors

	// ShowType adds the transport type column
	ShowType bool

	// Now enables the "in N min" column when set
	Now time.Time
}

func (o TableOptions) colors() *Colors {
	if o.Colors == nil {
		return NewColors(ColorNever)
	}
	return o.Colors
}

// RenderStopEvents renders departures as a formatted table
func RenderStopEvents(w io.Writer, events models.DepartureList, opts TableOptions) {
	if len(events) == 0 {
		_, _ = fmt.Fprintln(w, "No departures found.")
		return
	}

	c := opts.colors()

	for _, event := range events {
		// Line (truncate/pad to 6 chars)
		line := event.TransportationLine
		if len(line) > 6 {
			line = line[:6]
		}
		lineStr := fmt.Sprintf("%-6s", line)

		// Platform (fixed 7-char width: "Pl.XXX" or spaces)
		platformStr := "       "
		if platform := event.Platform; platform != "" {
			if len(platform) > 3 {
				platform = platform[:3]
			}
			platformStr = fmt.Sprintf("Pl.%-3s ", platform)
		}

		timeStr := c.Time("%s", event.Planned.Format("15:04"))
		if event.HasRealtime() && event.Delay != 0 {
			timeStr += " " + c.Realtime("%s", event.Estimated.Format("15:04"))
		} else {
			timeStr += "      "
		}

		cols := []string{
			timeStr,
			c.FormatDelay(event.Delay, event.HasRealtime()),
			" " + c.Line("%s", lineStr),
			c.Platform("%s", platformStr),
		}
		if opts.ShowType {
			cols = append(cols, c.Muted("%-8s", event.TransportType))
		}
		cols = append(cols, c.Dest("%s", event.Direction))

		if !opts.Now.IsZero() {
			cols = append(cols, c.Muted("(%s)", RelativeMinutes(event.Departure(), opts.Now)))
		}

		_, _ = fmt.Fprintln(w, strings.Join(cols, " "))
	}
}

// RelativeMinutes describes how far t lies after now
func RelativeMinutes(t, now time.Time) string {
	mins := int(t.Sub(now).Round(time.Minute) / time.Minute)
	switch {
	case mins <= 0:
		return "now"
	case mins < 60:
		return fmt.Sprintf("in %d min", mins)
	default:
		return fmt.Sprintf("in %dh%02d", mins/60, mins%60)
	}
}

// RenderLocations renders stop finder results as a formatted list
func RenderLocations(w io.Writer, locations []models.Location, opts TableOptions) {
	if len(locations) == 0 {
		_, _ = fmt.Fprintln(w, "No stops found.")
		return
	}

	c := opts.colors()

	_, _ = fmt.Fprintln(w, c.Header("Found stops:"))
	_, _ = fmt.Fprintln(w)

	for _, loc := range locations {
		name := loc.Name
		if loc.IsBest {
			name += " *"
		}
		_, _ = fmt.Fprintf(w, "  %s\n", c.Line("%s", name))
		_, _ = fmt.Fprintf(w, "    %s %s (%s)\n", c.Muted("ID:"), loc.ID, loc.Type)

		if len(loc.TransportTypes) > 0 {
			types := make([]string, 0, len(loc.TransportTypes))
			for _, tt := range loc.TransportTypes {
				types = append(types, string(tt))
			}
			_, _ = fmt.Fprintf(w, "    %s %s\n", c.Muted("Serves:"), strings.Join(types, ", "))
		}

		if loc.IsStop() {
			_, _ = fmt.Fprintf(w, "    %s efa departures %s\n", c.Muted("Use:"), loc.ID)
		}
		_, _ = fmt.Fprintln(w)
	}
}

// RenderHeader prints a board title with the stop and update time
func RenderHeader(w io.Writer, title string, updated time.Time, opts TableOptions) {
	c := opts.colors()
	_, _ = fmt.Fprintf(w, "%s  %s\n\n", c.Header("%s", title), c.Muted("updated %s", updated.Format("15:04:05")))
}
