package models

import (
	"strings"
	"time"
)

// StopEvent represents a single departure at a stop
type StopEvent struct {
	Planned            time.Time     `json:"planned"`
	Estimated          *time.Time    `json:"estimated,omitempty"`
	TransportationLine string        `json:"transportation_line"`
	Direction          string        `json:"direction"`
	Icon               string        `json:"icon"`
	TransportType      TransportType `json:"transport_type"`
	Platform           string        `json:"platform,omitempty"`
	Delay              int           `json:"delay"`
}

// DepartureList is a sequence of stop events ordered by planned time
type DepartureList []StopEvent

// StopEventResponse represents the raw JSON for a single stopEvents entry
type StopEventResponse struct {
	Location struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		Properties struct {
			Platform string `json:"platform"`
		} `json:"properties"`
	} `json:"location"`
	DepartureTimePlanned   string `json:"departureTimePlanned"`
	DepartureTimeEstimated string `json:"departureTimeEstimated"`
	Transportation         struct {
		ID               string `json:"id"`
		Name             string `json:"name"`
		Number           string `json:"number"`
		DisassembledName string `json:"disassembledName"`
		Product          struct {
			ID    int    `json:"id"`
			Class int    `json:"class"`
			Name  string `json:"name"`
		} `json:"product"`
		Destination struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"destination"`
	} `json:"transportation"`
}

// StopEventsResponse represents the departure monitor response.
// StopEvents is nil when the field is absent or null.
type StopEventsResponse struct {
	StopEvents []StopEventResponse `json:"stopEvents"`
}

// ToStopEvent converts the raw response to a StopEvent.
// ok is false when the planned time is missing or unparseable.
func (r *StopEventResponse) ToStopEvent(loc *time.Location) (event StopEvent, ok bool) {
	planned, err := ParseTime(r.DepartureTimePlanned, loc)
	if err != nil {
		return StopEvent{}, false
	}

	tt := TransportTypeFromClass(r.Transportation.Product.Class)
	event = StopEvent{
		Planned:            planned,
		TransportationLine: r.line(),
		Direction:          r.Transportation.Destination.Name,
		Icon:               tt.Icon(),
		TransportType:      tt,
		Platform:           r.Location.Properties.Platform,
	}

	if r.DepartureTimeEstimated != "" {
		if est, err := ParseTime(r.DepartureTimeEstimated, loc); err == nil {
			event.Estimated = &est
			event.Delay = int(est.Sub(planned).Minutes())
		}
	}

	return event, true
}

// line picks the shortest human-facing line label the API provides
func (r *StopEventResponse) line() string {
	t := r.Transportation
	switch {
	case t.DisassembledName != "":
		return t.DisassembledName
	case t.Number != "":
		return t.Number
	default:
		return t.Name
	}
}

// Departure returns the estimated time if known, otherwise the planned time
func (e StopEvent) Departure() time.Time {
	if e.Estimated != nil {
		return *e.Estimated
	}
	return e.Planned
}

// HasRealtime reports whether the event carries a real-time estimate
func (e StopEvent) HasRealtime() bool {
	return e.Estimated != nil
}

// ToMap converts the event into the attribute mapping exposed by sensors
func (e StopEvent) ToMap() map[string]any {
	m := map[string]any{
		"planned":             e.Planned.Format(time.RFC3339),
		"estimated":           nil,
		"transportation_line": e.TransportationLine,
		"direction":           e.Direction,
		"icon":                e.Icon,
		"transport_type":      string(e.TransportType),
		"delay":               e.Delay,
	}
	if e.Estimated != nil {
		m["estimated"] = e.Estimated.Format(time.RFC3339)
	}
	if e.Platform != "" {
		m["platform"] = e.Platform
	}
	return m
}

var timeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseTime parses an EFA timestamp. RFC 3339 values keep their offset and
// are converted to loc; values without zone are interpreted in loc.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.UTC
	}

	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t.In(loc), nil
	}

	for _, layout := range timeLayouts {
		if lt, lerr := time.ParseInLocation(layout, s, loc); lerr == nil {
			return lt, nil
		}
	}
	return time.Time{}, err
}
