package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *APIError
		wantStr string
	}{
		{
			name:    "with message",
			err:     &APIError{StatusCode: 404, Endpoint: EndpointDepartureMonitor, Message: "stop unknown"},
			wantStr: "API error 404 (/XML_DM_REQUEST): stop unknown",
		},
		{
			name:    "without message",
			err:     &APIError{StatusCode: 503, Status: "503 Service Unavailable", Endpoint: EndpointStopFinder},
			wantStr: "API error 503: 503 Service Unavailable (endpoint: /XML_STOPFINDER_REQUEST)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantStr {
				t.Errorf("Error() = %q, want %q", got, tt.wantStr)
			}
		})
	}
}

func TestAPIError_Is(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		target    error
		wantMatch bool
	}{
		{"404 matches ErrNotFound", 404, ErrNotFound, true},
		{"500 matches ErrServerError", 500, ErrServerError, true},
		{"502 matches ErrServerError", 502, ErrServerError, true},
		{"400 matches ErrInvalidRequest", 400, ErrInvalidRequest, true},
		{"404 does not match ErrServerError", 404, ErrServerError, false},
		{"every status is a network error", 418, ErrNetwork, true},
		{"status errors are not timeouts", 504, ErrTimeout, false},
		{"status errors are not malformed", 500, ErrMalformedResponse, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fmt.Errorf("fetch: %w", NewAPIError(tt.status, "", EndpointDepartureMonitor))
			if got := errors.Is(err, tt.target); got != tt.wantMatch {
				t.Errorf("errors.Is() = %v, want %v", got, tt.wantMatch)
			}
		})
	}
}

func TestNewAPIError(t *testing.T) {
	err := NewAPIError(404, "Not Found", EndpointDepartureMonitor)

	if err.StatusCode != 404 {
		t.Errorf("StatusCode = %d, want 404", err.StatusCode)
	}
	if err.Status != "Not Found" {
		t.Errorf("Status = %q, want %q", err.Status, "Not Found")
	}
	if err.Endpoint != EndpointDepartureMonitor {
		t.Errorf("Endpoint = %q, want %q", err.Endpoint, EndpointDepartureMonitor)
	}
}

func TestMalformedResponseError(t *testing.T) {
	var target map[string]any
	jsonErr := json.Unmarshal([]byte("not json"), &target)
	err := error(&MalformedResponseError{Endpoint: EndpointDepartureMonitor, Err: jsonErr})

	if !errors.Is(err, ErrMalformedResponse) {
		t.Error("expected errors.Is(err, ErrMalformedResponse)")
	}
	if errors.Is(err, ErrNetwork) {
		t.Error("malformed response must not match ErrNetwork")
	}

	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Error("expected the JSON syntax error to be unwrappable")
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("stop_id", "field is required")

	if err.Field != "stop_id" {
		t.Errorf("Field = %q, want %q", err.Field, "stop_id")
	}

	expectedStr := "validation error: stop_id - field is required"
	if err.Error() != expectedStr {
		t.Errorf("Error() = %q, want %q", err.Error(), expectedStr)
	}
	if !errors.Is(err, ErrInvalidRequest) {
		t.Error("expected errors.Is(err, ErrInvalidRequest)")
	}
}

func TestErrMissingField(t *testing.T) {
	err := ErrMissingField("query")

	ve := &ValidationError{}
	if !errors.As(err, &ve) {
		t.Fatal("Expected *ValidationError")
	}
	if ve.Field != "query" {
		t.Errorf("Field = %q, want %q", ve.Field, "query")
	}
}

func TestErrInvalidFormat(t *testing.T) {
	err := ErrInvalidFormat("date", "YYYY-MM-DD")

	ve := &ValidationError{}
	if !errors.As(err, &ve) {
		t.Fatal("Expected *ValidationError")
	}
	if ve.Field != "date" {
		t.Errorf("Field = %q, want %q", ve.Field, "date")
	}
}
