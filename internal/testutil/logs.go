package testutil

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"
)

// LogEntry is one decoded zerolog JSON line
type LogEntry map[string]any

// Level returns the entry's level field
func (e LogEntry) Level() string {
	s, _ := e["level"].(string)
	return s
}

// Message returns the entry's message field
func (e LogEntry) Message() string {
	s, _ := e["message"].(string)
	return s
}

// LogEntries decodes every JSON line written to buf
func LogEntries(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()

	var entries []LogEntry
	scanner := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var entry LogEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			t.Fatalf("invalid log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

// CountLevel returns how many entries in buf were logged at level
func CountLevel(t *testing.T, buf *bytes.Buffer, level string) int {
	t.Helper()

	n := 0
	for _, entry := range LogEntries(t, buf) {
		if entry.Level() == level {
			n++
		}
	}
	return n
}
