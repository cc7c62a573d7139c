package execution

import (
	"sync"
	"time"
)

// TimestampLayout formats LogEntry timestamps as wall-clock HH:MM:SS.
const TimestampLayout = "15:04:05"

// Severity classifies a log entry for display.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// LogEntry is one line of the user-facing execution log.
type LogEntry struct {
	Timestamp string   `json:"timestamp"`
	Message   string   `json:"message"`
	Severity  Severity `json:"type"`
}

// NewLogEntry stamps message with the time of day at t.
func NewLogEntry(t time.Time, message string, severity Severity) LogEntry {
	return LogEntry{Timestamp: t.Format(TimestampLayout), Message: message, Severity: severity}
}

// LogBook keeps log entries newest first.
type LogBook struct {
	mu      sync.RWMutex
	entries []LogEntry
}

// Add puts e at the front of the book.
func (b *LogBook) Add(e LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, LogEntry{})
	copy(b.entries[1:], b.entries)
	b.entries[0] = e
}

// Entries returns a copy of the book, newest first.
func (b *LogBook) Entries() []LogEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]LogEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len returns the number of entries.
func (b *LogBook) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Clear empties the book.
func (b *LogBook) Clear() {
	b.mu.Lock()
	b.entries = nil
	b.mu.Unlock()
}
