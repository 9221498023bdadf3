// Package audit provides an append-only JSON-lines record of the changes
// jset makes to devices. Conversions never commit anything, so the only
// events recorded are NETCONF enablement commits.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Event is one auditable action against a device.
type Event struct {
	Timestamp time.Time     `json:"timestamp"`
	User      string        `json:"user"`
	Device    string        `json:"device"`
	Operation string        `json:"operation"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// NewEvent creates an event stamped with the current time.
func NewEvent(user, device, operation string) *Event {
	return &Event{
		Timestamp: time.Now(),
		User:      user,
		Device:    device,
		Operation: operation,
	}
}

// WithSuccess marks the event as successful
func (e *Event) WithSuccess() *Event {
	e.Success = true
	return e
}

// WithError marks the event as failed
func (e *Event) WithError(err error) *Event {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithDuration sets the operation duration
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}

// Logger defines the interface for audit logging backends
type Logger interface {
	Log(event *Event) error
	Close() error
}

// FileLogger appends audit events to a JSON-lines file.
type FileLogger struct {
	file    *os.File
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewFileLogger creates a file-based audit logger, creating parent
// directories as needed.
func NewFileLogger(path string) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating audit log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}

	return &FileLogger{file: file, encoder: json.NewEncoder(file)}, nil
}

// Log appends one event.
func (l *FileLogger) Log(event *Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.encoder.Encode(event)
}

// Close closes the underlying file.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// NopLogger discards all events. Used when no audit path is configured.
type NopLogger struct{}

func (NopLogger) Log(*Event) error { return nil }
func (NopLogger) Close() error     { return nil }
