// Package audit provides structured event logging for conduit lifecycle events.
// Events are stored as JSON Lines (JSONL) files, one per conduit.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/firefly-engineering/conduit-console/internal/config"
)

// EventType classifies a lifecycle event.
type EventType string

const (
	EventCreate  EventType = "create"
	EventStart   EventType = "start"
	EventStop    EventType = "stop"
	EventRestart EventType = "restart"
	EventDestroy EventType = "destroy"
	EventHealth  EventType = "health"
	EventError   EventType = "error"
)

const fileSuffix = ".events.jsonl"

// Event represents a single audit log entry.
type Event struct {
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
	Type       EventType `json:"type" yaml:"type"`
	Conduit    string    `json:"conduit" yaml:"conduit"`
	InstanceID string    `json:"instanceId,omitempty" yaml:"instanceId,omitempty"`
	Details    string    `json:"details,omitempty" yaml:"details,omitempty"`
}

// Logger writes and reads audit events for conduits.
// Events are stored in {eventsDir}/{name}.events.jsonl.
type Logger struct {
	eventsDir string
	mu        sync.Mutex
}

// NewLogger creates a new audit logger rooted at eventsDir.
func NewLogger(eventsDir string) *Logger {
	return &Logger{eventsDir: eventsDir}
}

func (l *Logger) eventPath(conduit string) (string, error) {
	if err := config.ValidateConduitName(conduit); err != nil {
		return "", err
	}
	return filepath.Join(l.eventsDir, conduit+fileSuffix), nil
}

// Log appends an event to the conduit's audit log.
func (l *Logger) Log(event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	path, err := l.eventPath(event.Conduit)
	if err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.eventsDir, 0755); err != nil {
		return fmt.Errorf("failed to create audit log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

// LogEvent is a convenience method that creates and logs an event.
func (l *Logger) LogEvent(eventType EventType, conduit, details string) error {
	return l.Log(Event{
		Timestamp: time.Now(),
		Type:      eventType,
		Conduit:   conduit,
		Details:   details,
	})
}

// Events reads all events for a conduit in chronological order.
func (l *Logger) Events(conduit string) ([]Event, error) {
	path, err := l.eventPath(conduit)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue // Skip malformed lines
		}
		events = append(events, event)
	}

	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("error reading audit log: %w", err)
	}

	return events, nil
}

// Tail returns the last n events for a conduit. n <= 0 returns all.
func (l *Logger) Tail(conduit string, n int) ([]Event, error) {
	events, err := l.Events(conduit)
	if err != nil || n <= 0 || len(events) <= n {
		return events, err
	}
	return events[len(events)-n:], nil
}

// Conduits returns the names of conduits that have an audit log, sorted.
func (l *Logger) Conduits() ([]string, error) {
	entries, err := os.ReadDir(l.eventsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileSuffix) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), fileSuffix)
		if config.ValidateConduitName(name) == nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Remove deletes the audit log for a conduit.
func (l *Logger) Remove(conduit string) error {
	path, err := l.eventPath(conduit)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
