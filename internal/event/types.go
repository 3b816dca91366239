package event

import (
	"time"

	"github.com/Iron-Ham/tun2proxyctl/internal/logbook"
	"github.com/Iron-Ham/tun2proxyctl/internal/supervisor/state"
)

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "log.appended", "state.changed").
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string, ts time.Time) baseEvent {
	if ts.IsZero() {
		ts = time.Now()
	}
	return baseEvent{eventType: eventType, timestamp: ts}
}

// LogEvent carries one newly appended log record.
type LogEvent struct {
	baseEvent
	Record logbook.Record
}

// NewLogEvent creates a LogEvent stamped with the record's timestamp.
func NewLogEvent(r logbook.Record) LogEvent {
	return LogEvent{
		baseEvent: newBaseEvent("log.appended", r.Timestamp),
		Record:    r,
	}
}

// LogsClearedEvent is emitted when the log sequence is cleared.
type LogsClearedEvent struct {
	baseEvent
}

// NewLogsClearedEvent creates a LogsClearedEvent.
func NewLogsClearedEvent() LogsClearedEvent {
	return LogsClearedEvent{baseEvent: newBaseEvent("log.cleared", time.Time{})}
}

// StateEvent is emitted whenever the observable RunState changes.
type StateEvent struct {
	baseEvent
	From state.RunState
	To   state.RunState
}

// NewStateEvent creates a StateEvent.
func NewStateEvent(from, to state.RunState) StateEvent {
	return StateEvent{
		baseEvent: newBaseEvent("state.changed", time.Time{}),
		From:      from,
		To:        to,
	}
}

// ConfigReloadedEvent is emitted by the config watcher after the config file
// changed on disk and was successfully re-read.
type ConfigReloadedEvent struct {
	baseEvent
	Path string
}

// NewConfigReloadedEvent creates a ConfigReloadedEvent.
func NewConfigReloadedEvent(path string) ConfigReloadedEvent {
	return ConfigReloadedEvent{
		baseEvent: newBaseEvent("config.reloaded", time.Time{}),
		Path:      path,
	}
}
