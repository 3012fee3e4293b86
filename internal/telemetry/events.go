// Package telemetry defines the typed event structs that flow over the
// WebSocket connection between fueltraced and its clients. Every event
// shares the base envelope: a type tag, an RFC 3339 nano timestamp, and the
// component that produced it.
package telemetry

import (
	"time"

	"github.com/xodbsdl/fueltrace/internal/eventlog"
	"github.com/xodbsdl/fueltrace/internal/ingest"
	"github.com/xodbsdl/fueltrace/internal/wire"
)

// EventType identifies the kind of WebSocket event.
type EventType string

const (
	EventHeartbeat EventType = "heartbeat"
	EventState     EventType = "state"
	EventSample    EventType = "sample"
	EventStats     EventType = "stats"
	EventLog       EventType = "log"
)

// Event is the base envelope shared by every event type.
type Event struct {
	Type      EventType `json:"type"`
	TS        string    `json:"ts"`
	Component string    `json:"component"`
}

// NewEvent stamps an envelope with the current time.
func NewEvent(t EventType, component string) Event {
	return Event{Type: t, TS: NowTS(), Component: component}
}

// NowTS returns the current UTC time as an RFC 3339 nano string, matching
// the timestamp format used across all events.
func NowTS() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Heartbeat is sent periodically so clients can detect connectivity and
// monitor daemon uptime without polling.
type Heartbeat struct {
	Event
	Running       bool   `json:"running"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	LogLen        int    `json:"log_len"`
	State         string `json:"state"`
}

// StateTransition is emitted when a session starts or stops, or when the
// latest admitted sample moves the refueling process to a new phase.
type StateTransition struct {
	Event
	From string `json:"from"`
	To   string `json:"to"`
}

// SampleEvent carries one admitted telemetry sample, already sequenced and
// timestamped by the ingestion pipeline.
type SampleEvent struct {
	Event
	Sample wire.Sample `json:"sample"`
}

// StatsReport is the periodic counters summary: pipeline totals plus event
// log occupancy.
type StatsReport struct {
	Event
	Ingest ingest.Stats   `json:"ingest"`
	Log    eventlog.Stats `json:"log"`
}

// LogLine carries a human-readable log message at a severity level.
type LogLine struct {
	Event
	Level   string `json:"level"`
	Message string `json:"message"`
}
