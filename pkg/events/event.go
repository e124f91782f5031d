package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "SESSION_INGESTED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// SessionIngested is emitted when an ingestion request reaches Ready.
func SessionIngested(sessionID string, documents, chunks int) Event {
	return BaseEvent{
		Type: "SESSION_INGESTED",
		Data: map[string]interface{}{
			"session_id": sessionID,
			"documents":  documents,
			"chunks":     chunks,
		},
		OccurredAt: time.Now(),
	}
}

// SweepCompleted is emitted after a retention sweep run.
func SweepCompleted(deleted int64, cutoffMillis int64) Event {
	return BaseEvent{
		Type: "SWEEP_COMPLETED",
		Data: map[string]interface{}{
			"deleted":       deleted,
			"cutoff_millis": cutoffMillis,
		},
		OccurredAt: time.Now(),
	}
}
