package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "RECORD_CREATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the plain struct implementation used across the system.
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

// Event type codes emitted by the chat system.
const (
	TypeRecordCreated     = "RECORD_CREATED"
	TypeRecordFailed      = "RECORD_FAILED"
	TypePopupFailed       = "POPUP_FAILED"
	TypeTurnCompleted     = "TURN_COMPLETED"
	TypeTurnFailed        = "TURN_FAILED"
	TypeRetrievalDegraded = "RETRIEVAL_DEGRADED"
)
