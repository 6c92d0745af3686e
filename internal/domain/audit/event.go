// Package audit defines the append-only audit trail written synchronously on
// every state transition and every token renewal attempt. Events are keyed
// by the entity they describe and never updated.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// EventType classifies audit events
type EventType string

const (
	EventTypeStatusChange EventType = "STATUS_CHANGE"
	EventTypeTokenRenewal EventType = "TOKEN_RENEWAL"
	EventTypeNotification EventType = "NOTIFICATION"
	EventTypeSettlement   EventType = "SETTLEMENT"
)

// Event is one immutable audit trail entry
type Event struct {
	ID         uuid.UUID              `json:"id" bson:"_id"`
	EntityKind string                 `json:"entity_kind" bson:"entity_kind"` // installment, payment, integration
	EntityID   string                 `json:"entity_id" bson:"entity_id"`
	Type       EventType              `json:"type" bson:"type"`
	Outcome    string                 `json:"outcome" bson:"outcome"` // success or failed
	Message    string                 `json:"message" bson:"message"`
	Details    map[string]interface{} `json:"details,omitempty" bson:"details,omitempty"`
	DurationMS int64                  `json:"duration_ms,omitempty" bson:"duration_ms,omitempty"`
	CreatedAt  time.Time              `json:"created_at" bson:"created_at"`
}

// NewEvent creates an audit event stamped with the current time
func NewEvent(entityKind, entityID string, eventType EventType, outcome, message string) *Event {
	return &Event{
		ID:         uuid.New(),
		EntityKind: entityKind,
		EntityID:   entityID,
		Type:       eventType,
		Outcome:    outcome,
		Message:    message,
		CreatedAt:  time.Now(),
	}
}
