package audit

import (
	"context"
)

// Repository defines the append-only audit trail store
type Repository interface {
	// Append persists an event; events are never updated or deleted
	Append(ctx context.Context, event *Event) error

	// ListByEntity returns the trail for one entity, newest first
	ListByEntity(ctx context.Context, entityKind, entityID string, limit int) ([]*Event, error)
}
