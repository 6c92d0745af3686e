package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pix-disbursement-service/internal/domain/audit"
)

const (
	// AuditCollectionName is the name of the audit trail collection in MongoDB
	AuditCollectionName = "audit_events"
)

// AuditRepository implements the audit.Repository interface for MongoDB
type AuditRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewAuditRepository creates a new MongoDB audit repository
func NewAuditRepository(logger *slog.Logger, db *mongo.Database) audit.Repository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Append stores a new audit event. Events are immutable, there is no update path.
func (r *AuditRepository) Append(ctx context.Context, event *audit.Event) error {
	collection := r.db.Collection(AuditCollectionName)

	_, err := collection.InsertOne(ctx, event)
	if err != nil {
		r.logger.Error("Failed to append audit event",
			"entity_kind", event.EntityKind,
			"entity_id", event.EntityID,
			"type", string(event.Type),
			"error", err)
		return fmt.Errorf("failed to append audit event: %w", err)
	}

	return nil
}

// ListByEntity retrieves the audit trail for one entity, newest first
func (r *AuditRepository) ListByEntity(ctx context.Context, entityKind, entityID string, limit int) ([]*audit.Event, error) {
	collection := r.db.Collection(AuditCollectionName)

	filter := bson.M{
		"entity_kind": entityKind,
		"entity_id":   entityID,
	}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list audit events",
			"entity_kind", entityKind,
			"entity_id", entityID,
			"error", err)
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*audit.Event
	if err := cursor.All(ctx, &events); err != nil {
		r.logger.Error("Failed to decode audit events",
			"entity_kind", entityKind,
			"entity_id", entityID,
			"error", err)
		return nil, fmt.Errorf("failed to decode audit events: %w", err)
	}

	return events, nil
}
