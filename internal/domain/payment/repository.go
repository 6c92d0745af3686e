package payment

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines payment persistence operations
type Repository interface {
	Create(ctx context.Context, pmt *Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// Update persists all mutable fields using optimistic locking.
	// Returns ErrConcurrentModification when the stored version moved.
	Update(ctx context.Context, pmt *Payment) error

	// LockForUpdate obtains a row lock on the payment inside a transaction
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Payment, error)

	WithTx(tx pgx.Tx) Repository
}
