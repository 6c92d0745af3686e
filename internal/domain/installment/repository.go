package installment

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pix-disbursement-service/internal/domain/shared"
)

// Repository defines installment persistence operations
type Repository interface {
	Create(ctx context.Context, inst *Installment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Installment, error)

	// ListByStatus returns installments in the given status, oldest first.
	// Used by the batch sync endpoint to pick up pending installments.
	ListByStatus(ctx context.Context, companyID uuid.UUID, status shared.PixStatus, limit int) ([]*Installment, error)

	// Update persists all mutable fields using optimistic locking.
	// Returns ErrConcurrentModification when the stored version moved.
	Update(ctx context.Context, inst *Installment) error

	// MarkPaidIfNot is the compare-and-set guard for the absorbing paid
	// transition: it sets paid status and paid_at only when the row is not
	// already paid, and reports whether the transition happened. Concurrent
	// sync calls for the same installment see exactly one true result.
	MarkPaidIfNot(ctx context.Context, id uuid.UUID) (bool, error)

	// LockForUpdate obtains a row lock on the installment inside a transaction
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Installment, error)

	Delete(ctx context.Context, id uuid.UUID) error

	WithTx(tx pgx.Tx) Repository
}
