package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository is the posting/reconciliation surface of the accounting
// collaborator. PostEntry validates double-entry balance before persisting;
// Reconcile links payment lines to invoice lines and fails if any line is
// already reconciled or its parent entry is not posted.
type Repository interface {
	// PostEntry persists the entry with state posted and returns its id
	PostEntry(ctx context.Context, entry *Entry) (uuid.UUID, error)

	GetEntry(ctx context.Context, id uuid.UUID) (*Entry, error)
	GetLine(ctx context.Context, id uuid.UUID) (*Line, error)

	// GetPayableLines returns the unreconciled payable lines of an entry for
	// the given partner
	GetPayableLines(ctx context.Context, entryID, partnerID uuid.UUID) ([]*Line, error)

	// MarkPosted flips a draft entry to posted
	MarkPosted(ctx context.Context, entryID uuid.UUID) error

	// Reconcile marks the given lines as reconciled under a shared group id.
	// Fails with ErrLineReconciled / ErrEntryNotPosted when preconditions do
	// not hold; the reconciliation is never undone by later PIX events.
	Reconcile(ctx context.Context, lineIDs []uuid.UUID) error

	WithTx(tx pgx.Tx) Repository
}
