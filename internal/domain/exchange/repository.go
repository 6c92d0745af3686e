package exchange

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pix-disbursement-service/internal/domain/shared"
)

// Repository defines exchange record persistence operations. The three
// finders back the 409 recovery path and return nil, nil when nothing
// matches, so the client can fall through in preference order.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	FindByPaymentID(ctx context.Context, paymentID uuid.UUID) (*Record, error)
	FindByTxID(ctx context.Context, txid string) (*Record, error)
	FindByCorrelationID(ctx context.Context, correlationID string) (*Record, error)
	UpdateState(ctx context.Context, id uuid.UUID, state shared.ExchangeState) error
	WithTx(tx pgx.Tx) Repository
}
