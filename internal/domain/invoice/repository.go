package invoice

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines invoice persistence operations
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	WithTx(tx pgx.Tx) Repository
}
