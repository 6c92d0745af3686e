package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pix-disbursement-service/internal/domain/invoice"
	"github.com/pix-disbursement-service/internal/platform/persistence"
)

// InvoiceRepository implements the invoice.Repository interface for PostgreSQL
type InvoiceRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewInvoiceRepository creates a new PostgreSQL invoice repository
func NewInvoiceRepository(logger *slog.Logger, db *persistence.PostgresDB) invoice.Repository {
	return &InvoiceRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *InvoiceRepository) WithTx(tx pgx.Tx) invoice.Repository {
	return &InvoiceRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// GetByID retrieves an invoice by its ID
func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	query := `
		SELECT id, name, company_id, partner_id, entry_id, currency, state, due_date, created_at
		FROM invoices
		WHERE id = $1
	`

	var inv invoice.Invoice
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&inv.ID,
		&inv.Name,
		&inv.CompanyID,
		&inv.PartnerID,
		&inv.EntryID,
		&inv.Currency,
		&inv.State,
		&inv.DueDate,
		&inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, invoice.ErrInvoiceNotFound{InvoiceID: id}
		}
		r.logger.Error("Failed to get invoice", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	return &inv, nil
}
