package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pix-disbursement-service/internal/domain/payment"
	"github.com/pix-disbursement-service/internal/platform/persistence"
)

// PaymentRepository implements the payment.Repository interface for PostgreSQL
type PaymentRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewPaymentRepository creates a new PostgreSQL payment repository
func NewPaymentRepository(logger *slog.Logger, db *persistence.PostgresDB) payment.Repository {
	return &PaymentRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *PaymentRepository) WithTx(tx pgx.Tx) payment.Repository {
	return &PaymentRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const paymentColumns = `id, name, company_id, partner_id, journal_id, payee_bank_account_id,
		invoice_id, invoice_line_id, amount, currency, date, memo, payment_reference, state,
		entry_id, pix_txid, pix_correlation_id, exchange_record_id, pix_status, pix_raw_response,
		last_sync_at, version, created_at, updated_at`

func scanPayment(row pgx.Row) (*payment.Payment, error) {
	var pmt payment.Payment
	err := row.Scan(
		&pmt.ID,
		&pmt.Name,
		&pmt.CompanyID,
		&pmt.PartnerID,
		&pmt.JournalID,
		&pmt.PayeeBankAccountID,
		&pmt.InvoiceID,
		&pmt.InvoiceLineID,
		&pmt.Amount,
		&pmt.Currency,
		&pmt.Date,
		&pmt.Memo,
		&pmt.PaymentReference,
		&pmt.State,
		&pmt.EntryID,
		&pmt.PixTxID,
		&pmt.PixCorrelationID,
		&pmt.ExchangeRecordID,
		&pmt.PixStatus,
		&pmt.PixRawResponse,
		&pmt.LastSyncAt,
		&pmt.Version,
		&pmt.CreatedAt,
		&pmt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &pmt, nil
}

// Create stores a new payment in the database
func (r *PaymentRepository) Create(ctx context.Context, pmt *payment.Payment) error {
	query := `
		INSERT INTO payments (id, name, company_id, partner_id, journal_id, payee_bank_account_id,
			invoice_id, invoice_line_id, amount, currency, date, memo, payment_reference, state,
			entry_id, pix_txid, pix_correlation_id, exchange_record_id, pix_status, pix_raw_response,
			last_sync_at, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`

	_, err := r.querier.Exec(ctx, query,
		pmt.ID,
		pmt.Name,
		pmt.CompanyID,
		pmt.PartnerID,
		pmt.JournalID,
		pmt.PayeeBankAccountID,
		pmt.InvoiceID,
		pmt.InvoiceLineID,
		pmt.Amount,
		pmt.Currency,
		pmt.Date,
		pmt.Memo,
		pmt.PaymentReference,
		pmt.State,
		pmt.EntryID,
		pmt.PixTxID,
		pmt.PixCorrelationID,
		pmt.ExchangeRecordID,
		pmt.PixStatus,
		pmt.PixRawResponse,
		pmt.LastSyncAt,
		pmt.Version,
		pmt.CreatedAt,
		pmt.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create payment", "error", err)
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// GetByID retrieves a payment by its ID
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE id = $1
	`

	pmt, err := scanPayment(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrPaymentNotFound{PaymentID: id}
		}
		r.logger.Error("Failed to get payment", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return pmt, nil
}

// Update updates an existing payment using optimistic locking
func (r *PaymentRepository) Update(ctx context.Context, pmt *payment.Payment) error {
	query := `
		UPDATE payments
		SET state = $1, pix_txid = $2, pix_correlation_id = $3, exchange_record_id = $4,
			pix_status = $5, pix_raw_response = $6, last_sync_at = $7, version = $8, updated_at = $9
		WHERE id = $10 AND version = $11
	`

	result, err := r.querier.Exec(ctx, query,
		pmt.State,
		pmt.PixTxID,
		pmt.PixCorrelationID,
		pmt.ExchangeRecordID,
		pmt.PixStatus,
		pmt.PixRawResponse,
		pmt.LastSyncAt,
		pmt.Version,
		pmt.UpdatedAt,
		pmt.ID,
		pmt.Version-1, // Check previous version for optimistic locking
	)
	if err != nil {
		r.logger.Error("Failed to update payment", "id", pmt.ID.String(), "error", err)
		return fmt.Errorf("failed to update payment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return payment.ErrConcurrentModification{PaymentID: pmt.ID}
	}

	return nil
}

// LockForUpdate obtains a pessimistic lock on the payment and returns its
// current state. This should be used within a transaction.
func (r *PaymentRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE id = $1
		FOR UPDATE
	`

	pmt, err := scanPayment(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrPaymentNotFound{PaymentID: id}
		}
		r.logger.Error("Failed to lock payment for update", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock payment for update: %w", err)
	}

	return pmt, nil
}
