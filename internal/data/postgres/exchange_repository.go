package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pix-disbursement-service/internal/domain/exchange"
	"github.com/pix-disbursement-service/internal/domain/shared"
	"github.com/pix-disbursement-service/internal/platform/persistence"
)

// ExchangeRepository implements the exchange.Repository interface for PostgreSQL
type ExchangeRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewExchangeRepository creates a new PostgreSQL exchange record repository
func NewExchangeRepository(logger *slog.Logger, db *persistence.PostgresDB) exchange.Repository {
	return &ExchangeRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *ExchangeRepository) WithTx(tx pgx.Tx) exchange.Repository {
	return &ExchangeRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const exchangeColumns = `id, name, description, payment_id, invoice_line_id, amount, txid,
		correlation_id, bank_pix_id, bank_status, bank_type, state, request_json, response_json, created_at`

func scanExchangeRecord(row pgx.Row) (*exchange.Record, error) {
	var rec exchange.Record
	err := row.Scan(
		&rec.ID,
		&rec.Name,
		&rec.Description,
		&rec.PaymentID,
		&rec.InvoiceLineID,
		&rec.Amount,
		&rec.TxID,
		&rec.CorrelationID,
		&rec.BankPixID,
		&rec.BankStatus,
		&rec.BankType,
		&rec.State,
		&rec.RequestJSON,
		&rec.ResponseJSON,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Create stores a new exchange record in the database
func (r *ExchangeRepository) Create(ctx context.Context, rec *exchange.Record) error {
	query := `
		INSERT INTO exchange_records (id, name, description, payment_id, invoice_line_id, amount, txid,
			correlation_id, bank_pix_id, bank_status, bank_type, state, request_json, response_json, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.querier.Exec(ctx, query,
		rec.ID,
		rec.Name,
		rec.Description,
		rec.PaymentID,
		rec.InvoiceLineID,
		rec.Amount,
		rec.TxID,
		rec.CorrelationID,
		rec.BankPixID,
		rec.BankStatus,
		rec.BankType,
		rec.State,
		rec.RequestJSON,
		rec.ResponseJSON,
		rec.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create exchange record", "error", err)
		return fmt.Errorf("failed to create exchange record: %w", err)
	}

	return nil
}

// GetByID retrieves an exchange record by its ID
func (r *ExchangeRepository) GetByID(ctx context.Context, id uuid.UUID) (*exchange.Record, error) {
	query := `
		SELECT ` + exchangeColumns + `
		FROM exchange_records
		WHERE id = $1
	`

	rec, err := scanExchangeRecord(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, exchange.ErrRecordNotFound{RecordID: id}
		}
		r.logger.Error("Failed to get exchange record", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get exchange record: %w", err)
	}

	return rec, nil
}

// FindByPaymentID returns the newest exchange record linked to the payment,
// or nil, nil when none exists
func (r *ExchangeRepository) FindByPaymentID(ctx context.Context, paymentID uuid.UUID) (*exchange.Record, error) {
	query := `
		SELECT ` + exchangeColumns + `
		FROM exchange_records
		WHERE payment_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.findOne(ctx, query, paymentID)
}

// FindByTxID returns the exchange record carrying the txid, or nil, nil
func (r *ExchangeRepository) FindByTxID(ctx context.Context, txid string) (*exchange.Record, error) {
	query := `
		SELECT ` + exchangeColumns + `
		FROM exchange_records
		WHERE txid = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.findOne(ctx, query, txid)
}

// FindByCorrelationID returns the exchange record carrying the correlation id,
// or nil, nil
func (r *ExchangeRepository) FindByCorrelationID(ctx context.Context, correlationID string) (*exchange.Record, error) {
	query := `
		SELECT ` + exchangeColumns + `
		FROM exchange_records
		WHERE correlation_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.findOne(ctx, query, correlationID)
}

func (r *ExchangeRepository) findOne(ctx context.Context, query string, arg interface{}) (*exchange.Record, error) {
	rec, err := scanExchangeRecord(r.querier.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Conflict recovery falls through on a miss
		}
		r.logger.Error("Failed to find exchange record", "error", err)
		return nil, fmt.Errorf("failed to find exchange record: %w", err)
	}
	return rec, nil
}

// UpdateState moves an exchange record to a new state
func (r *ExchangeRepository) UpdateState(ctx context.Context, id uuid.UUID, state shared.ExchangeState) error {
	query := `UPDATE exchange_records SET state = $1 WHERE id = $2`

	result, err := r.querier.Exec(ctx, query, state, id)
	if err != nil {
		r.logger.Error("Failed to update exchange record state", "id", id.String(), "error", err)
		return fmt.Errorf("failed to update exchange record state: %w", err)
	}

	if result.RowsAffected() == 0 {
		return exchange.ErrRecordNotFound{RecordID: id}
	}

	return nil
}
