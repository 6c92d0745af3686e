// Package postgres provides PostgreSQL implementations of the domain repositories.
// It handles all database operations while maintaining transaction safety and
// proper error handling for the PIX disbursement lifecycle.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pix-disbursement-service/internal/domain/installment"
	"github.com/pix-disbursement-service/internal/domain/shared"
	"github.com/pix-disbursement-service/internal/platform/persistence"
)

// InstallmentRepository implements the installment.Repository interface for PostgreSQL
type InstallmentRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewInstallmentRepository creates a new PostgreSQL installment repository
func NewInstallmentRepository(logger *slog.Logger, db *persistence.PostgresDB) installment.Repository {
	return &InstallmentRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic operations
// across multiple repository calls
func (r *InstallmentRepository) WithTx(tx pgx.Tx) installment.Repository {
	return &InstallmentRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const installmentColumns = `id, name, invoice_id, payment_id, company_id, partner_id, amount, currency,
		due_date, pix_status, pix_txid, pix_payload, pix_response, last_sync_at, paid_at,
		version, created_at, updated_at`

func scanInstallment(row pgx.Row) (*installment.Installment, error) {
	var inst installment.Installment
	err := row.Scan(
		&inst.ID,
		&inst.Name,
		&inst.InvoiceID,
		&inst.PaymentID,
		&inst.CompanyID,
		&inst.PartnerID,
		&inst.Amount,
		&inst.Currency,
		&inst.DueDate,
		&inst.PixStatus,
		&inst.PixTxID,
		&inst.PixPayload,
		&inst.PixResponse,
		&inst.LastSyncAt,
		&inst.PaidAt,
		&inst.Version,
		&inst.CreatedAt,
		&inst.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

// Create stores a new installment in the database
func (r *InstallmentRepository) Create(ctx context.Context, inst *installment.Installment) error {
	query := `
		INSERT INTO installments (id, name, invoice_id, payment_id, company_id, partner_id, amount, currency,
			due_date, pix_status, pix_txid, pix_payload, pix_response, last_sync_at, paid_at,
			version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := r.querier.Exec(ctx, query,
		inst.ID,
		inst.Name,
		inst.InvoiceID,
		inst.PaymentID,
		inst.CompanyID,
		inst.PartnerID,
		inst.Amount,
		inst.Currency,
		inst.DueDate,
		inst.PixStatus,
		inst.PixTxID,
		inst.PixPayload,
		inst.PixResponse,
		inst.LastSyncAt,
		inst.PaidAt,
		inst.Version,
		inst.CreatedAt,
		inst.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create installment", "error", err)
		return fmt.Errorf("failed to create installment: %w", err)
	}

	return nil
}

// GetByID retrieves an installment by its ID
func (r *InstallmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*installment.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE id = $1
	`

	inst, err := scanInstallment(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, installment.ErrInstallmentNotFound{InstallmentID: id}
		}
		r.logger.Error("Failed to get installment", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get installment: %w", err)
	}

	return inst, nil
}

// ListByStatus returns the company's installments in the given status, oldest first
func (r *InstallmentRepository) ListByStatus(ctx context.Context, companyID uuid.UUID, status shared.PixStatus, limit int) ([]*installment.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE company_id = $1 AND pix_status = $2
		ORDER BY created_at ASC
		LIMIT $3
	`

	rows, err := r.querier.Query(ctx, query, companyID, status, limit)
	if err != nil {
		r.logger.Error("Failed to list installments by status", "company_id", companyID.String(), "status", status, "error", err)
		return nil, fmt.Errorf("failed to list installments by status: %w", err)
	}
	defer rows.Close()

	var installments []*installment.Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan installment: %w", err)
		}
		installments = append(installments, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate installments: %w", err)
	}

	return installments, nil
}

// Update updates an existing installment using optimistic locking
func (r *InstallmentRepository) Update(ctx context.Context, inst *installment.Installment) error {
	query := `
		UPDATE installments
		SET name = $1, pix_status = $2, pix_txid = $3, pix_payload = $4, pix_response = $5,
			last_sync_at = $6, paid_at = $7, version = $8, updated_at = $9
		WHERE id = $10 AND version = $11
	`

	result, err := r.querier.Exec(ctx, query,
		inst.Name,
		inst.PixStatus,
		inst.PixTxID,
		inst.PixPayload,
		inst.PixResponse,
		inst.LastSyncAt,
		inst.PaidAt,
		inst.Version,
		inst.UpdatedAt,
		inst.ID,
		inst.Version-1, // Check previous version for optimistic locking
	)
	if err != nil {
		r.logger.Error("Failed to update installment", "id", inst.ID.String(), "error", err)
		return fmt.Errorf("failed to update installment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return installment.ErrConcurrentModification{InstallmentID: inst.ID}
	}

	return nil
}

// MarkPaidIfNot performs the compare-and-set paid transition. The WHERE clause
// excludes rows already paid, so for any number of concurrent callers exactly
// one observes true and paid_at is written once.
func (r *InstallmentRepository) MarkPaidIfNot(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE installments
		SET pix_status = $1, paid_at = NOW(), last_sync_at = NOW(), version = version + 1, updated_at = NOW()
		WHERE id = $2 AND pix_status <> $1
	`

	result, err := r.querier.Exec(ctx, query, shared.PixStatusPaid, id)
	if err != nil {
		r.logger.Error("Failed to mark installment paid", "id", id.String(), "error", err)
		return false, fmt.Errorf("failed to mark installment paid: %w", err)
	}

	if result.RowsAffected() == 0 {
		// either already paid or missing; distinguish for the caller
		if _, err := r.GetByID(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}

	return true, nil
}

// LockForUpdate obtains a pessimistic lock on the installment and returns its
// current state. This should be used within a transaction.
func (r *InstallmentRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*installment.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE id = $1
		FOR UPDATE
	`

	inst, err := scanInstallment(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, installment.ErrInstallmentNotFound{InstallmentID: id}
		}
		r.logger.Error("Failed to lock installment for update", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock installment for update: %w", err)
	}

	return inst, nil
}

// Delete removes an installment
func (r *InstallmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM installments WHERE id = $1`

	result, err := r.querier.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete installment", "id", id.String(), "error", err)
		return fmt.Errorf("failed to delete installment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return installment.ErrInstallmentNotFound{InstallmentID: id}
	}

	return nil
}
