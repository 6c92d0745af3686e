package postgres

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pix-disbursement-service/internal/domain/installment"
	"github.com/pix-disbursement-service/internal/domain/shared"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func testInstallment() *installment.Installment {
	inst, _ := installment.New(uuid.New(), uuid.New(), uuid.New(), uuid.New(), 50000, "BRL", time.Now().Add(48*time.Hour))
	return inst
}

func installmentRows(inst *installment.Installment) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "name", "invoice_id", "payment_id", "company_id", "partner_id", "amount", "currency",
		"due_date", "pix_status", "pix_txid", "pix_payload", "pix_response", "last_sync_at", "paid_at",
		"version", "created_at", "updated_at",
	}).AddRow(
		inst.ID, inst.Name, inst.InvoiceID, inst.PaymentID, inst.CompanyID, inst.PartnerID, inst.Amount, inst.Currency,
		inst.DueDate, inst.PixStatus, inst.PixTxID, inst.PixPayload, inst.PixResponse, inst.LastSyncAt, inst.PaidAt,
		inst.Version, inst.CreatedAt, inst.UpdatedAt,
	)
}

func TestInstallmentRepository_Create(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &InstallmentRepository{querier: mock, logger: newTestLogger()}
	inst := testInstallment()

	query := `INSERT INTO installments`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(inst.ID, inst.Name, inst.InvoiceID, inst.PaymentID, inst.CompanyID, inst.PartnerID,
				inst.Amount, inst.Currency, inst.DueDate, inst.PixStatus, inst.PixTxID, inst.PixPayload,
				inst.PixResponse, inst.LastSyncAt, inst.PaidAt, inst.Version, inst.CreatedAt, inst.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.Create(ctx, inst)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		expectedErr := errors.New("db error")
		mock.ExpectExec(query).
			WithArgs(inst.ID, inst.Name, inst.InvoiceID, inst.PaymentID, inst.CompanyID, inst.PartnerID,
				inst.Amount, inst.Currency, inst.DueDate, inst.PixStatus, inst.PixTxID, inst.PixPayload,
				inst.PixResponse, inst.LastSyncAt, inst.PaidAt, inst.Version, inst.CreatedAt, inst.UpdatedAt).
			WillReturnError(expectedErr)

		err := repo.Create(ctx, inst)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create installment")
		assert.ErrorIs(t, err, expectedErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInstallmentRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &InstallmentRepository{querier: mock, logger: newTestLogger()}
	inst := testInstallment()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM installments`).
			WithArgs(inst.ID).
			WillReturnRows(installmentRows(inst))

		got, err := repo.GetByID(ctx, inst.ID)
		require.NoError(t, err)
		assert.Equal(t, inst.ID, got.ID)
		assert.Equal(t, shared.PixStatusDraft, got.PixStatus)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		missingID := uuid.New()
		mock.ExpectQuery(`SELECT (.+) FROM installments`).
			WithArgs(missingID).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetByID(ctx, missingID)
		assert.ErrorIs(t, err, installment.ErrInstallmentNotFound{InstallmentID: missingID})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInstallmentRepository_Update_OptimisticLock(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &InstallmentRepository{querier: mock, logger: newTestLogger()}
	inst := testInstallment()
	inst.MarkPending("1234567890abcdef123456789", `{"status_pagamento": "processando"}`, time.Now())

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE installments`).
			WithArgs(inst.Name, inst.PixStatus, inst.PixTxID, inst.PixPayload, inst.PixResponse,
				inst.LastSyncAt, inst.PaidAt, inst.Version, inst.UpdatedAt, inst.ID, inst.Version-1).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.Update(ctx, inst)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version", func(t *testing.T) {
		mock.ExpectExec(`UPDATE installments`).
			WithArgs(inst.Name, inst.PixStatus, inst.PixTxID, inst.PixPayload, inst.PixResponse,
				inst.LastSyncAt, inst.PaidAt, inst.Version, inst.UpdatedAt, inst.ID, inst.Version-1).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.Update(ctx, inst)
		assert.ErrorIs(t, err, installment.ErrConcurrentModification{InstallmentID: inst.ID})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInstallmentRepository_MarkPaidIfNot(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &InstallmentRepository{querier: mock, logger: newTestLogger()}
	inst := testInstallment()

	t.Run("transitions once", func(t *testing.T) {
		mock.ExpectExec(`UPDATE installments`).
			WithArgs(shared.PixStatusPaid, inst.ID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		ok, err := repo.MarkPaidIfNot(ctx, inst.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already paid is a no-op", func(t *testing.T) {
		paid := testInstallment()
		require.NoError(t, paid.MarkPaid(time.Now()))

		mock.ExpectExec(`UPDATE installments`).
			WithArgs(shared.PixStatusPaid, paid.ID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectQuery(`SELECT (.+) FROM installments`).
			WithArgs(paid.ID).
			WillReturnRows(installmentRows(paid))

		ok, err := repo.MarkPaidIfNot(ctx, paid.ID)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInstallmentRepository_ListByStatus(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &InstallmentRepository{querier: mock, logger: newTestLogger()}
	inst := testInstallment()
	inst.MarkPending("1234567890abcdef123456789", "{}", time.Now())

	mock.ExpectQuery(`SELECT (.+) FROM installments`).
		WithArgs(inst.CompanyID, shared.PixStatusPending, 50).
		WillReturnRows(installmentRows(inst))

	got, err := repo.ListByStatus(ctx, inst.CompanyID, shared.PixStatusPending, 50)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, inst.ID, got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstallmentRepository_Delete(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &InstallmentRepository{querier: mock, logger: newTestLogger()}
	id := uuid.New()

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM installments`).
			WithArgs(id).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		assert.NoError(t, repo.Delete(ctx, id))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM installments`).
			WithArgs(id).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err := repo.Delete(ctx, id)
		assert.ErrorIs(t, err, installment.ErrInstallmentNotFound{InstallmentID: id})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
