package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pix-disbursement-service/internal/domain/audit"
)

// Unlink deletes an installment. Paid installments are immutable and are
// refused unless force is set; the reconciliation and ledger entries created
// at installment creation are left untouched either way.
func (s *InstallmentService) Unlink(ctx context.Context, id uuid.UUID, force bool) error {
	var forced bool

	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		installmentRepo := s.installmentRepo.WithTx(tx)

		inst, err := installmentRepo.LockForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := inst.EnsureDeletable(force); err != nil {
			return err
		}
		forced = inst.PaidAt != nil
		return installmentRepo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	outcome := "success"
	message := "installment deleted"
	if forced {
		message = "paid installment deleted with force flag"
	}
	event := audit.NewEvent("installment", id.String(), audit.EventTypeStatusChange, outcome, message)
	event.Details = map[string]interface{}{"forced": forced, "deleted_at": time.Now()}
	if err := s.auditRepo.Append(ctx, event); err != nil {
		s.logger.Error("failed to append deletion audit event", "installment_id", id, "error", err)
	}

	s.logger.Info("installment deleted", "installment_id", id, "forced", forced)
	return nil
}
