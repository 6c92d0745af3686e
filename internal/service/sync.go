package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pix-disbursement-service/internal/domain/audit"
	"github.com/pix-disbursement-service/internal/domain/installment"
	"github.com/pix-disbursement-service/internal/domain/ledger"
	"github.com/pix-disbursement-service/internal/domain/payment"
	"github.com/pix-disbursement-service/internal/domain/shared"
)

// SyncResult reports the outcome of one status poll
type SyncResult struct {
	InstallmentID    uuid.UUID        `json:"installment_id"`
	BankStatus       string           `json:"bank_status"`
	FromStatus       shared.PixStatus `json:"from_status"`
	ToStatus         shared.PixStatus `json:"to_status"`
	SettlementPosted bool             `json:"settlement_posted"`
}

// Sync polls the bank for the installment's settlement status and applies
// the resulting transition. "efetuado" drives the paid transition through a
// compare-and-set so concurrent syncs post exactly one settlement entry;
// a second sync of a paid installment is an idempotent no-op. "não efetuado"
// marks the installment failed and retryable. Any other status is
// informational and only refreshes the sync timestamp.
func (s *InstallmentService) Sync(ctx context.Context, id uuid.UUID) (*SyncResult, error) {
	inst, err := s.installmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inst.PixTxID == "" {
		return nil, shared.NewValidationError("installment %s has no txid, it was never sent", inst.ID)
	}

	bankStatus, err := s.gateway.PaymentStatus(ctx, inst.PixTxID)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{
		InstallmentID: inst.ID,
		BankStatus:    bankStatus,
		FromStatus:    inst.PixStatus,
		ToStatus:      inst.PixStatus,
	}

	switch bankStatus {
	case shared.BankStatusCompleted:
		return s.applyPaid(ctx, inst, result)
	case shared.BankStatusNotCompleted:
		return s.applyFailed(ctx, inst, result)
	default:
		return s.applyInformational(ctx, inst, result)
	}
}

// applyPaid performs the absorbing paid transition and posts the settlement
// entry, all inside one transaction guarded by the compare-and-set
func (s *InstallmentService) applyPaid(ctx context.Context, inst *installment.Installment, result *SyncResult) (*SyncResult, error) {
	now := time.Now()
	var transitioned bool
	var pmt *payment.Payment

	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		installmentRepo := s.installmentRepo.WithTx(tx)
		paymentRepo := s.paymentRepo.WithTx(tx)
		exchangeRepo := s.exchangeRepo.WithTx(tx)

		ok, err := installmentRepo.MarkPaidIfNot(ctx, inst.ID)
		if err != nil {
			return err
		}
		if !ok {
			// already paid, nothing to post
			return nil
		}
		transitioned = true

		pmt, err = paymentRepo.LockForUpdate(ctx, inst.PaymentID)
		if err != nil {
			return err
		}
		pmt.PixStatus = shared.PixStatusPaid
		pmt.LastSyncAt = &now

		if pmt.HasExchangeRecord() {
			if err := exchangeRepo.UpdateState(ctx, pmt.ExchangeRecordID, shared.ExchangeStatePaid); err != nil {
				return err
			}
		}

		entryID, err := s.postSettlement(ctx, tx, inst, pmt, now)
		if err != nil {
			return err
		}
		s.logger.Info("settlement entry posted", "installment_id", inst.ID, "entry_id", entryID)

		pmt.Touch(now)
		return paymentRepo.Update(ctx, pmt)
	})
	if err != nil {
		return nil, err
	}

	if !transitioned {
		s.logger.Info("installment already paid, sync is a no-op", "installment_id", inst.ID)
		result.FromStatus = shared.PixStatusPaid
		result.ToStatus = shared.PixStatusPaid
		return result, nil
	}

	from := result.FromStatus
	inst.PixStatus = shared.PixStatusPaid
	result.ToStatus = shared.PixStatusPaid
	result.SettlementPosted = true

	s.recordStatusChange(ctx, inst, from, "bank confirmed payment")
	s.recordSettlement(ctx, inst)
	s.publishLifecycle(ctx, inst, from, pmt.PixCorrelationID, now)
	return result, nil
}

// applyFailed marks the installment failed unless it is already paid; paid
// is absorbing and never downgraded by a late bank answer
func (s *InstallmentService) applyFailed(ctx context.Context, inst *installment.Installment, result *SyncResult) (*SyncResult, error) {
	now := time.Now()
	var from shared.PixStatus
	var correlationID string
	var transitioned bool

	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		installmentRepo := s.installmentRepo.WithTx(tx)
		paymentRepo := s.paymentRepo.WithTx(tx)
		exchangeRepo := s.exchangeRepo.WithTx(tx)

		locked, err := installmentRepo.LockForUpdate(ctx, inst.ID)
		if err != nil {
			return err
		}
		from = locked.PixStatus
		if locked.PixStatus == shared.PixStatusPaid {
			return nil
		}

		locked.MarkFailed(now)
		if err := installmentRepo.Update(ctx, locked); err != nil {
			return err
		}
		*inst = *locked
		transitioned = true

		pmt, err := paymentRepo.LockForUpdate(ctx, locked.PaymentID)
		if err != nil {
			return err
		}
		correlationID = pmt.PixCorrelationID
		pmt.PixStatus = shared.PixStatusFailed
		pmt.LastSyncAt = &now
		if pmt.HasExchangeRecord() {
			if err := exchangeRepo.UpdateState(ctx, pmt.ExchangeRecordID, shared.ExchangeStateFailed); err != nil {
				return err
			}
		}
		pmt.Touch(now)
		return paymentRepo.Update(ctx, pmt)
	})
	if err != nil {
		return nil, err
	}

	if !transitioned {
		result.FromStatus = shared.PixStatusPaid
		result.ToStatus = shared.PixStatusPaid
		return result, nil
	}

	result.FromStatus = from
	result.ToStatus = shared.PixStatusFailed
	s.recordStatusChange(ctx, inst, from, "bank reported the payment was not completed")
	s.publishLifecycle(ctx, inst, from, correlationID, now)
	return result, nil
}

// applyInformational refreshes the sync timestamp without any transition
func (s *InstallmentService) applyInformational(ctx context.Context, inst *installment.Installment, result *SyncResult) (*SyncResult, error) {
	now := time.Now()
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		installmentRepo := s.installmentRepo.WithTx(tx)
		locked, err := installmentRepo.LockForUpdate(ctx, inst.ID)
		if err != nil {
			return err
		}
		locked.RecordSync(now)
		return installmentRepo.Update(ctx, locked)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bank status is informational, no transition",
		"installment_id", inst.ID, "bank_status", result.BankStatus)
	return result, nil
}

// postSettlement moves the paid amount out of the transit account into the
// bank journal's default account: debit transit, credit bank, absolute
// amount, tagged with partner and currency
func (s *InstallmentService) postSettlement(ctx context.Context, tx pgx.Tx, inst *installment.Installment, pmt *payment.Payment, now time.Time) (uuid.UUID, error) {
	comp, err := s.companyRepo.GetCompany(ctx, inst.CompanyID)
	if err != nil {
		return uuid.Nil, err
	}
	if comp.TransitAccountID == uuid.Nil {
		return uuid.Nil, shared.NewConfigError("company %s has no PIX transit account configured", comp.ID)
	}
	journal, err := s.companyRepo.GetJournal(ctx, pmt.JournalID)
	if err != nil {
		return uuid.Nil, err
	}
	if journal.DefaultAccountID == uuid.Nil {
		return uuid.Nil, shared.NewConfigError("journal %s has no default account configured", journal.ID)
	}

	amount := pmt.Amount
	if amount < 0 {
		amount = -amount
	}

	debit := &ledger.Line{
		Label:     "PIX settlement " + inst.Name,
		AccountID: comp.TransitAccountID,
		Debit:     amount,
		PartnerID: pmt.PartnerID,
		Currency:  pmt.Currency,
	}
	credit := &ledger.Line{
		Label:     "PIX settlement " + inst.Name,
		AccountID: journal.DefaultAccountID,
		Credit:    amount,
		PartnerID: pmt.PartnerID,
		Currency:  pmt.Currency,
	}
	entry, err := ledger.NewEntry("PIX-SETTLE/"+inst.Name, journal.ID, comp.ID, now, []*ledger.Line{debit, credit})
	if err != nil {
		return uuid.Nil, shared.WrapInternal(err, "failed to build settlement entry")
	}
	return s.ledgerRepo.WithTx(tx).PostEntry(ctx, entry)
}

// recordSettlement appends a SETTLEMENT audit event
func (s *InstallmentService) recordSettlement(ctx context.Context, inst *installment.Installment) {
	event := audit.NewEvent("installment", inst.ID.String(), audit.EventTypeSettlement, "success", "settlement entry posted")
	if err := s.auditRepo.Append(ctx, event); err != nil {
		s.logger.Error("failed to append settlement audit event", "installment_id", inst.ID, "error", err)
	}
}
