package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pix-disbursement-service/internal/domain/company"
	"github.com/pix-disbursement-service/internal/domain/installment"
	"github.com/pix-disbursement-service/internal/domain/payment"
	"github.com/pix-disbursement-service/internal/domain/shared"
	"github.com/pix-disbursement-service/internal/itau"
	"github.com/pix-disbursement-service/internal/pix"
)

// Send submits one installment to the gateway. Only draft and failed
// installments are accepted; pending and paid ones are rejected with
// ErrAlreadySent. The payload is persisted before the network call, and the
// outcome transition (pending or failed) is recorded in a second
// transaction so no row lock is held during bank I/O.
func (s *InstallmentService) Send(ctx context.Context, id uuid.UUID) (*installment.Installment, error) {
	var (
		inst     *installment.Installment
		pmt      *payment.Payment
		payload  *pix.TransferPayload
		fromStat shared.PixStatus
	)

	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		installmentRepo := s.installmentRepo.WithTx(tx)
		paymentRepo := s.paymentRepo.WithTx(tx)
		ledgerRepo := s.ledgerRepo.WithTx(tx)

		var err error
		inst, err = installmentRepo.LockForUpdate(ctx, id)
		if err != nil {
			return err
		}
		fromStat = inst.PixStatus
		if !inst.CanSend() {
			return installment.ErrAlreadySent{InstallmentID: inst.ID, Status: inst.PixStatus}
		}

		pmt, err = paymentRepo.LockForUpdate(ctx, inst.PaymentID)
		if err != nil {
			return err
		}
		if pmt.HasExchangeRecord() {
			return installment.ErrAlreadySent{InstallmentID: inst.ID, Status: inst.PixStatus}
		}
		if !pmt.IsPosted() {
			if err := ledgerRepo.MarkPosted(ctx, pmt.EntryID); err != nil {
				return err
			}
			pmt.State = shared.EntryStatePosted
		}

		payload, err = s.buildPayload(ctx, inst, pmt)
		if err != nil {
			return err
		}
		requestJSON, err := marshalPayload(payload)
		if err != nil {
			return shared.WrapInternal(err, "failed to encode transfer payload")
		}

		now := time.Now()
		inst.RecordPayload(requestJSON, now)
		if err := installmentRepo.Update(ctx, inst); err != nil {
			return err
		}
		pmt.Touch(now)
		return paymentRepo.Update(ctx, pmt)
	})
	if err != nil {
		return nil, err
	}

	rec, sendErr := s.gateway.SendTransfer(ctx, itau.SendRequest{
		PaymentID:     pmt.ID,
		InvoiceLineID: pmt.InvoiceLineID,
		Description:   pmt.Memo,
		Payload:       payload,
	})

	now := time.Now()
	txErr := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		installmentRepo := s.installmentRepo.WithTx(tx)
		paymentRepo := s.paymentRepo.WithTx(tx)

		if sendErr != nil {
			inst.MarkFailed(now)
			pmt.PixStatus = shared.PixStatusFailed
		} else {
			inst.MarkPending(rec.TxID, rec.ResponseJSON, now)
			pmt.PixStatus = shared.PixStatusPending
			pmt.ExchangeRecordID = rec.ID
			pmt.PixRawResponse = rec.ResponseJSON
			pmt.LastSyncAt = &now
		}
		if err := installmentRepo.Update(ctx, inst); err != nil {
			return err
		}
		pmt.Touch(now)
		return paymentRepo.Update(ctx, pmt)
	})
	if txErr != nil {
		return nil, shared.WrapInternal(txErr, "failed to record send outcome")
	}

	if sendErr != nil {
		s.recordStatusChange(ctx, inst, fromStat, "transfer send failed")
		s.publishLifecycle(ctx, inst, fromStat, pmt.PixCorrelationID, now)
		return nil, sendErr
	}

	s.recordStatusChange(ctx, inst, fromStat, "transfer accepted by gateway")
	s.publishLifecycle(ctx, inst, fromStat, pmt.PixCorrelationID, now)
	s.logger.Info("installment sent", "installment_id", inst.ID, "txid", inst.PixTxID)
	return inst, nil
}

// buildPayload resolves the payer and payee configuration and assembles the
// transfer body. The payment's journal is preferred as payer; when it has no
// bank account any bank journal of the company with one serves as fallback.
func (s *InstallmentService) buildPayload(ctx context.Context, inst *installment.Installment, pmt *payment.Payment) (*pix.TransferPayload, error) {
	comp, err := s.companyRepo.GetCompany(ctx, inst.CompanyID)
	if err != nil {
		return nil, err
	}

	journal, err := s.companyRepo.GetJournal(ctx, pmt.JournalID)
	if err != nil {
		return nil, err
	}
	if !journal.HasBankAccount() {
		fallback, err := s.companyRepo.FindBankJournalWithAccount(ctx, comp.ID)
		if err != nil {
			return nil, err
		}
		if fallback == nil {
			return nil, shared.NewConfigError("company %s has no bank journal with a configured bank account", comp.ID)
		}
		journal = fallback
	}
	payerAccount, err := s.companyRepo.GetBankAccount(ctx, journal.BankAccountID)
	if err != nil {
		return nil, err
	}

	payee, err := s.companyRepo.GetBankAccount(ctx, pmt.PayeeBankAccountID)
	if err != nil {
		return nil, err
	}

	if payee.PaymentMode == company.PaymentModeBankData {
		pmt.EnsureTxID()
	}
	paymentDate := pmt.Date
	if paymentDate.Before(time.Now().Truncate(24 * time.Hour)) {
		paymentDate = time.Now()
	}

	intent := pix.Intent{
		AmountCents:      pmt.Amount,
		PaymentDate:      paymentDate,
		FreeText:         pmt.Memo,
		CompanyReference: pmt.PaymentReference,
		ReceiptID:        inst.Name,
		TxID:             pmt.PixTxID,
		CorrelationID:    pmt.EnsureCorrelationID(),
	}
	return pix.BuildTransfer(intent, comp, journal, payerAccount, payee)
}
