package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pix-disbursement-service/internal/domain/company"
	"github.com/pix-disbursement-service/internal/domain/installment"
	"github.com/pix-disbursement-service/internal/domain/ledger"
	"github.com/pix-disbursement-service/internal/domain/payment"
	"github.com/pix-disbursement-service/internal/domain/shared"
)

// InstallmentSplit sizes one installment of a disbursement plan
type InstallmentSplit struct {
	Amount  int64
	DueDate time.Time
}

// CreateInstallmentsRequest creates one installment per split against a
// posted supplier invoice. JournalID falls back to the company's PIX journal
// when zero.
type CreateInstallmentsRequest struct {
	InvoiceID          uuid.UUID
	JournalID          uuid.UUID
	PayeeBankAccountID uuid.UUID
	Memo               string
	Splits             []InstallmentSplit
}

// CreateInstallments validates the invoice and company configuration, posts
// one payment entry per split (debit payable, credit transit) reconciled
// against the invoice's payable lines, and creates the draft installments.
// Everything happens in one transaction; the reconciliation performed here
// is never undone by later PIX events.
func (s *InstallmentService) CreateInstallments(ctx context.Context, req CreateInstallmentsRequest) ([]*installment.Installment, error) {
	if len(req.Splits) == 0 {
		return nil, shared.NewValidationError("at least one installment split is required")
	}
	var total int64
	for _, split := range req.Splits {
		if split.Amount <= 0 {
			return nil, shared.NewValidationError("installment amounts must be positive")
		}
		total += split.Amount
	}

	var created []*installment.Installment

	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		invoiceRepo := s.invoiceRepo.WithTx(tx)
		ledgerRepo := s.ledgerRepo.WithTx(tx)
		paymentRepo := s.paymentRepo.WithTx(tx)
		installmentRepo := s.installmentRepo.WithTx(tx)

		inv, err := invoiceRepo.GetByID(ctx, req.InvoiceID)
		if err != nil {
			return err
		}
		if !inv.IsPosted() {
			return shared.NewValidationError("invoice %s is not posted", inv.ID)
		}

		comp, err := s.companyRepo.GetCompany(ctx, inv.CompanyID)
		if err != nil {
			return err
		}
		if comp.TransitAccountID == uuid.Nil {
			return shared.NewConfigError("company %s has no PIX transit account configured", comp.ID)
		}
		if comp.PixJournalID == uuid.Nil {
			return shared.NewConfigError("company %s has no PIX journal configured", comp.ID)
		}

		journalID := req.JournalID
		if journalID == uuid.Nil {
			journalID = comp.PixJournalID
		}
		journal, err := s.companyRepo.GetJournal(ctx, journalID)
		if err != nil {
			return err
		}

		payee, err := s.companyRepo.GetBankAccount(ctx, req.PayeeBankAccountID)
		if err != nil {
			return err
		}

		lines, err := ledgerRepo.GetPayableLines(ctx, inv.EntryID, inv.PartnerID)
		if err != nil {
			return err
		}
		var outstanding int64
		for _, line := range lines {
			outstanding += line.Outstanding()
		}
		if total > outstanding {
			return shared.NewValidationError("requested amount %d exceeds outstanding payable %d on invoice %s", total, outstanding, inv.ID)
		}

		used := make(map[uuid.UUID]bool)
		for _, split := range req.Splits {
			target := pickPayableLine(lines, used, split.Amount)
			if target == nil {
				return shared.NewValidationError("no payable line on invoice %s can absorb an installment of %d", inv.ID, split.Amount)
			}
			used[target.ID] = true

			inst, err := s.createOne(ctx, paymentRepo, ledgerRepo, installmentRepo, inv.ID, inv.Name, comp, journal, payee, target, split, req.Memo)
			if err != nil {
				return err
			}
			created = append(created, inst)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for _, inst := range created {
		s.recordStatusChange(ctx, inst, "", "installment created")
		s.publishLifecycle(ctx, inst, "", "", now)
	}
	return created, nil
}

func (s *InstallmentService) createOne(
	ctx context.Context,
	paymentRepo payment.Repository,
	ledgerRepo ledger.Repository,
	installmentRepo installment.Repository,
	invoiceID uuid.UUID,
	invoiceName string,
	comp *company.Company,
	journal *company.Journal,
	payee *company.BankAccount,
	invoiceLine *ledger.Line,
	split InstallmentSplit,
	memo string,
) (*installment.Installment, error) {
	now := time.Now()
	paymentID := uuid.New()

	debit := &ledger.Line{
		Label:       "PIX " + invoiceName,
		AccountID:   invoiceLine.AccountID,
		AccountType: invoiceLine.AccountType,
		Debit:       split.Amount,
		PartnerID:   invoiceLine.PartnerID,
		Currency:    comp.Currency,
		DueDate:     split.DueDate,
	}
	credit := &ledger.Line{
		Label:     "PIX " + invoiceName,
		AccountID: comp.TransitAccountID,
		Credit:    split.Amount,
		PartnerID: invoiceLine.PartnerID,
		Currency:  comp.Currency,
		DueDate:   split.DueDate,
	}

	entry, err := ledger.NewEntry("PIX/"+invoiceName, journal.ID, comp.ID, now, []*ledger.Line{debit, credit})
	if err != nil {
		return nil, shared.WrapInternal(err, "failed to build payment entry")
	}
	entryID, err := ledgerRepo.PostEntry(ctx, entry)
	if err != nil {
		return nil, err
	}
	if err := ledgerRepo.Reconcile(ctx, []uuid.UUID{invoiceLine.ID, debit.ID}); err != nil {
		return nil, err
	}

	pmt := &payment.Payment{
		ID:                 paymentID,
		Name:               "PIX/" + invoiceName,
		CompanyID:          comp.ID,
		PartnerID:          invoiceLine.PartnerID,
		JournalID:          journal.ID,
		PayeeBankAccountID: payee.ID,
		InvoiceID:          invoiceID,
		InvoiceLineID:      invoiceLine.ID,
		Amount:             split.Amount,
		Currency:           comp.Currency,
		Date:               split.DueDate,
		Memo:               memo,
		PaymentReference:   invoiceName,
		State:              shared.EntryStatePosted,
		EntryID:            entryID,
		PixStatus:          shared.PixStatusDraft,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := paymentRepo.Create(ctx, pmt); err != nil {
		return nil, err
	}

	inst, err := installment.New(invoiceID, pmt.ID, comp.ID, invoiceLine.PartnerID, split.Amount, comp.Currency, split.DueDate)
	if err != nil {
		return nil, shared.NewValidationError("%v", err)
	}
	if err := installmentRepo.Create(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// pickPayableLine returns the first unreconciled line able to absorb the
// amount that was not claimed by an earlier split of the same request
func pickPayableLine(lines []*ledger.Line, used map[uuid.UUID]bool, amount int64) *ledger.Line {
	for _, line := range lines {
		if used[line.ID] || line.Reconciled {
			continue
		}
		if line.Outstanding() >= amount {
			return line
		}
	}
	return nil
}
