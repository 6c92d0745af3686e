// Package installment holds the core lifecycle entity of the service: one
// disbursed slice of a supplier invoice, tracked from draft through the
// bank-confirmed paid state. All status transitions go through the methods
// here so the invariants live in one place.
package installment

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pix-disbursement-service/internal/domain/shared"
)

// Common errors
var (
	// ErrAlreadyPaid signals an idempotent no-op: the installment was
	// confirmed paid before and must not produce a second settlement entry.
	ErrAlreadyPaid = errors.New("installment is already paid")

	// ErrPaidImmutable guards paid installments against destructive
	// operations; an explicit force flag is the only override.
	ErrPaidImmutable = errors.New("paid installments cannot be deleted")

	ErrInvalidAmount = errors.New("installment amount must be positive")
)

// Installment represents one PIX disbursement slice of an invoice.
// Exactly one payment backs each installment; the link is immutable after
// creation. PaidAt is set exactly once, when the bank confirms the payment.
type Installment struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	InvoiceID   uuid.UUID        `json:"invoice_id"`
	PaymentID   uuid.UUID        `json:"payment_id"`
	CompanyID   uuid.UUID        `json:"company_id"`
	PartnerID   uuid.UUID        `json:"partner_id"`
	Amount      int64            `json:"amount"` // Stored in cents/minor units
	Currency    string           `json:"currency"`
	DueDate     time.Time        `json:"due_date"`
	PixStatus   shared.PixStatus `json:"pix_status"`
	PixTxID     string           `json:"pix_txid,omitempty"`
	PixPayload  string           `json:"pix_payload,omitempty"`  // raw request JSON, audit only
	PixResponse string           `json:"pix_response,omitempty"` // raw response JSON, audit only
	LastSyncAt  *time.Time       `json:"last_sync_at,omitempty"`
	PaidAt      *time.Time       `json:"paid_at,omitempty"`
	Version     int              `json:"version"` // For optimistic locking
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// New creates a draft installment bound to its payment
func New(invoiceID, paymentID, companyID, partnerID uuid.UUID, amount int64, currency string, dueDate time.Time) (*Installment, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	id := uuid.New()
	return &Installment{
		ID:        id,
		Name:      "PIX-" + id.String()[:8],
		InvoiceID: invoiceID,
		PaymentID: paymentID,
		CompanyID: companyID,
		PartnerID: partnerID,
		Amount:    amount,
		Currency:  currency,
		DueDate:   dueDate,
		PixStatus: shared.PixStatusDraft,
		Version:   1,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}, nil
}

// CanSend reports whether a send attempt is allowed from the current status.
// Only draft and failed installments may be sent; pending means a send is
// already in flight and paid is absorbing.
func (i *Installment) CanSend() bool {
	return i.PixStatus == shared.PixStatusDraft || i.PixStatus == shared.PixStatusFailed
}

// ErrAlreadySent reports a rejected duplicate send attempt
type ErrAlreadySent struct {
	InstallmentID uuid.UUID
	Status        shared.PixStatus
}

func (e ErrAlreadySent) Error() string {
	return "installment " + e.InstallmentID.String() + " was already sent, current status: " + string(e.Status)
}

// RecordPayload stores the request body about to go to the gateway. It is
// persisted before the network call so a crash mid-send leaves the evidence.
func (i *Installment) RecordPayload(requestJSON string, now time.Time) {
	i.PixPayload = requestJSON
	i.touch(now)
}

// MarkPending records an accepted send: txid and raw response from the
// gateway, status pending
func (i *Installment) MarkPending(txid, rawResponse string, now time.Time) {
	i.PixTxID = txid
	i.PixResponse = rawResponse
	i.PixStatus = shared.PixStatusPending
	i.LastSyncAt = &now
	i.touch(now)
}

// MarkPaid performs the absorbing paid transition. PaidAt is set exactly
// once; a second call returns ErrAlreadyPaid without mutating anything.
func (i *Installment) MarkPaid(now time.Time) error {
	if i.PixStatus == shared.PixStatusPaid {
		return ErrAlreadyPaid
	}
	i.PixStatus = shared.PixStatusPaid
	i.PaidAt = &now
	i.LastSyncAt = &now
	i.touch(now)
	return nil
}

// MarkFailed records a failed send or a bank-reported non-completion.
// Failed installments may be retried later.
func (i *Installment) MarkFailed(now time.Time) {
	i.PixStatus = shared.PixStatusFailed
	i.LastSyncAt = &now
	i.touch(now)
}

// RecordSync refreshes the poll timestamp without a status transition
func (i *Installment) RecordSync(now time.Time) {
	i.LastSyncAt = &now
	i.touch(now)
}

// EnsureDeletable enforces the paid-immutability invariant. The force flag
// is the explicit administrative override.
func (i *Installment) EnsureDeletable(force bool) error {
	if i.PixStatus == shared.PixStatusPaid && !force {
		return ErrPaidImmutable
	}
	return nil
}

func (i *Installment) touch(now time.Time) {
	i.UpdatedAt = now
	i.Version++
}

// ErrInstallmentNotFound indicates a missing installment
type ErrInstallmentNotFound struct {
	InstallmentID uuid.UUID
}

func (e ErrInstallmentNotFound) Error() string {
	return "installment not found: " + e.InstallmentID.String()
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	InstallmentID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for installment: " + e.InstallmentID.String()
}
