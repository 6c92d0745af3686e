// Package invoice models the supplier invoice side of the disbursement flow.
// Invoices arrive already posted; this service only reads their payable lines
// to size installments and reconcile payments against them.
package invoice

import (
	"time"

	"github.com/google/uuid"

	"github.com/pix-disbursement-service/internal/domain/shared"
)

// Invoice represents a posted supplier invoice
type Invoice struct {
	ID        uuid.UUID         `json:"id"`
	Name      string            `json:"name"`
	CompanyID uuid.UUID         `json:"company_id"`
	PartnerID uuid.UUID         `json:"partner_id"`
	EntryID   uuid.UUID         `json:"entry_id"` // backing ledger entry
	Currency  string            `json:"currency"`
	State     shared.EntryState `json:"state"`
	DueDate   time.Time         `json:"due_date"`
	CreatedAt time.Time         `json:"created_at"`
}

// IsPosted reports whether the invoice's ledger entry is posted
func (i *Invoice) IsPosted() bool {
	return i.State == shared.EntryStatePosted
}

// ErrInvoiceNotFound indicates a missing invoice
type ErrInvoiceNotFound struct {
	InvoiceID uuid.UUID
}

func (e ErrInvoiceNotFound) Error() string {
	return "invoice not found: " + e.InvoiceID.String()
}
