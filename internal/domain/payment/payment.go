package payment

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pix-disbursement-service/internal/domain/shared"
)

// Payment represents the accounting payment backing one PIX installment.
// TxID and CorrelationID are generated once and never reassigned; the
// exchange record link is at most one per payment, a second send attempt
// must be rejected rather than duplicated.
type Payment struct {
	ID                 uuid.UUID         `json:"id"`
	Name               string            `json:"name"`
	CompanyID          uuid.UUID         `json:"company_id"`
	PartnerID          uuid.UUID         `json:"partner_id"`
	JournalID          uuid.UUID         `json:"journal_id"`
	PayeeBankAccountID uuid.UUID         `json:"payee_bank_account_id"`
	InvoiceID          uuid.UUID         `json:"invoice_id"`
	InvoiceLineID      uuid.UUID         `json:"invoice_line_id"`
	Amount             int64             `json:"amount"` // Stored in cents/minor units
	Currency           string            `json:"currency"`
	Date               time.Time         `json:"date"`
	Memo               string            `json:"memo"`
	PaymentReference   string            `json:"payment_reference"`
	State              shared.EntryState `json:"state"`
	EntryID            uuid.UUID         `json:"entry_id"` // backing ledger entry
	PixTxID            string            `json:"pix_txid"`
	PixCorrelationID   string            `json:"pix_correlation_id"`
	ExchangeRecordID   uuid.UUID         `json:"exchange_record_id"` // uuid.Nil until sent
	PixStatus          shared.PixStatus  `json:"pix_status"`
	PixRawResponse     string            `json:"pix_raw_response"`
	LastSyncAt         *time.Time        `json:"last_sync_at,omitempty"`
	Version            int               `json:"version"` // For optimistic locking
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// TxIDLength is the fixed length of a bank-data PIX transaction id
const TxIDLength = 25

// NewTxID derives a 25-char alphanumeric transaction id from a random UUID
// with the hyphens stripped
func NewTxID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:TxIDLength]
}

// EnsureTxID generates the transaction id on first use and caches it;
// subsequent calls return the same value
func (p *Payment) EnsureTxID() string {
	if p.PixTxID == "" {
		p.PixTxID = NewTxID()
	}
	return p.PixTxID
}

// EnsureCorrelationID generates the idempotency key on first use and caches
// it; subsequent calls return the same value
func (p *Payment) EnsureCorrelationID() string {
	if p.PixCorrelationID == "" {
		p.PixCorrelationID = uuid.New().String()
	}
	return p.PixCorrelationID
}

// Touch bumps the version and update timestamp ahead of a persisted change
func (p *Payment) Touch(now time.Time) {
	p.UpdatedAt = now
	p.Version++
}

// HasExchangeRecord reports whether a gateway exchange is already linked
func (p *Payment) HasExchangeRecord() bool {
	return p.ExchangeRecordID != uuid.Nil
}

// IsPosted reports whether the payment is posted
func (p *Payment) IsPosted() bool {
	return p.State == shared.EntryStatePosted
}

// ErrPaymentNotFound indicates a missing payment
type ErrPaymentNotFound struct {
	PaymentID uuid.UUID
}

func (e ErrPaymentNotFound) Error() string {
	return "payment not found: " + e.PaymentID.String()
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	PaymentID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for payment: " + e.PaymentID.String()
}
