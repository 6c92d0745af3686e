// Package exchange records every interaction with the bank gateway: one row
// per send, carrying both raw JSON bodies verbatim for dispute resolution
// and idempotency lookups.
package exchange

import (
	"time"

	"github.com/google/uuid"

	"github.com/pix-disbursement-service/internal/domain/shared"
)

// Record is the persisted trace of a single gateway exchange. Its state is
// tracked independently of the accounting payment state, for audit.
type Record struct {
	ID            uuid.UUID            `json:"id"`
	Name          string               `json:"name"` // receipt identification from the payload
	Description   string               `json:"description"`
	PaymentID     uuid.UUID            `json:"payment_id"`
	InvoiceLineID uuid.UUID            `json:"invoice_line_id"` // uuid.Nil when unknown
	Amount        string               `json:"amount"`          // formatted amount as sent on the wire
	TxID          string               `json:"txid"`
	CorrelationID string               `json:"correlation_id"`
	BankPixID     string               `json:"bank_pix_id"` // cod_pagamento assigned by the bank
	BankStatus    string               `json:"bank_status"` // status_pagamento from the response
	BankType      string               `json:"bank_type"`   // tipo_pagamento from the response
	State         shared.ExchangeState `json:"state"`
	RequestJSON   string               `json:"request_json"`  // pretty-printed, non-ASCII preserved
	ResponseJSON  string               `json:"response_json"` // pretty-printed, non-ASCII preserved
	CreatedAt     time.Time            `json:"created_at"`
}

// ErrRecordNotFound indicates a missing exchange record
type ErrRecordNotFound struct {
	RecordID uuid.UUID
}

func (e ErrRecordNotFound) Error() string {
	return "exchange record not found: " + e.RecordID.String()
}
