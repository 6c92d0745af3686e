package handler

import (
	"time"

	"github.com/pix-disbursement-service/internal/domain/installment"
)

// SplitRequest sizes one installment of a disbursement plan
type SplitRequest struct {
	Amount  int64  `json:"amount" binding:"required,gt=0"`
	DueDate string `json:"due_date" binding:"required"`
}

// CreateInstallmentsRequest represents a request to create installments
// against a posted supplier invoice
type CreateInstallmentsRequest struct {
	InvoiceID          string         `json:"invoice_id" binding:"required,uuid"`
	JournalID          string         `json:"journal_id,omitempty" binding:"omitempty,uuid"`
	PayeeBankAccountID string         `json:"payee_bank_account_id" binding:"required,uuid"`
	Memo               string         `json:"memo,omitempty"`
	Splits             []SplitRequest `json:"splits" binding:"required,min=1,dive"`
}

// BatchSyncRequest represents a request to sync all pending installments of a company
type BatchSyncRequest struct {
	CompanyID string `json:"company_id" binding:"required,uuid"`
	Limit     int    `json:"limit,omitempty" binding:"omitempty,min=1,max=500"`
}

// InstallmentResponse represents an installment in API responses
type InstallmentResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	InvoiceID  string     `json:"invoice_id"`
	PaymentID  string     `json:"payment_id"`
	CompanyID  string     `json:"company_id"`
	PartnerID  string     `json:"partner_id"`
	Amount     int64      `json:"amount"`
	Currency   string     `json:"currency"`
	DueDate    string     `json:"due_date"`
	PixStatus  string     `json:"pix_status"`
	PixTxID    string     `json:"pix_txid,omitempty"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
	CreatedAt  string     `json:"created_at"`
	UpdatedAt  string     `json:"updated_at"`
}

// mapInstallmentToResponse maps an installment entity to its response DTO
func mapInstallmentToResponse(inst *installment.Installment) InstallmentResponse {
	return InstallmentResponse{
		ID:         inst.ID.String(),
		Name:       inst.Name,
		InvoiceID:  inst.InvoiceID.String(),
		PaymentID:  inst.PaymentID.String(),
		CompanyID:  inst.CompanyID.String(),
		PartnerID:  inst.PartnerID.String(),
		Amount:     inst.Amount,
		Currency:   inst.Currency,
		DueDate:    inst.DueDate.Format("2006-01-02"),
		PixStatus:  string(inst.PixStatus),
		PixTxID:    inst.PixTxID,
		LastSyncAt: inst.LastSyncAt,
		PaidAt:     inst.PaidAt,
		CreatedAt:  inst.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  inst.UpdatedAt.Format(time.RFC3339),
	}
}
