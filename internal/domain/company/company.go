// Package company holds the tenant-side configuration records the PIX flow
// depends on: the company itself, its journals, and bank accounts. All of it
// is passed explicitly into the services that need it; nothing is resolved
// from ambient state.
package company

import (
	"github.com/google/uuid"
)

// PaymentMode selects which payload shape the gateway receives
type PaymentMode string

const (
	// PaymentModeKey routes the transfer through a PIX key
	PaymentModeKey PaymentMode = "chave_pix"
	// PaymentModeBankData routes the transfer through full bank routing data
	PaymentModeBankData PaymentMode = "dados_bancarios"
)

// Company represents a tenant. TransitAccountID and PixJournalID must be
// configured before any settlement entry can be created.
type Company struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Document         string    `json:"document"` // CNPJ/CPF, may contain punctuation
	IsLegalEntity    bool      `json:"is_legal_entity"`
	Currency         string    `json:"currency"`
	TransitAccountID uuid.UUID `json:"transit_account_id"`
	PixJournalID     uuid.UUID `json:"pix_journal_id"`
}

// Journal represents an accounting journal. Bank journals carry the payer
// bank account used to build the pagador block of the PIX payload.
type Journal struct {
	ID               uuid.UUID `json:"id"`
	CompanyID        uuid.UUID `json:"company_id"`
	Name             string    `json:"name"`
	Type             string    `json:"type"` // "bank" journals are payer candidates
	DefaultAccountID uuid.UUID `json:"default_account_id"`
	BankAccountID    uuid.UUID `json:"bank_account_id"` // uuid.Nil when not configured
	SispagModule     string    `json:"sispag_module"`
}

// HasBankAccount reports whether the journal carries a configured bank account
func (j *Journal) HasBankAccount() bool {
	return j.BankAccountID != uuid.Nil
}

// BankAccount holds routing data for either side of a transfer. For payee
// accounts the holder fields identify the supplier receiving the PIX.
type BankAccount struct {
	ID              uuid.UUID   `json:"id"`
	HolderName      string      `json:"holder_name"`
	HolderDoc       string      `json:"holder_doc"` // CNPJ/CPF, may contain punctuation
	HolderIsCompany bool        `json:"holder_is_company"`
	BankISPB        string      `json:"bank_ispb"`
	AccountType     string      `json:"account_type"` // CC, CP or PP
	Agency          string      `json:"agency"`
	Number          string      `json:"number"`
	CheckDigit      string      `json:"check_digit"`
	PixKey          string      `json:"pix_key"`
	PixKeyType      string      `json:"pix_key_type"`
	PaymentMode     PaymentMode `json:"payment_mode"`
}

// ErrCompanyNotFound indicates a missing company
type ErrCompanyNotFound struct {
	CompanyID uuid.UUID
}

func (e ErrCompanyNotFound) Error() string {
	return "company not found: " + e.CompanyID.String()
}

// ErrJournalNotFound indicates a missing journal
type ErrJournalNotFound struct {
	JournalID uuid.UUID
}

func (e ErrJournalNotFound) Error() string {
	return "journal not found: " + e.JournalID.String()
}

// ErrBankAccountNotFound indicates a missing bank account
type ErrBankAccountNotFound struct {
	BankAccountID uuid.UUID
}

func (e ErrBankAccountNotFound) Error() string {
	return "bank account not found: " + e.BankAccountID.String()
}
