// Package pix builds the SISPAG transfer payloads and the wire-level
// formatting rules the bank gateway enforces (amounts, agencies, documents,
// free text).
package pix

import (
	"time"

	"github.com/pix-disbursement-service/internal/domain/company"
	"github.com/pix-disbursement-service/internal/domain/shared"
)

// Payer is the pagador block present on every transfer, built from the
// paying company, its bank journal and the journal's bank account.
type Payer struct {
	AccountType  string `json:"tipo_conta"`
	Agency       string `json:"agencia"`
	Account      string `json:"conta"`
	PersonType   string `json:"tipo_pessoa"`
	Document     string `json:"documento"`
	SispagModule string `json:"modulo_sispag"`
}

// TransferPayload is the body posted to the SISPAG transfer endpoint.
// Exactly one of Key or the bank routing fields is populated, depending on
// the payee account's payment mode. CorrelationID travels as a header, not
// in the body, but is carried here so the client can fail fast when absent.
type TransferPayload struct {
	Amount      string `json:"valor_pagamento"`
	PaymentDate string `json:"data_pagamento"`

	// key mode
	Key string `json:"chave,omitempty"`

	// bank data mode
	ISPB            string `json:"ispb,omitempty"`
	AccountTypeID   string `json:"tipo_identificacao_conta,omitempty"`
	PayeeAgency     string `json:"agencia_recebedor,omitempty"`
	PayeeAccount    string `json:"conta_recebedor,omitempty"`
	PayeePersonType string `json:"tipo_de_identificacao_do_recebedor,omitempty"`
	PayeeDocument   string `json:"identificacao_recebedor,omitempty"`
	TxID            string `json:"txid,omitempty"`

	FreeText         string `json:"informacoes_entre_usuarios,omitempty"`
	CompanyReference string `json:"referencia_empresa,omitempty"`
	ReceiptID        string `json:"identificacao_comprovante,omitempty"`

	Payer Payer `json:"pagador"`

	CorrelationID string `json:"-"`
}

// defaultSispagModule is used when the journal does not pin one
const defaultSispagModule = "Fornecedores"

// Intent carries the per-transfer inputs the builder combines with the
// company configuration.
type Intent struct {
	AmountCents      int64
	PaymentDate      time.Time
	FreeText         string
	CompanyReference string
	ReceiptID        string
	TxID             string
	CorrelationID    string
}

// BuildTransfer assembles the payload for one transfer. The payee account's
// payment mode selects between the key shape and the bank-data shape.
// Missing company-side data yields configuration errors; missing payee
// routing data does too, since both are fixed by operators, not callers.
func BuildTransfer(intent Intent, payerCompany *company.Company, payerJournal *company.Journal, payerAccount *company.BankAccount, payee *company.BankAccount) (*TransferPayload, error) {
	payer, err := buildPayer(payerCompany, payerJournal, payerAccount)
	if err != nil {
		return nil, err
	}

	p := &TransferPayload{
		Amount:           FormatCents(intent.AmountCents),
		PaymentDate:      intent.PaymentDate.Format("2006-01-02"),
		FreeText:         TruncateFreeText(intent.FreeText),
		CompanyReference: intent.CompanyReference,
		ReceiptID:        intent.ReceiptID,
		Payer:            *payer,
		CorrelationID:    intent.CorrelationID,
	}

	switch payee.PaymentMode {
	case company.PaymentModeKey:
		if payee.PixKey == "" {
			return nil, shared.NewConfigError("payee account %s has payment mode %s but no PIX key", payee.ID, company.PaymentModeKey)
		}
		p.Key = payee.PixKey

	case company.PaymentModeBankData:
		if payee.BankISPB == "" {
			return nil, shared.NewConfigError("payee account %s has payment mode %s but no bank ISPB", payee.ID, company.PaymentModeBankData)
		}
		if intent.TxID == "" {
			return nil, shared.NewValidationError("transfer by bank data requires a txid")
		}
		p.ISPB = payee.BankISPB
		p.AccountTypeID = accountTypeOrDefault(payee.AccountType)
		p.PayeeAgency = StripAgencyZeros(payee.Agency)
		p.PayeeAccount = DigitsOnly(payee.Number + payee.CheckDigit)
		p.PayeePersonType = PersonType(payee.HolderIsCompany)
		p.PayeeDocument = DigitsOnly(payee.HolderDoc)
		p.TxID = intent.TxID

	default:
		return nil, shared.NewConfigError("payee account %s has unknown payment mode %q", payee.ID, payee.PaymentMode)
	}

	return p, nil
}

func buildPayer(c *company.Company, j *company.Journal, acc *company.BankAccount) (*Payer, error) {
	if acc == nil {
		return nil, shared.NewConfigError("journal %s has no bank account configured", j.ID)
	}
	document := DigitsOnly(c.Document)
	if document == "" {
		return nil, shared.NewConfigError("company %s has no document configured", c.ID)
	}

	module := j.SispagModule
	if module == "" {
		module = defaultSispagModule
	}

	return &Payer{
		AccountType:  accountTypeOrDefault(acc.AccountType),
		Agency:       StripAgencyZeros(acc.Agency),
		Account:      DigitsOnly(acc.Number + acc.CheckDigit),
		PersonType:   PersonType(c.IsLegalEntity),
		Document:     document,
		SispagModule: module,
	}, nil
}

func accountTypeOrDefault(accountType string) string {
	if accountType == "" {
		return "CC"
	}
	return accountType
}
