package company

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines tenant configuration lookups
type Repository interface {
	GetCompany(ctx context.Context, id uuid.UUID) (*Company, error)
	GetJournal(ctx context.Context, id uuid.UUID) (*Journal, error)
	GetBankAccount(ctx context.Context, id uuid.UUID) (*BankAccount, error)

	// FindBankJournalWithAccount returns any bank journal of the company that
	// carries a configured bank account. Used as the payer fallback when the
	// payment's own journal has no bank account. Returns nil, nil when none.
	FindBankJournalWithAccount(ctx context.Context, companyID uuid.UUID) (*Journal, error)
}
