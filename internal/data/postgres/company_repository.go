package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pix-disbursement-service/internal/domain/company"
	"github.com/pix-disbursement-service/internal/platform/persistence"
)

// CompanyRepository implements the company.Repository interface for PostgreSQL.
// Tenant configuration is read-only from this service's point of view.
type CompanyRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewCompanyRepository creates a new PostgreSQL company repository
func NewCompanyRepository(logger *slog.Logger, db *persistence.PostgresDB) company.Repository {
	return &CompanyRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// GetCompany retrieves a company by its ID
func (r *CompanyRepository) GetCompany(ctx context.Context, id uuid.UUID) (*company.Company, error) {
	query := `
		SELECT id, name, document, is_legal_entity, currency, transit_account_id, pix_journal_id
		FROM companies
		WHERE id = $1
	`

	var comp company.Company
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&comp.ID,
		&comp.Name,
		&comp.Document,
		&comp.IsLegalEntity,
		&comp.Currency,
		&comp.TransitAccountID,
		&comp.PixJournalID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, company.ErrCompanyNotFound{CompanyID: id}
		}
		r.logger.Error("Failed to get company", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	return &comp, nil
}

const journalColumns = `id, company_id, name, type, default_account_id, bank_account_id, sispag_module`

func scanJournal(row pgx.Row) (*company.Journal, error) {
	var j company.Journal
	err := row.Scan(
		&j.ID,
		&j.CompanyID,
		&j.Name,
		&j.Type,
		&j.DefaultAccountID,
		&j.BankAccountID,
		&j.SispagModule,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// GetJournal retrieves a journal by its ID
func (r *CompanyRepository) GetJournal(ctx context.Context, id uuid.UUID) (*company.Journal, error) {
	query := `
		SELECT ` + journalColumns + `
		FROM journals
		WHERE id = $1
	`

	j, err := scanJournal(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, company.ErrJournalNotFound{JournalID: id}
		}
		r.logger.Error("Failed to get journal", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get journal: %w", err)
	}

	return j, nil
}

// GetBankAccount retrieves a bank account by its ID
func (r *CompanyRepository) GetBankAccount(ctx context.Context, id uuid.UUID) (*company.BankAccount, error) {
	query := `
		SELECT id, holder_name, holder_doc, holder_is_company, bank_ispb, account_type,
			agency, number, check_digit, pix_key, pix_key_type, payment_mode
		FROM bank_accounts
		WHERE id = $1
	`

	var acc company.BankAccount
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&acc.ID,
		&acc.HolderName,
		&acc.HolderDoc,
		&acc.HolderIsCompany,
		&acc.BankISPB,
		&acc.AccountType,
		&acc.Agency,
		&acc.Number,
		&acc.CheckDigit,
		&acc.PixKey,
		&acc.PixKeyType,
		&acc.PaymentMode,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, company.ErrBankAccountNotFound{BankAccountID: id}
		}
		r.logger.Error("Failed to get bank account", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get bank account: %w", err)
	}

	return &acc, nil
}

// FindBankJournalWithAccount returns any bank journal of the company carrying
// a configured bank account, or nil, nil when none exists
func (r *CompanyRepository) FindBankJournalWithAccount(ctx context.Context, companyID uuid.UUID) (*company.Journal, error) {
	query := `
		SELECT ` + journalColumns + `
		FROM journals
		WHERE company_id = $1 AND type = 'bank' AND bank_account_id <> $2
		ORDER BY name ASC
		LIMIT 1
	`

	j, err := scanJournal(r.querier.QueryRow(ctx, query, companyID, uuid.Nil))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No payer fallback available
		}
		r.logger.Error("Failed to find bank journal", "company_id", companyID.String(), "error", err)
		return nil, fmt.Errorf("failed to find bank journal: %w", err)
	}

	return j, nil
}
