package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pix-disbursement-service/internal/domain/ledger"
	"github.com/pix-disbursement-service/internal/platform/persistence"
)

// LedgerRepository implements the ledger.Repository interface for PostgreSQL
type LedgerRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewLedgerRepository creates a new PostgreSQL ledger repository
func NewLedgerRepository(logger *slog.Logger, db *persistence.PostgresDB) ledger.Repository {
	return &LedgerRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *LedgerRepository) WithTx(tx pgx.Tx) ledger.Repository {
	return &LedgerRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const lineColumns = `id, entry_id, label, account_id, account_type, debit, credit,
		partner_id, currency, reconciled, due_date`

func scanLine(row pgx.Row) (*ledger.Line, error) {
	var line ledger.Line
	err := row.Scan(
		&line.ID,
		&line.EntryID,
		&line.Label,
		&line.AccountID,
		&line.AccountType,
		&line.Debit,
		&line.Credit,
		&line.PartnerID,
		&line.Currency,
		&line.Reconciled,
		&line.DueDate,
	)
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// PostEntry persists the entry with state posted and all its lines
func (r *LedgerRepository) PostEntry(ctx context.Context, entry *ledger.Entry) (uuid.UUID, error) {
	entryQuery := `
		INSERT INTO ledger_entries (id, ref, journal_id, company_id, state, date, created_at)
		VALUES ($1, $2, $3, $4, 'posted', $5, $6)
	`

	_, err := r.querier.Exec(ctx, entryQuery,
		entry.ID,
		entry.Ref,
		entry.JournalID,
		entry.CompanyID,
		entry.Date,
		entry.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create ledger entry", "error", err)
		return uuid.Nil, fmt.Errorf("failed to create ledger entry: %w", err)
	}

	lineQuery := `
		INSERT INTO ledger_lines (id, entry_id, label, account_id, account_type, debit, credit,
			partner_id, currency, reconciled, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	for _, line := range entry.Lines {
		_, err := r.querier.Exec(ctx, lineQuery,
			line.ID,
			line.EntryID,
			line.Label,
			line.AccountID,
			line.AccountType,
			line.Debit,
			line.Credit,
			line.PartnerID,
			line.Currency,
			line.Reconciled,
			line.DueDate,
		)
		if err != nil {
			r.logger.Error("Failed to create ledger line", "entry_id", entry.ID.String(), "error", err)
			return uuid.Nil, fmt.Errorf("failed to create ledger line: %w", err)
		}
	}

	entry.State = "posted"
	return entry.ID, nil
}

// GetEntry retrieves an entry with its lines
func (r *LedgerRepository) GetEntry(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	entryQuery := `
		SELECT id, ref, journal_id, company_id, state, date, created_at
		FROM ledger_entries
		WHERE id = $1
	`

	var entry ledger.Entry
	err := r.querier.QueryRow(ctx, entryQuery, id).Scan(
		&entry.ID,
		&entry.Ref,
		&entry.JournalID,
		&entry.CompanyID,
		&entry.State,
		&entry.Date,
		&entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrEntryNotFound{EntryID: id}
		}
		r.logger.Error("Failed to get ledger entry", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}

	linesQuery := `
		SELECT ` + lineColumns + `
		FROM ledger_lines
		WHERE entry_id = $1
		ORDER BY debit DESC
	`
	rows, err := r.querier.Query(ctx, linesQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger line: %w", err)
		}
		entry.Lines = append(entry.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger lines: %w", err)
	}

	return &entry, nil
}

// GetLine retrieves a single ledger line
func (r *LedgerRepository) GetLine(ctx context.Context, id uuid.UUID) (*ledger.Line, error) {
	query := `
		SELECT ` + lineColumns + `
		FROM ledger_lines
		WHERE id = $1
	`

	line, err := scanLine(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrLineNotFound{LineID: id}
		}
		r.logger.Error("Failed to get ledger line", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get ledger line: %w", err)
	}

	return line, nil
}

// GetPayableLines returns the unreconciled payable lines of an entry for the
// given partner, largest first
func (r *LedgerRepository) GetPayableLines(ctx context.Context, entryID, partnerID uuid.UUID) ([]*ledger.Line, error) {
	query := `
		SELECT ` + lineColumns + `
		FROM ledger_lines
		WHERE entry_id = $1 AND partner_id = $2 AND account_type = 'liability_payable' AND reconciled = FALSE
		ORDER BY credit - debit DESC
	`

	rows, err := r.querier.Query(ctx, query, entryID, partnerID)
	if err != nil {
		r.logger.Error("Failed to get payable lines", "entry_id", entryID.String(), "error", err)
		return nil, fmt.Errorf("failed to get payable lines: %w", err)
	}
	defer rows.Close()

	var lines []*ledger.Line
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payable line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payable lines: %w", err)
	}

	return lines, nil
}

// MarkPosted flips a draft entry to posted
func (r *LedgerRepository) MarkPosted(ctx context.Context, entryID uuid.UUID) error {
	query := `UPDATE ledger_entries SET state = 'posted' WHERE id = $1`

	result, err := r.querier.Exec(ctx, query, entryID)
	if err != nil {
		r.logger.Error("Failed to post ledger entry", "id", entryID.String(), "error", err)
		return fmt.Errorf("failed to post ledger entry: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ledger.ErrEntryNotFound{EntryID: entryID}
	}

	return nil
}

// Reconcile marks the given lines as reconciled. A line that is already
// reconciled, or whose parent entry is not posted, fails the whole call.
func (r *LedgerRepository) Reconcile(ctx context.Context, lineIDs []uuid.UUID) error {
	for _, lineID := range lineIDs {
		line, err := r.GetLine(ctx, lineID)
		if err != nil {
			return err
		}
		if line.Reconciled {
			return ledger.ErrLineReconciled
		}

		var state string
		err = r.querier.QueryRow(ctx, `SELECT state FROM ledger_entries WHERE id = $1`, line.EntryID).Scan(&state)
		if err != nil {
			return fmt.Errorf("failed to check parent entry state: %w", err)
		}
		if state != "posted" {
			return ledger.ErrEntryNotPosted
		}
	}

	query := `UPDATE ledger_lines SET reconciled = TRUE WHERE id = ANY($1)`
	if _, err := r.querier.Exec(ctx, query, lineIDs); err != nil {
		r.logger.Error("Failed to reconcile ledger lines", "error", err)
		return fmt.Errorf("failed to reconcile ledger lines: %w", err)
	}

	return nil
}
