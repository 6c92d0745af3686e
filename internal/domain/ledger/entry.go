// Package ledger models the accounting collaborator the PIX flow posts into.
// The engine itself (journals, moves, reconciliation primitives) is external
// to this service; only the posting and reconciliation surface the lifecycle
// needs is specified here.
package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrUnbalancedEntry = errors.New("ledger entry debits and credits must balance")
	ErrEmptyEntry      = errors.New("ledger entry must have at least two lines")
	ErrEntryNotPosted  = errors.New("parent ledger entry is not posted")
	ErrLineReconciled  = errors.New("ledger line is already reconciled")
)

// Entry represents a journal entry with its lines
type Entry struct {
	ID        uuid.UUID `json:"id"`
	Ref       string    `json:"ref"`
	JournalID uuid.UUID `json:"journal_id"`
	CompanyID uuid.UUID `json:"company_id"`
	State     string    `json:"state"` // draft or posted
	Date      time.Time `json:"date"`
	Lines     []*Line   `json:"lines"`
	CreatedAt time.Time `json:"created_at"`
}

// Line represents one side of a journal entry. Amounts are stored in
// cents/minor units, exactly one of Debit/Credit is non-zero.
type Line struct {
	ID          uuid.UUID `json:"id"`
	EntryID     uuid.UUID `json:"entry_id"`
	Label       string    `json:"label"`
	AccountID   uuid.UUID `json:"account_id"`
	AccountType string    `json:"account_type"` // e.g. liability_payable
	Debit       int64     `json:"debit"`
	Credit      int64     `json:"credit"`
	PartnerID   uuid.UUID `json:"partner_id"`
	Currency    string    `json:"currency"`
	Reconciled  bool      `json:"reconciled"`
	DueDate     time.Time `json:"due_date"`
}

// NewEntry creates a draft entry after validating double-entry balance
func NewEntry(ref string, journalID, companyID uuid.UUID, date time.Time, lines []*Line) (*Entry, error) {
	if len(lines) < 2 {
		return nil, ErrEmptyEntry
	}

	var debits, credits int64
	for _, line := range lines {
		debits += line.Debit
		credits += line.Credit
	}
	if debits != credits {
		return nil, ErrUnbalancedEntry
	}

	entryID := uuid.New()
	for _, line := range lines {
		if line.ID == uuid.Nil {
			line.ID = uuid.New()
		}
		line.EntryID = entryID
	}

	return &Entry{
		ID:        entryID,
		Ref:       ref,
		JournalID: journalID,
		CompanyID: companyID,
		State:     "draft",
		Date:      date,
		Lines:     lines,
		CreatedAt: time.Now(),
	}, nil
}

// Outstanding returns the unreconciled amount of a payable line
func (l *Line) Outstanding() int64 {
	if l.Reconciled {
		return 0
	}
	if l.Credit > l.Debit {
		return l.Credit - l.Debit
	}
	return l.Debit - l.Credit
}

// ErrEntryNotFound indicates a missing ledger entry
type ErrEntryNotFound struct {
	EntryID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "ledger entry not found: " + e.EntryID.String()
}

// ErrLineNotFound indicates a missing ledger line
type ErrLineNotFound struct {
	LineID uuid.UUID
}

func (e ErrLineNotFound) Error() string {
	return "ledger line not found: " + e.LineID.String()
}
