package shared

// PixStatus defines the installment lifecycle states.
// Transitions: draft → pending → {paid, failed}; failed → pending on retry.
// paid is absorbing.
type PixStatus string

const (
	PixStatusDraft   PixStatus = "draft"
	PixStatusPending PixStatus = "pending"
	PixStatusPaid    PixStatus = "paid"
	PixStatusFailed  PixStatus = "failed"
)

// ExchangeState tracks the bank-side view of a single gateway interaction,
// independent of the accounting payment state.
type ExchangeState string

const (
	ExchangeStatePending ExchangeState = "pending"
	ExchangeStateSent    ExchangeState = "sent"
	ExchangeStatePaid    ExchangeState = "paid"
	ExchangeStateFailed  ExchangeState = "failed"
)

// EntryState defines ledger entry posting states
type EntryState string

const (
	EntryStateDraft  EntryState = "draft"
	EntryStatePosted EntryState = "posted"
)

// Bank status strings returned by the Itaú status endpoint. Anything else
// is informational only and leaves the installment unchanged.
const (
	BankStatusCompleted    = "efetuado"
	BankStatusNotCompleted = "não efetuado"
)
