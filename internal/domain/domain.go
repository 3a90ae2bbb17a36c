// Package domain defines the core types shared across the interpretation
// pipeline: incoming messages, interpreted transaction candidates, staged
// batches and commit results. Structs here carry no I/O.
package domain

import (
	"time"
)

// Kind is the closed set of transaction kinds the pipeline produces.
type Kind string

const (
	KindIncome            Kind = "income"
	KindExpense           Kind = "expense"
	KindTransfer          Kind = "transfer"
	KindCustodyDeposit    Kind = "custody_deposit"
	KindCustodyWithdrawal Kind = "custody_withdrawal"
	KindGoldPurchase      Kind = "gold_purchase"
	KindLoanTaken         Kind = "loan_taken"
	KindLoanRepaid        Kind = "loan_repaid"
)

// IsCustody reports whether the kind affects a custody sub-account.
func (k Kind) IsCustody() bool {
	return k == KindCustodyDeposit || k == KindCustodyWithdrawal
}

// RawMessage is one inbound chat message, immutable once created.
type RawMessage struct {
	ConversationID int64
	SenderID       int64
	SenderName     string
	Text           string
	ReceivedAt     time.Time
}

// Sender identifies who submitted a message or batch.
type Sender struct {
	ID   int64
	Name string
}

// TransactionCandidate is an interpreted, not-yet-committed transaction.
type TransactionCandidate struct {
	Kind     Kind
	Amount   float64
	Currency string

	// Set when the message carried a second amount in another currency.
	AmountReceived   *float64
	CurrencyReceived string
	ExchangeRate     *float64

	Category string

	// CounterpartyCode is the canonical contact code, empty when the
	// free-text name did not resolve; CounterpartyRaw always keeps the
	// original text.
	CounterpartyCode string
	CounterpartyRaw  string

	Description string

	GoldWeight *float64
	GoldKarat  *int64
}

// PendingBatch is one staged set of candidates awaiting a single
// confirm/cancel/edit decision. At most one exists per conversation;
// staging a new one replaces the old.
type PendingBatch struct {
	ConversationID int64
	Candidates     []TransactionCandidate
	SubmittedBy    Sender
	StagedAt       time.Time
	ExpiresAt      time.Time
}

// CommitResult is the per-candidate outcome of committing a batch. It is
// reported back to the user, never persisted.
type CommitResult struct {
	Candidate     TransactionCandidate
	LedgerRowID   string
	Success       bool
	FailureReason string
}
