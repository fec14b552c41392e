package domain

import (
	"fmt"
	"time"
)

// TransactionStatus is the lifecycle state of a ledger transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusReversed  TransactionStatus = "reversed"
)

// ParseTransactionStatus parses a stored status value.
func ParseTransactionStatus(s string) (TransactionStatus, error) {
	st := TransactionStatus(s)
	switch st {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusReversed:
		return st, nil
	}
	return "", fmt.Errorf("unknown transaction status %q", s)
}

// IsPosted reports whether entries of a transaction in this status affect balances.
// A reversed transaction stays posted: its reversal carries the compensating entries.
func (s TransactionStatus) IsPosted() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusReversed
}

func (s TransactionStatus) String() string { return string(s) }

// ReferenceTypeReversal tags compensating transactions created by a reversal.
const ReferenceTypeReversal = "reversal"

// ReversalKeyPrefix marks idempotency keys owned by the engine. Callers cannot use it.
const ReversalKeyPrefix = "reversal:"

// ReversalIdempotencyKey is the key reserved for the reversal of a transaction.
func ReversalIdempotencyKey(originalID string) string {
	return ReversalKeyPrefix + originalID
}

// MinEntriesPerTransaction is the smallest entry count that can balance.
const MinEntriesPerTransaction = 2

// Transaction is a unit of work grouping balanced entries.
type Transaction struct {
	ID             string
	Description    string
	ReferenceType  string
	ReferenceID    string
	IdempotencyKey string
	Currency       string
	Status         TransactionStatus
	OccurredAt     time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
	EntryCount     int
	DebitTotal     Amount
	ReversalID     *string
}

// EnsurePending returns ErrInvalidState unless entries may still be changed.
func (t *Transaction) EnsurePending() error {
	if t.Status != TransactionStatusPending {
		return fmt.Errorf("%w: transaction %s is %s", ErrInvalidState, t.ID, t.Status)
	}
	return nil
}

// EnsureCompletable returns ErrAlreadyFinalized unless the transaction is pending.
func (t *Transaction) EnsureCompletable() error {
	if t.Status != TransactionStatusPending {
		return fmt.Errorf("%w: transaction %s is %s", ErrAlreadyFinalized, t.ID, t.Status)
	}
	return nil
}

// EnsureReversible returns ErrNotCompleted unless the transaction is completed.
func (t *Transaction) EnsureReversible() error {
	if t.Status != TransactionStatusCompleted {
		return fmt.Errorf("%w: transaction %s is %s", ErrNotCompleted, t.ID, t.Status)
	}
	return nil
}

// MarkCompleted records the completion totals and flips the status.
func (t *Transaction) MarkCompleted(at time.Time, entryCount int, debitTotal Amount) {
	t.Status = TransactionStatusCompleted
	t.CompletedAt = &at
	t.UpdatedAt = at
	t.EntryCount = entryCount
	t.DebitTotal = debitTotal
}

// MarkFailed flips a pending transaction to failed.
func (t *Transaction) MarkFailed(at time.Time) {
	t.Status = TransactionStatusFailed
	t.UpdatedAt = at
}

// MarkReversed flips a completed transaction to reversed and links its reversal.
func (t *Transaction) MarkReversed(at time.Time, reversalID string) {
	t.Status = TransactionStatusReversed
	t.UpdatedAt = at
	t.ReversalID = &reversalID
}
