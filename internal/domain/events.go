package domain

import "time"

// Event types
const (
	EventTypeTransactionCompleted = "transaction.completed"
	EventTypeTransactionReversed  = "transaction.reversed"
	EventTypeTransactionFailed    = "transaction.failed"
	EventTypeAccountCreated       = "account.created"
)

// Aggregate types
const (
	AggregateTypeTransaction = "transaction"
	AggregateTypeAccount     = "account"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// NewTransactionCompletedEvent builds the payload published after a commit.
func NewTransactionCompletedEvent(txn *Transaction, balances map[string]Amount) map[string]any {
	payload := map[string]any{
		"transaction_id": txn.ID,
		"currency":       txn.Currency,
		"entry_count":    txn.EntryCount,
		"debit_total":    txn.DebitTotal.Int64(),
		"reference_type": txn.ReferenceType,
		"reference_id":   txn.ReferenceID,
	}
	if txn.CompletedAt != nil {
		payload["completed_at"] = txn.CompletedAt.UTC().Format(time.RFC3339Nano)
	}
	if len(balances) > 0 {
		b := make(map[string]any, len(balances))
		for id, amount := range balances {
			b[id] = amount.Int64()
		}
		payload["balances"] = b
	}
	return payload
}

// NewTransactionReversedEvent builds the payload for a reversal.
func NewTransactionReversedEvent(original, reversal *Transaction, reason string) map[string]any {
	return map[string]any{
		"original_transaction_id": original.ID,
		"reversal_transaction_id": reversal.ID,
		"currency":                original.Currency,
		"debit_total":             original.DebitTotal.Int64(),
		"reason":                  reason,
	}
}

// NewTransactionFailedEvent builds the payload for an aborted transaction.
func NewTransactionFailedEvent(txn *Transaction, reason string) map[string]any {
	return map[string]any{
		"transaction_id": txn.ID,
		"currency":       txn.Currency,
		"reason":         reason,
	}
}

// NewAccountCreatedEvent builds the payload for a lazily created account.
func NewAccountCreatedEvent(acc *Account) map[string]any {
	return map[string]any{
		"account_id":   acc.ID,
		"owner_id":     acc.OwnerID,
		"currency":     acc.Currency,
		"class":        string(acc.Class),
		"display_name": acc.DisplayName,
	}
}
