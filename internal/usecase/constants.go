package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// AccountKeyTTL is how long the (owner, currency, class) -> id mapping is cached.
	// Accounts are never deleted so the mapping cannot go stale.
	AccountKeyTTL = 24 * time.Hour

	// DefaultPendingTimeout is how old a pending transaction must be before the sweeper fails it.
	DefaultPendingTimeout = 15 * time.Minute

	// SweepBatchSize bounds the number of transactions failed per sweep.
	SweepBatchSize = 500

	// reconciliationPageSize is the page size used when walking all accounts or transactions.
	reconciliationPageSize = 500
)

// Failure causes recorded on failed transactions and in metrics.
const (
	FailCauseAborted           = "aborted"
	FailCauseAbandoned         = "abandoned"
	FailCauseInsufficientFunds = "insufficient_funds"
)
