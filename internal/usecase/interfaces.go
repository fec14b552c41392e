package usecase

import (
	"context"
	"time"

	"github.com/iho/creditledger/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	// GetOrCreate inserts account unless one with the same (owner, currency, class) exists.
	// It returns the stored account and whether this call created it.
	GetOrCreate(ctx context.Context, tx Transaction, account *domain.Account) (*domain.Account, bool, error)
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDTx(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	GetByKey(ctx context.Context, key domain.AccountKey) (*domain.Account, error)
	// GetByIDsForUpdate locks the accounts in ascending id order.
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	// ApplyDelta performs balance = balance + delta and returns the new balance.
	ApplyDelta(ctx context.Context, tx Transaction, id string, delta domain.Amount, updatedAt time.Time) (domain.Amount, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// TransactionRepository defines data access for ledger transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, txn *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Transaction, error)
	// Update persists status, timestamps, recorded totals and the reversal link.
	Update(ctx context.Context, tx Transaction, txn *domain.Transaction) error
	ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]*domain.Transaction, error)
	// ListPosted lists completed and reversed transactions ordered by id.
	ListPosted(ctx context.Context, limit, offset int) ([]*domain.Transaction, error)
}

// EntryRepository defines data access for entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.Entry) error
	Delete(ctx context.Context, tx Transaction, transactionID, entryID string) error
	GetByTransactionTx(ctx context.Context, tx Transaction, transactionID string) ([]*domain.Entry, error)
	GetByTransaction(ctx context.Context, transactionID string) ([]*domain.Entry, error)
	GetByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error)
	// SumPostedByAccount sums the account's entries of completed and reversed transactions.
	SumPostedByAccount(ctx context.Context, accountID string) (domain.Amount, error)
	// SumPostedByAccountAt is SumPostedByAccount restricted to transactions completed at or before at.
	SumPostedByAccountAt(ctx context.Context, accountID string, at time.Time) (domain.Amount, error)
}

// CurrencyTotals holds ledger-wide sums for one currency.
type CurrencyTotals struct {
	Currency     string
	AccountCount int64
	BalanceTotal domain.Amount
	EntryTotal   domain.Amount
}

// LedgerRepository defines data access for ledger-wide operations.
type LedgerRepository interface {
	CheckConsistency(ctx context.Context) ([]CurrencyTotals, error)
}

// IdempotencyIndex is the authoritative write-once map from idempotency key to transaction id.
type IdempotencyIndex interface {
	// Reserve records key -> transactionID inside tx. If the key is already taken it
	// returns the existing transaction id and reserved=false.
	Reserve(ctx context.Context, tx Transaction, key, transactionID string, createdAt time.Time) (existingID string, reserved bool, err error)
	Lookup(ctx context.Context, key string) (string, error)
}

// IdempotencyCache is a best-effort fast path in front of IdempotencyIndex.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) (transactionID string, found bool, err error)
	Remember(ctx context.Context, key, transactionID string, ttl time.Duration) error
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage conflicts such as deadlocks.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
