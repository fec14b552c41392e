package memory

import (
	"context"
	"time"

	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/usecase"
)

// IdempotencyIndex implements usecase.IdempotencyIndex.
type IdempotencyIndex struct {
	store *Store
}

// NewIdempotencyIndex creates a new IdempotencyIndex.
func NewIdempotencyIndex(store *Store) *IdempotencyIndex {
	return &IdempotencyIndex{store: store}
}

// Reserve binds key to transactionID unless it is already bound.
func (i *IdempotencyIndex) Reserve(_ context.Context, tx usecase.Transaction, key, transactionID string, _ time.Time) (string, bool, error) {
	t, err := i.store.txFrom(tx)
	if err != nil {
		return "", false, err
	}
	if existing, ok := i.store.idempotency[key]; ok {
		return existing, false, nil
	}

	i.store.idempotency[key] = transactionID
	t.onRollback(func() { delete(i.store.idempotency, key) })
	return transactionID, true, nil
}

// Lookup returns the transaction bound to key.
func (i *IdempotencyIndex) Lookup(ctx context.Context, key string) (string, error) {
	var id string
	err := i.store.withLock(ctx, func() error {
		existing, ok := i.store.idempotency[key]
		if !ok {
			return domain.ErrIdempotencyKeyNotFound
		}
		id = existing
		return nil
	})
	return id, err
}
