package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	store *Store
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{store: store}
}

// Create inserts a transaction.
func (r *TransactionRepository) Create(_ context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	t, err := r.store.txFrom(tx)
	if err != nil {
		return err
	}
	if _, ok := r.store.transactions[txn.ID]; ok {
		return fmt.Errorf("memory: duplicate transaction id %s", txn.ID)
	}

	r.store.transactions[txn.ID] = cloneTransaction(txn)
	t.onRollback(func() { delete(r.store.transactions, txn.ID) })
	return nil
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	var txn *domain.Transaction
	err := r.store.withLock(ctx, func() error {
		stored, ok := r.store.transactions[id]
		if !ok {
			return domain.ErrTransactionNotFound
		}
		txn = cloneTransaction(stored)
		return nil
	})
	return txn, err
}

// GetByIDForUpdate retrieves a transaction inside a transaction.
func (r *TransactionRepository) GetByIDForUpdate(_ context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	if _, err := r.store.txFrom(tx); err != nil {
		return nil, err
	}
	stored, ok := r.store.transactions[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return cloneTransaction(stored), nil
}

// Update replaces the mutable fields of a transaction.
func (r *TransactionRepository) Update(_ context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	t, err := r.store.txFrom(tx)
	if err != nil {
		return err
	}
	stored, ok := r.store.transactions[txn.ID]
	if !ok {
		return domain.ErrTransactionNotFound
	}

	prev := cloneTransaction(stored)
	updated := cloneTransaction(txn)
	stored.Status = updated.Status
	stored.UpdatedAt = updated.UpdatedAt
	stored.CompletedAt = updated.CompletedAt
	stored.EntryCount = updated.EntryCount
	stored.DebitTotal = updated.DebitTotal
	stored.ReversalID = updated.ReversalID
	t.onRollback(func() { *stored = *prev })

	return nil
}

// ListPendingBefore lists pending transactions created before the cutoff, oldest first.
func (r *TransactionRepository) ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]*domain.Transaction, error) {
	var result []*domain.Transaction
	err := r.store.withLock(ctx, func() error {
		for _, txn := range r.store.transactions {
			if txn.Status == domain.TransactionStatusPending && txn.CreatedAt.Before(before) {
				result = append(result, cloneTransaction(txn))
			}
		}
		sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
		result = page(result, limit, 0)
		return nil
	})
	return result, err
}

// ListPosted lists completed and reversed transactions ordered by id.
func (r *TransactionRepository) ListPosted(ctx context.Context, limit, offset int) ([]*domain.Transaction, error) {
	var result []*domain.Transaction
	err := r.store.withLock(ctx, func() error {
		for _, txn := range r.store.transactions {
			if txn.Status.IsPosted() {
				result = append(result, cloneTransaction(txn))
			}
		}
		sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
		result = page(result, limit, offset)
		return nil
	})
	return result, err
}
