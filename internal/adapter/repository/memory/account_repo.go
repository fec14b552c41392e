package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

// GetOrCreate inserts account unless its natural key is taken.
func (r *AccountRepository) GetOrCreate(_ context.Context, tx usecase.Transaction, account *domain.Account) (*domain.Account, bool, error) {
	t, err := r.store.txFrom(tx)
	if err != nil {
		return nil, false, err
	}

	key := account.Key()
	if id, ok := r.store.accountKeys[key]; ok {
		return cloneAccount(r.store.accounts[id]), false, nil
	}
	if _, ok := r.store.accounts[account.ID]; ok {
		return nil, false, fmt.Errorf("memory: duplicate account id %s", account.ID)
	}

	r.store.accounts[account.ID] = cloneAccount(account)
	r.store.accountKeys[key] = account.ID
	t.onRollback(func() {
		delete(r.store.accounts, account.ID)
		delete(r.store.accountKeys, key)
	})

	return cloneAccount(account), true, nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	var account *domain.Account
	err := r.store.withLock(ctx, func() error {
		a, ok := r.store.accounts[id]
		if !ok {
			return domain.ErrAccountNotFound
		}
		account = cloneAccount(a)
		return nil
	})
	return account, err
}

// GetByIDTx retrieves an account inside a transaction.
func (r *AccountRepository) GetByIDTx(_ context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	if _, err := r.store.txFrom(tx); err != nil {
		return nil, err
	}
	a, ok := r.store.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(a), nil
}

// GetByKey retrieves an account by its natural key.
func (r *AccountRepository) GetByKey(ctx context.Context, key domain.AccountKey) (*domain.Account, error) {
	var account *domain.Account
	err := r.store.withLock(ctx, func() error {
		id, ok := r.store.accountKeys[key]
		if !ok {
			return domain.ErrAccountNotFound
		}
		account = cloneAccount(r.store.accounts[id])
		return nil
	})
	return account, err
}

// GetByIDsForUpdate returns the accounts in ascending id order. The transaction
// already holds the store lock.
func (r *AccountRepository) GetByIDsForUpdate(_ context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	if _, err := r.store.txFrom(tx); err != nil {
		return nil, err
	}

	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	accounts := make([]*domain.Account, 0, len(sorted))
	for _, id := range sorted {
		if a, ok := r.store.accounts[id]; ok {
			accounts = append(accounts, cloneAccount(a))
		}
	}
	return accounts, nil
}

// ApplyDelta adds delta to the account balance and bumps its version.
func (r *AccountRepository) ApplyDelta(_ context.Context, tx usecase.Transaction, id string, delta domain.Amount, updatedAt time.Time) (domain.Amount, error) {
	t, err := r.store.txFrom(tx)
	if err != nil {
		return 0, err
	}

	a, ok := r.store.accounts[id]
	if !ok {
		return 0, domain.ErrAccountNotFound
	}

	newBalance, err := a.Balance.Add(delta)
	if err != nil {
		return 0, err
	}

	prev := *a
	a.Balance = newBalance
	a.Version++
	a.UpdatedAt = updatedAt
	t.onRollback(func() { *a = prev })

	return newBalance, nil
}

// List lists accounts ordered by id.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	var accounts []*domain.Account
	err := r.store.withLock(ctx, func() error {
		ids := make([]string, 0, len(r.store.accounts))
		for id := range r.store.accounts {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range page(ids, limit, offset) {
			accounts = append(accounts, cloneAccount(r.store.accounts[id]))
		}
		return nil
	})
	return accounts, err
}
