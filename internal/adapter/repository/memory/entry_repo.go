package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	store *Store
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(store *Store) *EntryRepository {
	return &EntryRepository{store: store}
}

// Create inserts an entry.
func (r *EntryRepository) Create(_ context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	t, err := r.store.txFrom(tx)
	if err != nil {
		return err
	}
	if _, ok := r.store.entries[entry.ID]; ok {
		return fmt.Errorf("memory: duplicate entry id %s", entry.ID)
	}
	if _, ok := r.store.transactions[entry.TransactionID]; !ok {
		return domain.ErrTransactionNotFound
	}
	if _, ok := r.store.accounts[entry.AccountID]; !ok {
		return domain.ErrAccountNotFound
	}

	prevByTxn := r.store.entriesByTxn[entry.TransactionID]
	prevByAccount := r.store.entriesByAccount[entry.AccountID]

	r.store.entries[entry.ID] = cloneEntry(entry)
	r.store.entriesByTxn[entry.TransactionID] = append(append([]string(nil), prevByTxn...), entry.ID)
	r.store.entriesByAccount[entry.AccountID] = append(append([]string(nil), prevByAccount...), entry.ID)

	t.onRollback(func() {
		delete(r.store.entries, entry.ID)
		r.store.entriesByTxn[entry.TransactionID] = prevByTxn
		r.store.entriesByAccount[entry.AccountID] = prevByAccount
	})
	return nil
}

// Delete removes an entry of the given transaction.
func (r *EntryRepository) Delete(_ context.Context, tx usecase.Transaction, transactionID, entryID string) error {
	t, err := r.store.txFrom(tx)
	if err != nil {
		return err
	}
	entry, ok := r.store.entries[entryID]
	if !ok || entry.TransactionID != transactionID {
		return domain.ErrEntryNotFound
	}

	prevByTxn := r.store.entriesByTxn[transactionID]
	prevByAccount := r.store.entriesByAccount[entry.AccountID]

	delete(r.store.entries, entryID)
	r.store.entriesByTxn[transactionID] = without(prevByTxn, entryID)
	r.store.entriesByAccount[entry.AccountID] = without(prevByAccount, entryID)

	t.onRollback(func() {
		r.store.entries[entryID] = entry
		r.store.entriesByTxn[transactionID] = prevByTxn
		r.store.entriesByAccount[entry.AccountID] = prevByAccount
	})
	return nil
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func (r *EntryRepository) byTransaction(transactionID string) []*domain.Entry {
	ids := r.store.entriesByTxn[transactionID]
	entries := make([]*domain.Entry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, cloneEntry(r.store.entries[id]))
	}
	return entries
}

// GetByTransactionTx lists a transaction's entries in insertion order inside a transaction.
func (r *EntryRepository) GetByTransactionTx(_ context.Context, tx usecase.Transaction, transactionID string) ([]*domain.Entry, error) {
	if _, err := r.store.txFrom(tx); err != nil {
		return nil, err
	}
	return r.byTransaction(transactionID), nil
}

// GetByTransaction lists a transaction's entries in insertion order.
func (r *EntryRepository) GetByTransaction(ctx context.Context, transactionID string) ([]*domain.Entry, error) {
	var entries []*domain.Entry
	err := r.store.withLock(ctx, func() error {
		entries = r.byTransaction(transactionID)
		return nil
	})
	return entries, err
}

// GetByAccount lists an account's entries, newest first.
func (r *EntryRepository) GetByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	var entries []*domain.Entry
	err := r.store.withLock(ctx, func() error {
		ids := r.store.entriesByAccount[accountID]
		all := make([]*domain.Entry, 0, len(ids))
		for i := len(ids) - 1; i >= 0; i-- {
			all = append(all, cloneEntry(r.store.entries[ids[i]]))
		}
		entries = page(all, limit, offset)
		return nil
	})
	return entries, err
}

// SumPostedByAccount sums the account's entries of completed and reversed transactions.
func (r *EntryRepository) SumPostedByAccount(ctx context.Context, accountID string) (domain.Amount, error) {
	return r.sumPosted(ctx, accountID, nil)
}

// SumPostedByAccountAt sums entries of transactions completed at or before at.
func (r *EntryRepository) SumPostedByAccountAt(ctx context.Context, accountID string, at time.Time) (domain.Amount, error) {
	return r.sumPosted(ctx, accountID, &at)
}

func (r *EntryRepository) sumPosted(ctx context.Context, accountID string, at *time.Time) (domain.Amount, error) {
	var sum domain.Amount
	err := r.store.withLock(ctx, func() error {
		for _, id := range r.store.entriesByAccount[accountID] {
			e := r.store.entries[id]
			if !posted(r.store.transactions[e.TransactionID], at) {
				continue
			}
			var err error
			if sum, err = sum.Add(e.Amount); err != nil {
				return err
			}
		}
		return nil
	})
	return sum, err
}
