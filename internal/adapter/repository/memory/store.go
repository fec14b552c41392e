// Package memory is an in-process storage backend. A single store-wide lock
// serialises every storage transaction, which gives the same guarantees the
// postgres backend gets from row locks, at the cost of concurrency.
package memory

import (
	"context"
	"errors"
	"time"

	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/usecase"
)

// ErrTxDone is returned when a committed or rolled back transaction is used again.
var ErrTxDone = errors.New("memory: transaction already committed or rolled back")

// errForeignTx is returned when a repository is handed a transaction it did not create.
var errForeignTx = errors.New("memory: transaction does not belong to this store")

// Store holds every table of the ledger.
type Store struct {
	lock chan struct{}

	accounts    map[string]*domain.Account
	accountKeys map[domain.AccountKey]string

	transactions map[string]*domain.Transaction

	entries          map[string]*domain.Entry
	entriesByTxn     map[string][]string
	entriesByAccount map[string][]string

	idempotency map[string]string

	outbox      map[string]*domain.OutboxEvent
	outboxOrder []string
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		lock:             make(chan struct{}, 1),
		accounts:         make(map[string]*domain.Account),
		accountKeys:      make(map[domain.AccountKey]string),
		transactions:     make(map[string]*domain.Transaction),
		entries:          make(map[string]*domain.Entry),
		entriesByTxn:     make(map[string][]string),
		entriesByAccount: make(map[string][]string),
		idempotency:      make(map[string]string),
		outbox:           make(map[string]*domain.OutboxEvent),
	}
}

// acquire takes the store lock, giving up when ctx is done.
func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release() {
	<-s.lock
}

// withLock runs fn under the store lock outside any storage transaction.
func (s *Store) withLock(ctx context.Context, fn func() error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()
	return fn()
}

// Tx is a storage transaction holding the store lock until Commit or Rollback.
// Mutations record an undo step so Rollback restores the previous state.
type Tx struct {
	store *Store
	undo  []func()
	done  bool
}

// Commit keeps the changes and releases the store lock.
func (t *Tx) Commit(_ context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	t.undo = nil
	t.store.release()
	return nil
}

// Rollback reverts the changes and releases the store lock. It is a no-op after Commit.
func (t *Tx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.done = true
	t.undo = nil
	t.store.release()
	return nil
}

func (t *Tx) onRollback(fn func()) {
	t.undo = append(t.undo, fn)
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin starts a transaction, waiting for the store lock.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := m.store.acquire(ctx); err != nil {
		return nil, err
	}
	return &Tx{store: m.store}, nil
}

// txFrom checks that tx is a live transaction of s.
func (s *Store) txFrom(tx usecase.Transaction) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t.store != s {
		return nil, errForeignTx
	}
	if t.done {
		return nil, ErrTxDone
	}
	return t, nil
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	return &c
}

func cloneTransaction(t *domain.Transaction) *domain.Transaction {
	c := *t
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	if t.ReversalID != nil {
		id := *t.ReversalID
		c.ReversalID = &id
	}
	return &c
}

func cloneEntry(e *domain.Entry) *domain.Entry {
	c := *e
	return &c
}

func cloneEvent(e *domain.OutboxEvent) *domain.OutboxEvent {
	c := *e
	if e.Payload != nil {
		c.Payload = make(map[string]any, len(e.Payload))
		for k, v := range e.Payload {
			c.Payload[k] = v
		}
	}
	if e.PublishedAt != nil {
		at := *e.PublishedAt
		c.PublishedAt = &at
	}
	return &c
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

func posted(t *domain.Transaction, at *time.Time) bool {
	if t == nil || !t.Status.IsPosted() {
		return false
	}
	if at == nil {
		return true
	}
	return t.CompletedAt != nil && !t.CompletedAt.After(*at)
}
