package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/iho/creditledger/internal/adapter/repository/memory"
	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/infrastructure/metrics"
	"github.com/iho/creditledger/internal/usecase"
)

// seqIDs generates ordered, readable ids.
type seqIDs struct {
	n atomic.Int64
}

func (g *seqIDs) Generate() string {
	return fmt.Sprintf("id-%06d", g.n.Add(1))
}

// testClock is a settable time source.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// flakyAccountRepository fails ApplyDelta for one account id while failing is set.
type flakyAccountRepository struct {
	usecase.AccountRepository
	failFor atomic.Value
}

var errDiskOnFire = errors.New("disk on fire")

func (r *flakyAccountRepository) FailFor(id string) { r.failFor.Store(id) }

func (r *flakyAccountRepository) Heal() { r.failFor.Store("") }

func (r *flakyAccountRepository) ApplyDelta(ctx context.Context, tx usecase.Transaction, id string, delta domain.Amount, updatedAt time.Time) (domain.Amount, error) {
	if failing, _ := r.failFor.Load().(string); failing != "" && failing == id {
		return 0, errDiskOnFire
	}
	return r.AccountRepository.ApplyDelta(ctx, tx, id, delta, updatedAt)
}

type fixture struct {
	store       *memory.Store
	txManager   *memory.TxManager
	accountRepo *flakyAccountRepository
	txnRepo     *memory.TransactionRepository
	entryRepo   *memory.EntryRepository
	index       *memory.IdempotencyIndex
	outbox      *memory.OutboxRepository
	ledgerRepo  *memory.LedgerRepository
	clock       *testClock
	metrics     *metrics.Metrics

	engine   *usecase.TransactionUseCase
	accounts *usecase.AccountUseCase
	posting  *usecase.PostingUseCase
	recon    *usecase.ReconciliationUseCase
	entries  *usecase.EntryUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.New()
	ids := &seqIDs{}
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	clock := newTestClock()

	f := &fixture{
		store:       store,
		txManager:   memory.NewTxManager(store),
		accountRepo: &flakyAccountRepository{AccountRepository: memory.NewAccountRepository(store)},
		txnRepo:     memory.NewTransactionRepository(store),
		entryRepo:   memory.NewEntryRepository(store),
		index:       memory.NewIdempotencyIndex(store),
		outbox:      memory.NewOutboxRepository(store),
		ledgerRepo:  memory.NewLedgerRepository(store),
		clock:       clock,
		metrics:     m,
	}

	f.engine = usecase.NewTransactionUseCase(
		f.txManager, f.accountRepo, f.txnRepo, f.entryRepo, f.index, f.outbox, ids, m,
	).WithClock(clock.Now)
	f.accounts = usecase.NewAccountUseCase(f.txManager, f.accountRepo, f.outbox, ids, m)
	f.posting = usecase.NewPostingUseCase(f.engine, f.accounts, "")
	f.recon = usecase.NewReconciliationUseCase(f.accountRepo, f.txnRepo, f.entryRepo, f.ledgerRepo, m)
	f.entries = usecase.NewEntryUseCase(f.accountRepo, f.entryRepo)

	return f
}

func (f *fixture) account(t *testing.T, owner string, class domain.AccountClass) *domain.Account {
	t.Helper()
	acc, err := f.accounts.GetOrCreate(context.Background(), usecase.GetOrCreateInput{
		OwnerID:  owner,
		Currency: "CREDITS",
		Class:    class,
	})
	require.NoError(t, err)
	return acc
}

func (f *fixture) open(t *testing.T, key string) *domain.Transaction {
	t.Helper()
	res, err := f.engine.Open(context.Background(), usecase.OpenInput{
		IdempotencyKey: key,
		Currency:       "CREDITS",
		Description:    "test " + key,
	})
	require.NoError(t, err)
	return res.Transaction
}

func (f *fixture) addEntry(t *testing.T, txnID, accountID string, amount domain.Amount) *domain.Entry {
	t.Helper()
	e, err := f.engine.AddEntry(context.Background(), usecase.AddEntryInput{
		TransactionID: txnID,
		AccountID:     accountID,
		Amount:        amount,
	})
	require.NoError(t, err)
	return e
}

// post opens, fills and completes a two-leg transaction moving amount from credit to debit.
func (f *fixture) post(t *testing.T, key string, debit, credit *domain.Account, amount domain.Amount) *usecase.CommittedSummary {
	t.Helper()
	txn := f.open(t, key)
	f.addEntry(t, txn.ID, debit.ID, amount)
	f.addEntry(t, txn.ID, credit.ID, -amount)
	summary, err := f.engine.Complete(context.Background(), txn.ID)
	require.NoError(t, err)
	return summary
}

func (f *fixture) balance(t *testing.T, accountID string) domain.Amount {
	t.Helper()
	b, err := f.accounts.GetBalance(context.Background(), accountID)
	require.NoError(t, err)
	return b.Amount
}

func (f *fixture) status(t *testing.T, txnID string) domain.TransactionStatus {
	t.Helper()
	txn, err := f.engine.GetTransaction(context.Background(), txnID)
	require.NoError(t, err)
	return txn.Status
}
