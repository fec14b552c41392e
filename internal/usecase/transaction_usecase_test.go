package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/usecase"
	"github.com/iho/creditledger/internal/usecase/mocks"
)

func TestTransactionUseCase_CompleteAppliesBalances(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.account(t, "user-1", domain.AccountClassAsset)
	revenue := f.account(t, "system", domain.AccountClassRevenue)

	txn := f.open(t, "purchase-1")
	assert.Equal(t, domain.TransactionStatusPending, txn.Status)

	f.addEntry(t, txn.ID, user.ID, 100)
	f.addEntry(t, txn.ID, revenue.ID, -100)

	// Nothing moves while pending.
	assert.Equal(t, domain.Amount(0), f.balance(t, user.ID))
	assert.Equal(t, domain.Amount(0), f.balance(t, revenue.ID))

	summary, err := f.engine.Complete(ctx, txn.ID)
	require.NoError(t, err)

	assert.Equal(t, txn.ID, summary.TransactionID)
	assert.Equal(t, domain.TransactionStatusCompleted, summary.Status)
	assert.Equal(t, 2, summary.EntryCount)
	assert.Equal(t, domain.Amount(100), summary.DebitTotal)
	require.Len(t, summary.Balances, 2)

	assert.Equal(t, domain.Amount(100), f.balance(t, user.ID))
	assert.Equal(t, domain.Amount(-100), f.balance(t, revenue.ID))

	stored, err := f.engine.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusCompleted, stored.Status)
	require.NotNil(t, stored.CompletedAt)
	assert.Equal(t, 2, stored.EntryCount)

	events, err := f.outbox.GetByAggregate(ctx, domain.AggregateTypeTransaction, txn.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventTypeTransactionCompleted, events[0].EventType)

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.TransactionsCompleted))
}

func TestTransactionUseCase_CompleteNetsEntriesPerAccount(t *testing.T) {
	f := newFixture(t)

	a := f.account(t, "user-1", domain.AccountClassAsset)
	b := f.account(t, "system", domain.AccountClassRevenue)

	txn := f.open(t, "netting")
	f.addEntry(t, txn.ID, a.ID, 70)
	f.addEntry(t, txn.ID, a.ID, 30)
	f.addEntry(t, txn.ID, b.ID, -120)
	f.addEntry(t, txn.ID, b.ID, 20)

	summary, err := f.engine.Complete(context.Background(), txn.ID)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.EntryCount)
	assert.Equal(t, domain.Amount(120), summary.DebitTotal)
	require.Len(t, summary.Balances, 2)
	assert.Equal(t, domain.Amount(100), f.balance(t, a.ID))
	assert.Equal(t, domain.Amount(-100), f.balance(t, b.ID))
}

func TestTransactionUseCase_OpenIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.engine.Open(ctx, usecase.OpenInput{IdempotencyKey: "k-1", Currency: "CREDITS"})
	require.NoError(t, err)
	assert.False(t, first.Duplicate)

	second, err := f.engine.Open(ctx, usecase.OpenInput{IdempotencyKey: "k-1", Currency: "credits"})
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Transaction.ID, second.Transaction.ID)

	// A differing request under the same key still resolves to the first transaction.
	third, err := f.engine.Open(ctx, usecase.OpenInput{IdempotencyKey: "k-1", Currency: "USD"})
	require.NoError(t, err)
	assert.True(t, third.Duplicate)
	assert.Equal(t, "CREDITS", third.Transaction.Currency)

	id, err := f.index.Lookup(ctx, "k-1")
	require.NoError(t, err)
	assert.Equal(t, first.Transaction.ID, id)

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.TransactionsOpened))
	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.DuplicateRequests))
}

func TestTransactionUseCase_OpenReturnsFinalizedDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.account(t, "user-1", domain.AccountClassAsset)
	revenue := f.account(t, "system", domain.AccountClassRevenue)
	f.post(t, "done-1", user, revenue, 40)

	again, err := f.engine.Open(ctx, usecase.OpenInput{IdempotencyKey: "done-1", Currency: "CREDITS"})
	require.NoError(t, err)
	assert.True(t, again.Duplicate)
	assert.Equal(t, domain.TransactionStatusCompleted, again.Transaction.Status)

	// The replay changes nothing.
	assert.Equal(t, domain.Amount(40), f.balance(t, user.ID))
}

func TestTransactionUseCase_OpenConcurrentSameKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const workers = 20
	ids := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.engine.Open(ctx, usecase.OpenInput{IdempotencyKey: "race", Currency: "CREDITS"})
			errs[i] = err
			if err == nil {
				ids[i] = res.Transaction.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.TransactionsOpened))
	assert.Equal(t, float64(workers-1), testutil.ToFloat64(f.metrics.DuplicateRequests))
}

func TestTransactionUseCase_OpenValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		input   usecase.OpenInput
		wantErr error
	}{
		{
			name:    "missing key",
			input:   usecase.OpenInput{Currency: "CREDITS"},
			wantErr: domain.ErrInvalidIdempotencyKey,
		},
		{
			name:    "bad currency",
			input:   usecase.OpenInput{IdempotencyKey: "k", Currency: "x"},
			wantErr: domain.ErrInvalidCurrency,
		},
		{
			name:    "reference id without type",
			input:   usecase.OpenInput{IdempotencyKey: "k", Currency: "CREDITS", ReferenceID: "order-1"},
			wantErr: domain.ErrInvalidReference,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.Open(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTransactionUseCase_AddEntryErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.account(t, "user-1", domain.AccountClassAsset)
	revenue := f.account(t, "system", domain.AccountClassRevenue)
	dollars, err := f.accounts.GetOrCreate(ctx, usecase.GetOrCreateInput{
		OwnerID: "user-1", Currency: "USD", Class: domain.AccountClassAsset,
	})
	require.NoError(t, err)

	pending := f.open(t, "pending")
	completed := f.post(t, "completed", user, revenue, 10)

	tests := []struct {
		name    string
		input   usecase.AddEntryInput
		wantErr error
	}{
		{
			name:    "zero amount",
			input:   usecase.AddEntryInput{TransactionID: pending.ID, AccountID: user.ID},
			wantErr: domain.ErrZeroAmount,
		},
		{
			name:    "zero amount is reported before status",
			input:   usecase.AddEntryInput{TransactionID: completed.TransactionID, AccountID: user.ID},
			wantErr: domain.ErrZeroAmount,
		},
		{
			name:    "unknown transaction",
			input:   usecase.AddEntryInput{TransactionID: "nope", AccountID: user.ID, Amount: 5},
			wantErr: domain.ErrTransactionNotFound,
		},
		{
			name:    "unknown account",
			input:   usecase.AddEntryInput{TransactionID: pending.ID, AccountID: "nope", Amount: 5},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name:    "currency mismatch",
			input:   usecase.AddEntryInput{TransactionID: pending.ID, AccountID: dollars.ID, Amount: 5},
			wantErr: domain.ErrCurrencyMismatch,
		},
		{
			name:    "completed transaction",
			input:   usecase.AddEntryInput{TransactionID: completed.TransactionID, AccountID: user.ID, Amount: 5},
			wantErr: domain.ErrInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.AddEntry(ctx, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	entries, err := f.engine.ListEntries(ctx, pending.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTransactionUseCase_AddEntrySetsType(t *testing.T) {
	f := newFixture(t)

	user := f.account(t, "user-1", domain.AccountClassAsset)
	txn := f.open(t, "types")

	debit := f.addEntry(t, txn.ID, user.ID, 15)
	credit := f.addEntry(t, txn.ID, user.ID, -15)

	assert.Equal(t, domain.EntryTypeDebit, debit.Type)
	assert.Equal(t, domain.EntryTypeCredit, credit.Type)
	assert.Equal(t, txn.ID, debit.TransactionID)
}

func TestTransactionUseCase_CompleteUnbalanced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.account(t, "user-1", domain.AccountClassAsset)
	revenue := f.account(t, "system", domain.AccountClassRevenue)

	txn := f.open(t, "unbalanced")
	f.addEntry(t, txn.ID, user.ID, 100)
	f.addEntry(t, txn.ID, revenue.ID, -90)

	_, err := f.engine.Complete(ctx, txn.ID)
	require.ErrorIs(t, err, domain.ErrUnbalanced)

	var unbalanced *domain.UnbalancedError
	require.True(t, errors.As(err, &unbalanced))
	assert.Equal(t, domain.Amount(10), unbalanced.Sum)
	assert.Equal(t, txn.ID, unbalanced.TransactionID)

	assert.Equal(t, domain.TransactionStatusPending, f.status(t, txn.ID))
	assert.Equal(t, domain.Amount(0), f.balance(t, user.ID))
	assert.Equal(t, domain.Amount(0), f.balance(t, revenue.ID))

	// Fixing the entries lets the same transaction complete.
	f.addEntry(t, txn.ID, revenue.ID, -10)
	_, err = f.engine.Complete(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(-100), f.balance(t, revenue.ID))
}

func TestTransactionUseCase_CompleteEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.account(t, "user-1", domain.AccountClassAsset)

	none := f.open(t, "none")
	_, err := f.engine.Complete(ctx, none.ID)
	assert.ErrorIs(t, err, domain.ErrEmptyTransaction)

	one := f.open(t, "one")
	f.addEntry(t, one.ID, user.ID, 5)
	_, err = f.engine.Complete(ctx, one.ID)
	assert.ErrorIs(t, err, domain.ErrEmptyTransaction)

	assert.Equal(t, domain.TransactionStatusPending, f.status(t, none.ID))
}

func TestTransactionUseCase_CompleteTwice(t *testing.T) {
	f := newFixture(t)

	user := f.account(t, "user-1", domain.AccountClassAsset)
	revenue := f.account(t, "system", domain.AccountClassRevenue)
	summary := f.post(t, "twice", user, revenue, 25)

	_, err := f.engine.Complete(context.Background(), summary.TransactionID)
	assert.ErrorIs(t, err, domain.ErrAlreadyFinalized)
	assert.Equal(t, domain.Amount(25), f.balance(t, user.ID))
}

func TestTransactionUseCase_CompleteRollsBackOnStorageFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.account(t, "user-1", domain.AccountClassAsset)
	revenue := f.account(t, "system", domain.AccountClassRevenue)

	txn := f.open(t, "flaky")
	f.addEntry(t, txn.ID, user.ID, 60)
	f.addEntry(t, txn.ID, revenue.ID, -60)

	// Accounts are locked in id order; failing the later one means the
	// earlier delta was already written when the failure hits.
	later := user.ID
	if revenue.ID > later {
		later = revenue.ID
	}
	f.accountRepo.FailFor(later)

	_, err := f.engine.Complete(ctx, txn.ID)
	require.ErrorIs(t, err, domain.ErrStorageFailure)
	assert.ErrorIs(t, err, errDiskOnFire)

	assert.Equal(t, domain.TransactionStatusPending, f.status(t, txn.ID))
	assert.Equal(t, domain.Amount(0), f.balance(t, user.ID))
	assert.Equal(t, domain.Amount(0), f.balance(t, revenue.ID))

	events, err := f.outbox.GetUnpublished(ctx, 100)
	require.NoError(t, err)
	for _, e := range events {
		assert.NotEqual(t, domain.EventTypeTransactionCompleted, e.EventType)
	}

	f.accountRepo.Heal()
	_, err = f.engine.Complete(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(60), f.balance(t, user.ID))
}

func TestTransactionUseCase_CompleteWithGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.account(t, "user-1", domain.AccountClassAsset)
	expense := f.account(t, "system", domain.AccountClassExpense)

	txn := f.open(t, "overdraw")
	f.addEntry(t, txn.ID, expense.ID, 50)
	f.addEntry(t, txn.ID, user.ID, -50)

	_, err := f.engine.CompleteWithGuard(ctx, txn.ID, usecase.NonNegativeGuard)
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	assert.Equal(t, domain.TransactionStatusPending, f.status(t, txn.ID))
	assert.Equal(t, domain.Amount(0), f.balance(t, user.ID))
	assert.Equal(t, domain.Amount(0), f.balance(t, expense.ID))

	// Non-negativity is a policy, not an engine rule.
	_, err = f.engine.Complete(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(-50), f.balance(t, user.ID))
}

func TestNonNegativeGuard(t *testing.T) {
	tests := []struct {
		name       string
		class      domain.AccountClass
		delta      domain.Amount
		newBalance domain.Amount
		wantErr    bool
	}{
		{"asset overdrawn", domain.AccountClassAsset, -10, -5, true},
		{"asset covered", domain.AccountClassAsset, -10, 0, false},
		{"asset credited while negative", domain.AccountClassAsset, 10, -5, false},
		{"expense overdrawn", domain.AccountClassExpense, -1, -1, true},
		{"revenue goes negative", domain.AccountClassRevenue, -10, -10, false},
		{"liability goes negative", domain.AccountClassLiability, -10, -10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := &domain.Account{ID: "a", Class: tt.class}
			err := usecase.NonNegativeGuard(acc, tt.delta, tt.newBalance)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
				assert.ErrorIs(t, err, domain.ErrNegativeBalance)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTransactionUseCase_Fail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.account(t, "user-1", domain.AccountClassAsset)
	revenue := f.account(t, "system", domain.AccountClassRevenue)

	txn := f.open(t, "to-fail")
	f.addEntry(t, txn.ID, user.ID, 30)
	f.addEntry(t, txn.ID, revenue.ID, -30)

	failed, err := f.engine.Fail(ctx, txn.ID, "client cancelled")
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusFailed, failed.Status)

	_, err = f.engine.Complete(ctx, txn.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyFinalized)

	_, err = f.engine.AddEntry(ctx, usecase.AddEntryInput{TransactionID: txn.ID, AccountID: user.ID, Amount: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = f.engine.Fail(ctx, txn.ID, "again")
	assert.ErrorIs(t, err, domain.ErrAlreadyFinalized)

	assert.Equal(t, domain.Amount(0), f.balance(t, user.ID))

	events, err := f.outbox.GetByAggregate(ctx, domain.AggregateTypeTransaction, txn.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventTypeTransactionFailed, events[0].EventType)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.TransactionsFailed.WithLabelValues(usecase.FailCauseAborted)))
}

func TestTransactionUseCase_RemoveEntryAndSetEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.account(t, "user-1", domain.AccountClassAsset)
	revenue := f.account(t, "system", domain.AccountClassRevenue)

	txn := f.open(t, "edit")
	stray := f.addEntry(t, txn.ID, user.ID, 999)

	require.NoError(t, f.engine.RemoveEntry(ctx, txn.ID, stray.ID))
	assert.ErrorIs(t, f.engine.RemoveEntry(ctx, txn.ID, stray.ID), domain.ErrEntryNotFound)

	f.addEntry(t, txn.ID, user.ID, 1)
	entries, err := f.engine.SetEntries(ctx, txn.ID, []usecase.EntryInput{
		{AccountID: user.ID, Amount: 20},
		{AccountID: revenue.ID, Amount: -20},
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	stored, err := f.engine.ListEntries(ctx, txn.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	// A failing replacement leaves the previous entries in place.
	_, err = f.engine.SetEntries(ctx, txn.ID, []usecase.EntryInput{
		{AccountID: user.ID, Amount: 5},
		{AccountID: "missing", Amount: -5},
	})
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	stored, err = f.engine.ListEntries(ctx, txn.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	_, err = f.engine.Complete(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(20), f.balance(t, user.ID))

	assert.ErrorIs(t, f.engine.RemoveEntry(ctx, txn.ID, entries[0].ID), domain.ErrInvalidState)
}

func TestTransactionUseCase_Reverse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.account(t, "user-1", domain.AccountClassAsset)
	revenue := f.account(t, "system", domain.AccountClassRevenue)
	summary := f.post(t, "refundable", user, revenue, 80)

	f.clock.Advance(time.Minute)
	reversal, err := f.engine.Reverse(ctx, summary.TransactionID, "refund")
	require.NoError(t, err)

	assert.Equal(t, domain.TransactionStatusCompleted, reversal.Status)
	assert.Equal(t, domain.ReferenceTypeReversal, reversal.ReferenceType)
	assert.Equal(t, summary.TransactionID, reversal.ReferenceID)
	assert.Equal(t, domain.ReversalIdempotencyKey(summary.TransactionID), reversal.IdempotencyKey)
	assert.Equal(t, 2, reversal.EntryCount)

	original, err := f.engine.GetTransaction(ctx, summary.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusReversed, original.Status)
	require.NotNil(t, original.ReversalID)
	assert.Equal(t, reversal.ID, *original.ReversalID)

	assert.Equal(t, domain.Amount(0), f.balance(t, user.ID))
	assert.Equal(t, domain.Amount(0), f.balance(t, revenue.ID))

	entries, err := f.engine.ListEntries(ctx, reversal.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		if e.AccountID == user.ID {
			assert.Equal(t, domain.Amount(-80), e.Amount)
		} else {
			assert.Equal(t, domain.Amount(80), e.Amount)
		}
	}

	_, err = f.engine.Reverse(ctx, summary.TransactionID, "again")
	assert.ErrorIs(t, err, domain.ErrNotCompleted)

	events, err := f.outbox.GetByAggregate(ctx, domain.AggregateTypeTransaction, summary.TransactionID, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventTypeTransactionReversed, events[1].EventType)

	consistency, err := f.recon.CheckLedgerConsistency(ctx)
	require.NoError(t, err)
	assert.True(t, consistency.Consistent)
}

func TestTransactionUseCase_ReverseRequiresCompleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := f.open(t, "pending")
	_, err := f.engine.Reverse(ctx, pending.ID, "")
	assert.ErrorIs(t, err, domain.ErrNotCompleted)

	failed := f.open(t, "failed")
	_, err = f.engine.Fail(ctx, failed.ID, "")
	require.NoError(t, err)
	_, err = f.engine.Reverse(ctx, failed.ID, "")
	assert.ErrorIs(t, err, domain.ErrNotCompleted)

	_, err = f.engine.Reverse(ctx, "missing", "")
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestTransactionUseCase_ReversalKeyIsReserved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.account(t, "user-1", domain.AccountClassAsset)
	revenue := f.account(t, "system", domain.AccountClassRevenue)
	summary := f.post(t, "squatted", user, revenue, 30)

	_, err := f.engine.Open(ctx, usecase.OpenInput{
		IdempotencyKey: domain.ReversalIdempotencyKey(summary.TransactionID),
		Currency:       "CREDITS",
	})
	require.ErrorIs(t, err, domain.ErrInvalidIdempotencyKey)

	reversal, err := f.engine.Reverse(ctx, summary.TransactionID, "correction")
	require.NoError(t, err)
	assert.Equal(t, summary.TransactionID, reversal.ReferenceID)
	assert.Equal(t, domain.Amount(0), f.balance(t, user.ID))
}

func TestTransactionUseCase_ReverseTruncatesLongReasonOnRuneBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.account(t, "user-1", domain.AccountClassAsset)
	revenue := f.account(t, "system", domain.AccountClassRevenue)
	summary := f.post(t, "long-reason", user, revenue, 10)

	reason := "a" + strings.Repeat("€", domain.MaxDescriptionLength-1)
	require.NoError(t, domain.ValidateDescription(reason))

	reversal, err := f.engine.Reverse(ctx, summary.TransactionID, reason)
	require.NoError(t, err)

	assert.True(t, utf8.ValidString(reversal.Description))
	assert.Equal(t, domain.MaxDescriptionLength, utf8.RuneCountInString(reversal.Description))
	assert.True(t, strings.HasPrefix(reversal.Description, "reversal of "+summary.TransactionID+": a€"))
	require.NoError(t, domain.ValidateDescription(reversal.Description))
}

func TestTransactionUseCase_SweepAbandoned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.account(t, "user-1", domain.AccountClassAsset)
	revenue := f.account(t, "system", domain.AccountClassRevenue)

	stale1 := f.open(t, "stale-1")
	stale2 := f.open(t, "stale-2")
	f.addEntry(t, stale2.ID, user.ID, 5)
	done := f.post(t, "done", user, revenue, 5)

	f.clock.Advance(20 * time.Minute)
	fresh := f.open(t, "fresh")

	swept, err := f.engine.SweepAbandoned(ctx, usecase.DefaultPendingTimeout)
	require.NoError(t, err)
	assert.Equal(t, 2, swept)

	assert.Equal(t, domain.TransactionStatusFailed, f.status(t, stale1.ID))
	assert.Equal(t, domain.TransactionStatusFailed, f.status(t, stale2.ID))
	assert.Equal(t, domain.TransactionStatusCompleted, f.status(t, done.TransactionID))
	assert.Equal(t, domain.TransactionStatusPending, f.status(t, fresh.ID))

	swept, err = f.engine.SweepAbandoned(ctx, usecase.DefaultPendingTimeout)
	require.NoError(t, err)
	assert.Zero(t, swept)

	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.TransactionsSwept))
	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.TransactionsFailed.WithLabelValues(usecase.FailCauseAbandoned)))
}

func TestTransactionUseCase_ConcurrentPostingStaysZeroSum(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	users := make([]*domain.Account, 4)
	for i := range users {
		users[i] = f.account(t, fmt.Sprintf("user-%d", i), domain.AccountClassAsset)
	}
	revenue := f.account(t, "system", domain.AccountClassRevenue)

	const perUser = 10
	var wg sync.WaitGroup
	errs := make(chan error, len(users)*perUser)
	for i, u := range users {
		for n := 0; n < perUser; n++ {
			wg.Add(1)
			go func(i, n int, u *domain.Account) {
				defer wg.Done()
				res, err := f.engine.Open(ctx, usecase.OpenInput{
					IdempotencyKey: fmt.Sprintf("p-%d-%d", i, n),
					Currency:       "CREDITS",
				})
				if err != nil {
					errs <- err
					return
				}
				id := res.Transaction.ID
				if _, err := f.engine.SetEntries(ctx, id, []usecase.EntryInput{
					{AccountID: u.ID, Amount: domain.Amount(n + 1)},
					{AccountID: revenue.ID, Amount: -domain.Amount(n + 1)},
				}); err != nil {
					errs <- err
					return
				}
				if _, err := f.engine.Complete(ctx, id); err != nil {
					errs <- err
				}
			}(i, n, u)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// 1 + 2 + ... + 10 per user.
	for _, u := range users {
		assert.Equal(t, domain.Amount(55), f.balance(t, u.ID))
	}
	assert.Equal(t, domain.Amount(-55*len(users)), f.balance(t, revenue.ID))

	report, err := f.recon.GenerateReport(ctx)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Equal(t, len(users)*perUser, report.TotalTransactions)
	assert.Equal(t, report.TotalAccounts, report.ReconciledAccounts)
}

func TestTransactionUseCase_RunsThroughRetrier(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)

	retrier := mocks.NewMockRetrier(ctrl)
	retrier.EXPECT().
		Retry(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, op func() error) error {
			return op()
		}).
		Times(1)
	f.engine.WithRetrier(retrier)

	res, err := f.engine.Open(context.Background(), usecase.OpenInput{IdempotencyKey: "retried", Currency: "CREDITS"})
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
}

func TestTransactionUseCase_RetrierErrorSurfaces(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)

	retrier := mocks.NewMockRetrier(ctrl)
	retrier.EXPECT().
		Retry(gomock.Any(), gomock.Any()).
		Return(domain.WrapStorage("begin", errDiskOnFire))
	f.engine.WithRetrier(retrier)

	_, err := f.engine.Open(context.Background(), usecase.OpenInput{IdempotencyKey: "k", Currency: "CREDITS"})
	assert.ErrorIs(t, err, domain.ErrStorageFailure)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.TransactionErrors.WithLabelValues("open", "storage")))
}

func TestTransactionUseCase_IdempotencyCache(t *testing.T) {
	ctx := context.Background()

	t.Run("miss remembers the new transaction", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		f := newFixture(t)
		cache := mocks.NewMockIdempotencyCache(ctrl)
		f.engine.WithIdempotencyCache(cache, time.Hour)

		cache.EXPECT().Get(gomock.Any(), "k-miss").Return("", false, nil)
		cache.EXPECT().Remember(gomock.Any(), "k-miss", gomock.Any(), time.Hour).Return(nil)

		res, err := f.engine.Open(ctx, usecase.OpenInput{IdempotencyKey: "k-miss", Currency: "CREDITS"})
		require.NoError(t, err)
		assert.False(t, res.Duplicate)
	})

	t.Run("hit skips the index", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		f := newFixture(t)
		existing := f.open(t, "k-hit")

		cache := mocks.NewMockIdempotencyCache(ctrl)
		f.engine.WithIdempotencyCache(cache, 0)
		cache.EXPECT().Get(gomock.Any(), "k-hit").Return(existing.ID, true, nil)

		res, err := f.engine.Open(ctx, usecase.OpenInput{IdempotencyKey: "k-hit", Currency: "CREDITS"})
		require.NoError(t, err)
		assert.True(t, res.Duplicate)
		assert.Equal(t, existing.ID, res.Transaction.ID)
	})

	t.Run("stale hit falls back to the index", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		f := newFixture(t)
		existing := f.open(t, "k-stale")

		cache := mocks.NewMockIdempotencyCache(ctrl)
		f.engine.WithIdempotencyCache(cache, 0)
		cache.EXPECT().Get(gomock.Any(), "k-stale").Return("gone", true, nil)
		cache.EXPECT().Remember(gomock.Any(), "k-stale", existing.ID, usecase.IdempotencyKeyTTL).Return(nil)

		res, err := f.engine.Open(ctx, usecase.OpenInput{IdempotencyKey: "k-stale", Currency: "CREDITS"})
		require.NoError(t, err)
		assert.True(t, res.Duplicate)
		assert.Equal(t, existing.ID, res.Transaction.ID)
	})

	t.Run("cache errors are not fatal", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		f := newFixture(t)
		cache := mocks.NewMockIdempotencyCache(ctrl)
		f.engine.WithIdempotencyCache(cache, 0)

		cache.EXPECT().Get(gomock.Any(), "k-down").Return("", false, errors.New("connection refused"))
		cache.EXPECT().Remember(gomock.Any(), "k-down", gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))

		res, err := f.engine.Open(ctx, usecase.OpenInput{IdempotencyKey: "k-down", Currency: "CREDITS"})
		require.NoError(t, err)
		assert.False(t, res.Duplicate)
		assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.RedisErrors.WithLabelValues("idempotency_get")))
		assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.RedisErrors.WithLabelValues("idempotency_remember")))
	})
}
