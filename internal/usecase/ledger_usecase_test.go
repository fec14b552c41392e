package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/iho/creditledger/internal/domain"
)

func TestLedgerUseCase_CheckConsistency(t *testing.T) {
	tests := []struct {
		name             string
		repo             *fakeLedgerRepository
		wantConsistent   bool
		wantInconsistent []string
		expectedErr      error
	}{
		{
			name: "happy path balanced ledger",
			repo: &fakeLedgerRepository{totals: []CurrencyTotals{
				{Currency: "USD", AccountCount: 2},
				{Currency: "CREDITS", AccountCount: 3},
			}},
			wantConsistent: true,
		},
		{
			name:           "empty ledger",
			repo:           &fakeLedgerRepository{},
			wantConsistent: true,
		},
		{
			name:        "repo error surfaces",
			repo:        &fakeLedgerRepository{err: errors.New("db down")},
			expectedErr: domain.ErrStorageFailure,
		},
		{
			name: "non-zero balance",
			repo: &fakeLedgerRepository{totals: []CurrencyTotals{
				{Currency: "CREDITS", BalanceTotal: 10},
			}},
			wantInconsistent: []string{"CREDITS"},
		},
		{
			name: "non-zero entry total",
			repo: &fakeLedgerRepository{totals: []CurrencyTotals{
				{Currency: "CREDITS", EntryTotal: 1},
			}},
			wantInconsistent: []string{"CREDITS"},
		},
		{
			name: "only the offending currency is named",
			repo: &fakeLedgerRepository{totals: []CurrencyTotals{
				{Currency: "USD", BalanceTotal: 1, EntryTotal: -1},
				{Currency: "CREDITS"},
				{Currency: "EUR", BalanceTotal: 5},
			}},
			wantInconsistent: []string{"EUR", "USD"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewLedgerUseCase(tt.repo)
			got, err := uc.CheckConsistency(context.Background())

			if tt.expectedErr != nil {
				if !errors.Is(err, tt.expectedErr) {
					t.Fatalf("expected error %v, got %v", tt.expectedErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got.Consistent != tt.wantConsistent {
				t.Fatalf("Consistent = %v, want %v", got.Consistent, tt.wantConsistent)
			}
			if len(got.Inconsistent) != len(tt.wantInconsistent) {
				t.Fatalf("Inconsistent = %v, want %v", got.Inconsistent, tt.wantInconsistent)
			}
			for i := range got.Inconsistent {
				if got.Inconsistent[i] != tt.wantInconsistent[i] {
					t.Fatalf("Inconsistent = %v, want %v", got.Inconsistent, tt.wantInconsistent)
				}
			}

			if tt.wantConsistent {
				if got.Err() != nil {
					t.Fatalf("Err() = %v, want nil", got.Err())
				}
			} else if !errors.Is(got.Err(), ErrInconsistentLedger) {
				t.Fatalf("Err() = %v, want ErrInconsistentLedger", got.Err())
			}
		})
	}
}

func TestLedgerUseCase_RepositoryInvoked(t *testing.T) {
	repo := &fakeLedgerRepository{}
	uc := NewLedgerUseCase(repo)

	if _, err := uc.CheckConsistency(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.calls != 1 {
		t.Fatalf("expected CheckConsistency to call repository once, got %d", repo.calls)
	}
}

func TestLedgerUseCase_SortsCurrencies(t *testing.T) {
	repo := &fakeLedgerRepository{totals: []CurrencyTotals{
		{Currency: "USD"}, {Currency: "CREDITS"}, {Currency: "EUR"},
	}}

	got, err := NewLedgerUseCase(repo).CheckConsistency(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"CREDITS", "EUR", "USD"}
	for i, c := range got.Currencies {
		if c.Currency != want[i] {
			t.Fatalf("currency %d = %s, want %s", i, c.Currency, want[i])
		}
	}
}

type fakeLedgerRepository struct {
	totals []CurrencyTotals
	err    error
	calls  int
}

func (f *fakeLedgerRepository) CheckConsistency(ctx context.Context) ([]CurrencyTotals, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]CurrencyTotals(nil), f.totals...), nil
}
