package memory

import (
	"context"

	"github.com/iho/creditledger/internal/usecase"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	store *Store
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(store *Store) *LedgerRepository {
	return &LedgerRepository{store: store}
}

// CheckConsistency totals balances and posted entries per currency.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) ([]usecase.CurrencyTotals, error) {
	var result []usecase.CurrencyTotals
	err := r.store.withLock(ctx, func() error {
		totals := make(map[string]*usecase.CurrencyTotals)
		get := func(currency string) *usecase.CurrencyTotals {
			t, ok := totals[currency]
			if !ok {
				t = &usecase.CurrencyTotals{Currency: currency}
				totals[currency] = t
			}
			return t
		}

		for _, a := range r.store.accounts {
			t := get(a.Currency)
			t.AccountCount++
			sum, err := t.BalanceTotal.Add(a.Balance)
			if err != nil {
				return err
			}
			t.BalanceTotal = sum
		}

		for _, e := range r.store.entries {
			txn := r.store.transactions[e.TransactionID]
			if !posted(txn, nil) {
				continue
			}
			t := get(txn.Currency)
			sum, err := t.EntryTotal.Add(e.Amount)
			if err != nil {
				return err
			}
			t.EntryTotal = sum
		}

		result = make([]usecase.CurrencyTotals, 0, len(totals))
		for _, t := range totals {
			result = append(result, *t)
		}
		return nil
	})
	return result, err
}
