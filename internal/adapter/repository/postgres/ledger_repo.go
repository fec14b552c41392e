package postgres

import (
	"context"

	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/infrastructure/postgres/generated"
	"github.com/iho/creditledger/internal/usecase"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	queries *generated.Queries
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db generated.DBTX) *LedgerRepository {
	return &LedgerRepository{queries: generated.New(db)}
}

// CheckConsistency returns per-currency sums of stored balances and posted entries.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) ([]usecase.CurrencyTotals, error) {
	rows, err := r.queries.CheckLedgerConsistency(ctx)
	if err != nil {
		return nil, err
	}

	totals := make([]usecase.CurrencyTotals, 0, len(rows))
	for _, row := range rows {
		totals = append(totals, usecase.CurrencyTotals{
			Currency:     row.Currency,
			AccountCount: row.AccountCount,
			BalanceTotal: domain.Amount(row.BalanceTotal),
			EntryTotal:   domain.Amount(row.EntryTotal),
		})
	}

	return totals, nil
}
