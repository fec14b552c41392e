package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/iho/creditledger/internal/domain"
)

var (
	// ErrInconsistentLedger is returned when the ledger is not balanced.
	ErrInconsistentLedger = errors.New("ledger is inconsistent: debits do not equal credits")
)

// LedgerUseCase handles ledger-wide operations.
type LedgerUseCase struct {
	ledgerRepo LedgerRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository) *LedgerUseCase {
	return &LedgerUseCase{
		ledgerRepo: ledgerRepo,
	}
}

// LedgerConsistency is the result of a ledger-wide zero-sum check.
type LedgerConsistency struct {
	CheckedAt    time.Time
	Currencies   []CurrencyTotals
	Inconsistent []string
	Consistent   bool
}

// Err returns ErrInconsistentLedger naming the offending currencies, or nil.
func (c *LedgerConsistency) Err() error {
	if c.Consistent {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrInconsistentLedger, c.Inconsistent)
}

// CheckConsistency verifies that, per currency, all account balances and all posted
// entries each sum to zero.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (*LedgerConsistency, error) {
	return checkLedger(ctx, uc.ledgerRepo)
}

func checkLedger(ctx context.Context, repo LedgerRepository) (*LedgerConsistency, error) {
	totals, err := repo.CheckConsistency(ctx)
	if err != nil {
		return nil, domain.WrapStorage("check consistency", err)
	}

	sort.Slice(totals, func(i, j int) bool { return totals[i].Currency < totals[j].Currency })

	result := &LedgerConsistency{
		CheckedAt:  time.Now().UTC(),
		Currencies: totals,
		Consistent: true,
	}
	for _, t := range totals {
		// Every completed transaction sums to zero in its single currency, so
		// both the balances and the posted entries must net out per currency.
		if !t.BalanceTotal.IsZero() || !t.EntryTotal.IsZero() {
			result.Consistent = false
			result.Inconsistent = append(result.Inconsistent, t.Currency)
		}
	}

	return result, nil
}
