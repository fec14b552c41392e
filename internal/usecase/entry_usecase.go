package usecase

import (
	"context"
	"time"

	"github.com/iho/creditledger/internal/domain"
)

// EntryUseCase handles entry business logic.
type EntryUseCase struct {
	accountRepo AccountRepository
	entryRepo   EntryRepository
}

// NewEntryUseCase creates a new EntryUseCase.
func NewEntryUseCase(accountRepo AccountRepository, entryRepo EntryRepository) *EntryUseCase {
	return &EntryUseCase{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
	}
}

// GetEntriesByAccountInput represents input for listing entries.
type GetEntriesByAccountInput struct {
	AccountID string
	Limit     int
	Offset    int
}

// GetEntriesByAccount lists entries for an account, newest first.
func (uc *EntryUseCase) GetEntriesByAccount(ctx context.Context, input GetEntriesByAccountInput) ([]*domain.Entry, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}

	if input.Limit > 100 {
		input.Limit = 100
	}

	if _, err := uc.accountRepo.GetByID(ctx, input.AccountID); err != nil {
		return nil, domain.WrapStorage("get account", err)
	}

	entries, err := uc.entryRepo.GetByAccount(ctx, input.AccountID, input.Limit, input.Offset)
	if err != nil {
		return nil, domain.WrapStorage("list entries", err)
	}
	return entries, nil
}

// GetHistoricalBalance returns the balance at a specific point in time, replayed
// from entries of transactions posted at or before at.
func (uc *EntryUseCase) GetHistoricalBalance(ctx context.Context, accountID string, at time.Time) (domain.Amount, error) {
	if _, err := uc.accountRepo.GetByID(ctx, accountID); err != nil {
		return 0, domain.WrapStorage("get account", err)
	}

	balance, err := uc.entryRepo.SumPostedByAccountAt(ctx, accountID, at.UTC())
	if err != nil {
		return 0, domain.WrapStorage("sum entries", err)
	}
	return balance, nil
}
