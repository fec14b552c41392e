package postgres

import (
	"context"
	"time"

	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/infrastructure/postgres/generated"
	"github.com/iho/creditledger/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	queries *generated.Queries
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db generated.DBTX) *EntryRepository {
	return &EntryRepository{queries: generated.New(db)}
}

// Create creates a new entry.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	return queries.CreateEntry(ctx, generated.CreateEntryParams{
		ID:            entry.ID,
		TransactionID: entry.TransactionID,
		AccountID:     entry.AccountID,
		Type:          string(entry.Type),
		Amount:        entry.Amount.Int64(),
		Description:   entry.Description,
		CreatedAt:     timeToPgTimestamptz(entry.CreatedAt),
	})
}

// Delete removes one entry of a transaction.
func (r *EntryRepository) Delete(ctx context.Context, tx usecase.Transaction, transactionID, entryID string) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	n, err := queries.DeleteEntry(ctx, generated.DeleteEntryParams{
		ID:            entryID,
		TransactionID: transactionID,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrEntryNotFound
	}

	return nil
}

// GetByTransactionTx retrieves the entries of a transaction inside tx.
func (r *EntryRepository) GetByTransactionTx(ctx context.Context, tx usecase.Transaction, transactionID string) ([]*domain.Entry, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	rows, err := queries.GetEntriesByTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows), nil
}

// GetByTransaction retrieves the entries of a transaction.
func (r *EntryRepository) GetByTransaction(ctx context.Context, transactionID string) ([]*domain.Entry, error) {
	rows, err := r.queries.GetEntriesByTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows), nil
}

// GetByAccount retrieves entries by account ID, newest first.
func (r *EntryRepository) GetByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	rows, err := r.queries.GetEntriesByAccount(ctx, generated.GetEntriesByAccountParams{
		AccountID: accountID,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows), nil
}

// SumPostedByAccount sums the account's posted entries.
func (r *EntryRepository) SumPostedByAccount(ctx context.Context, accountID string) (domain.Amount, error) {
	total, err := r.queries.SumPostedEntriesByAccount(ctx, accountID)
	if err != nil {
		return 0, err
	}

	return domain.Amount(total), nil
}

// SumPostedByAccountAt sums the account's entries of transactions completed at or before at.
func (r *EntryRepository) SumPostedByAccountAt(ctx context.Context, accountID string, at time.Time) (domain.Amount, error) {
	total, err := r.queries.SumPostedEntriesByAccountAt(ctx, generated.SumPostedEntriesByAccountAtParams{
		AccountID:   accountID,
		CompletedAt: timeToPgTimestamptz(at),
	})
	if err != nil {
		return 0, err
	}

	return domain.Amount(total), nil
}

func rowsToEntries(rows []generated.Entry) []*domain.Entry {
	entries := make([]*domain.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, rowToEntry(row))
	}
	return entries
}

func rowToEntry(row generated.Entry) *domain.Entry {
	return &domain.Entry{
		ID:            row.ID,
		TransactionID: row.TransactionID,
		AccountID:     row.AccountID,
		Type:          domain.EntryType(row.Type),
		Amount:        domain.Amount(row.Amount),
		Description:   row.Description,
		CreatedAt:     row.CreatedAt.Time,
	}
}
