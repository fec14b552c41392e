package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/infrastructure/postgres/generated"
	"github.com/iho/creditledger/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	queries *generated.Queries
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db generated.DBTX) *TransactionRepository {
	return &TransactionRepository{queries: generated.New(db)}
}

// Create inserts a transaction.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	return queries.CreateTransaction(ctx, generated.CreateTransactionParams{
		ID:             txn.ID,
		Description:    txn.Description,
		ReferenceType:  txn.ReferenceType,
		ReferenceID:    txn.ReferenceID,
		IdempotencyKey: txn.IdempotencyKey,
		Currency:       txn.Currency,
		Status:         string(txn.Status),
		EntryCount:     int32(txn.EntryCount),
		DebitTotal:     txn.DebitTotal.Int64(),
		ReversalID:     optionalText(txn.ReversalID),
		OccurredAt:     timeToPgTimestamptz(txn.OccurredAt),
		CreatedAt:      timeToPgTimestamptz(txn.CreatedAt),
		UpdatedAt:      timeToPgTimestamptz(txn.UpdatedAt),
		CompletedAt:    optionalTimestamptz(txn.CompletedAt),
	})
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row, err := r.queries.GetTransactionByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return rowToTransaction(row)
}

// GetByIDForUpdate retrieves a transaction with a FOR UPDATE lock.
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	row, err := queries.GetTransactionByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return rowToTransaction(row)
}

// Update persists the mutable columns of txn.
func (r *TransactionRepository) Update(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	n, err := queries.UpdateTransaction(ctx, generated.UpdateTransactionParams{
		ID:          txn.ID,
		Status:      string(txn.Status),
		EntryCount:  int32(txn.EntryCount),
		DebitTotal:  txn.DebitTotal.Int64(),
		ReversalID:  optionalText(txn.ReversalID),
		UpdatedAt:   timeToPgTimestamptz(txn.UpdatedAt),
		CompletedAt: optionalTimestamptz(txn.CompletedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// ListPendingBefore lists pending transactions created before the cutoff, oldest first.
func (r *TransactionRepository) ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]*domain.Transaction, error) {
	rows, err := r.queries.ListPendingTransactionsBefore(ctx, generated.ListPendingTransactionsBeforeParams{
		CreatedAt: timeToPgTimestamptz(before),
		Limit:     int32(limit),
	})
	if err != nil {
		return nil, err
	}

	return rowsToTransactions(rows)
}

// ListPosted lists completed and reversed transactions ordered by id.
func (r *TransactionRepository) ListPosted(ctx context.Context, limit, offset int) ([]*domain.Transaction, error) {
	rows, err := r.queries.ListPostedTransactions(ctx, generated.ListPostedTransactionsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToTransactions(rows)
}

func rowsToTransactions(rows []generated.Transaction) ([]*domain.Transaction, error) {
	txns := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		txn, err := rowToTransaction(row)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func rowToTransaction(row generated.Transaction) (*domain.Transaction, error) {
	status, err := domain.ParseTransactionStatus(row.Status)
	if err != nil {
		return nil, err
	}

	return &domain.Transaction{
		ID:             row.ID,
		Description:    row.Description,
		ReferenceType:  row.ReferenceType,
		ReferenceID:    row.ReferenceID,
		IdempotencyKey: row.IdempotencyKey,
		Currency:       row.Currency,
		Status:         status,
		OccurredAt:     row.OccurredAt.Time,
		CreatedAt:      row.CreatedAt.Time,
		UpdatedAt:      row.UpdatedAt.Time,
		CompletedAt:    timestamptzPtr(row.CompletedAt),
		EntryCount:     int(row.EntryCount),
		DebitTotal:     domain.Amount(row.DebitTotal),
		ReversalID:     textPtr(row.ReversalID),
	}, nil
}
