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

// IdempotencyIndex implements usecase.IdempotencyIndex on the idempotency_keys table.
type IdempotencyIndex struct {
	queries *generated.Queries
}

// NewIdempotencyIndex creates a new IdempotencyIndex.
func NewIdempotencyIndex(db generated.DBTX) *IdempotencyIndex {
	return &IdempotencyIndex{queries: generated.New(db)}
}

// Reserve claims key for transactionID. The insert is ON CONFLICT DO NOTHING, so a
// concurrent reservation of the same key blocks on the unique index until the winner
// commits and then reads the winner's transaction id.
func (i *IdempotencyIndex) Reserve(ctx context.Context, tx usecase.Transaction, key, transactionID string, createdAt time.Time) (string, bool, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return "", false, err
	}

	n, err := queries.InsertIdempotencyKey(ctx, generated.InsertIdempotencyKeyParams{
		Key:           key,
		TransactionID: transactionID,
		CreatedAt:     timeToPgTimestamptz(createdAt),
	})
	if err != nil {
		return "", false, err
	}
	if n == 1 {
		return transactionID, true, nil
	}

	existing, err := queries.GetIdempotencyKey(ctx, key)
	if err != nil {
		return "", false, err
	}

	return existing, false, nil
}

// Lookup returns the transaction id reserved under key.
func (i *IdempotencyIndex) Lookup(ctx context.Context, key string) (string, error) {
	id, err := i.queries.GetIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrIdempotencyKeyNotFound
		}

		return "", err
	}

	return id, nil
}
