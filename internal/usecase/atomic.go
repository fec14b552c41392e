package usecase

import (
	"context"
	"errors"

	"github.com/iho/creditledger/internal/domain"
)

// noRetry runs the operation once. Used when no Retrier is configured.
type noRetry struct{}

func (noRetry) Retry(_ context.Context, operation func() error) error {
	return operation()
}

// runInTx runs fn inside one storage transaction, retried as a whole by retrier.
// fn's error rolls the transaction back. Begin and Commit failures surface as StorageError.
func runInTx(
	ctx context.Context,
	txManager TransactionManager,
	retrier Retrier,
	op string,
	fn func(txCtx context.Context, tx Transaction) error,
) error {
	return retrier.Retry(ctx, func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := txManager.Begin(txCtx)
		if err != nil {
			return domain.WrapStorage(op, err)
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		if err := fn(txCtx, tx); err != nil {
			return err
		}

		if err := tx.Commit(txCtx); err != nil {
			return domain.WrapStorage(op, err)
		}
		return nil
	})
}

// errorType buckets an error for metrics labels.
func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrStorageFailure):
		return "storage"
	case errors.Is(err, domain.ErrUnbalanced):
		return "unbalanced"
	case errors.Is(err, domain.ErrEmptyTransaction):
		return "empty"
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrAlreadyFinalized), errors.Is(err, domain.ErrNotCompleted):
		return "state"
	case errors.Is(err, domain.ErrCurrencyMismatch):
		return "currency_mismatch"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrAccountNotFound), errors.Is(err, domain.ErrTransactionNotFound), errors.Is(err, domain.ErrEntryNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrAmountOverflow):
		return "overflow"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "validation"
	}
}
