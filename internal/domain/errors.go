package domain

import (
	"errors"
	"fmt"
)

var (
	// Account errors
	ErrAccountNotFound   = errors.New("account not found")
	ErrInvalidClass      = errors.New("invalid account class")
	ErrNegativeBalance   = errors.New("account class does not allow a negative balance")
	ErrInsufficientFunds = errors.New("insufficient funds")

	// Transaction errors
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrEntryNotFound          = errors.New("entry not found")
	ErrInvalidState           = errors.New("operation not valid for transaction status")
	ErrCurrencyMismatch       = errors.New("account currency does not match transaction currency")
	ErrZeroAmount             = errors.New("entry amount must not be zero")
	ErrUnbalanced             = errors.New("transaction entries do not sum to zero")
	ErrEmptyTransaction       = errors.New("transaction needs at least two entries")
	ErrAlreadyFinalized       = errors.New("transaction is already finalized")
	ErrNotCompleted           = errors.New("transaction is not completed")
	ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")

	// Amount errors
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrAmountOverflow = errors.New("amount overflows 64-bit range")

	// ErrStorageFailure is matched by every StorageError.
	ErrStorageFailure = errors.New("storage failure")
)

// UnbalancedError reports the non-zero entry sum of a transaction that failed to complete.
type UnbalancedError struct {
	TransactionID string
	Sum           Amount
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("transaction %s is unbalanced: entries sum to %d", e.TransactionID, e.Sum)
}

// Is lets errors.Is(err, ErrUnbalanced) match.
func (e *UnbalancedError) Is(target error) bool {
	return target == ErrUnbalanced
}

// StorageError wraps an I/O error from the underlying store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrStorageFailure) match.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorageFailure
}

// WrapStorage wraps err as a StorageError unless it is nil or already a ledger error.
func WrapStorage(op string, err error) error {
	if err == nil || IsLedgerError(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

var ledgerErrors = []error{
	ErrAccountNotFound, ErrInvalidClass, ErrNegativeBalance, ErrInsufficientFunds,
	ErrTransactionNotFound, ErrEntryNotFound, ErrInvalidState, ErrCurrencyMismatch,
	ErrZeroAmount, ErrUnbalanced, ErrEmptyTransaction, ErrAlreadyFinalized,
	ErrNotCompleted, ErrIdempotencyKeyNotFound, ErrInvalidAmount, ErrAmountOverflow,
	ErrStorageFailure, ErrInvalidCurrency, ErrInvalidDisplayName, ErrInvalidOwner,
	ErrInvalidIdempotencyKey, ErrDescriptionTooLong, ErrInvalidReference,
}

// IsLedgerError reports whether err is one of the ledger's own business or storage errors.
func IsLedgerError(err error) bool {
	for _, target := range ledgerErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
