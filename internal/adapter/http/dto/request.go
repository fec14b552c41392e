package dto

import (
	"fmt"
	"time"

	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/usecase"
)

// CreateAccountRequest represents a request to get or create an account.
type CreateAccountRequest struct {
	OwnerID     string `json:"owner_id"`
	Currency    string `json:"currency"`
	Class       string `json:"class"`
	DisplayName string `json:"display_name,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() (usecase.GetOrCreateInput, error) {
	class, err := domain.ParseAccountClass(r.Class)
	if err != nil {
		return usecase.GetOrCreateInput{}, err
	}
	return usecase.GetOrCreateInput{
		OwnerID:     r.OwnerID,
		Currency:    r.Currency,
		Class:       class,
		DisplayName: r.DisplayName,
	}, nil
}

// OpenTransactionRequest represents a request to open a pending transaction.
// The idempotency key may also be sent in the Idempotency-Key header.
type OpenTransactionRequest struct {
	IdempotencyKey string     `json:"idempotency_key,omitempty"`
	Currency       string     `json:"currency"`
	Description    string     `json:"description,omitempty"`
	ReferenceType  string     `json:"reference_type,omitempty"`
	ReferenceID    string     `json:"reference_id,omitempty"`
	OccurredAt     *time.Time `json:"occurred_at,omitempty"`
}

// ToUseCaseInput converts to use case input. headerKey wins over the body key.
func (r *OpenTransactionRequest) ToUseCaseInput(headerKey string) usecase.OpenInput {
	key := r.IdempotencyKey
	if headerKey != "" {
		key = headerKey
	}
	return usecase.OpenInput{
		IdempotencyKey: key,
		Currency:       r.Currency,
		Description:    r.Description,
		ReferenceType:  r.ReferenceType,
		ReferenceID:    r.ReferenceID,
		OccurredAt:     r.OccurredAt,
	}
}

// EntryRequest represents one signed entry. Positive amounts are debits.
type EntryRequest struct {
	AccountID   string `json:"account_id"`
	Amount      int64  `json:"amount"`
	Description string `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *EntryRequest) ToUseCaseInput(transactionID string) usecase.AddEntryInput {
	return usecase.AddEntryInput{
		TransactionID: transactionID,
		AccountID:     r.AccountID,
		Amount:        domain.Amount(r.Amount),
		Description:   r.Description,
	}
}

// SetEntriesRequest replaces every entry of a pending transaction.
type SetEntriesRequest struct {
	Entries []EntryRequest `json:"entries"`
}

// ToUseCaseInput converts to use case input.
func (r *SetEntriesRequest) ToUseCaseInput() []usecase.EntryInput {
	inputs := make([]usecase.EntryInput, len(r.Entries))
	for i, e := range r.Entries {
		inputs[i] = usecase.EntryInput{
			AccountID:   e.AccountID,
			Amount:      domain.Amount(e.Amount),
			Description: e.Description,
		}
	}
	return inputs
}

// ReasonRequest carries the reason for failing or reversing a transaction.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// LegRequest is one movement of a record. The account is named either by
// account_id or by owner_id and class in the record's currency.
type LegRequest struct {
	AccountID   string `json:"account_id,omitempty"`
	OwnerID     string `json:"owner_id,omitempty"`
	Class       string `json:"class,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Description string `json:"description,omitempty"`
	Amount      int64  `json:"amount"`
	AmountMajor string `json:"amount_major,omitempty"`
}

// RecordRequest represents a complete balanced movement.
type RecordRequest struct {
	IdempotencyKey     string       `json:"idempotency_key,omitempty"`
	Currency           string       `json:"currency"`
	Description        string       `json:"description,omitempty"`
	ReferenceType      string       `json:"reference_type,omitempty"`
	ReferenceID        string       `json:"reference_id,omitempty"`
	OccurredAt         *time.Time   `json:"occurred_at,omitempty"`
	RequireNonNegative bool         `json:"require_non_negative,omitempty"`
	Legs               []LegRequest `json:"legs"`
}

// ToUseCaseInput converts to use case input. headerKey wins over the body key.
func (r *RecordRequest) ToUseCaseInput(headerKey string) (usecase.RecordInput, error) {
	input := usecase.RecordInput{
		IdempotencyKey: r.IdempotencyKey,
		Currency:       r.Currency,
		Description:    r.Description,
		ReferenceType:  r.ReferenceType,
		ReferenceID:    r.ReferenceID,
		OccurredAt:     r.OccurredAt,
		Legs:           make([]usecase.Leg, 0, len(r.Legs)),
	}
	if headerKey != "" {
		input.IdempotencyKey = headerKey
	}
	if r.RequireNonNegative {
		input.Guard = usecase.NonNegativeGuard
	}

	for i, leg := range r.Legs {
		amount, err := resolveAmount(leg.Amount, leg.AmountMajor, r.Currency)
		if err != nil {
			return usecase.RecordInput{}, fmt.Errorf("leg %d: %w", i, err)
		}

		selector := usecase.AccountSelector{AccountID: leg.AccountID, OwnerID: leg.OwnerID, DisplayName: leg.DisplayName}
		if leg.AccountID == "" {
			class, err := domain.ParseAccountClass(leg.Class)
			if err != nil {
				return usecase.RecordInput{}, fmt.Errorf("leg %d: %w", i, err)
			}
			selector.Class = class
		}

		input.Legs = append(input.Legs, usecase.Leg{
			Account:     selector,
			Description: leg.Description,
			Amount:      amount,
		})
	}
	return input, nil
}

// MovementRequest represents a credit purchase or a usage charge.
type MovementRequest struct {
	IdempotencyKey string     `json:"idempotency_key,omitempty"`
	OwnerID        string     `json:"owner_id"`
	Currency       string     `json:"currency"`
	Amount         int64      `json:"amount"`
	AmountMajor    string     `json:"amount_major,omitempty"`
	Description    string     `json:"description,omitempty"`
	ReferenceType  string     `json:"reference_type,omitempty"`
	ReferenceID    string     `json:"reference_id,omitempty"`
	OccurredAt     *time.Time `json:"occurred_at,omitempty"`
}

// ToUseCaseInput converts to use case input. headerKey wins over the body key.
func (r *MovementRequest) ToUseCaseInput(headerKey string) (usecase.MovementInput, error) {
	amount, err := resolveAmount(r.Amount, r.AmountMajor, r.Currency)
	if err != nil {
		return usecase.MovementInput{}, err
	}

	key := r.IdempotencyKey
	if headerKey != "" {
		key = headerKey
	}
	return usecase.MovementInput{
		IdempotencyKey: key,
		OwnerID:        r.OwnerID,
		Currency:       r.Currency,
		Amount:         amount,
		Description:    r.Description,
		ReferenceType:  r.ReferenceType,
		ReferenceID:    r.ReferenceID,
		OccurredAt:     r.OccurredAt,
	}, nil
}

// resolveAmount prefers a major-unit string ("12.50") over the minor-unit integer.
func resolveAmount(minor int64, major, currency string) (domain.Amount, error) {
	if major == "" {
		return domain.Amount(minor), nil
	}
	if minor != 0 {
		return 0, fmt.Errorf("%w: set either amount or amount_major", domain.ErrInvalidAmount)
	}
	return domain.ParseMajor(major, currency)
}
