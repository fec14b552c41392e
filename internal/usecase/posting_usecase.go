package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iho/creditledger/internal/domain"
)

// DefaultSystemOwnerID owns the revenue and expense accounts on the platform side.
const DefaultSystemOwnerID = "system"

// PostingUseCase records complete balanced movements on top of the engine primitives.
type PostingUseCase struct {
	engine        *TransactionUseCase
	accounts      *AccountUseCase
	systemOwnerID string
}

// NewPostingUseCase creates a new PostingUseCase.
func NewPostingUseCase(engine *TransactionUseCase, accounts *AccountUseCase, systemOwnerID string) *PostingUseCase {
	if systemOwnerID == "" {
		systemOwnerID = DefaultSystemOwnerID
	}
	return &PostingUseCase{
		engine:        engine,
		accounts:      accounts,
		systemOwnerID: systemOwnerID,
	}
}

// AccountSelector names an account either by id or by (owner, class) in the record's currency.
type AccountSelector struct {
	AccountID   string
	OwnerID     string
	Class       domain.AccountClass
	DisplayName string
}

// Leg is one signed movement of a record.
type Leg struct {
	Account     AccountSelector
	Description string
	Amount      domain.Amount
}

// RecordInput is a complete balanced movement submitted under one idempotency key.
type RecordInput struct {
	OccurredAt     *time.Time
	Guard          BalanceGuard
	IdempotencyKey string
	Currency       string
	Description    string
	ReferenceType  string
	ReferenceID    string
	Legs           []Leg
}

// RecordResult is the outcome of Record.
// Summary is nil when the key resolved to a transaction finalized by an earlier call.
type RecordResult struct {
	Transaction *domain.Transaction
	Summary     *CommittedSummary
	Duplicate   bool
}

// Record opens, fills and completes a transaction. Retrying with the same key returns
// the earlier outcome, or resumes the transaction if an earlier attempt left it pending.
func (uc *PostingUseCase) Record(ctx context.Context, input RecordInput) (*RecordResult, error) {
	if err := validateLegs(input.Legs); err != nil {
		return nil, err
	}

	opened, err := uc.engine.Open(ctx, OpenInput{
		OccurredAt:     input.OccurredAt,
		Description:    input.Description,
		ReferenceType:  input.ReferenceType,
		ReferenceID:    input.ReferenceID,
		IdempotencyKey: input.IdempotencyKey,
		Currency:       input.Currency,
	})
	if err != nil {
		return nil, err
	}

	txn := opened.Transaction
	if opened.Duplicate && txn.Status != domain.TransactionStatusPending {
		return &RecordResult{Transaction: txn, Duplicate: true}, nil
	}

	// Accounts are created only once the key is known to need posting.
	legs, err := uc.resolveLegs(ctx, input)
	if err != nil {
		return nil, uc.settle(ctx, txn.ID, err)
	}

	if _, err := uc.engine.SetEntries(ctx, txn.ID, legs); err != nil {
		return nil, uc.settle(ctx, txn.ID, err)
	}

	summary, err := uc.engine.CompleteWithGuard(ctx, txn.ID, input.Guard)
	if err != nil {
		return nil, uc.settle(ctx, txn.ID, err)
	}

	completed, err := uc.engine.GetTransaction(ctx, txn.ID)
	if err != nil {
		return nil, err
	}

	return &RecordResult{Transaction: completed, Summary: summary, Duplicate: opened.Duplicate}, nil
}

// settle decides what happens to a transaction whose record attempt failed.
// Business rejections fail it so the key stays bound to a final outcome; storage
// failures leave it pending for a retry to resume.
func (uc *PostingUseCase) settle(ctx context.Context, transactionID string, cause error) error {
	if errors.Is(cause, domain.ErrStorageFailure) || errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		return cause
	}
	if errors.Is(cause, domain.ErrAlreadyFinalized) || errors.Is(cause, domain.ErrInvalidState) {
		// A concurrent attempt with the same key finalized it first.
		return cause
	}

	failCause := FailCauseAborted
	if errors.Is(cause, domain.ErrInsufficientFunds) {
		failCause = FailCauseInsufficientFunds
	}

	if _, err := uc.engine.fail(ctx, transactionID, cause.Error(), failCause); err != nil &&
		!errors.Is(err, domain.ErrAlreadyFinalized) {
		return errors.Join(cause, err)
	}
	return cause
}

func validateLegs(legs []Leg) error {
	if len(legs) < domain.MinEntriesPerTransaction {
		return fmt.Errorf("%w: got %d legs", domain.ErrEmptyTransaction, len(legs))
	}

	amounts := make([]domain.Amount, 0, len(legs))
	for _, l := range legs {
		if l.Amount.IsZero() {
			return domain.ErrZeroAmount
		}
		if l.Account.AccountID == "" {
			if err := domain.ValidateOwner(l.Account.OwnerID); err != nil {
				return err
			}
			if !l.Account.Class.IsValid() {
				return fmt.Errorf("%w: %q", domain.ErrInvalidClass, l.Account.Class)
			}
		}
		amounts = append(amounts, l.Amount)
	}

	sum, err := domain.SumAmounts(amounts...)
	if err != nil {
		return err
	}
	if !sum.IsZero() {
		return &domain.UnbalancedError{Sum: sum}
	}
	return nil
}

func (uc *PostingUseCase) resolveLegs(ctx context.Context, input RecordInput) ([]EntryInput, error) {
	entries := make([]EntryInput, 0, len(input.Legs))
	for _, l := range input.Legs {
		accountID := l.Account.AccountID
		if accountID == "" {
			account, err := uc.accounts.GetOrCreate(ctx, GetOrCreateInput{
				OwnerID:     l.Account.OwnerID,
				Currency:    input.Currency,
				Class:       l.Account.Class,
				DisplayName: l.Account.DisplayName,
			})
			if err != nil {
				return nil, err
			}
			accountID = account.ID
		}
		entries = append(entries, EntryInput{
			AccountID:   accountID,
			Amount:      l.Amount,
			Description: l.Description,
		})
	}
	return entries, nil
}

// MovementInput describes a purchase or usage charge for one owner.
type MovementInput struct {
	OccurredAt     *time.Time
	OwnerID        string
	Currency       string
	IdempotencyKey string
	ReferenceType  string
	ReferenceID    string
	Description    string
	Amount         domain.Amount
}

// CreditPurchase debits the owner's asset account and credits system revenue.
func (uc *PostingUseCase) CreditPurchase(ctx context.Context, input MovementInput) (*RecordResult, error) {
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: purchase amount must be positive", domain.ErrInvalidAmount)
	}

	return uc.Record(ctx, RecordInput{
		OccurredAt:     input.OccurredAt,
		IdempotencyKey: input.IdempotencyKey,
		Currency:       input.Currency,
		Description:    orDefault(input.Description, "credit purchase"),
		ReferenceType:  orDefault(input.ReferenceType, "purchase"),
		ReferenceID:    input.ReferenceID,
		Legs: []Leg{
			{
				Account:     AccountSelector{OwnerID: input.OwnerID, Class: domain.AccountClassAsset},
				Amount:      input.Amount,
				Description: "credits purchased",
			},
			{
				Account:     AccountSelector{OwnerID: uc.systemOwnerID, Class: domain.AccountClassRevenue},
				Amount:      input.Amount.Neg(),
				Description: "purchase revenue",
			},
		},
	})
}

// UsageCharge debits system expense and credits the owner's asset account. It fails
// with ErrInsufficientFunds, and fails the transaction, if the owner cannot cover it.
func (uc *PostingUseCase) UsageCharge(ctx context.Context, input MovementInput) (*RecordResult, error) {
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: charge amount must be positive", domain.ErrInvalidAmount)
	}

	return uc.Record(ctx, RecordInput{
		OccurredAt:     input.OccurredAt,
		Guard:          NonNegativeGuard,
		IdempotencyKey: input.IdempotencyKey,
		Currency:       input.Currency,
		Description:    orDefault(input.Description, "usage charge"),
		ReferenceType:  orDefault(input.ReferenceType, "usage"),
		ReferenceID:    input.ReferenceID,
		Legs: []Leg{
			{
				Account:     AccountSelector{OwnerID: uc.systemOwnerID, Class: domain.AccountClassExpense},
				Amount:      input.Amount,
				Description: "usage consumed",
			},
			{
				Account:     AccountSelector{OwnerID: input.OwnerID, Class: domain.AccountClassAsset},
				Amount:      input.Amount.Neg(),
				Description: "credits spent",
			},
		},
	})
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
