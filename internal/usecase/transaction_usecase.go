package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/infrastructure/metrics"
)

// BalanceGuard inspects an account's balance after a delta has been applied inside
// the atomic section of Complete. A non-nil error aborts the whole commit.
type BalanceGuard func(account *domain.Account, delta, newBalance domain.Amount) error

// NonNegativeGuard rejects commits that would take a normally non-negative account
// (asset, expense) below zero. Accounts that only receive value are never rejected.
func NonNegativeGuard(account *domain.Account, delta, newBalance domain.Amount) error {
	if !delta.IsNegative() {
		return nil
	}
	if err := account.CheckBalance(newBalance); err != nil {
		return fmt.Errorf("%w: cannot cover %d: %w", domain.ErrInsufficientFunds, delta.Abs(), err)
	}
	return nil
}

// TransactionUseCase is the ledger engine: it opens transactions, collects entries
// and commits them atomically against account balances.
type TransactionUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	txnRepo     TransactionRepository
	entryRepo   EntryRepository
	idemIndex   IdempotencyIndex
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	metrics     *metrics.Metrics

	retrier   Retrier
	idemCache IdempotencyCache
	cacheTTL  time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	txnRepo TransactionRepository,
	entryRepo EntryRepository,
	idemIndex IdempotencyIndex,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *TransactionUseCase {
	return &TransactionUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		entryRepo:   entryRepo,
		idemIndex:   idemIndex,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		metrics:     metrics,
		retrier:     noRetry{},
		cacheTTL:    IdempotencyKeyTTL,
		logger:      zerolog.Nop(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithRetrier retries whole storage transactions on transient conflicts.
func (uc *TransactionUseCase) WithRetrier(r Retrier) *TransactionUseCase {
	if r != nil {
		uc.retrier = r
	}
	return uc
}

// WithIdempotencyCache puts a cache in front of the idempotency index.
func (uc *TransactionUseCase) WithIdempotencyCache(c IdempotencyCache, ttl time.Duration) *TransactionUseCase {
	uc.idemCache = c
	if ttl > 0 {
		uc.cacheTTL = ttl
	}
	return uc
}

// WithLogger sets the logger.
func (uc *TransactionUseCase) WithLogger(l zerolog.Logger) *TransactionUseCase {
	uc.logger = l.With().Str("component", "ledger").Logger()
	return uc
}

// WithClock overrides the time source.
func (uc *TransactionUseCase) WithClock(now func() time.Time) *TransactionUseCase {
	uc.now = now
	return uc
}

// OpenInput represents input for opening a transaction.
type OpenInput struct {
	OccurredAt     *time.Time
	Description    string
	ReferenceType  string
	ReferenceID    string
	IdempotencyKey string
	Currency       string
}

// OpenResult is the outcome of Open. Duplicate is set when the key was already used,
// in which case Transaction is the existing one in whatever status it is in.
type OpenResult struct {
	Transaction *domain.Transaction
	Duplicate   bool
}

// Open creates a pending transaction, or returns the one already bound to the idempotency key.
func (uc *TransactionUseCase) Open(ctx context.Context, input OpenInput) (*OpenResult, error) {
	input.Currency = domain.NormalizeCurrency(input.Currency)
	if err := validateOpenInput(input); err != nil {
		return nil, err
	}

	if existing := uc.cachedTransaction(ctx, input.IdempotencyKey); existing != nil {
		return uc.duplicate(existing, input), nil
	}

	now := uc.now()
	occurredAt := now
	if input.OccurredAt != nil {
		occurredAt = input.OccurredAt.UTC()
	}

	var (
		created    *domain.Transaction
		existingID string
	)
	err := runInTx(ctx, uc.txManager, uc.retrier, "open transaction", func(txCtx context.Context, tx Transaction) error {
		created, existingID = nil, ""

		txn := &domain.Transaction{
			ID:             uc.idGen.Generate(),
			Description:    input.Description,
			ReferenceType:  input.ReferenceType,
			ReferenceID:    input.ReferenceID,
			IdempotencyKey: input.IdempotencyKey,
			Currency:       input.Currency,
			Status:         domain.TransactionStatusPending,
			OccurredAt:     occurredAt,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		id, reserved, err := uc.idemIndex.Reserve(txCtx, tx, input.IdempotencyKey, txn.ID, now)
		if err != nil {
			return domain.WrapStorage("reserve idempotency key", err)
		}
		if !reserved {
			existingID = id
			return nil
		}

		if err := uc.txnRepo.Create(txCtx, tx, txn); err != nil {
			return domain.WrapStorage("create transaction", err)
		}
		created = txn
		return nil
	})
	if err != nil {
		uc.recordError("open", err)
		return nil, err
	}

	if existingID != "" {
		existing, err := uc.txnRepo.GetByID(ctx, existingID)
		if err != nil {
			return nil, domain.WrapStorage("get transaction", err)
		}
		uc.rememberKey(ctx, input.IdempotencyKey, existing.ID)
		return uc.duplicate(existing, input), nil
	}

	uc.rememberKey(ctx, input.IdempotencyKey, created.ID)

	if uc.metrics != nil {
		uc.metrics.TransactionsOpened.Inc()
	}
	uc.logger.Debug().
		Str("transaction_id", created.ID).
		Str("idempotency_key", created.IdempotencyKey).
		Str("currency", created.Currency).
		Msg("transaction opened")

	return &OpenResult{Transaction: created}, nil
}

func validateOpenInput(input OpenInput) error {
	if err := domain.ValidateIdempotencyKey(input.IdempotencyKey); err != nil {
		return err
	}
	if err := domain.ValidateCurrency(input.Currency); err != nil {
		return err
	}
	if err := domain.ValidateDescription(input.Description); err != nil {
		return err
	}
	return domain.ValidateReference(input.ReferenceType, input.ReferenceID)
}

func (uc *TransactionUseCase) cachedTransaction(ctx context.Context, key string) *domain.Transaction {
	if uc.idemCache == nil {
		return nil
	}

	id, found, err := uc.idemCache.Get(ctx, key)
	if err != nil {
		uc.logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency cache lookup failed")
		if uc.metrics != nil {
			uc.metrics.RedisErrors.WithLabelValues("idempotency_get").Inc()
		}
		return nil
	}
	if !found {
		return nil
	}

	txn, err := uc.txnRepo.GetByID(ctx, id)
	if err != nil {
		// The index stays authoritative; fall through to it.
		uc.logger.Warn().Err(err).Str("idempotency_key", key).Str("transaction_id", id).Msg("cached idempotency key did not resolve")
		return nil
	}
	return txn
}

func (uc *TransactionUseCase) rememberKey(ctx context.Context, key, transactionID string) {
	if uc.idemCache == nil {
		return
	}
	if err := uc.idemCache.Remember(ctx, key, transactionID, uc.cacheTTL); err != nil {
		uc.logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency cache write failed")
		if uc.metrics != nil {
			uc.metrics.RedisErrors.WithLabelValues("idempotency_remember").Inc()
		}
	}
}

func (uc *TransactionUseCase) duplicate(existing *domain.Transaction, input OpenInput) *OpenResult {
	if uc.metrics != nil {
		uc.metrics.DuplicateRequests.Inc()
	}

	event := uc.logger.Debug()
	if existing.Currency != input.Currency ||
		existing.ReferenceType != input.ReferenceType ||
		existing.ReferenceID != input.ReferenceID {
		event = uc.logger.Warn().
			Str("requested_currency", input.Currency).
			Str("requested_reference", input.ReferenceType+":"+input.ReferenceID)
	}
	event.
		Str("transaction_id", existing.ID).
		Str("idempotency_key", input.IdempotencyKey).
		Str("status", existing.Status.String()).
		Msg("idempotency key already used, returning existing transaction")

	return &OpenResult{Transaction: existing, Duplicate: true}
}

// AddEntryInput represents input for adding an entry to a pending transaction.
type AddEntryInput struct {
	TransactionID string
	AccountID     string
	Description   string
	Amount        domain.Amount
}

// AddEntry appends a signed entry to a pending transaction. Balances are untouched until Complete.
func (uc *TransactionUseCase) AddEntry(ctx context.Context, input AddEntryInput) (*domain.Entry, error) {
	if input.Amount.IsZero() {
		return nil, domain.ErrZeroAmount
	}
	if err := domain.ValidateDescription(input.Description); err != nil {
		return nil, err
	}

	var entry *domain.Entry
	err := runInTx(ctx, uc.txManager, uc.retrier, "add entry", func(txCtx context.Context, tx Transaction) error {
		txn, err := uc.lockPending(txCtx, tx, input.TransactionID)
		if err != nil {
			return err
		}

		entry, err = uc.insertEntry(txCtx, tx, txn, EntryInput{
			AccountID:   input.AccountID,
			Amount:      input.Amount,
			Description: input.Description,
		})
		return err
	})
	if err != nil {
		uc.recordError("add_entry", err)
		return nil, err
	}

	return entry, nil
}

// EntryInput is one leg passed to SetEntries.
type EntryInput struct {
	AccountID   string
	Description string
	Amount      domain.Amount
}

// SetEntries atomically replaces every entry of a pending transaction.
func (uc *TransactionUseCase) SetEntries(ctx context.Context, transactionID string, inputs []EntryInput) ([]*domain.Entry, error) {
	for _, in := range inputs {
		if in.Amount.IsZero() {
			return nil, domain.ErrZeroAmount
		}
		if err := domain.ValidateDescription(in.Description); err != nil {
			return nil, err
		}
	}

	var entries []*domain.Entry
	err := runInTx(ctx, uc.txManager, uc.retrier, "set entries", func(txCtx context.Context, tx Transaction) error {
		entries = entries[:0]

		txn, err := uc.lockPending(txCtx, tx, transactionID)
		if err != nil {
			return err
		}

		existing, err := uc.entryRepo.GetByTransactionTx(txCtx, tx, transactionID)
		if err != nil {
			return domain.WrapStorage("get entries", err)
		}
		for _, e := range existing {
			if err := uc.entryRepo.Delete(txCtx, tx, transactionID, e.ID); err != nil {
				return domain.WrapStorage("delete entry", err)
			}
		}

		for _, in := range inputs {
			entry, err := uc.insertEntry(txCtx, tx, txn, in)
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		uc.recordError("set_entries", err)
		return nil, err
	}

	return entries, nil
}

func (uc *TransactionUseCase) lockPending(ctx context.Context, tx Transaction, transactionID string) (*domain.Transaction, error) {
	txn, err := uc.txnRepo.GetByIDForUpdate(ctx, tx, transactionID)
	if err != nil {
		return nil, domain.WrapStorage("lock transaction", err)
	}
	if err := txn.EnsurePending(); err != nil {
		return nil, err
	}
	return txn, nil
}

func (uc *TransactionUseCase) insertEntry(ctx context.Context, tx Transaction, txn *domain.Transaction, in EntryInput) (*domain.Entry, error) {
	account, err := uc.accountRepo.GetByIDTx(ctx, tx, in.AccountID)
	if err != nil {
		return nil, domain.WrapStorage("get account", err)
	}
	if account.Currency != txn.Currency {
		return nil, fmt.Errorf("%w: account %s is %s, transaction %s is %s",
			domain.ErrCurrencyMismatch, account.ID, account.Currency, txn.ID, txn.Currency)
	}

	entryType, err := domain.EntryTypeFor(in.Amount)
	if err != nil {
		return nil, err
	}

	entry := &domain.Entry{
		ID:            uc.idGen.Generate(),
		TransactionID: txn.ID,
		AccountID:     account.ID,
		Amount:        in.Amount,
		Type:          entryType,
		Description:   in.Description,
		CreatedAt:     uc.now(),
	}
	if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
		return nil, domain.WrapStorage("create entry", err)
	}
	return entry, nil
}

// RemoveEntry deletes an entry from a pending transaction.
func (uc *TransactionUseCase) RemoveEntry(ctx context.Context, transactionID, entryID string) error {
	err := runInTx(ctx, uc.txManager, uc.retrier, "remove entry", func(txCtx context.Context, tx Transaction) error {
		if _, err := uc.lockPending(txCtx, tx, transactionID); err != nil {
			return err
		}
		if err := uc.entryRepo.Delete(txCtx, tx, transactionID, entryID); err != nil {
			return domain.WrapStorage("delete entry", err)
		}
		return nil
	})
	if err != nil {
		uc.recordError("remove_entry", err)
	}
	return err
}

// AccountBalance is an account's balance right after a commit.
type AccountBalance struct {
	AccountID string
	Delta     domain.Amount
	Balance   domain.Amount
}

// CommittedSummary describes a successful Complete.
type CommittedSummary struct {
	CompletedAt   time.Time
	TransactionID string
	Status        domain.TransactionStatus
	Balances      []AccountBalance
	EntryCount    int
	DebitTotal    domain.Amount
}

// Complete validates and applies a pending transaction.
func (uc *TransactionUseCase) Complete(ctx context.Context, transactionID string) (*CommittedSummary, error) {
	return uc.CompleteWithGuard(ctx, transactionID, nil)
}

// CompleteWithGuard is Complete with a policy check run on every touched account
// after its delta is applied. A guard error rolls the whole commit back and the
// transaction stays pending.
func (uc *TransactionUseCase) CompleteWithGuard(ctx context.Context, transactionID string, guard BalanceGuard) (*CommittedSummary, error) {
	start := time.Now()

	var summary *CommittedSummary
	err := runInTx(ctx, uc.txManager, uc.retrier, "complete transaction", func(txCtx context.Context, tx Transaction) error {
		txn, err := uc.txnRepo.GetByIDForUpdate(txCtx, tx, transactionID)
		if err != nil {
			return domain.WrapStorage("lock transaction", err)
		}
		if err := txn.EnsureCompletable(); err != nil {
			return err
		}

		entries, err := uc.entryRepo.GetByTransactionTx(txCtx, tx, transactionID)
		if err != nil {
			return domain.WrapStorage("get entries", err)
		}
		if len(entries) < domain.MinEntriesPerTransaction {
			return fmt.Errorf("%w: transaction %s has %d", domain.ErrEmptyTransaction, transactionID, len(entries))
		}

		totals, err := domain.TotalEntries(entries)
		if err != nil {
			return err
		}
		if !totals.Sum.IsZero() {
			return &domain.UnbalancedError{TransactionID: transactionID, Sum: totals.Sum}
		}

		now := uc.now()
		balances, err := uc.applyEntries(txCtx, tx, entries, now, guard)
		if err != nil {
			return err
		}

		txn.MarkCompleted(now, totals.Count, totals.DebitTotal)
		if err := uc.txnRepo.Update(txCtx, tx, txn); err != nil {
			return domain.WrapStorage("update transaction", err)
		}

		balanceMap := make(map[string]domain.Amount, len(balances))
		for _, b := range balances {
			balanceMap[b.AccountID] = b.Balance
		}
		if err := uc.emit(txCtx, tx, txn.ID, domain.EventTypeTransactionCompleted,
			domain.NewTransactionCompletedEvent(txn, balanceMap), now); err != nil {
			return err
		}

		summary = &CommittedSummary{
			TransactionID: txn.ID,
			Status:        txn.Status,
			CompletedAt:   now,
			Balances:      balances,
			EntryCount:    totals.Count,
			DebitTotal:    totals.DebitTotal,
		}
		return nil
	})
	if err != nil {
		uc.recordError("complete", err)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsCompleted.Inc()
		uc.metrics.CompleteDuration.Observe(time.Since(start).Seconds())
		uc.metrics.TransactionEntries.Observe(float64(summary.EntryCount))
	}
	uc.logger.Info().
		Str("transaction_id", summary.TransactionID).
		Int("entries", summary.EntryCount).
		Int64("debit_total", summary.DebitTotal.Int64()).
		Msg("transaction completed")

	return summary, nil
}

// applyEntries locks every touched account in ascending id order and applies the
// per-account net delta. Returned balances follow the same order.
func (uc *TransactionUseCase) applyEntries(
	ctx context.Context,
	tx Transaction,
	entries []*domain.Entry,
	now time.Time,
	guard BalanceGuard,
) ([]AccountBalance, error) {
	deltas := make(map[string]domain.Amount)
	for _, e := range entries {
		d, err := deltas[e.AccountID].Add(e.Amount)
		if err != nil {
			return nil, err
		}
		deltas[e.AccountID] = d
	}

	ids := make([]string, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return nil, domain.WrapStorage("lock accounts", err)
	}
	if len(accounts) != len(ids) {
		return nil, domain.ErrAccountNotFound
	}

	accountMap := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		accountMap[a.ID] = a
	}

	balances := make([]AccountBalance, 0, len(ids))
	for _, id := range ids {
		account, ok := accountMap[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
		}
		delta := deltas[id]

		// Overflow is checked before the write so storage never sees a wrapped value.
		if _, err := account.ApplyDelta(delta); err != nil {
			return nil, err
		}

		newBalance, err := uc.accountRepo.ApplyDelta(ctx, tx, id, delta, now)
		if err != nil {
			return nil, domain.WrapStorage("apply delta", err)
		}

		if guard != nil {
			if err := guard(account, delta, newBalance); err != nil {
				return nil, err
			}
		}

		balances = append(balances, AccountBalance{AccountID: id, Delta: delta, Balance: newBalance})
	}

	return balances, nil
}

// Fail aborts a pending transaction. Its entries never touch balances.
func (uc *TransactionUseCase) Fail(ctx context.Context, transactionID, reason string) (*domain.Transaction, error) {
	return uc.fail(ctx, transactionID, reason, FailCauseAborted)
}

func (uc *TransactionUseCase) fail(ctx context.Context, transactionID, reason, cause string) (*domain.Transaction, error) {
	var failed *domain.Transaction
	err := runInTx(ctx, uc.txManager, uc.retrier, "fail transaction", func(txCtx context.Context, tx Transaction) error {
		txn, err := uc.txnRepo.GetByIDForUpdate(txCtx, tx, transactionID)
		if err != nil {
			return domain.WrapStorage("lock transaction", err)
		}
		if err := txn.EnsureCompletable(); err != nil {
			return err
		}

		now := uc.now()
		txn.MarkFailed(now)
		if err := uc.txnRepo.Update(txCtx, tx, txn); err != nil {
			return domain.WrapStorage("update transaction", err)
		}

		if err := uc.emit(txCtx, tx, txn.ID, domain.EventTypeTransactionFailed,
			domain.NewTransactionFailedEvent(txn, reason), now); err != nil {
			return err
		}

		failed = txn
		return nil
	})
	if err != nil {
		uc.recordError("fail", err)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsFailed.WithLabelValues(cause).Inc()
	}
	uc.logger.Info().
		Str("transaction_id", failed.ID).
		Str("cause", cause).
		Str("reason", reason).
		Msg("transaction failed")

	return failed, nil
}

// Reverse records a compensating transaction that negates every entry of a completed
// transaction and marks the original reversed, in one storage transaction.
func (uc *TransactionUseCase) Reverse(ctx context.Context, transactionID, reason string) (*domain.Transaction, error) {
	if err := domain.ValidateDescription(reason); err != nil {
		return nil, err
	}

	var reversal *domain.Transaction
	err := runInTx(ctx, uc.txManager, uc.retrier, "reverse transaction", func(txCtx context.Context, tx Transaction) error {
		original, err := uc.txnRepo.GetByIDForUpdate(txCtx, tx, transactionID)
		if err != nil {
			return domain.WrapStorage("lock transaction", err)
		}
		if err := original.EnsureReversible(); err != nil {
			return err
		}

		entries, err := uc.entryRepo.GetByTransactionTx(txCtx, tx, transactionID)
		if err != nil {
			return domain.WrapStorage("get entries", err)
		}

		now := uc.now()
		rev := &domain.Transaction{
			ID:             uc.idGen.Generate(),
			Description:    reversalDescription(original.ID, reason),
			ReferenceType:  domain.ReferenceTypeReversal,
			ReferenceID:    original.ID,
			IdempotencyKey: domain.ReversalIdempotencyKey(original.ID),
			Currency:       original.Currency,
			Status:         domain.TransactionStatusPending,
			OccurredAt:     now,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		if _, reserved, err := uc.idemIndex.Reserve(txCtx, tx, rev.IdempotencyKey, rev.ID, now); err != nil {
			return domain.WrapStorage("reserve idempotency key", err)
		} else if !reserved {
			return fmt.Errorf("%w: transaction %s already has a reversal", domain.ErrInvalidState, original.ID)
		}

		negated := make([]*domain.Entry, 0, len(entries))
		for _, e := range entries {
			negated = append(negated, e.Negated(uc.idGen.Generate(), rev.ID, now))
		}
		totals, err := domain.TotalEntries(negated)
		if err != nil {
			return err
		}

		rev.MarkCompleted(now, totals.Count, totals.DebitTotal)
		if err := uc.txnRepo.Create(txCtx, tx, rev); err != nil {
			return domain.WrapStorage("create reversal", err)
		}
		for _, e := range negated {
			if err := uc.entryRepo.Create(txCtx, tx, e); err != nil {
				return domain.WrapStorage("create entry", err)
			}
		}

		if _, err := uc.applyEntries(txCtx, tx, negated, now, nil); err != nil {
			return err
		}

		original.MarkReversed(now, rev.ID)
		if err := uc.txnRepo.Update(txCtx, tx, original); err != nil {
			return domain.WrapStorage("update transaction", err)
		}

		if err := uc.emit(txCtx, tx, original.ID, domain.EventTypeTransactionReversed,
			domain.NewTransactionReversedEvent(original, rev, reason), now); err != nil {
			return err
		}

		reversal = rev
		return nil
	})
	if err != nil {
		uc.recordError("reverse", err)
		return nil, err
	}

	uc.rememberKey(ctx, reversal.IdempotencyKey, reversal.ID)

	if uc.metrics != nil {
		uc.metrics.TransactionsReversed.Inc()
	}
	uc.logger.Info().
		Str("transaction_id", transactionID).
		Str("reversal_id", reversal.ID).
		Str("reason", reason).
		Msg("transaction reversed")

	return reversal, nil
}

func reversalDescription(originalID, reason string) string {
	d := "reversal of " + originalID
	if r := strings.TrimSpace(reason); r != "" {
		d += ": " + r
	}
	if r := []rune(d); len(r) > domain.MaxDescriptionLength {
		d = string(r[:domain.MaxDescriptionLength])
	}
	return d
}

// SweepAbandoned moves pending transactions older than olderThan to failed.
// It returns the number of transactions failed by this sweep.
func (uc *TransactionUseCase) SweepAbandoned(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := uc.now().Add(-olderThan)

	stale, err := uc.txnRepo.ListPendingBefore(ctx, cutoff, SweepBatchSize)
	if err != nil {
		return 0, domain.WrapStorage("list pending transactions", err)
	}

	swept := 0
	for _, txn := range stale {
		if err := ctx.Err(); err != nil {
			return swept, err
		}

		_, err := uc.fail(ctx, txn.ID, "abandoned: pending since "+txn.CreatedAt.Format(time.RFC3339), FailCauseAbandoned)
		if errors.Is(err, domain.ErrAlreadyFinalized) {
			// Completed or failed concurrently.
			continue
		}
		if err != nil {
			return swept, err
		}
		swept++
	}

	if uc.metrics != nil && swept > 0 {
		uc.metrics.TransactionsSwept.Add(float64(swept))
	}
	if swept > 0 {
		uc.logger.Info().Int("count", swept).Time("cutoff", cutoff).Msg("swept abandoned transactions")
	}

	return swept, nil
}

// GetTransaction retrieves a transaction by ID.
func (uc *TransactionUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	txn, err := uc.txnRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.WrapStorage("get transaction", err)
	}
	return txn, nil
}

// ListEntries lists the entries of a transaction.
func (uc *TransactionUseCase) ListEntries(ctx context.Context, transactionID string) ([]*domain.Entry, error) {
	if _, err := uc.GetTransaction(ctx, transactionID); err != nil {
		return nil, err
	}
	entries, err := uc.entryRepo.GetByTransaction(ctx, transactionID)
	if err != nil {
		return nil, domain.WrapStorage("get entries", err)
	}
	return entries, nil
}

func (uc *TransactionUseCase) emit(ctx context.Context, tx Transaction, aggregateID, eventType string, payload map[string]any, now time.Time) error {
	if uc.outboxRepo == nil {
		return nil
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   aggregateID,
		AggregateType: domain.AggregateTypeTransaction,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     now,
	}
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return domain.WrapStorage("create outbox event", err)
	}
	return nil
}

func (uc *TransactionUseCase) recordError(op string, err error) {
	if uc.metrics != nil {
		uc.metrics.TransactionErrors.WithLabelValues(op, errorType(err)).Inc()
	}
	if errors.Is(err, domain.ErrStorageFailure) {
		uc.logger.Error().Err(err).Str("operation", op).Msg("ledger storage failure")
	}
}
