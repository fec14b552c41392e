package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/infrastructure/metrics"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	metrics     *metrics.Metrics

	retrier Retrier
	cache   Cache
	logger  zerolog.Logger
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		metrics:     metrics,
		retrier:     noRetry{},
		logger:      zerolog.Nop(),
	}
}

// WithRetrier retries account creation on transient conflicts.
func (uc *AccountUseCase) WithRetrier(r Retrier) *AccountUseCase {
	if r != nil {
		uc.retrier = r
	}
	return uc
}

// WithCache caches the natural key to id mapping.
func (uc *AccountUseCase) WithCache(c Cache) *AccountUseCase {
	uc.cache = c
	return uc
}

// WithLogger sets the logger.
func (uc *AccountUseCase) WithLogger(l zerolog.Logger) *AccountUseCase {
	uc.logger = l.With().Str("component", "accounts").Logger()
	return uc
}

// GetOrCreateInput represents input for resolving an account by its natural key.
type GetOrCreateInput struct {
	OwnerID     string
	Currency    string
	Class       domain.AccountClass
	DisplayName string
}

// GetOrCreate returns the account for (owner, currency, class), creating it on first use.
func (uc *AccountUseCase) GetOrCreate(ctx context.Context, input GetOrCreateInput) (*domain.Account, error) {
	input.Currency = domain.NormalizeCurrency(input.Currency)
	if err := domain.ValidateOwner(input.OwnerID); err != nil {
		return nil, err
	}
	if err := domain.ValidateCurrency(input.Currency); err != nil {
		return nil, err
	}
	if !input.Class.IsValid() {
		return nil, domain.ErrInvalidClass
	}
	if input.DisplayName == "" {
		input.DisplayName = input.OwnerID + " " + input.Currency + " " + string(input.Class)
	}
	if err := domain.ValidateDisplayName(input.DisplayName); err != nil {
		return nil, err
	}

	key := domain.AccountKey{OwnerID: input.OwnerID, Currency: input.Currency, Class: input.Class}
	if account := uc.cachedAccount(ctx, key); account != nil {
		return account, nil
	}

	var (
		account *domain.Account
		created bool
	)
	err := runInTx(ctx, uc.txManager, uc.retrier, "get or create account", func(txCtx context.Context, tx Transaction) error {
		now := time.Now().UTC()
		candidate := &domain.Account{
			ID:          uc.idGen.Generate(),
			OwnerID:     input.OwnerID,
			Currency:    input.Currency,
			Class:       input.Class,
			DisplayName: input.DisplayName,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		var err error
		account, created, err = uc.accountRepo.GetOrCreate(txCtx, tx, candidate)
		if err != nil {
			return domain.WrapStorage("get or create account", err)
		}
		if !created || uc.outboxRepo == nil {
			return nil
		}

		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   account.ID,
			AggregateType: domain.AggregateTypeAccount,
			EventType:     domain.EventTypeAccountCreated,
			Payload:       domain.NewAccountCreatedEvent(account),
			CreatedAt:     now,
		}
		if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
			return domain.WrapStorage("create outbox event", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		if uc.metrics != nil {
			uc.metrics.AccountsCreated.Inc()
		}
		uc.logger.Info().
			Str("account_id", account.ID).
			Str("key", key.String()).
			Msg("account created")
	}
	uc.cacheAccount(ctx, key, account.ID)

	return account, nil
}

func accountCacheKey(key domain.AccountKey) string {
	return "account:" + key.String()
}

func (uc *AccountUseCase) cachedAccount(ctx context.Context, key domain.AccountKey) *domain.Account {
	if uc.cache == nil {
		return nil
	}
	id, found, err := uc.cache.Get(ctx, accountCacheKey(key))
	if err != nil {
		uc.logger.Warn().Err(err).Str("key", key.String()).Msg("account cache lookup failed")
		return nil
	}
	if !found {
		return nil
	}
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		uc.logger.Warn().Err(err).Str("account_id", id).Msg("cached account did not resolve")
		return nil
	}
	return account
}

func (uc *AccountUseCase) cacheAccount(ctx context.Context, key domain.AccountKey, id string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Set(ctx, accountCacheKey(key), id, AccountKeyTTL); err != nil {
		uc.logger.Warn().Err(err).Str("key", key.String()).Msg("account cache write failed")
	}
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.WrapStorage("get account", err)
	}
	return account, nil
}

// FindAccount looks an account up by its natural key without creating it.
func (uc *AccountUseCase) FindAccount(ctx context.Context, key domain.AccountKey) (*domain.Account, error) {
	key.Currency = domain.NormalizeCurrency(key.Currency)
	account, err := uc.accountRepo.GetByKey(ctx, key)
	if err != nil {
		return nil, domain.WrapStorage("find account", err)
	}
	return account, nil
}

// Balance is a point-in-time balance read.
type Balance struct {
	AsOf      time.Time
	AccountID string
	Currency  string
	Class     domain.AccountClass
	Amount    domain.Amount
	Version   int64
}

// GetBalance returns the current committed balance of an account.
func (uc *AccountUseCase) GetBalance(ctx context.Context, accountID string) (*Balance, error) {
	account, err := uc.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &Balance{
		AccountID: account.ID,
		Currency:  account.Currency,
		Class:     account.Class,
		Amount:    account.Balance,
		Version:   account.Version,
		AsOf:      time.Now().UTC(),
	}, nil
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}
	if input.Limit > 100 {
		input.Limit = 100
	}
	if input.Offset < 0 {
		input.Offset = 0
	}
	accounts, err := uc.accountRepo.List(ctx, input.Limit, input.Offset)
	if err != nil {
		return nil, domain.WrapStorage("list accounts", err)
	}
	return accounts, nil
}
