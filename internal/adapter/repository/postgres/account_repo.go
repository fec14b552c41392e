package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/infrastructure/postgres/generated"
	"github.com/iho/creditledger/internal/usecase"
)

const pgErrNumericOutOfRange = "22003"

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	queries *generated.Queries
}

// NewAccountRepository creates a new AccountRepository over a pool or a single connection.
func NewAccountRepository(db generated.DBTX) *AccountRepository {
	return &AccountRepository{queries: generated.New(db)}
}

// GetOrCreate inserts the account unless its natural key is taken.
// A conflicting insert returns no row, in which case the existing account is read back.
func (r *AccountRepository) GetOrCreate(ctx context.Context, tx usecase.Transaction, account *domain.Account) (*domain.Account, bool, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, false, err
	}

	row, err := queries.InsertAccountIfAbsent(ctx, generated.InsertAccountIfAbsentParams{
		ID:          account.ID,
		OwnerID:     account.OwnerID,
		Currency:    account.Currency,
		Class:       string(account.Class),
		DisplayName: account.DisplayName,
		CreatedAt:   timeToPgTimestamptz(account.CreatedAt),
		UpdatedAt:   timeToPgTimestamptz(account.UpdatedAt),
	})
	if err == nil {
		return rowToAccount(row), true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	existing, err := queries.GetAccountByKey(ctx, generated.GetAccountByKeyParams{
		OwnerID:  account.OwnerID,
		Currency: account.Currency,
		Class:    string(account.Class),
	})
	if err != nil {
		return nil, false, err
	}

	return rowToAccount(existing), false, nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return getAccountByID(ctx, r.queries, id)
}

// GetByIDTx retrieves an account by ID inside tx.
func (r *AccountRepository) GetByIDTx(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}
	return getAccountByID(ctx, queries, id)
}

func getAccountByID(ctx context.Context, queries *generated.Queries, id string) (*domain.Account, error) {
	row, err := queries.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return rowToAccount(row), nil
}

// GetByKey retrieves an account by its natural key.
func (r *AccountRepository) GetByKey(ctx context.Context, key domain.AccountKey) (*domain.Account, error) {
	row, err := r.queries.GetAccountByKey(ctx, generated.GetAccountByKeyParams{
		OwnerID:  key.OwnerID,
		Currency: key.Currency,
		Class:    string(key.Class),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return rowToAccount(row), nil
}

// GetByIDsForUpdate locks the accounts with SELECT ... ORDER BY id FOR UPDATE.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	rows, err := queries.GetAccountsByIDsForUpdate(ctx, ids)
	if err != nil {
		return nil, err
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}

	return accounts, nil
}

// ApplyDelta adds delta to the stored balance and returns the new balance.
func (r *AccountRepository) ApplyDelta(ctx context.Context, tx usecase.Transaction, id string, delta domain.Amount, updatedAt time.Time) (domain.Amount, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return 0, err
	}

	balance, err := queries.ApplyAccountDelta(ctx, generated.ApplyAccountDeltaParams{
		ID:        id,
		Balance:   delta.Int64(),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrAccountNotFound
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrNumericOutOfRange {
			return 0, domain.ErrAmountOverflow
		}

		return 0, err
	}

	return domain.Amount(balance), nil
}

// List lists accounts with pagination.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.queries.ListAccounts(ctx, generated.ListAccountsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}

	return accounts, nil
}

func rowToAccount(row generated.Account) *domain.Account {
	return &domain.Account{
		ID:          row.ID,
		OwnerID:     row.OwnerID,
		Currency:    row.Currency,
		Class:       domain.AccountClass(row.Class),
		DisplayName: row.DisplayName,
		Balance:     domain.Amount(row.Balance),
		Version:     row.Version,
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}
}
