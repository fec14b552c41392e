package dto

import (
	"time"

	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Currency     string    `json:"currency"`
	Class        string    `json:"class"`
	DisplayName  string    `json:"display_name"`
	Balance      int64     `json:"balance"`
	BalanceMajor string    `json:"balance_major"`
	Version      int64     `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:           a.ID,
		OwnerID:      a.OwnerID,
		Currency:     a.Currency,
		Class:        a.Class.String(),
		DisplayName:  a.DisplayName,
		Balance:      a.Balance.Int64(),
		BalanceMajor: a.Balance.FormatMajor(a.Currency),
		Version:      a.Version,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse represents a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
}

// BalanceResponse represents an account balance.
type BalanceResponse struct {
	AccountID    string    `json:"account_id"`
	Currency     string    `json:"currency"`
	Class        string    `json:"class"`
	Balance      int64     `json:"balance"`
	BalanceMajor string    `json:"balance_major"`
	Version      int64     `json:"version"`
	AsOf         time.Time `json:"as_of"`
}

// BalanceFromUseCase converts a usecase balance to response.
func BalanceFromUseCase(b *usecase.Balance) *BalanceResponse {
	return &BalanceResponse{
		AccountID:    b.AccountID,
		Currency:     b.Currency,
		Class:        b.Class.String(),
		Balance:      b.Amount.Int64(),
		BalanceMajor: b.Amount.FormatMajor(b.Currency),
		Version:      b.Version,
		AsOf:         b.AsOf,
	}
}

// HistoricalBalanceResponse represents the balance of an account at a point in time.
type HistoricalBalanceResponse struct {
	AccountID string    `json:"account_id"`
	Balance   int64     `json:"balance"`
	At        time.Time `json:"at"`
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID             string     `json:"id"`
	Description    string     `json:"description,omitempty"`
	ReferenceType  string     `json:"reference_type,omitempty"`
	ReferenceID    string     `json:"reference_id,omitempty"`
	IdempotencyKey string     `json:"idempotency_key"`
	Currency       string     `json:"currency"`
	Status         string     `json:"status"`
	EntryCount     int        `json:"entry_count"`
	DebitTotal     int64      `json:"debit_total"`
	ReversalID     *string    `json:"reversal_id,omitempty"`
	OccurredAt     time.Time  `json:"occurred_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// TransactionFromDomain converts domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:             t.ID,
		Description:    t.Description,
		ReferenceType:  t.ReferenceType,
		ReferenceID:    t.ReferenceID,
		IdempotencyKey: t.IdempotencyKey,
		Currency:       t.Currency,
		Status:         t.Status.String(),
		EntryCount:     t.EntryCount,
		DebitTotal:     t.DebitTotal.Int64(),
		ReversalID:     t.ReversalID,
		OccurredAt:     t.OccurredAt,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		CompletedAt:    t.CompletedAt,
	}
}

// OpenTransactionResponse is returned by POST /transactions.
type OpenTransactionResponse struct {
	Transaction *TransactionResponse `json:"transaction"`
	Duplicate   bool                 `json:"duplicate"`
}

// EntryResponse represents an entry in API responses.
type EntryResponse struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transaction_id"`
	AccountID     string    `json:"account_id"`
	Type          string    `json:"type"`
	Amount        int64     `json:"amount"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// EntryFromDomain converts domain entry to response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	return &EntryResponse{
		ID:            e.ID,
		TransactionID: e.TransactionID,
		AccountID:     e.AccountID,
		Type:          string(e.Type),
		Amount:        e.Amount.Int64(),
		Description:   e.Description,
		CreatedAt:     e.CreatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// AccountBalanceResponse is the post-commit balance of one touched account.
type AccountBalanceResponse struct {
	AccountID string `json:"account_id"`
	Delta     int64  `json:"delta"`
	Balance   int64  `json:"balance"`
}

// CommittedSummaryResponse describes a completed transaction.
type CommittedSummaryResponse struct {
	TransactionID string                   `json:"transaction_id"`
	Status        string                   `json:"status"`
	CompletedAt   time.Time                `json:"completed_at"`
	EntryCount    int                      `json:"entry_count"`
	DebitTotal    int64                    `json:"debit_total"`
	Balances      []AccountBalanceResponse `json:"balances"`
}

// SummaryFromUseCase converts a committed summary to response.
func SummaryFromUseCase(s *usecase.CommittedSummary) *CommittedSummaryResponse {
	if s == nil {
		return nil
	}
	balances := make([]AccountBalanceResponse, len(s.Balances))
	for i, b := range s.Balances {
		balances[i] = AccountBalanceResponse{
			AccountID: b.AccountID,
			Delta:     b.Delta.Int64(),
			Balance:   b.Balance.Int64(),
		}
	}
	return &CommittedSummaryResponse{
		TransactionID: s.TransactionID,
		Status:        s.Status.String(),
		CompletedAt:   s.CompletedAt,
		EntryCount:    s.EntryCount,
		DebitTotal:    s.DebitTotal.Int64(),
		Balances:      balances,
	}
}

// RecordResponse is returned by the posting endpoints.
// Summary is omitted when the key replayed an already finalized transaction.
type RecordResponse struct {
	Transaction *TransactionResponse      `json:"transaction"`
	Summary     *CommittedSummaryResponse `json:"summary,omitempty"`
	Duplicate   bool                      `json:"duplicate"`
}

// RecordFromUseCase converts a record result to response.
func RecordFromUseCase(r *usecase.RecordResult) *RecordResponse {
	return &RecordResponse{
		Transaction: TransactionFromDomain(r.Transaction),
		Summary:     SummaryFromUseCase(r.Summary),
		Duplicate:   r.Duplicate,
	}
}

// TransactionCheckResponse is the reconciliation of one transaction.
type TransactionCheckResponse struct {
	TransactionID      string `json:"transaction_id"`
	Status             string `json:"status"`
	Balanced           bool   `json:"balanced"`
	RecordedSum        int64  `json:"recorded_sum"`
	ActualSum          int64  `json:"actual_sum"`
	RecordedDebitTotal int64  `json:"recorded_debit_total"`
	ActualDebitTotal   int64  `json:"actual_debit_total"`
	RecordedEntryCount int    `json:"recorded_entry_count"`
	ActualEntryCount   int    `json:"actual_entry_count"`
}

// TransactionCheckFromUseCase converts a transaction check to response.
func TransactionCheckFromUseCase(c *usecase.TransactionCheck) *TransactionCheckResponse {
	return &TransactionCheckResponse{
		TransactionID:      c.TransactionID,
		Status:             c.Status.String(),
		Balanced:           c.Balanced,
		RecordedSum:        c.RecordedSum.Int64(),
		ActualSum:          c.ActualSum.Int64(),
		RecordedDebitTotal: c.RecordedDebitTotal.Int64(),
		ActualDebitTotal:   c.ActualDebitTotal.Int64(),
		RecordedEntryCount: c.RecordedEntryCount,
		ActualEntryCount:   c.ActualEntryCount,
	}
}

// AccountCheckResponse is the reconciliation of one account.
type AccountCheckResponse struct {
	AccountID       string `json:"account_id"`
	Currency        string `json:"currency"`
	Balanced        bool   `json:"balanced"`
	StoredBalance   int64  `json:"stored_balance"`
	ComputedBalance int64  `json:"computed_balance"`
	Difference      int64  `json:"difference"`
}

// AccountCheckFromUseCase converts an account check to response.
func AccountCheckFromUseCase(c *usecase.AccountCheck) *AccountCheckResponse {
	return &AccountCheckResponse{
		AccountID:       c.AccountID,
		Currency:        c.Currency,
		Balanced:        c.Balanced,
		StoredBalance:   c.StoredBalance.Int64(),
		ComputedBalance: c.ComputedBalance.Int64(),
		Difference:      c.Difference.Int64(),
	}
}

// CurrencyTotalsResponse holds the ledger-wide totals of one currency.
type CurrencyTotalsResponse struct {
	Currency     string `json:"currency"`
	AccountCount int64  `json:"account_count"`
	BalanceTotal int64  `json:"balance_total"`
	EntryTotal   int64  `json:"entry_total"`
}

// LedgerConsistencyResponse represents the ledger-wide zero-sum check.
type LedgerConsistencyResponse struct {
	Consistent   bool                     `json:"consistent"`
	Inconsistent []string                 `json:"inconsistent_currencies,omitempty"`
	Currencies   []CurrencyTotalsResponse `json:"currencies"`
	CheckedAt    time.Time                `json:"checked_at"`
}

// LedgerConsistencyFromUseCase converts a consistency result to response.
func LedgerConsistencyFromUseCase(c *usecase.LedgerConsistency) *LedgerConsistencyResponse {
	if c == nil {
		return nil
	}
	currencies := make([]CurrencyTotalsResponse, len(c.Currencies))
	for i, t := range c.Currencies {
		currencies[i] = CurrencyTotalsResponse{
			Currency:     t.Currency,
			AccountCount: t.AccountCount,
			BalanceTotal: t.BalanceTotal.Int64(),
			EntryTotal:   t.EntryTotal.Int64(),
		}
	}
	return &LedgerConsistencyResponse{
		Consistent:   c.Consistent,
		Inconsistent: c.Inconsistent,
		Currencies:   currencies,
		CheckedAt:    c.CheckedAt,
	}
}

// ReconciliationReportResponse represents a full reconciliation run.
type ReconciliationReportResponse struct {
	Consistent               bool                        `json:"consistent"`
	CheckedAt                time.Time                   `json:"checked_at"`
	TotalAccounts            int                         `json:"total_accounts"`
	ReconciledAccounts       int                         `json:"reconciled_accounts"`
	TotalTransactions        int                         `json:"total_transactions"`
	BalancedTransactions     int                         `json:"balanced_transactions"`
	Ledger                   *LedgerConsistencyResponse  `json:"ledger,omitempty"`
	AccountDiscrepancies     []*AccountCheckResponse     `json:"account_discrepancies"`
	TransactionDiscrepancies []*TransactionCheckResponse `json:"transaction_discrepancies"`
}

// ReportFromUseCase converts a reconciliation report to response.
func ReportFromUseCase(r *usecase.ReconciliationReport) *ReconciliationReportResponse {
	resp := &ReconciliationReportResponse{
		Consistent:               r.Consistent,
		CheckedAt:                r.CheckedAt,
		TotalAccounts:            r.TotalAccounts,
		ReconciledAccounts:       r.ReconciledAccounts,
		TotalTransactions:        r.TotalTransactions,
		BalancedTransactions:     r.BalancedTransactions,
		Ledger:                   LedgerConsistencyFromUseCase(r.Ledger),
		AccountDiscrepancies:     make([]*AccountCheckResponse, len(r.AccountDiscrepancies)),
		TransactionDiscrepancies: make([]*TransactionCheckResponse, len(r.TransactionDiscrepancies)),
	}
	for i, c := range r.AccountDiscrepancies {
		resp.AccountDiscrepancies[i] = AccountCheckFromUseCase(c)
	}
	for i, c := range r.TransactionDiscrepancies {
		resp.TransactionDiscrepancies[i] = TransactionCheckFromUseCase(c)
	}
	return resp
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
