package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/infrastructure/metrics"
)

// Anomaly kinds reported by reconciliation.
const (
	AnomalyTransaction = "transaction"
	AnomalyAccount     = "account"
	AnomalyLedger      = "ledger"
)

// ReconciliationUseCase handles balance reconciliation operations
type ReconciliationUseCase struct {
	accountRepo AccountRepository
	txnRepo     TransactionRepository
	entryRepo   EntryRepository
	ledgerRepo  LedgerRepository
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	accountRepo AccountRepository,
	txnRepo TransactionRepository,
	entryRepo EntryRepository,
	ledgerRepo LedgerRepository,
	metrics *metrics.Metrics,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		entryRepo:   entryRepo,
		ledgerRepo:  ledgerRepo,
		metrics:     metrics,
		logger:      zerolog.Nop(),
	}
}

// WithLogger sets the logger anomalies are reported to.
func (uc *ReconciliationUseCase) WithLogger(l zerolog.Logger) *ReconciliationUseCase {
	uc.logger = l.With().Str("component", "reconciliation").Logger()
	return uc
}

// TransactionCheck compares a posted transaction's recorded totals with its entries.
type TransactionCheck struct {
	TransactionID      string
	Status             domain.TransactionStatus
	RecordedSum        domain.Amount
	ActualSum          domain.Amount
	RecordedDebitTotal domain.Amount
	ActualDebitTotal   domain.Amount
	RecordedEntryCount int
	ActualEntryCount   int
	Balanced           bool
}

// CheckTransaction verifies a completed or reversed transaction against its entries.
func (uc *ReconciliationUseCase) CheckTransaction(ctx context.Context, transactionID string) (*TransactionCheck, error) {
	txn, err := uc.txnRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, domain.WrapStorage("get transaction", err)
	}
	if !txn.Status.IsPosted() {
		return nil, fmt.Errorf("%w: transaction %s is %s", domain.ErrNotCompleted, txn.ID, txn.Status)
	}

	entries, err := uc.entryRepo.GetByTransaction(ctx, transactionID)
	if err != nil {
		return nil, domain.WrapStorage("get entries", err)
	}

	check := &TransactionCheck{
		TransactionID:      txn.ID,
		Status:             txn.Status,
		RecordedDebitTotal: txn.DebitTotal,
		RecordedEntryCount: txn.EntryCount,
	}

	totals, err := domain.TotalEntries(entries)
	if err != nil {
		// An overflowing sum cannot be balanced.
		check.ActualEntryCount = len(entries)
		uc.anomaly(AnomalyTransaction, "entry sum overflows", map[string]any{"transaction_id": txn.ID})
		return check, nil
	}

	check.ActualSum = totals.Sum
	check.ActualDebitTotal = totals.DebitTotal
	check.ActualEntryCount = totals.Count
	check.Balanced = check.ActualSum == check.RecordedSum &&
		check.ActualDebitTotal == check.RecordedDebitTotal &&
		check.ActualEntryCount == check.RecordedEntryCount

	if !check.Balanced {
		uc.anomaly(AnomalyTransaction, "transaction does not match its entries", map[string]any{
			"transaction_id":       txn.ID,
			"actual_sum":           check.ActualSum.Int64(),
			"recorded_debit_total": check.RecordedDebitTotal.Int64(),
			"actual_debit_total":   check.ActualDebitTotal.Int64(),
			"recorded_entry_count": check.RecordedEntryCount,
			"actual_entry_count":   check.ActualEntryCount,
		})
	}

	return check, nil
}

// AccountCheck compares an account's stored balance with the replay of its posted entries.
type AccountCheck struct {
	AccountID       string
	Currency        string
	StoredBalance   domain.Amount
	ComputedBalance domain.Amount
	Difference      domain.Amount
	Balanced        bool
}

// maxAccountCheckAttempts bounds re-reads when a commit lands between the two reads.
const maxAccountCheckAttempts = 3

// CheckAccount replays an account's entries of completed and reversed transactions
// and compares the result with the stored balance.
func (uc *ReconciliationUseCase) CheckAccount(ctx context.Context, accountID string) (*AccountCheck, error) {
	var check *AccountCheck

	for attempt := 0; attempt < maxAccountCheckAttempts; attempt++ {
		before, err := uc.accountRepo.GetByID(ctx, accountID)
		if err != nil {
			return nil, domain.WrapStorage("get account", err)
		}

		computed, err := uc.entryRepo.SumPostedByAccount(ctx, accountID)
		if err != nil {
			return nil, domain.WrapStorage("sum entries", err)
		}

		after, err := uc.accountRepo.GetByID(ctx, accountID)
		if err != nil {
			return nil, domain.WrapStorage("get account", err)
		}

		check = &AccountCheck{
			AccountID:       accountID,
			Currency:        after.Currency,
			StoredBalance:   after.Balance,
			ComputedBalance: computed,
		}
		diff, err := after.Balance.Add(computed.Neg())
		check.Difference = diff
		check.Balanced = err == nil && diff.IsZero()

		if check.Balanced || before.Version == after.Version {
			break
		}
	}

	if !check.Balanced {
		uc.anomaly(AnomalyAccount, "account balance does not match its entries", map[string]any{
			"account_id":       check.AccountID,
			"stored_balance":   check.StoredBalance.Int64(),
			"computed_balance": check.ComputedBalance.Int64(),
			"difference":       check.Difference.Int64(),
		})
	}

	return check, nil
}

// CheckLedgerConsistency verifies double-entry bookkeeping consistency
func (uc *ReconciliationUseCase) CheckLedgerConsistency(ctx context.Context) (*LedgerConsistency, error) {
	result, err := checkLedger(ctx, uc.ledgerRepo)
	if err != nil {
		return nil, err
	}

	for _, currency := range result.Inconsistent {
		for _, t := range result.Currencies {
			if t.Currency != currency {
				continue
			}
			uc.anomaly(AnomalyLedger, "ledger does not sum to zero", map[string]any{
				"currency":      t.Currency,
				"balance_total": t.BalanceTotal.Int64(),
				"entry_total":   t.EntryTotal.Int64(),
			})
		}
	}

	return result, nil
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	CheckedAt                time.Time
	Ledger                   *LedgerConsistency
	AccountDiscrepancies     []*AccountCheck
	TransactionDiscrepancies []*TransactionCheck
	TotalAccounts            int
	ReconciledAccounts       int
	TotalTransactions        int
	BalancedTransactions     int
	Consistent               bool
}

// GenerateReport checks every account, every posted transaction and the ledger totals.
func (uc *ReconciliationUseCase) GenerateReport(ctx context.Context) (*ReconciliationReport, error) {
	report := &ReconciliationReport{
		AccountDiscrepancies:     make([]*AccountCheck, 0),
		TransactionDiscrepancies: make([]*TransactionCheck, 0),
	}

	for offset := 0; ; offset += reconciliationPageSize {
		accounts, err := uc.accountRepo.List(ctx, reconciliationPageSize, offset)
		if err != nil {
			return nil, domain.WrapStorage("list accounts", err)
		}
		for _, account := range accounts {
			check, err := uc.CheckAccount(ctx, account.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to reconcile account %s: %w", account.ID, err)
			}
			report.TotalAccounts++
			if check.Balanced {
				report.ReconciledAccounts++
			} else {
				report.AccountDiscrepancies = append(report.AccountDiscrepancies, check)
			}
		}
		if len(accounts) < reconciliationPageSize {
			break
		}
	}

	for offset := 0; ; offset += reconciliationPageSize {
		txns, err := uc.txnRepo.ListPosted(ctx, reconciliationPageSize, offset)
		if err != nil {
			return nil, domain.WrapStorage("list transactions", err)
		}
		for _, txn := range txns {
			check, err := uc.CheckTransaction(ctx, txn.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to reconcile transaction %s: %w", txn.ID, err)
			}
			report.TotalTransactions++
			if check.Balanced {
				report.BalancedTransactions++
			} else {
				report.TransactionDiscrepancies = append(report.TransactionDiscrepancies, check)
			}
		}
		if len(txns) < reconciliationPageSize {
			break
		}
	}

	ledger, err := uc.CheckLedgerConsistency(ctx)
	if err != nil {
		return nil, err
	}
	report.Ledger = ledger
	report.Consistent = ledger.Consistent &&
		len(report.AccountDiscrepancies) == 0 &&
		len(report.TransactionDiscrepancies) == 0
	report.CheckedAt = time.Now().UTC()

	if uc.metrics != nil {
		uc.metrics.ReconciliationRuns.Inc()
	}
	uc.logger.Info().
		Int("accounts", report.TotalAccounts).
		Int("transactions", report.TotalTransactions).
		Bool("consistent", report.Consistent).
		Msg("reconciliation report generated")

	return report, nil
}

func (uc *ReconciliationUseCase) anomaly(kind, msg string, fields map[string]any) {
	if uc.metrics != nil {
		uc.metrics.ReconciliationAnomalies.WithLabelValues(kind).Inc()
	}
	uc.logger.Error().Str("kind", kind).Fields(fields).Msg(msg)
}
