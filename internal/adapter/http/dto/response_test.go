package dto

import (
	"testing"
	"time"

	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/usecase"
)

func TestAccountFromDomain(t *testing.T) {
	now := time.Now()
	account := &domain.Account{
		ID:        "acc-1",
		OwnerID:   "user-1",
		Currency:  "USD",
		Class:     domain.AccountClassAsset,
		Balance:   12345,
		Version:   2,
		CreatedAt: now,
		UpdatedAt: now,
	}

	resp := AccountFromDomain(account)
	if resp.ID != account.ID || resp.Balance != 12345 || resp.BalanceMajor != "123.45" || resp.Version != 2 {
		t.Fatalf("unexpected account response: %+v", resp)
	}
	if resp.Class != "asset" {
		t.Fatalf("unexpected class: %s", resp.Class)
	}

	list := AccountsFromDomain([]*domain.Account{account, account})
	if len(list) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(list))
	}
}

func TestTransactionFromDomain(t *testing.T) {
	now := time.Now()
	reversal := "txn-2"
	txn := &domain.Transaction{
		ID:          "txn-1",
		Currency:    "CREDITS",
		Status:      domain.TransactionStatusReversed,
		EntryCount:  2,
		DebitTotal:  100,
		ReversalID:  &reversal,
		CompletedAt: &now,
	}

	resp := TransactionFromDomain(txn)
	if resp.Status != "reversed" || resp.DebitTotal != 100 || resp.EntryCount != 2 {
		t.Fatalf("unexpected transaction response: %+v", resp)
	}
	if resp.ReversalID == nil || *resp.ReversalID != "txn-2" {
		t.Fatalf("unexpected reversal id: %v", resp.ReversalID)
	}
}

func TestRecordFromUseCase(t *testing.T) {
	result := &usecase.RecordResult{
		Transaction: &domain.Transaction{ID: "txn-1", Status: domain.TransactionStatusCompleted},
		Summary: &usecase.CommittedSummary{
			TransactionID: "txn-1",
			Status:        domain.TransactionStatusCompleted,
			EntryCount:    2,
			DebitTotal:    10,
			Balances: []usecase.AccountBalance{
				{AccountID: "a", Delta: 10, Balance: 10},
				{AccountID: "b", Delta: -10, Balance: -10},
			},
		},
	}

	resp := RecordFromUseCase(result)
	if resp.Summary == nil || len(resp.Summary.Balances) != 2 {
		t.Fatalf("unexpected summary: %+v", resp.Summary)
	}
	if resp.Summary.Balances[1].Delta != -10 {
		t.Fatalf("unexpected delta: %d", resp.Summary.Balances[1].Delta)
	}

	replay := RecordFromUseCase(&usecase.RecordResult{Transaction: result.Transaction, Duplicate: true})
	if replay.Summary != nil || !replay.Duplicate {
		t.Fatalf("unexpected replay response: %+v", replay)
	}
}

func TestReportFromUseCase(t *testing.T) {
	report := &usecase.ReconciliationReport{
		Ledger: &usecase.LedgerConsistency{
			Currencies:   []usecase.CurrencyTotals{{Currency: "CREDITS", AccountCount: 2, BalanceTotal: 5}},
			Inconsistent: []string{"CREDITS"},
		},
		AccountDiscrepancies: []*usecase.AccountCheck{{AccountID: "a", StoredBalance: 5, Difference: 5}},
		TotalAccounts:        2,
		ReconciledAccounts:   1,
	}

	resp := ReportFromUseCase(report)
	if resp.Consistent || resp.Ledger == nil || resp.Ledger.Currencies[0].BalanceTotal != 5 {
		t.Fatalf("unexpected report: %+v", resp)
	}
	if len(resp.AccountDiscrepancies) != 1 || resp.AccountDiscrepancies[0].Difference != 5 {
		t.Fatalf("unexpected discrepancies: %+v", resp.AccountDiscrepancies)
	}
	if resp.TransactionDiscrepancies == nil {
		t.Fatal("transaction discrepancies must encode as an empty list")
	}
}
