package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/creditledger/internal/adapter/http/dto"
	"github.com/iho/creditledger/internal/usecase"
)

// ReconciliationService defines the behavior needed by ReconciliationHandler.
type ReconciliationService interface {
	CheckTransaction(ctx context.Context, transactionID string) (*usecase.TransactionCheck, error)
	CheckAccount(ctx context.Context, accountID string) (*usecase.AccountCheck, error)
	GenerateReport(ctx context.Context) (*usecase.ReconciliationReport, error)
}

// ReconciliationHandler serves reconciliation checks.
// Discrepancies are reported in the body with 200; only failures to check are errors.
type ReconciliationHandler struct {
	reconUC ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconUC ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconUC: reconUC}
}

// CheckTransaction reconciles one transaction.
func (h *ReconciliationHandler) CheckTransaction(w http.ResponseWriter, r *http.Request) {
	check, err := h.reconUC.CheckTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to reconcile transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.TransactionCheckFromUseCase(check))
}

// CheckAccount reconciles one account.
func (h *ReconciliationHandler) CheckAccount(w http.ResponseWriter, r *http.Request) {
	check, err := h.reconUC.CheckAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to reconcile account", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.AccountCheckFromUseCase(check))
}

// Report runs a full reconciliation.
func (h *ReconciliationHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconUC.GenerateReport(r.Context())
	if err != nil {
		writeDomainError(w, "failed to generate report", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ReportFromUseCase(report))
}
