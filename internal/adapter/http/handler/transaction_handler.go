package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/creditledger/internal/adapter/http/dto"
	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/usecase"
)

// TransactionService defines the behavior needed by TransactionHandler.
type TransactionService interface {
	Open(ctx context.Context, input usecase.OpenInput) (*usecase.OpenResult, error)
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	ListEntries(ctx context.Context, transactionID string) ([]*domain.Entry, error)
	AddEntry(ctx context.Context, input usecase.AddEntryInput) (*domain.Entry, error)
	SetEntries(ctx context.Context, transactionID string, inputs []usecase.EntryInput) ([]*domain.Entry, error)
	RemoveEntry(ctx context.Context, transactionID, entryID string) error
	Complete(ctx context.Context, transactionID string) (*usecase.CommittedSummary, error)
	Fail(ctx context.Context, transactionID, reason string) (*domain.Transaction, error)
	Reverse(ctx context.Context, transactionID, reason string) (*domain.Transaction, error)
}

// TransactionHandler exposes the transaction lifecycle over HTTP.
type TransactionHandler struct {
	txnUC TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(txnUC TransactionService) *TransactionHandler {
	return &TransactionHandler{txnUC: txnUC}
}

// Open creates a pending transaction. A replayed key answers 200 with the existing transaction.
func (h *TransactionHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req dto.OpenTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.txnUC.Open(r.Context(), req.ToUseCaseInput(idempotencyKey(r)))
	if err != nil {
		writeDomainError(w, "failed to open transaction", err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, dto.OpenTransactionResponse{
		Transaction: dto.TransactionFromDomain(result.Transaction),
		Duplicate:   result.Duplicate,
	})
}

// Get retrieves a transaction by ID.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	txn, err := h.txnUC.GetTransaction(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// ListEntries lists the entries of a transaction in insertion order.
func (h *TransactionHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entries, err := h.txnUC.ListEntries(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}

// AddEntry appends an entry to a pending transaction.
func (h *TransactionHandler) AddEntry(w http.ResponseWriter, r *http.Request) {
	var req dto.EntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.txnUC.AddEntry(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "failed to add entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// SetEntries replaces every entry of a pending transaction.
func (h *TransactionHandler) SetEntries(w http.ResponseWriter, r *http.Request) {
	var req dto.SetEntriesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entries, err := h.txnUC.SetEntries(r.Context(), chi.URLParam(r, "id"), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to set entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}

// RemoveEntry deletes one entry from a pending transaction.
func (h *TransactionHandler) RemoveEntry(w http.ResponseWriter, r *http.Request) {
	err := h.txnUC.RemoveEntry(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "entryID"))
	if err != nil {
		writeDomainError(w, "failed to remove entry", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Complete validates and applies a pending transaction.
func (h *TransactionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	summary, err := h.txnUC.Complete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to complete transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SummaryFromUseCase(summary))
}

// Fail marks a pending transaction failed. The body is optional.
func (h *TransactionHandler) Fail(w http.ResponseWriter, r *http.Request) {
	var req dto.ReasonRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	txn, err := h.txnUC.Fail(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		writeDomainError(w, "failed to fail transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// Reverse posts a compensating transaction for a completed one.
func (h *TransactionHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	var req dto.ReasonRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	reversal, err := h.txnUC.Reverse(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		writeDomainError(w, "failed to reverse transaction", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(reversal))
}
