package handler

import (
	"context"
	"net/http"

	"github.com/iho/creditledger/internal/adapter/http/dto"
	"github.com/iho/creditledger/internal/usecase"
)

// PostingService defines the behavior needed by PostingHandler.
type PostingService interface {
	Record(ctx context.Context, input usecase.RecordInput) (*usecase.RecordResult, error)
	CreditPurchase(ctx context.Context, input usecase.MovementInput) (*usecase.RecordResult, error)
	UsageCharge(ctx context.Context, input usecase.MovementInput) (*usecase.RecordResult, error)
}

// PostingHandler records complete movements in a single request.
type PostingHandler struct {
	postingUC PostingService
}

// NewPostingHandler creates a new PostingHandler.
func NewPostingHandler(postingUC PostingService) *PostingHandler {
	return &PostingHandler{postingUC: postingUC}
}

// Record opens, fills and completes a transaction from a list of legs.
func (h *PostingHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req dto.RecordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput(idempotencyKey(r))
	if err != nil {
		writeDomainError(w, "invalid record", err)
		return
	}

	result, err := h.postingUC.Record(r.Context(), input)
	writeRecordResult(w, "failed to record transaction", result, err)
}

// Purchase credits an owner with purchased credits.
func (h *PostingHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	h.movement(w, r, "failed to record purchase", h.postingUC.CreditPurchase)
}

// UsageCharge debits an owner for consumed credits.
func (h *PostingHandler) UsageCharge(w http.ResponseWriter, r *http.Request) {
	h.movement(w, r, "failed to record usage charge", h.postingUC.UsageCharge)
}

func (h *PostingHandler) movement(
	w http.ResponseWriter,
	r *http.Request,
	message string,
	post func(context.Context, usecase.MovementInput) (*usecase.RecordResult, error),
) {
	var req dto.MovementRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput(idempotencyKey(r))
	if err != nil {
		writeDomainError(w, message, err)
		return
	}

	result, err := post(r.Context(), input)
	writeRecordResult(w, message, result, err)
}

func writeRecordResult(w http.ResponseWriter, message string, result *usecase.RecordResult, err error) {
	if err != nil {
		writeDomainError(w, message, err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, dto.RecordFromUseCase(result))
}
