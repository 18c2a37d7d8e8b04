package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/freelance-ledger/internal/api/dto"
	"github.com/eshaffer321/freelance-ledger/internal/application/service"
)

// SuggestionsHandler serves ranked match suggestions.
type SuggestionsHandler struct {
	*Base
}

// NewSuggestionsHandler creates a new suggestions handler.
func NewSuggestionsHandler(svc *service.LedgerService, logger *slog.Logger) *SuggestionsHandler {
	return &SuggestionsHandler{Base: NewBase(svc, logger)}
}

// ForReceipt handles GET /api/receipts/{id}/suggestions - returns expenses
// ranked against the receipt.
func (h *SuggestionsHandler) ForReceipt(w http.ResponseWriter, r *http.Request) {
	receiptID := chi.URLParam(r, "id")
	if receiptID == "" {
		h.WriteError(w, dto.BadRequestError("receipt ID is required"))
		return
	}

	candidates, err := h.service.SuggestForReceipt(r.Context(), receiptID)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, toSuggestionList(receiptID, candidates, toEntryResponse))
}

// ForTransaction handles GET /api/transactions/{id}/suggestions - returns
// open projected income ranked against an incoming transaction.
func (h *SuggestionsHandler) ForTransaction(w http.ResponseWriter, r *http.Request) {
	txnID := chi.URLParam(r, "id")
	if txnID == "" {
		h.WriteError(w, dto.BadRequestError("transaction ID is required"))
		return
	}

	candidates, err := h.service.SuggestForTransaction(r.Context(), txnID)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, toSuggestionList(txnID, candidates, toProjectedIncomeResponse))
}
