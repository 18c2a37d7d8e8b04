package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/freelance-ledger/internal/api/dto"
	"github.com/eshaffer321/freelance-ledger/internal/application/service"
)

// ReceiptsHandler handles receipt linking.
type ReceiptsHandler struct {
	*Base
}

// NewReceiptsHandler creates a new receipts handler.
func NewReceiptsHandler(svc *service.LedgerService, logger *slog.Logger) *ReceiptsHandler {
	return &ReceiptsHandler{Base: NewBase(svc, logger)}
}

// Link handles POST /api/receipts/{id}/link - attaches the receipt to one expense.
func (h *ReceiptsHandler) Link(w http.ResponseWriter, r *http.Request) {
	var req dto.LinkReceiptRequest
	if err := DecodeJSON(r, &req); err != nil {
		h.WriteError(w, dto.BadRequestError(err.Error()))
		return
	}
	if req.ExpenseID == "" {
		h.WriteError(w, dto.ValidationError("expense_id is required"))
		return
	}

	receipt, err := h.service.LinkReceipt(r.Context(), chi.URLParam(r, "id"), req.ExpenseID)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, toReceiptResponse(*receipt))
}
