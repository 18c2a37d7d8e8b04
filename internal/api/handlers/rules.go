package handlers

import (
	"log/slog"
	"net/http"

	"github.com/eshaffer321/freelance-ledger/internal/api/dto"
	"github.com/eshaffer321/freelance-ledger/internal/application/service"
	"github.com/eshaffer321/freelance-ledger/internal/domain/income"
	"github.com/eshaffer321/freelance-ledger/internal/domain/schedule"
)

// RulesHandler creates and replaces recurring rules and retainers.
type RulesHandler struct {
	*Base
}

// NewRulesHandler creates a new rules handler.
func NewRulesHandler(svc *service.LedgerService, logger *slog.Logger) *RulesHandler {
	return &RulesHandler{Base: NewBase(svc, logger)}
}

// SaveRule handles POST /api/rules. A missing id creates a new rule.
func (h *RulesHandler) SaveRule(w http.ResponseWriter, r *http.Request) {
	var rule schedule.Rule
	if err := DecodeJSON(r, &rule); err != nil {
		h.WriteError(w, dto.BadRequestError(err.Error()))
		return
	}
	if err := h.service.SaveRule(r.Context(), &rule); err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, dto.CreatedResponse{ID: rule.ID})
}

// SaveRetainer handles POST /api/retainers. A missing id creates a new retainer.
func (h *RulesHandler) SaveRetainer(w http.ResponseWriter, r *http.Request) {
	var retainer income.Retainer
	if err := DecodeJSON(r, &retainer); err != nil {
		h.WriteError(w, dto.BadRequestError(err.Error()))
		return
	}
	if err := h.service.SaveRetainer(r.Context(), &retainer); err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, dto.CreatedResponse{ID: retainer.ID})
}
