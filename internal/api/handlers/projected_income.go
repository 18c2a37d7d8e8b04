package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/freelance-ledger/internal/api/dto"
	"github.com/eshaffer321/freelance-ledger/internal/application/service"
	"github.com/eshaffer321/freelance-ledger/internal/domain/calendar"
	"github.com/eshaffer321/freelance-ledger/internal/infrastructure/storage"
)

// ProjectedIncomeHandler handles projected income and its matches.
type ProjectedIncomeHandler struct {
	*Base
}

// NewProjectedIncomeHandler creates a new projected income handler.
func NewProjectedIncomeHandler(svc *service.LedgerService, logger *slog.Logger) *ProjectedIncomeHandler {
	return &ProjectedIncomeHandler{Base: NewBase(svc, logger)}
}

// List handles GET /api/projected-income - filters: retainer_id, currency, from, to.
func (h *ProjectedIncomeHandler) List(w http.ResponseWriter, r *http.Request) {
	from, err := ParseDateParam(r, "from", calendar.Date{})
	if err != nil {
		h.WriteError(w, dto.BadRequestError(err.Error()))
		return
	}
	to, err := ParseDateParam(r, "to", calendar.Date{})
	if err != nil {
		h.WriteError(w, dto.BadRequestError(err.Error()))
		return
	}

	filters := storage.ProjectedIncomeFilters{
		RetainerID: r.URL.Query().Get("retainer_id"),
		Currency:   strings.ToUpper(r.URL.Query().Get("currency")),
		From:       from,
		To:         to,
	}
	list, err := h.service.ListProjectedIncome(r.Context(), filters)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	response := dto.ProjectedIncomeListResponse{
		ProjectedIncome: make([]dto.ProjectedIncomeResponse, 0, len(list)),
		Count:           len(list),
	}
	for _, p := range list {
		response.ProjectedIncome = append(response.ProjectedIncome, toProjectedIncomeResponse(p))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Get handles GET /api/projected-income/{id}.
func (h *ProjectedIncomeHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProjectedIncome(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, toProjectedIncomeResponse(*p))
}

// Match handles POST /api/projected-income/{id}/matches.
// A lost race or a fully received occurrence answers 409.
func (h *ProjectedIncomeHandler) Match(w http.ResponseWriter, r *http.Request) {
	var req dto.MatchRequest
	if err := DecodeJSON(r, &req); err != nil {
		h.WriteError(w, dto.BadRequestError(err.Error()))
		return
	}
	if req.TransactionID == "" {
		h.WriteError(w, dto.ValidationError("transaction_id is required"))
		return
	}

	p, err := h.service.MatchTransaction(r.Context(), chi.URLParam(r, "id"), req.TransactionID)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, toProjectedIncomeResponse(*p))
}

// Unmatch handles DELETE /api/projected-income/{id}/matches/{transactionID}.
func (h *ProjectedIncomeHandler) Unmatch(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.UnmatchTransaction(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "transactionID"))
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, toProjectedIncomeResponse(*p))
}

// Cancel handles POST /api/projected-income/{id}/cancel.
func (h *ProjectedIncomeHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.CancelProjectedIncome(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, toProjectedIncomeResponse(*p))
}

// Refresh handles POST /api/projected-income/refresh - creates missing
// retainer periods up to "through".
func (h *ProjectedIncomeHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	through := service.DefaultRefreshThrough(h.service.Today())

	var req dto.RefreshProjectedIncomeRequest
	if r.ContentLength != 0 {
		if err := DecodeJSON(r, &req); err != nil {
			h.WriteError(w, dto.BadRequestError(err.Error()))
			return
		}
	}
	if req.Through != "" {
		d, err := calendar.Parse(req.Through)
		if err != nil {
			h.WriteError(w, dto.ValidationError("through must be YYYY-MM-DD"))
			return
		}
		through = d
	}

	created, err := h.service.RefreshProjectedIncome(r.Context(), through)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, dto.RefreshProjectedIncomeResponse{
		Through: through.String(),
		Created: created,
	})
}
