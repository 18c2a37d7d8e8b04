package handlers

import (
	"log/slog"
	"net/http"

	"github.com/eshaffer321/freelance-ledger/internal/api/dto"
	"github.com/eshaffer321/freelance-ledger/internal/application/service"
)

// OccurrencesHandler handles materialized rule occurrences.
type OccurrencesHandler struct {
	*Base
}

// NewOccurrencesHandler creates a new occurrences handler.
func NewOccurrencesHandler(svc *service.LedgerService, logger *slog.Logger) *OccurrencesHandler {
	return &OccurrencesHandler{Base: NewBase(svc, logger)}
}

// List handles GET /api/occurrences?from=&to= - from defaults to today and
// to defaults to 30 days after from.
func (h *OccurrencesHandler) List(w http.ResponseWriter, r *http.Request) {
	from, err := ParseDateParam(r, "from", h.service.Today())
	if err != nil {
		h.WriteError(w, dto.BadRequestError(err.Error()))
		return
	}
	to, err := ParseDateParam(r, "to", from.AddDays(service.DefaultOccurrenceWindowDays))
	if err != nil {
		h.WriteError(w, dto.BadRequestError(err.Error()))
		return
	}

	occurrences, err := h.service.Occurrences(r.Context(), from, to)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	response := dto.OccurrenceListResponse{
		From:        from.String(),
		To:          to.String(),
		Occurrences: make([]dto.OccurrenceResponse, 0, len(occurrences)),
		Count:       len(occurrences),
	}
	for _, o := range occurrences {
		response.Occurrences = append(response.Occurrences, toOccurrenceResponse(o))
	}

	h.WriteJSON(w, http.StatusOK, response)
}
