package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/eshaffer321/freelance-ledger/internal/api/dto"
	"github.com/eshaffer321/freelance-ledger/internal/application/service"
	"github.com/eshaffer321/freelance-ledger/internal/infrastructure/currency"
)

// ForecastHandler handles forecast requests.
type ForecastHandler struct {
	*Base
}

// NewForecastHandler creates a new forecast handler.
func NewForecastHandler(svc *service.LedgerService, logger *slog.Logger) *ForecastHandler {
	return &ForecastHandler{Base: NewBase(svc, logger)}
}

// Get handles GET /api/forecast?year=&currency= - returns one forecast per
// currency, or only the requested currency.
func (h *ForecastHandler) Get(w http.ResponseWriter, r *http.Request) {
	today := h.service.Today()
	year := ParseIntParam(r, "year", today.Year())
	if year < 1 || year > 9999 {
		h.WriteError(w, dto.BadRequestError("year is out of range"))
		return
	}
	currencyCode := strings.ToUpper(r.URL.Query().Get("currency"))

	forecasts, err := h.service.Forecast(r.Context(), year, currencyCode)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	response := dto.ForecastListResponse{
		Year:      year,
		Today:     today.String(),
		Forecasts: make([]dto.ForecastResponse, 0, len(forecasts)),
	}
	for _, f := range forecasts {
		response.Forecasts = append(response.Forecasts, toForecastResponse(f))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// MinimumNeeded handles GET /api/forecast/minimum-needed?year=&currency= -
// the projected spend still ahead in the year. currency is required.
func (h *ForecastHandler) MinimumNeeded(w http.ResponseWriter, r *http.Request) {
	year := ParseIntParam(r, "year", h.service.Today().Year())
	if year < 1 || year > 9999 {
		h.WriteError(w, dto.BadRequestError("year is out of range"))
		return
	}
	code := strings.ToUpper(r.URL.Query().Get("currency"))
	if code == "" {
		h.WriteError(w, dto.BadRequestError("currency is required"))
		return
	}

	needed, err := h.service.MinimumNeededFunds(r.Context(), year, code)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.MinimumNeededResponse{
		Year:                 year,
		Currency:             code,
		MinimumNeededMinor:   needed,
		MinimumNeededDisplay: currency.Format(needed, code),
	})
}
