package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/eshaffer321/freelance-ledger/internal/api/dto"
	"github.com/eshaffer321/freelance-ledger/internal/domain/calendar"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	today func() calendar.Date
}

// NewHealthHandler creates a new health handler. today may be nil; when set,
// the response reports the day the service computes with, which differs from
// the wall clock in frozen-time mode.
func NewHealthHandler(today func() calendar.Date) *HealthHandler {
	return &HealthHandler{today: today}
}

// ServeHTTP handles the health check request.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := dto.NewHealthResponse()
	if h.today != nil {
		response.Today = h.today().String()
	}
	_ = json.NewEncoder(w).Encode(response)
}
