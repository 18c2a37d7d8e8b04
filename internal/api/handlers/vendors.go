package handlers

import (
	"log/slog"
	"net/http"

	"github.com/eshaffer321/freelance-ledger/internal/api/dto"
	"github.com/eshaffer321/freelance-ledger/internal/application/service"
)

// VendorsHandler serves the vendor typeahead.
type VendorsHandler struct {
	*Base
}

// NewVendorsHandler creates a new vendors handler.
func NewVendorsHandler(svc *service.LedgerService, logger *slog.Logger) *VendorsHandler {
	return &VendorsHandler{Base: NewBase(svc, logger)}
}

// List handles GET /api/vendors?owner_id=&q= - deduplicated vendor names
// from the owner's rules and expenses, optionally narrowed to a prefix.
func (h *VendorsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	names, err := h.service.VendorNames(r.Context(), query.Get("owner_id"), query.Get("q"))
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, dto.VendorListResponse{
		Vendors: names,
		Count:   len(names),
	})
}
