package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/eshaffer321/freelance-ledger/internal/api/dto"
	"github.com/eshaffer321/freelance-ledger/internal/application/service"
	"github.com/eshaffer321/freelance-ledger/internal/domain/calendar"
	"github.com/eshaffer321/freelance-ledger/internal/domain/income"
	"github.com/eshaffer321/freelance-ledger/internal/domain/schedule"
	"github.com/eshaffer321/freelance-ledger/internal/infrastructure/storage"
)

// Base provides shared functionality for all handlers.
type Base struct {
	service *service.LedgerService
	logger  *slog.Logger
}

// NewBase creates a new base handler backed by the ledger service.
func NewBase(svc *service.LedgerService, logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{service: svc, logger: logger}
}

// WriteJSON writes a JSON response with the given status code.
func (b *Base) WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes err with its own status code.
func (b *Base) WriteError(w http.ResponseWriter, err dto.APIError) {
	b.WriteJSON(w, err.Status, err)
}

// WriteServiceError maps a service error to its HTTP status and error code.
// Unknown errors are logged and reported as internal errors.
func (b *Base) WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, income.ErrNotMatched):
		b.WriteError(w, dto.NotFoundError(err.Error()))
	case errors.Is(err, income.ErrMatchConflict), errors.Is(err, income.ErrInvalidTransition):
		b.WriteError(w, dto.ConflictError(err.Error()))
	case errors.Is(err, schedule.ErrInvalidRule),
		errors.Is(err, income.ErrInvalidRetainer),
		errors.Is(err, income.ErrCurrencyMismatch),
		errors.Is(err, income.ErrNotIncome):
		b.WriteError(w, dto.ValidationError(err.Error()))
	case errors.Is(err, service.ErrInvalidRange),
		errors.Is(err, service.ErrInvalidLink),
		errors.Is(err, service.ErrOwnerMismatch):
		b.WriteError(w, dto.BadRequestError(err.Error()))
	default:
		b.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		b.WriteError(w, dto.InternalError())
	}
}

// DecodeJSON decodes the request body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// ParseIntParam parses an integer query parameter with a default value.
func ParseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// ParseDateParam parses a YYYY-MM-DD query parameter. A missing parameter
// yields defaultVal; a malformed one is an error.
func ParseDateParam(r *http.Request, name string, defaultVal calendar.Date) (calendar.Date, error) {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal, nil
	}
	d, err := calendar.Parse(val)
	if err != nil {
		return calendar.Date{}, fmt.Errorf("%s must be YYYY-MM-DD", name)
	}
	return d, nil
}
