package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eshaffer321/freelance-ledger/internal/application/service"
	"github.com/eshaffer321/freelance-ledger/internal/domain/calendar"
	"github.com/eshaffer321/freelance-ledger/internal/domain/income"
	"github.com/eshaffer321/freelance-ledger/internal/domain/schedule"
	"github.com/eshaffer321/freelance-ledger/internal/infrastructure/storage"
)

func TestWriteServiceError(t *testing.T) {
	base := NewBase(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", fmt.Errorf("get: %w", storage.ErrNotFound), http.StatusNotFound},
		{"not matched", income.ErrNotMatched, http.StatusNotFound},
		{"match conflict", income.ErrMatchConflict, http.StatusConflict},
		{"stale version", fmt.Errorf("%w: %w", storage.ErrStaleVersion, income.ErrMatchConflict), http.StatusConflict},
		{"invalid transition", income.ErrInvalidTransition, http.StatusConflict},
		{"invalid rule", schedule.ErrInvalidRule, http.StatusBadRequest},
		{"invalid retainer", income.ErrInvalidRetainer, http.StatusBadRequest},
		{"currency mismatch", income.ErrCurrencyMismatch, http.StatusBadRequest},
		{"not income", income.ErrNotIncome, http.StatusBadRequest},
		{"invalid range", service.ErrInvalidRange, http.StatusBadRequest},
		{"invalid link", service.ErrInvalidLink, http.StatusBadRequest},
		{"owner mismatch", fmt.Errorf("%w: txn-1", service.ErrOwnerMismatch), http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/anything", nil)
			rec := httptest.NewRecorder()

			base.WriteServiceError(rec, req, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestParseDateParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x?from=2025-02-28&bad=28/02/2025", nil)

	d, err := ParseDateParam(req, "from", calendar.Date{})
	assert.NoError(t, err)
	assert.Equal(t, "2025-02-28", d.String())

	d, err = ParseDateParam(req, "missing", calendar.MustParse("2025-01-01"))
	assert.NoError(t, err)
	assert.Equal(t, "2025-01-01", d.String())

	_, err = ParseDateParam(req, "bad", calendar.Date{})
	assert.Error(t, err)
}
