package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/freelance-ledger/internal/api"
	"github.com/eshaffer321/freelance-ledger/internal/api/dto"
	"github.com/eshaffer321/freelance-ledger/internal/application/service"
	"github.com/eshaffer321/freelance-ledger/internal/domain/calendar"
	"github.com/eshaffer321/freelance-ledger/internal/domain/clock"
	"github.com/eshaffer321/freelance-ledger/internal/domain/ledger"
	"github.com/eshaffer321/freelance-ledger/internal/infrastructure/storage"
)

var frozenToday = calendar.MustParse("2025-03-20")

func newTestServer(t *testing.T, repo storage.Repository) *api.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewLedgerService(repo, nil, clock.FixedOn(frozenToday), logger)
	return api.NewServer(api.DefaultConfig(), svc, logger)
}

// do sends a request with an optional JSON body through the router.
func do(t *testing.T, server *api.Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func date(s string) calendar.Date { return calendar.MustParse(s) }

var softwareRule = map[string]any{
	"id":           "rule-1",
	"title":        "Design software",
	"amount_minor": 10000,
	"currency":     "USD",
	"frequency":    "monthly",
	"start_date":   "2025-01-05",
	"end_mode":     "noEnd",
}

var acmeRetainer = map[string]any{
	"id":           "ret-1",
	"client_id":    "client-1",
	"client_name":  "Acme Studio",
	"amount_minor": 500000,
	"currency":     "USD",
	"frequency":    "monthly",
	"day_of_month": 15,
	"start_date":   "2025-01-15",
}

// seedIncome creates the Acme retainer with Jan..Apr periods and returns the
// ID of the March occurrence.
func seedIncome(t *testing.T, server *api.Server) string {
	t.Helper()
	rec := do(t, server, http.MethodPost, "/api/retainers", acmeRetainer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, server, http.MethodPost, "/api/projected-income/refresh", dto.RefreshProjectedIncomeRequest{Through: "2025-04-30"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, 4, decode[dto.RefreshProjectedIncomeResponse](t, rec).Created)

	rec = do(t, server, http.MethodGet, "/api/projected-income?from=2025-03-01&to=2025-03-31", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[dto.ProjectedIncomeListResponse](t, rec)
	require.Len(t, list.ProjectedIncome, 1)
	return list.ProjectedIncome[0].ID
}

func payment(id string, amount int64, currency, on string) *ledger.Entry {
	return &ledger.Entry{
		ID:           id,
		Kind:         ledger.KindTransaction,
		AmountMinor:  amount,
		Currency:     currency,
		OccurredAt:   date(on),
		ClientID:     "client-1",
		Counterparty: "Acme Studio",
	}
}

func TestServer_HealthEndpoint(t *testing.T) {
	server := newTestServer(t, storage.NewMockRepository())

	rec := do(t, server, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	response := decode[dto.HealthResponse](t, rec)
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, "2025-03-20", response.Today)
}

func TestServer_ForecastEndpoint(t *testing.T) {
	server := newTestServer(t, storage.NewMockRepository())
	require.Equal(t, http.StatusCreated, do(t, server, http.MethodPost, "/api/rules", softwareRule).Code)

	t.Run("GET /api/forecast for one currency", func(t *testing.T) {
		rec := do(t, server, http.MethodGet, "/api/forecast?year=2025&currency=usd", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		response := decode[dto.ForecastListResponse](t, rec)
		assert.Equal(t, "2025-03-20", response.Today)
		require.Len(t, response.Forecasts, 1)

		f := response.Forecasts[0]
		assert.Equal(t, "USD", f.Currency)
		require.Len(t, f.Months, 12)
		assert.True(t, f.Months[2].Closed)
		assert.False(t, f.Months[3].Closed)
		assert.Equal(t, "April", f.Months[3].MonthName)
		assert.Equal(t, int64(90000), f.RemainingMinor)
		assert.Equal(t, "$900.00", f.RemainingDisplay)
	})

	t.Run("defaults to the current year", func(t *testing.T) {
		rec := do(t, server, http.MethodGet, "/api/forecast", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 2025, decode[dto.ForecastListResponse](t, rec).Year)
	})

	t.Run("rejects a year out of range", func(t *testing.T) {
		rec := do(t, server, http.MethodGet, "/api/forecast?year=0", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("GET /api/forecast/minimum-needed", func(t *testing.T) {
		rec := do(t, server, http.MethodGet, "/api/forecast/minimum-needed?year=2025&currency=usd", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		response := decode[dto.MinimumNeededResponse](t, rec)
		assert.Equal(t, 2025, response.Year)
		assert.Equal(t, "USD", response.Currency)
		assert.Equal(t, int64(90000), response.MinimumNeededMinor)
		assert.Equal(t, "$900.00", response.MinimumNeededDisplay)
	})

	t.Run("minimum needed for a past year is zero", func(t *testing.T) {
		rec := do(t, server, http.MethodGet, "/api/forecast/minimum-needed?year=2024&currency=USD", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(0), decode[dto.MinimumNeededResponse](t, rec).MinimumNeededMinor)
	})

	t.Run("minimum needed requires a currency", func(t *testing.T) {
		rec := do(t, server, http.MethodGet, "/api/forecast/minimum-needed?year=2025", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, decode[dto.APIError](t, rec).Code)
	})
}

func TestServer_OccurrencesEndpoint(t *testing.T) {
	server := newTestServer(t, storage.NewMockRepository())
	require.Equal(t, http.StatusCreated, do(t, server, http.MethodPost, "/api/rules", softwareRule).Code)

	t.Run("explicit window", func(t *testing.T) {
		rec := do(t, server, http.MethodGet, "/api/occurrences?from=2025-04-01&to=2025-05-31", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		response := decode[dto.OccurrenceListResponse](t, rec)
		require.Equal(t, 2, response.Count)
		assert.Equal(t, "2025-04-05", response.Occurrences[0].Date)
		assert.Equal(t, "$100.00", response.Occurrences[0].Display)
	})

	t.Run("default window starts today", func(t *testing.T) {
		rec := do(t, server, http.MethodGet, "/api/occurrences", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		response := decode[dto.OccurrenceListResponse](t, rec)
		assert.Equal(t, "2025-03-20", response.From)
		assert.Equal(t, "2025-04-19", response.To)
		require.Equal(t, 1, response.Count)
		assert.Equal(t, "2025-04-05", response.Occurrences[0].Date)
	})

	t.Run("malformed date", func(t *testing.T) {
		rec := do(t, server, http.MethodGet, "/api/occurrences?from=April", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("reversed range", func(t *testing.T) {
		rec := do(t, server, http.MethodGet, "/api/occurrences?from=2025-05-31&to=2025-04-01", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, decode[dto.APIError](t, rec).Code)
	})
}

func TestServer_RulesEndpoints(t *testing.T) {
	server := newTestServer(t, storage.NewMockRepository())

	t.Run("invalid rule is a validation error", func(t *testing.T) {
		rec := do(t, server, http.MethodPost, "/api/rules", map[string]any{
			"title":        "Broken",
			"amount_minor": 0,
			"currency":     "USD",
			"frequency":    "monthly",
			"start_date":   "2025-01-01",
			"end_mode":     "untilDate",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, dto.ErrCodeValidation, decode[dto.APIError](t, rec).Code)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		rec := do(t, server, http.MethodPost, "/api/rules", map[string]any{"colour": "red"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing id is generated", func(t *testing.T) {
		rule := map[string]any{}
		for k, v := range softwareRule {
			rule[k] = v
		}
		delete(rule, "id")

		rec := do(t, server, http.MethodPost, "/api/rules", rule)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.NotEmpty(t, decode[dto.CreatedResponse](t, rec).ID)
	})
}

func TestServer_ReceiptEndpoints(t *testing.T) {
	repo := storage.NewMockRepository()
	server := newTestServer(t, repo)
	ctx := context.Background()

	require.NoError(t, repo.SaveEntry(ctx, &ledger.Entry{
		ID: "exp-1", Kind: ledger.KindExpense, AmountMinor: 10000, Currency: "USD",
		OccurredAt: date("2025-03-10"), Vendor: "ACME",
	}))
	require.NoError(t, repo.SaveEntry(ctx, payment("txn-1", 10000, "USD", "2025-03-10")))
	require.NoError(t, repo.SaveReceipt(ctx, &ledger.Receipt{
		ID:          "rcpt-1",
		AmountMinor: ledger.Amount(10000),
		Currency:    "USD",
		OccurredAt:  date("2025-03-10"),
		MonthKey:    "2025-03",
		VendorRaw:   "Acme Inc.",
	}))

	t.Run("GET suggestions with breakdown", func(t *testing.T) {
		rec := do(t, server, http.MethodGet, "/api/receipts/rcpt-1/suggestions", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		response := decode[dto.SuggestionListResponse[dto.EntryResponse]](t, rec)
		require.Equal(t, 1, response.Count)
		top := response.Suggestions[0]
		assert.Equal(t, "exp-1", top.Target.ID)
		assert.Equal(t, 95, top.Score)
		assert.Equal(t, "high", top.Confidence)
		require.Len(t, top.Breakdown, 3)
		assert.Equal(t, "amount", top.Breakdown[0].Name)
		assert.Equal(t, 50, top.Breakdown[0].Points)
	})

	t.Run("unknown receipt is 404", func(t *testing.T) {
		rec := do(t, server, http.MethodGet, "/api/receipts/missing/suggestions", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("link to an expense", func(t *testing.T) {
		rec := do(t, server, http.MethodPost, "/api/receipts/rcpt-1/link", dto.LinkReceiptRequest{ExpenseID: "exp-1"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "exp-1", decode[dto.ReceiptResponse](t, rec).ExpenseID)
	})

	t.Run("link to a transaction is rejected", func(t *testing.T) {
		rec := do(t, server, http.MethodPost, "/api/receipts/rcpt-1/link", dto.LinkReceiptRequest{ExpenseID: "txn-1"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("link without expense id", func(t *testing.T) {
		rec := do(t, server, http.MethodPost, "/api/receipts/rcpt-1/link", dto.LinkReceiptRequest{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, dto.ErrCodeValidation, decode[dto.APIError](t, rec).Code)
	})
}

func TestServer_VendorsEndpoint(t *testing.T) {
	repo := storage.NewMockRepository()
	server := newTestServer(t, repo)
	ctx := context.Background()

	for i, name := range []string{"Acme Inc.", "ACME", "Blue Sky Design, LLC"} {
		require.NoError(t, repo.SaveEntry(ctx, &ledger.Entry{
			ID: fmt.Sprintf("exp-%d", i), OwnerID: "owner-1", Kind: ledger.KindExpense,
			AmountMinor: 1000, Currency: "USD", OccurredAt: date("2025-03-10"), Vendor: name,
		}))
	}

	t.Run("GET /api/vendors lists distinct names", func(t *testing.T) {
		rec := do(t, server, http.MethodGet, "/api/vendors?owner_id=owner-1", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		response := decode[dto.VendorListResponse](t, rec)
		assert.Equal(t, []string{"Acme", "Blue Sky Design"}, response.Vendors)
		assert.Equal(t, 2, response.Count)
	})

	t.Run("q narrows by prefix", func(t *testing.T) {
		rec := do(t, server, http.MethodGet, "/api/vendors?owner_id=owner-1&q=blue", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"Blue Sky Design"}, decode[dto.VendorListResponse](t, rec).Vendors)
	})

	t.Run("unknown owner gets an empty list", func(t *testing.T) {
		rec := do(t, server, http.MethodGet, "/api/vendors?owner_id=nobody", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		response := decode[dto.VendorListResponse](t, rec)
		assert.Empty(t, response.Vendors)
		assert.Equal(t, 0, response.Count)
	})
}

func TestServer_ProjectedIncomeEndpoints(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*api.Server, *storage.MockRepository, string) {
		repo := storage.NewMockRepository()
		server := newTestServer(t, repo)
		marchID := seedIncome(t, server)
		require.NoError(t, repo.SaveEntry(ctx, payment("txn-1", 500000, "USD", "2025-03-16")))
		require.NoError(t, repo.SaveEntry(ctx, payment("txn-2", 500000, "USD", "2025-03-17")))
		require.NoError(t, repo.SaveEntry(ctx, payment("txn-eur", 500000, "EUR", "2025-03-16")))
		return server, repo, marchID
	}

	t.Run("list derives state for today", func(t *testing.T) {
		server, _, _ := setup(t)

		rec := do(t, server, http.MethodGet, "/api/projected-income?retainer_id=ret-1", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		response := decode[dto.ProjectedIncomeListResponse](t, rec)
		require.Equal(t, 4, response.Count)
		states := make([]string, 0, 4)
		for _, p := range response.ProjectedIncome {
			states = append(states, p.State)
		}
		assert.Equal(t, []string{"missed", "missed", "due", "upcoming"}, states)
		assert.Equal(t, "$5,000.00", response.ProjectedIncome[0].ExpectedDisplay)
	})

	t.Run("transaction suggestions rank March first", func(t *testing.T) {
		server, _, marchID := setup(t)

		rec := do(t, server, http.MethodGet, "/api/transactions/txn-1/suggestions", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		response := decode[dto.SuggestionListResponse[dto.ProjectedIncomeResponse]](t, rec)
		require.NotEmpty(t, response.Suggestions)
		assert.Equal(t, marchID, response.Suggestions[0].Target.ID)
		assert.Equal(t, 96, response.Suggestions[0].Score)
		assert.Len(t, response.Suggestions[0].Breakdown, 4)
	})

	t.Run("match, conflict, unmatch", func(t *testing.T) {
		server, _, marchID := setup(t)
		matches := "/api/projected-income/" + marchID + "/matches"

		rec := do(t, server, http.MethodPost, matches, dto.MatchRequest{TransactionID: "txn-1"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		matched := decode[dto.ProjectedIncomeResponse](t, rec)
		assert.Equal(t, "received", matched.State)
		assert.Equal(t, int64(0), matched.OutstandingMinor)
		require.Len(t, matched.Matches, 1)
		assert.Equal(t, "2025-03-16", matched.Matches[0].ReceivedOn)

		rec = do(t, server, http.MethodPost, matches, dto.MatchRequest{TransactionID: "txn-1"})
		assert.Equal(t, http.StatusOK, rec.Code, "repeat match is a no-op")

		rec = do(t, server, http.MethodPost, matches, dto.MatchRequest{TransactionID: "txn-2"})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, dto.ErrCodeConflict, decode[dto.APIError](t, rec).Code)

		rec = do(t, server, http.MethodDelete, matches+"/txn-1", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "due", decode[dto.ProjectedIncomeResponse](t, rec).State)

		rec = do(t, server, http.MethodDelete, matches+"/txn-1", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("a matched transaction cannot be reused for another period", func(t *testing.T) {
		server, _, marchID := setup(t)

		rec := do(t, server, http.MethodPost, "/api/projected-income/"+marchID+"/matches", dto.MatchRequest{TransactionID: "txn-1"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = do(t, server, http.MethodGet, "/api/projected-income?from=2025-04-01&to=2025-04-30", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		april := decode[dto.ProjectedIncomeListResponse](t, rec)
		require.Len(t, april.ProjectedIncome, 1)

		rec = do(t, server, http.MethodPost, "/api/projected-income/"+april.ProjectedIncome[0].ID+"/matches", dto.MatchRequest{TransactionID: "txn-1"})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, dto.ErrCodeConflict, decode[dto.APIError](t, rec).Code)
	})

	t.Run("currency mismatch is a validation error", func(t *testing.T) {
		server, _, marchID := setup(t)

		rec := do(t, server, http.MethodPost, "/api/projected-income/"+marchID+"/matches", dto.MatchRequest{TransactionID: "txn-eur"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, dto.ErrCodeValidation, decode[dto.APIError](t, rec).Code)
	})

	t.Run("bad match bodies", func(t *testing.T) {
		server, _, marchID := setup(t)
		path := "/api/projected-income/" + marchID + "/matches"

		rec := do(t, server, http.MethodPost, path, dto.MatchRequest{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString("{not json"))
		raw := httptest.NewRecorder()
		server.Router().ServeHTTP(raw, req)
		assert.Equal(t, http.StatusBadRequest, raw.Code)
	})

	t.Run("storage failure is a 500", func(t *testing.T) {
		server, repo, marchID := setup(t)
		repo.UpdateIncomeErr = assert.AnError

		rec := do(t, server, http.MethodPost, "/api/projected-income/"+marchID+"/matches", dto.MatchRequest{TransactionID: "txn-1"})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, dto.ErrCodeInternalError, decode[dto.APIError](t, rec).Code)
	})

	t.Run("cancel then cancel again", func(t *testing.T) {
		server, _, marchID := setup(t)

		rec := do(t, server, http.MethodPost, "/api/projected-income/"+marchID+"/cancel", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		canceled := decode[dto.ProjectedIncomeResponse](t, rec)
		assert.Equal(t, "canceled", canceled.State)
		assert.NotEmpty(t, canceled.CanceledAt)

		rec = do(t, server, http.MethodPost, "/api/projected-income/"+marchID+"/cancel", nil)
		assert.Equal(t, http.StatusConflict, rec.Code)

		rec = do(t, server, http.MethodGet, "/api/projected-income/"+marchID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "canceled", decode[dto.ProjectedIncomeResponse](t, rec).State)
	})

	t.Run("refresh without a body uses the default horizon", func(t *testing.T) {
		server, _, _ := setup(t)

		rec := do(t, server, http.MethodPost, "/api/projected-income/refresh", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		response := decode[dto.RefreshProjectedIncomeResponse](t, rec)
		assert.Equal(t, "2025-06-30", response.Through)
		assert.Equal(t, 2, response.Created)
	})
}

func TestServer_CORS(t *testing.T) {
	server := newTestServer(t, storage.NewMockRepository())

	t.Run("sets CORS headers for allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()

		server.Router().ServeHTTP(rec, req)

		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("handles OPTIONS preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/forecast", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()

		server.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
