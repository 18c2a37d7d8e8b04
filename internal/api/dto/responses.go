package dto

import "time"

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Today     string `json:"today,omitempty"`
}

// BucketResponse is one month of a forecast.
type BucketResponse struct {
	Month            int    `json:"month"`
	MonthName        string `json:"month_name"`
	Closed           bool   `json:"closed"`
	ActualMinor      int64  `json:"actual_minor"`
	ProjectedMinor   int64  `json:"projected_minor"`
	ProjectedDisplay string `json:"projected_display"`
}

// ForecastResponse is a year forecast for one currency.
type ForecastResponse struct {
	Year             int              `json:"year"`
	Currency         string           `json:"currency"`
	Months           []BucketResponse `json:"months"`
	TotalMinor       int64            `json:"total_minor"`
	TotalDisplay     string           `json:"total_display"`
	RemainingMinor   int64            `json:"remaining_minor"`
	RemainingDisplay string           `json:"remaining_display"`
}

// ForecastListResponse is returned by GET /api/forecast.
type ForecastListResponse struct {
	Year      int                `json:"year"`
	Today     string             `json:"today"`
	Forecasts []ForecastResponse `json:"forecasts"`
}

// MinimumNeededResponse is returned by GET /api/forecast/minimum-needed.
type MinimumNeededResponse struct {
	Year                 int    `json:"year"`
	Currency             string `json:"currency"`
	MinimumNeededMinor   int64  `json:"minimum_needed_minor"`
	MinimumNeededDisplay string `json:"minimum_needed_display"`
}

// VendorListResponse is returned by GET /api/vendors.
type VendorListResponse struct {
	Vendors []string `json:"vendors"`
	Count   int      `json:"count"`
}

// OccurrenceResponse is one dated instance of a recurring rule.
type OccurrenceResponse struct {
	RuleID      string `json:"rule_id"`
	Title       string `json:"title"`
	Vendor      string `json:"vendor,omitempty"`
	CategoryID  string `json:"category_id,omitempty"`
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
	Display     string `json:"display"`
	Date        string `json:"date"`
}

// OccurrenceListResponse is returned by GET /api/occurrences.
type OccurrenceListResponse struct {
	From        string               `json:"from"`
	To          string               `json:"to"`
	Occurrences []OccurrenceResponse `json:"occurrences"`
	Count       int                  `json:"count"`
}

// EntryResponse is an expense or transaction.
type EntryResponse struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	Description  string `json:"description,omitempty"`
	AmountMinor  int64  `json:"amount_minor"`
	Currency     string `json:"currency"`
	Display      string `json:"display"`
	OccurredAt   string `json:"occurred_at"`
	Vendor       string `json:"vendor,omitempty"`
	ClientID     string `json:"client_id,omitempty"`
	Counterparty string `json:"counterparty,omitempty"`
}

// MatchResponse is one transaction allocated to projected income.
type MatchResponse struct {
	TransactionID string `json:"transaction_id"`
	AmountMinor   int64  `json:"amount_minor"`
	ReceivedOn    string `json:"received_on"`
	MatchedAt     string `json:"matched_at"`
}

// ProjectedIncomeResponse is one expected retainer payment with its state
// derived for today.
type ProjectedIncomeResponse struct {
	ID                  string          `json:"id"`
	RetainerID          string          `json:"retainer_id"`
	ClientID            string          `json:"client_id"`
	ClientName          string          `json:"client_name,omitempty"`
	Currency            string          `json:"currency"`
	ExpectedAmountMinor int64           `json:"expected_amount_minor"`
	ExpectedDisplay     string          `json:"expected_display"`
	ExpectedDate        string          `json:"expected_date"`
	PeriodStart         string          `json:"period_start"`
	PeriodEnd           string          `json:"period_end"`
	State               string          `json:"state"`
	ReceivedAmountMinor int64           `json:"received_amount_minor"`
	ReceivedDisplay     string          `json:"received_display"`
	OutstandingMinor    int64           `json:"outstanding_minor"`
	ReceivedAt          string          `json:"received_at,omitempty"`
	CanceledAt          string          `json:"canceled_at,omitempty"`
	Matches             []MatchResponse `json:"matches"`
	Version             int64           `json:"version"`
}

// ProjectedIncomeListResponse is returned by GET /api/projected-income.
type ProjectedIncomeListResponse struct {
	ProjectedIncome []ProjectedIncomeResponse `json:"projected_income"`
	Count           int                       `json:"count"`
}

// RefreshProjectedIncomeResponse reports how many occurrences were created.
type RefreshProjectedIncomeResponse struct {
	Through string `json:"through"`
	Created int    `json:"created"`
}

// ComponentResponse is one line of a score breakdown.
type ComponentResponse struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
	Max    int    `json:"max"`
}

// SuggestionResponse is a scored candidate with the breakdown behind the score.
type SuggestionResponse[T any] struct {
	Target     T                   `json:"target"`
	Score      int                 `json:"score"`
	Confidence string              `json:"confidence"`
	Breakdown  []ComponentResponse `json:"breakdown"`
}

// SuggestionListResponse is returned by the suggestion endpoints.
type SuggestionListResponse[T any] struct {
	SourceID    string                  `json:"source_id"`
	Suggestions []SuggestionResponse[T] `json:"suggestions"`
	Count       int                     `json:"count"`
}

// ReceiptResponse is a receipt with its link.
type ReceiptResponse struct {
	ID                      string `json:"id"`
	AmountMinor             *int64 `json:"amount_minor,omitempty"`
	Currency                string `json:"currency,omitempty"`
	Display                 string `json:"display,omitempty"`
	OccurredAt              string `json:"occurred_at,omitempty"`
	MonthKey                string `json:"month_key"`
	VendorRaw               string `json:"vendor_raw,omitempty"`
	ExpenseID               string `json:"expense_id,omitempty"`
	LinkedProjectedIncomeID string `json:"linked_projected_income_id,omitempty"`
}

// CreatedResponse is returned when a resource is created or replaced.
type CreatedResponse struct {
	ID string `json:"id"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
