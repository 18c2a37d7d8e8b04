package handlers

import (
	"time"

	"github.com/eshaffer321/freelance-ledger/internal/api/dto"
	"github.com/eshaffer321/freelance-ledger/internal/domain/forecast"
	"github.com/eshaffer321/freelance-ledger/internal/domain/income"
	"github.com/eshaffer321/freelance-ledger/internal/domain/ledger"
	"github.com/eshaffer321/freelance-ledger/internal/domain/matcher"
	"github.com/eshaffer321/freelance-ledger/internal/domain/schedule"
	"github.com/eshaffer321/freelance-ledger/internal/infrastructure/currency"
)

func toForecastResponse(f forecast.Forecast) dto.ForecastResponse {
	response := dto.ForecastResponse{
		Year:             f.Year,
		Currency:         f.Currency,
		Months:           make([]dto.BucketResponse, 0, len(f.Months)),
		TotalMinor:       f.TotalMinor,
		TotalDisplay:     currency.Format(f.TotalMinor, f.Currency),
		RemainingMinor:   f.RemainingMinor,
		RemainingDisplay: currency.Format(f.RemainingMinor, f.Currency),
	}
	for _, b := range f.Months {
		response.Months = append(response.Months, dto.BucketResponse{
			Month:            int(b.Month),
			MonthName:        b.Month.String(),
			Closed:           b.Closed,
			ActualMinor:      b.ActualMinor,
			ProjectedMinor:   b.ProjectedMinor,
			ProjectedDisplay: currency.Format(b.ProjectedMinor, f.Currency),
		})
	}
	return response
}

func toOccurrenceResponse(o schedule.Occurrence) dto.OccurrenceResponse {
	return dto.OccurrenceResponse{
		RuleID:      o.RuleID,
		Title:       o.Title,
		Vendor:      o.Vendor,
		CategoryID:  o.CategoryID,
		AmountMinor: o.AmountMinor,
		Currency:    o.Currency,
		Display:     currency.Format(o.AmountMinor, o.Currency),
		Date:        o.Date.String(),
	}
}

func toEntryResponse(e ledger.Entry) dto.EntryResponse {
	return dto.EntryResponse{
		ID:           e.ID,
		Kind:         string(e.Kind),
		Description:  e.Description,
		AmountMinor:  e.AmountMinor,
		Currency:     e.Currency,
		Display:      currency.Format(e.AmountMinor, e.Currency),
		OccurredAt:   e.OccurredAt.String(),
		Vendor:       e.Vendor,
		ClientID:     e.ClientID,
		Counterparty: e.Counterparty,
	}
}

func toProjectedIncomeResponse(p income.ProjectedIncome) dto.ProjectedIncomeResponse {
	response := dto.ProjectedIncomeResponse{
		ID:                  p.ID,
		RetainerID:          p.RetainerID,
		ClientID:            p.ClientID,
		ClientName:          p.ClientName,
		Currency:            p.Currency,
		ExpectedAmountMinor: p.ExpectedAmountMinor,
		ExpectedDisplay:     currency.Format(p.ExpectedAmountMinor, p.Currency),
		ExpectedDate:        p.ExpectedDate.String(),
		PeriodStart:         p.PeriodStart.String(),
		PeriodEnd:           p.PeriodEnd.String(),
		State:               string(p.State),
		ReceivedAmountMinor: p.ReceivedAmountMinor,
		ReceivedDisplay:     currency.Format(p.ReceivedAmountMinor, p.Currency),
		OutstandingMinor:    p.OutstandingMinor(),
		ReceivedAt:          p.ReceivedAt.String(),
		Matches:             make([]dto.MatchResponse, 0, len(p.Matches)),
		Version:             p.Version,
	}
	if p.CanceledAt != nil {
		response.CanceledAt = p.CanceledAt.UTC().Format(time.RFC3339)
	}
	for _, m := range p.Matches {
		response.Matches = append(response.Matches, dto.MatchResponse{
			TransactionID: m.TransactionID,
			AmountMinor:   m.AmountMinor,
			ReceivedOn:    m.ReceivedOn.String(),
			MatchedAt:     m.MatchedAt.UTC().Format(time.RFC3339),
		})
	}
	return response
}

func toReceiptResponse(r ledger.Receipt) dto.ReceiptResponse {
	response := dto.ReceiptResponse{
		ID:                      r.ID,
		AmountMinor:             r.AmountMinor,
		Currency:                r.Currency,
		OccurredAt:              r.OccurredAt.String(),
		MonthKey:                r.MonthKey.String(),
		VendorRaw:               r.VendorRaw,
		ExpenseID:               r.ExpenseID,
		LinkedProjectedIncomeID: r.LinkedProjectedIncomeID,
	}
	if r.AmountMinor != nil {
		response.Display = currency.Format(*r.AmountMinor, r.Currency)
	}
	return response
}

// toSuggestionList converts ranked candidates, keeping rank order.
func toSuggestionList[T, R any](sourceID string, candidates []matcher.Candidate[T], convert func(T) R) dto.SuggestionListResponse[R] {
	response := dto.SuggestionListResponse[R]{
		SourceID:    sourceID,
		Suggestions: make([]dto.SuggestionResponse[R], 0, len(candidates)),
		Count:       len(candidates),
	}
	for _, c := range candidates {
		breakdown := make([]dto.ComponentResponse, 0, len(c.Breakdown))
		for _, comp := range c.Breakdown {
			breakdown = append(breakdown, dto.ComponentResponse{Name: comp.Name, Points: comp.Points, Max: comp.Max})
		}
		response.Suggestions = append(response.Suggestions, dto.SuggestionResponse[R]{
			Target:     convert(c.Target),
			Score:      c.Score,
			Confidence: string(c.Confidence),
			Breakdown:  breakdown,
		})
	}
	return response
}
