// Package forecast projects recurring rules over a calendar year, per currency.
//
// Closed months (the current month and everything before it) report what
// actually happened; open months report what the rules say will happen. The
// two are never blended inside a bucket. Currencies are never converted.
package forecast

import (
	"slices"
	"time"

	"github.com/eshaffer321/freelance-ledger/internal/domain/calendar"
	"github.com/eshaffer321/freelance-ledger/internal/domain/ledger"
	"github.com/eshaffer321/freelance-ledger/internal/domain/schedule"
)

// Bucket is one month of a forecast.
type Bucket struct {
	Month  time.Month `json:"month"`
	Closed bool       `json:"closed"`
	// ActualMinor is the ledger total for closed months and 0 for open ones.
	ActualMinor int64 `json:"actual_minor"`
	// ProjectedMinor equals ActualMinor for closed months and the rule total
	// for open ones.
	ProjectedMinor int64 `json:"projected_minor"`
}

// Forecast is a full year for one currency.
type Forecast struct {
	Year     int        `json:"year"`
	Currency string     `json:"currency"`
	Months   [12]Bucket `json:"months"`
	// TotalMinor sums ProjectedMinor over all twelve months.
	TotalMinor int64 `json:"total_minor"`
	// RemainingMinor sums ProjectedMinor over open months only.
	RemainingMinor int64 `json:"remaining_minor"`
}

// Aggregate builds the forecast for year/currency as seen on today.
// Rules and entries in other currencies, paused rules and soft-deleted
// entries are ignored.
func Aggregate(year int, currency string, rules []schedule.Rule, actuals []ledger.Entry, today calendar.Date) Forecast {
	f := Forecast{Year: year, Currency: currency}

	actualByMonth := make(map[time.Month]int64)
	for _, e := range actuals {
		if e.Currency != currency || e.IsDeleted() || e.OccurredAt.Year() != year {
			continue
		}
		actualByMonth[e.OccurredAt.Month()] += e.AmountMinor
	}

	for i := range f.Months {
		m := time.Month(i + 1)
		b := Bucket{Month: m, Closed: isClosed(year, m, today)}
		if b.Closed {
			b.ActualMinor = actualByMonth[m]
			b.ProjectedMinor = b.ActualMinor
		} else {
			b.ProjectedMinor = ruleTotal(rules, currency, year, m)
			f.RemainingMinor += b.ProjectedMinor
		}
		f.TotalMinor += b.ProjectedMinor
		f.Months[i] = b
	}

	return f
}

// MinimumNeededFunds is the projected total of the months of year still open
// on today. It is 0 for a year that is entirely in the past.
func MinimumNeededFunds(year int, currency string, rules []schedule.Rule, today calendar.Date) int64 {
	var total int64
	for m := time.January; m <= time.December; m++ {
		if !isClosed(year, m, today) {
			total += ruleTotal(rules, currency, year, m)
		}
	}
	return total
}

// AggregateAll returns one forecast per currency found in rules or actuals,
// sorted by currency code.
func AggregateAll(year int, rules []schedule.Rule, actuals []ledger.Entry, today calendar.Date) []Forecast {
	var currencies []string
	seen := make(map[string]bool)
	add := func(c string) {
		if c != "" && !seen[c] {
			seen[c] = true
			currencies = append(currencies, c)
		}
	}
	for _, r := range rules {
		if !r.IsPaused {
			add(r.Currency)
		}
	}
	for _, e := range actuals {
		if !e.IsDeleted() {
			add(e.Currency)
		}
	}
	slices.Sort(currencies)

	out := make([]Forecast, 0, len(currencies))
	for _, c := range currencies {
		out = append(out, Aggregate(year, c, rules, actuals, today))
	}
	return out
}

func isClosed(year int, month time.Month, today calendar.Date) bool {
	if year != today.Year() {
		return year < today.Year()
	}
	return month <= today.Month()
}

func ruleTotal(rules []schedule.Rule, currency string, year int, month time.Month) int64 {
	var total int64
	for _, r := range rules {
		if r.Currency != currency {
			continue
		}
		if schedule.OccursInPeriod(r, year, month) {
			total += r.AmountMinor
		}
	}
	return total
}
