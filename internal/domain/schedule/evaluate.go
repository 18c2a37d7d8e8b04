package schedule

import (
	"time"

	"github.com/eshaffer321/freelance-ledger/internal/domain/calendar"
)

// OccursInPeriod reports whether rule produces an occurrence in year/month.
//
// The check is month-granular: the start month itself qualifies whatever the
// start day. Paused and malformed rules never occur.
func OccursInPeriod(rule Rule, year int, month time.Month) bool {
	if rule.IsPaused || !rule.wellFormed() {
		return false
	}

	// Compare first-of-month dates so every month on or after the start
	// date's month and year qualifies, including a mid-month start.
	check := calendar.FirstOfMonth(year, month)
	start := calendar.FirstOfMonth(rule.StartDate.Year(), rule.StartDate.Month())
	if check.Before(start) {
		return false
	}

	switch rule.EndMode {
	case EndOfYear:
		// Scoped to the start date's calendar year, not twelve months from start.
		if year != rule.StartDate.Year() {
			return false
		}
	case UntilDate:
		if check.After(rule.EndDate) {
			return false
		}
	case NoEnd:
	}

	if rule.Frequency == Yearly {
		return month == rule.StartDate.Month()
	}
	return true
}

// OccurrenceDate is the day an occurrence in year/month lands on: the rule's
// start day, clamped to the month's last day (Jan 31 -> Feb 28/29).
func OccurrenceDate(rule Rule, year int, month time.Month) calendar.Date {
	return calendar.ClampedDay(year, month, rule.StartDate.Day())
}
