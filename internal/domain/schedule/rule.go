// Package schedule evaluates recurring expense/income rules.
//
// A Rule is projected month by month: OccursInPeriod answers whether the
// rule produces an occurrence in a given month, OccurrenceDate says which day
// it lands on, and Materialize expands a rule set into dated occurrences over
// a date range.
//
// Example usage:
//
//	rule := schedule.Rule{
//		ID: "r1", Title: "Figma", AmountMinor: 4500, Currency: "USD",
//		Frequency: schedule.Monthly, EndMode: schedule.NoEnd,
//		StartDate: calendar.MustParse("2024-01-31"),
//	}
//	schedule.OccursInPeriod(rule, 2024, time.February) // true
//	schedule.OccurrenceDate(rule, 2024, time.February) // 2024-02-29
package schedule

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/eshaffer321/freelance-ledger/internal/domain/calendar"
)

// Frequency is how often a rule recurs.
type Frequency string

const (
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// EndMode is how a rule terminates.
type EndMode string

const (
	// EndOfYear scopes the rule to the calendar year of its start date.
	EndOfYear EndMode = "endOfYear"
	// UntilDate stops the rule after EndDate.
	UntilDate EndMode = "untilDate"
	// NoEnd never stops.
	NoEnd EndMode = "noEnd"
)

// ErrInvalidRule is returned by Validate for a malformed rule.
var ErrInvalidRule = errors.New("invalid rule configuration")

// Rule is a recurring obligation owned by a business profile.
type Rule struct {
	ID          string        `json:"id" validate:"required"`
	OwnerID     string        `json:"owner_id"`
	Title       string        `json:"title" validate:"required"`
	Vendor      string        `json:"vendor,omitempty"`
	CategoryID  string        `json:"category_id,omitempty"`
	AmountMinor int64         `json:"amount_minor" validate:"gt=0"`
	Currency    string        `json:"currency" validate:"len=3,uppercase"`
	Frequency   Frequency     `json:"frequency" validate:"oneof=monthly yearly"`
	StartDate   calendar.Date `json:"start_date"`
	EndMode     EndMode       `json:"end_mode" validate:"oneof=endOfYear untilDate noEnd"`
	EndDate     calendar.Date `json:"end_date"`
	IsPaused    bool          `json:"is_paused"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(ruleDates, Rule{})
	return v
}

// ruleDates checks the fields validator tags cannot express.
func ruleDates(sl validator.StructLevel) {
	r := sl.Current().Interface().(Rule)
	if r.StartDate.IsZero() {
		sl.ReportError(r.StartDate, "StartDate", "start_date", "required", "")
	}
	switch {
	case r.EndMode == UntilDate && r.EndDate.IsZero():
		sl.ReportError(r.EndDate, "EndDate", "end_date", "required_if", "untilDate")
	case r.EndMode != UntilDate && !r.EndDate.IsZero():
		sl.ReportError(r.EndDate, "EndDate", "end_date", "excluded_unless", "untilDate")
	case r.EndMode == UntilDate && r.EndDate.Before(r.StartDate):
		sl.ReportError(r.EndDate, "EndDate", "end_date", "gtefield", "StartDate")
	}
}

// Validate reports every configuration problem with the rule, wrapped in
// ErrInvalidRule. Intended for creation/edit time; the evaluator itself never
// fails and treats a malformed rule as never occurring.
func (r Rule) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	return nil
}

// wellFormed is the cheap subset of Validate the evaluator relies on.
func (r Rule) wellFormed() bool {
	if r.AmountMinor <= 0 || r.StartDate.IsZero() {
		return false
	}
	if r.Frequency != Monthly && r.Frequency != Yearly {
		return false
	}
	switch r.EndMode {
	case EndOfYear, NoEnd:
		return true
	case UntilDate:
		return !r.EndDate.IsZero()
	default:
		return false
	}
}
