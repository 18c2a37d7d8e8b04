package income

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/eshaffer321/freelance-ledger/internal/domain/calendar"
)

// Frequency is the billing cadence of a retainer.
type Frequency string

const (
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

func (f Frequency) months() int {
	switch f {
	case Monthly:
		return 1
	case Quarterly:
		return 3
	case Yearly:
		return 12
	}
	return 0
}

// ErrInvalidRetainer is returned by Retainer.Validate.
var ErrInvalidRetainer = errors.New("invalid retainer configuration")

// Retainer is a recurring agreement with a client that yields one projected
// income occurrence per billing period.
type Retainer struct {
	ID          string    `json:"id" validate:"required"`
	OwnerID     string    `json:"owner_id"`
	ClientID    string    `json:"client_id" validate:"required"`
	ClientName  string    `json:"client_name"`
	AmountMinor int64     `json:"amount_minor" validate:"gt=0"`
	Currency    string    `json:"currency" validate:"len=3,uppercase"`
	Frequency   Frequency `json:"frequency" validate:"oneof=monthly quarterly yearly"`
	// DayOfMonth is when payment is expected inside the period's first month.
	// 0 means the start date's day. Short months clamp.
	DayOfMonth int           `json:"day_of_month" validate:"min=0,max=31"`
	StartDate  calendar.Date `json:"start_date"`
	EndDate    calendar.Date `json:"end_date,omitempty"`
	IsPaused   bool          `json:"is_paused"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		r := sl.Current().Interface().(Retainer)
		if r.StartDate.IsZero() {
			sl.ReportError(r.StartDate, "StartDate", "start_date", "required", "")
		}
		if !r.EndDate.IsZero() && r.EndDate.Before(r.StartDate) {
			sl.ReportError(r.EndDate, "EndDate", "end_date", "gtefield", "StartDate")
		}
	}, Retainer{})
	return v
}

// Validate reports configuration problems wrapped in ErrInvalidRetainer.
func (r Retainer) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRetainer, err)
	}
	return nil
}

// GeneratePeriods returns the occurrences of r whose period overlaps
// [from, through], with state derived for today. Periods are anchored on the
// first of the start month and never overlap. IDs are left empty for the
// caller to assign. Paused or malformed retainers yield nothing.
func GeneratePeriods(r Retainer, from, through, today calendar.Date) []ProjectedIncome {
	step := r.Frequency.months()
	if r.IsPaused || step == 0 || r.AmountMinor <= 0 || r.StartDate.IsZero() || through.Before(from) {
		return nil
	}

	day := r.DayOfMonth
	if day == 0 {
		day = r.StartDate.Day()
	}

	var out []ProjectedIncome
	for k := 0; ; k++ {
		start := calendar.FirstOfMonth(r.StartDate.Year(), r.StartDate.Month()+time.Month(k*step))
		if start.After(through) || (!r.EndDate.IsZero() && start.After(r.EndDate)) {
			break
		}
		next := calendar.FirstOfMonth(start.Year(), start.Month()+time.Month(step))
		end := next.AddDays(-1)
		if end.Before(from) {
			continue
		}

		p := ProjectedIncome{
			RetainerID:          r.ID,
			OwnerID:             r.OwnerID,
			ClientID:            r.ClientID,
			ClientName:          r.ClientName,
			Currency:            r.Currency,
			ExpectedAmountMinor: r.AmountMinor,
			ExpectedDate:        calendar.ClampedDay(start.Year(), start.Month(), day),
			PeriodStart:         start,
			PeriodEnd:           end,
			Matches:             []Match{},
		}
		out = append(out, Refresh(p, today))
	}
	return out
}
