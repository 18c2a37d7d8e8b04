// Package clock provides the injectable notion of "now" used by the engine.
//
// Nothing under internal/domain calls time.Now directly; callers pass a Clock
// (or a date derived from one) so frozen-time demos and tests work without
// touching the system clock.
package clock

import (
	"time"

	"github.com/eshaffer321/freelance-ledger/internal/domain/calendar"
)

// Clock reports the current instant.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed always reports the same instant.
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f) }

// FixedOn returns a Fixed clock at noon UTC on the given day.
func FixedOn(d calendar.Date) Fixed {
	return Fixed(d.Time().Add(12 * time.Hour))
}

// Today returns the calendar day of c.Now().
func Today(c Clock) calendar.Date {
	return calendar.FromTime(c.Now())
}
