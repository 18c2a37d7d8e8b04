// Package calendar provides day-granular calendar dates and month keys.
//
// All ledger arithmetic happens on calendar dates, never on instants, so
// occurrence dates and day differences do not depend on the caller's time zone.
package calendar

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateFormat is the ISO-8601 format used to read and write dates.
const DateFormat = "2006-01-02"

// lenient read format, accepts 2025-7-1
const readDateFormat = "2006-1-2"

// Date is a calendar day with no time-of-day or zone.
// The zero value is the "no date" marker, see IsZero.
type Date struct {
	y int
	m time.Month
	d int
}

// New returns a normalized Date. Out-of-range days roll over the way time.Date does.
func New(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{t.Year(), t.Month(), t.Day()}
}

// FromTime returns the calendar day of t in t's own location.
func FromTime(t time.Time) Date {
	return New(t.Date())
}

// FirstOfMonth returns the first day of the given month.
func FirstOfMonth(year int, month time.Month) Date {
	return New(year, month, 1)
}

// Parse reads a YYYY-MM-DD date.
func Parse(s string) (Date, error) {
	t, err := time.Parse(readDateFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, want format %q: %w", s, DateFormat, err)
	}
	return FromTime(t), nil
}

// MustParse is like Parse but panics on error. Intended for tests and fixtures.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err.Error())
	}
	return d
}

func (d Date) time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time { return d.time() }

func (d Date) Year() int          { return d.y }
func (d Date) Month() time.Month  { return d.m }
func (d Date) Day() int           { return d.d }
func (d Date) IsZero() bool       { return d == Date{} }
func (d Date) Before(x Date) bool { return d.Compare(x) < 0 }
func (d Date) After(x Date) bool  { return d.Compare(x) > 0 }

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after x.
func (d Date) Compare(x Date) int {
	switch {
	case d.y != x.y:
		return cmpInt(d.y, x.y)
	case d.m != x.m:
		return cmpInt(int(d.m), int(x.m))
	default:
		return cmpInt(d.d, x.d)
	}
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// AddDays returns d shifted by n days.
func (d Date) AddDays(n int) Date { return New(d.y, d.m, d.d+n) }

// DaysUntil returns the signed number of days from d to x (x - d).
func (d Date) DaysUntil(x Date) int {
	return int(x.time().Sub(d.time()).Hours() / 24)
}

// MonthKey returns the YYYY-MM key of the month containing d.
func (d Date) MonthKey() MonthKey { return MonthKeyOf(d.y, d.m) }

// String formats the date as YYYY-MM-DD. The zero date formats as "".
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.time().Format(DateFormat)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampedDay returns the date with the given day-of-month in year/month,
// clamped to the last day of the month instead of rolling over.
func ClampedDay(year int, month time.Month, day int) Date {
	if n := DaysIn(year, month); day > n {
		day = n
	}
	if day < 1 {
		day = 1
	}
	return Date{year, month, day}
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

var (
	_ json.Marshaler   = Date{}
	_ json.Unmarshaler = (*Date)(nil)
)
