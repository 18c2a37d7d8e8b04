package calendar

import (
	"fmt"
	"time"
)

// MonthKey identifies a calendar month as "YYYY-MM".
type MonthKey string

// MonthKeyOf builds the key for year/month.
func MonthKeyOf(year int, month time.Month) MonthKey {
	return MonthKey(fmt.Sprintf("%04d-%02d", year, int(month)))
}

// ParseMonthKey validates a YYYY-MM string.
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return "", fmt.Errorf("invalid month key %q: %w", s, err)
	}
	return MonthKeyOf(t.Year(), t.Month()), nil
}

// YearMonth splits the key. ok is false for malformed keys.
func (k MonthKey) YearMonth() (year int, month time.Month, ok bool) {
	t, err := time.Parse("2006-01", string(k))
	if err != nil {
		return 0, 0, false
	}
	return t.Year(), t.Month(), true
}

func (k MonthKey) String() string { return string(k) }
