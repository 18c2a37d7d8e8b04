package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/freelance-ledger/internal/domain/calendar"
)

func monthlyRule(id, start string) Rule {
	return Rule{
		ID:          id,
		Title:       "rule " + id,
		AmountMinor: 4000,
		Currency:    "USD",
		Frequency:   Monthly,
		StartDate:   calendar.MustParse(start),
		EndMode:     NoEnd,
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid rule", func(t *testing.T) {
		require.NoError(t, monthlyRule("r1", "2024-01-01").Validate())
	})

	tests := []struct {
		name   string
		mutate func(*Rule)
	}{
		{"zero amount", func(r *Rule) { r.AmountMinor = 0 }},
		{"negative amount", func(r *Rule) { r.AmountMinor = -10 }},
		{"until date without end date", func(r *Rule) { r.EndMode = UntilDate }},
		{"end date without until mode", func(r *Rule) { r.EndDate = calendar.MustParse("2025-01-01") }},
		{"end before start", func(r *Rule) {
			r.EndMode = UntilDate
			r.EndDate = calendar.MustParse("2023-12-31")
		}},
		{"unknown frequency", func(r *Rule) { r.Frequency = "weekly" }},
		{"unknown end mode", func(r *Rule) { r.EndMode = "forever" }},
		{"missing start date", func(r *Rule) { r.StartDate = calendar.Date{} }},
		{"lowercase currency", func(r *Rule) { r.Currency = "usd" }},
		{"missing title", func(r *Rule) { r.Title = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := monthlyRule("r1", "2024-01-01")
			tt.mutate(&r)
			err := r.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRule))
		})
	}
}

func TestOccursInPeriod_MonthlyNoEnd(t *testing.T) {
	r := monthlyRule("r1", "2024-03-15")

	assert.False(t, OccursInPeriod(r, 2024, time.February), "before start")
	assert.True(t, OccursInPeriod(r, 2024, time.March), "start month qualifies")

	// every month from the start month on
	for y := 2024; y <= 2030; y++ {
		for m := time.January; m <= time.December; m++ {
			if y == 2024 && m < time.March {
				continue
			}
			assert.True(t, OccursInPeriod(r, y, m), "%d-%02d", y, m)
		}
	}
}

func TestOccursInPeriod_MidMonthStart(t *testing.T) {
	r := monthlyRule("r1", "2024-01-15")

	assert.True(t, OccursInPeriod(r, 2024, time.January))
	assert.False(t, OccursInPeriod(r, 2023, time.December))
	assert.Equal(t, calendar.MustParse("2024-01-15"), OccurrenceDate(r, 2024, time.January))

	got := Collect([]Rule{r}, calendar.MustParse("2024-01-01"), calendar.MustParse("2024-02-29"))
	require.Len(t, got, 2)
	assert.Equal(t, calendar.MustParse("2024-01-15"), got[0].Date)
	assert.Equal(t, calendar.MustParse("2024-02-15"), got[1].Date)
}

func TestOccursInPeriod_Yearly(t *testing.T) {
	r := monthlyRule("r1", "2024-05-20")
	r.Frequency = Yearly

	for y := 2024; y <= 2030; y++ {
		count := 0
		for m := time.January; m <= time.December; m++ {
			if OccursInPeriod(r, y, m) {
				count++
				assert.Equal(t, time.May, m)
			}
		}
		assert.Equal(t, 1, count, "year %d", y)
	}
	assert.False(t, OccursInPeriod(r, 2023, time.May))
}

func TestOccursInPeriod_EndOfYear(t *testing.T) {
	r := monthlyRule("r1", "2024-10-01")
	r.EndMode = EndOfYear

	assert.True(t, OccursInPeriod(r, 2024, time.October))
	assert.True(t, OccursInPeriod(r, 2024, time.December))
	// scoped to the start's calendar year, not twelve months from start
	assert.False(t, OccursInPeriod(r, 2025, time.January))
	assert.False(t, OccursInPeriod(r, 2025, time.September))
}

func TestOccursInPeriod_UntilDate(t *testing.T) {
	r := monthlyRule("r1", "2024-01-15")
	r.EndMode = UntilDate
	r.EndDate = calendar.MustParse("2024-06-10")

	assert.True(t, OccursInPeriod(r, 2024, time.June), "first of June is before end date")
	assert.False(t, OccursInPeriod(r, 2024, time.July))
}

func TestOccursInPeriod_DegradesGracefully(t *testing.T) {
	t.Run("paused", func(t *testing.T) {
		r := monthlyRule("r1", "2024-01-01")
		r.IsPaused = true
		assert.False(t, OccursInPeriod(r, 2024, time.June))
	})
	t.Run("until date missing end date", func(t *testing.T) {
		r := monthlyRule("r1", "2024-01-01")
		r.EndMode = UntilDate
		assert.False(t, OccursInPeriod(r, 2024, time.June))
	})
	t.Run("non-positive amount", func(t *testing.T) {
		r := monthlyRule("r1", "2024-01-01")
		r.AmountMinor = 0
		assert.False(t, OccursInPeriod(r, 2024, time.June))
	})
	t.Run("zero rule", func(t *testing.T) {
		assert.False(t, OccursInPeriod(Rule{}, 2024, time.June))
	})
}

func TestOccurrenceDate_Clamps(t *testing.T) {
	r := monthlyRule("r1", "2024-01-31")
	assert.Equal(t, calendar.MustParse("2024-02-29"), OccurrenceDate(r, 2024, time.February))
	assert.Equal(t, calendar.MustParse("2025-02-28"), OccurrenceDate(r, 2025, time.February))
	assert.Equal(t, calendar.MustParse("2024-04-30"), OccurrenceDate(r, 2024, time.April))
	assert.Equal(t, calendar.MustParse("2024-05-31"), OccurrenceDate(r, 2024, time.May))
}

func TestMaterialize(t *testing.T) {
	t.Run("clamped february occurrence", func(t *testing.T) {
		r := monthlyRule("r1", "2024-01-31")
		got := Collect([]Rule{r}, calendar.MustParse("2024-02-01"), calendar.MustParse("2024-02-29"))
		require.Len(t, got, 1)
		assert.Equal(t, calendar.MustParse("2024-02-29"), got[0].Date)
		assert.Equal(t, "r1", got[0].RuleID)
		assert.Equal(t, int64(4000), got[0].AmountMinor)
	})

	t.Run("excludes boundary-month dates outside range", func(t *testing.T) {
		r := monthlyRule("r1", "2024-01-20")
		got := Collect([]Rule{r}, calendar.MustParse("2024-03-25"), calendar.MustParse("2024-05-10"))
		// March 20 is before from, May 20 is after to
		require.Len(t, got, 1)
		assert.Equal(t, calendar.MustParse("2024-04-20"), got[0].Date)
	})

	t.Run("chronological with stable ties", func(t *testing.T) {
		a := monthlyRule("a", "2024-01-15")
		b := monthlyRule("b", "2024-01-05")
		c := monthlyRule("c", "2024-01-15")
		got := Collect([]Rule{a, b, c}, calendar.MustParse("2024-01-01"), calendar.MustParse("2024-02-28"))

		var ids []string
		for _, o := range got {
			ids = append(ids, o.RuleID+"@"+o.Date.String())
		}
		assert.Equal(t, []string{
			"b@2024-01-05", "a@2024-01-15", "c@2024-01-15",
			"b@2024-02-05", "a@2024-02-15", "c@2024-02-15",
		}, ids)
	})

	t.Run("skips paused and malformed rules", func(t *testing.T) {
		paused := monthlyRule("p", "2024-01-01")
		paused.IsPaused = true
		bad := monthlyRule("bad", "2024-01-01")
		bad.EndMode = UntilDate
		got := Collect([]Rule{paused, bad}, calendar.MustParse("2024-01-01"), calendar.MustParse("2024-12-31"))
		assert.Empty(t, got)
	})

	t.Run("yearly rule across years", func(t *testing.T) {
		r := monthlyRule("y", "2024-02-29")
		r.Frequency = Yearly
		got := Collect([]Rule{r}, calendar.MustParse("2024-01-01"), calendar.MustParse("2026-12-31"))
		require.Len(t, got, 3)
		assert.Equal(t, calendar.MustParse("2024-02-29"), got[0].Date)
		assert.Equal(t, calendar.MustParse("2025-02-28"), got[1].Date)
		assert.Equal(t, calendar.MustParse("2026-02-28"), got[2].Date)
	})

	t.Run("restartable and stoppable", func(t *testing.T) {
		seq := Materialize([]Rule{monthlyRule("r", "2024-01-01")},
			calendar.MustParse("2024-01-01"), calendar.MustParse("2024-12-31"))

		first := 0
		for range seq {
			first++
		}
		second := 0
		for range seq {
			second++
		}
		assert.Equal(t, 12, first)
		assert.Equal(t, first, second)

		taken := 0
		for range seq {
			taken++
			if taken == 3 {
				break
			}
		}
		assert.Equal(t, 3, taken)
	})

	t.Run("empty when range is inverted", func(t *testing.T) {
		got := Collect([]Rule{monthlyRule("r", "2024-01-01")},
			calendar.MustParse("2024-12-31"), calendar.MustParse("2024-01-01"))
		assert.Empty(t, got)
	})
}
