package income

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/freelance-ledger/internal/domain/calendar"
	"github.com/eshaffer321/freelance-ledger/internal/domain/ledger"
)

func occurrence(expected string) ProjectedIncome {
	return ProjectedIncome{
		ID:                  "pi-1",
		RetainerID:          "ret-1",
		ClientID:            "client-1",
		ClientName:          "Globex",
		Currency:            "USD",
		ExpectedAmountMinor: 300000,
		ExpectedDate:        calendar.MustParse(expected),
		PeriodStart:         calendar.MustParse("2025-03-01"),
		PeriodEnd:           calendar.MustParse("2025-03-31"),
	}
}

func incoming(id string, amount int64, on string) ledger.Entry {
	return ledger.Entry{
		ID:          id,
		Kind:        ledger.KindTransaction,
		AmountMinor: amount,
		Currency:    "USD",
		OccurredAt:  calendar.MustParse(on),
	}
}

func at(day string) time.Time {
	return calendar.MustParse(day).Time().Add(9 * time.Hour)
}

func TestDeriveState_TimeDriven(t *testing.T) {
	p := occurrence("2025-03-15")

	tests := []struct {
		today string
		want  State
	}{
		{"2025-03-01", StateUpcoming}, // 14 days out
		{"2025-03-07", StateUpcoming}, // 8 days out
		{"2025-03-08", StateDue},      // exactly 7 days out
		{"2025-03-15", StateDue},
		{"2025-03-22", StateDue},    // 7 days overdue
		{"2025-03-23", StateMissed}, // 8 days overdue
	}
	for _, tt := range tests {
		t.Run(tt.today, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveState(p, calendar.MustParse(tt.today)))
		})
	}
}

func TestDeriveState_MatchDriven(t *testing.T) {
	today := calendar.MustParse("2025-04-30")

	partial := occurrence("2025-03-15")
	partial.ReceivedAmountMinor = 100000
	assert.Equal(t, StatePartial, DeriveState(partial, today), "partial wins over missed")

	full := occurrence("2025-03-15")
	full.ReceivedAmountMinor = 300000
	assert.Equal(t, StateReceived, DeriveState(full, today))

	canceled := full
	now := time.Now()
	canceled.CanceledAt = &now
	assert.Equal(t, StateCanceled, DeriveState(canceled, today))
}

func TestApplyMatch(t *testing.T) {
	now := at("2025-03-16")

	t.Run("full payment marks received", func(t *testing.T) {
		p, err := ApplyMatch(occurrence("2025-03-15"), incoming("tx-1", 300000, "2025-03-16"), now)
		require.NoError(t, err)
		assert.Equal(t, StateReceived, p.State)
		assert.Equal(t, int64(300000), p.ReceivedAmountMinor)
		assert.Equal(t, calendar.MustParse("2025-03-16"), p.ReceivedAt)
		assert.Equal(t, []string{"tx-1"}, p.MatchedTransactionIDs())
		assert.Equal(t, int64(1), p.Version)
	})

	t.Run("partial then complete", func(t *testing.T) {
		p, err := ApplyMatch(occurrence("2025-03-15"), incoming("tx-1", 100000, "2025-03-14"), now)
		require.NoError(t, err)
		assert.Equal(t, StatePartial, p.State)
		assert.Equal(t, int64(200000), p.OutstandingMinor())

		p, err = ApplyMatch(p, incoming("tx-2", 200000, "2025-03-16"), now)
		require.NoError(t, err)
		assert.Equal(t, StateReceived, p.State)
		assert.Equal(t, int64(300000), p.ReceivedAmountMinor)
		assert.Equal(t, calendar.MustParse("2025-03-16"), p.ReceivedAt)
	})

	t.Run("same pair twice is a no-op", func(t *testing.T) {
		tx := incoming("tx-1", 100000, "2025-03-14")
		p1, err := ApplyMatch(occurrence("2025-03-15"), tx, now)
		require.NoError(t, err)

		p2, err := ApplyMatch(p1, tx, now)
		require.NoError(t, err)
		assert.Equal(t, int64(100000), p2.ReceivedAmountMinor)
		assert.Len(t, p2.Matches, 1)
		assert.Equal(t, p1.Version, p2.Version)
	})

	t.Run("same transaction with a different amount conflicts", func(t *testing.T) {
		p, err := ApplyMatch(occurrence("2025-03-15"), incoming("tx-1", 100000, "2025-03-14"), now)
		require.NoError(t, err)

		_, err = ApplyMatch(p, incoming("tx-1", 150000, "2025-03-14"), now)
		assert.True(t, errors.Is(err, ErrMatchConflict))
	})

	t.Run("fully received rejects new transactions", func(t *testing.T) {
		p, err := ApplyMatch(occurrence("2025-03-15"), incoming("tx-1", 300000, "2025-03-15"), now)
		require.NoError(t, err)

		_, err = ApplyMatch(p, incoming("tx-2", 5000, "2025-03-16"), now)
		assert.True(t, errors.Is(err, ErrMatchConflict))
	})

	t.Run("canceled rejects matches", func(t *testing.T) {
		p, err := Cancel(occurrence("2025-03-15"), now)
		require.NoError(t, err)

		_, err = ApplyMatch(p, incoming("tx-1", 300000, "2025-03-15"), now)
		assert.True(t, errors.Is(err, ErrMatchConflict))
	})

	t.Run("currency mismatch", func(t *testing.T) {
		tx := incoming("tx-1", 300000, "2025-03-15")
		tx.Currency = "EUR"
		_, err := ApplyMatch(occurrence("2025-03-15"), tx, now)
		assert.True(t, errors.Is(err, ErrCurrencyMismatch))
	})

	t.Run("outgoing transaction", func(t *testing.T) {
		_, err := ApplyMatch(occurrence("2025-03-15"), incoming("tx-1", -300000, "2025-03-15"), now)
		assert.True(t, errors.Is(err, ErrNotIncome))
	})

	t.Run("does not alias the input", func(t *testing.T) {
		base, err := ApplyMatch(occurrence("2025-03-15"), incoming("tx-1", 100000, "2025-03-14"), now)
		require.NoError(t, err)
		base.Matches = append(make([]Match, 0, 8), base.Matches...)

		_, err = ApplyMatch(base, incoming("tx-2", 100000, "2025-03-15"), now)
		require.NoError(t, err)
		assert.Len(t, base.Matches, 1)
	})
}

func TestUndoMatch(t *testing.T) {
	now := at("2025-03-16")

	p, err := ApplyMatch(occurrence("2025-03-15"), incoming("tx-1", 100000, "2025-03-14"), now)
	require.NoError(t, err)
	p, err = ApplyMatch(p, incoming("tx-2", 200000, "2025-03-16"), now)
	require.NoError(t, err)
	require.Equal(t, StateReceived, p.State)

	p, err = UndoMatch(p, "tx-2", now)
	require.NoError(t, err)
	assert.Equal(t, StatePartial, p.State)
	assert.Equal(t, int64(100000), p.ReceivedAmountMinor)
	assert.Equal(t, calendar.MustParse("2025-03-14"), p.ReceivedAt)

	p, err = UndoMatch(p, "tx-1", now)
	require.NoError(t, err)
	assert.Equal(t, StateDue, p.State)
	assert.Equal(t, int64(0), p.ReceivedAmountMinor)
	assert.True(t, p.ReceivedAt.IsZero())

	// later, with nothing matched, the same occurrence is missed
	p, err = ApplyMatch(p, incoming("tx-3", 1000, "2025-03-16"), now)
	require.NoError(t, err)
	p, err = UndoMatch(p, "tx-3", at("2025-04-30"))
	require.NoError(t, err)
	assert.Equal(t, StateMissed, p.State)

	_, err = UndoMatch(p, "unknown", now)
	assert.True(t, errors.Is(err, ErrNotMatched))
}

func TestCancel(t *testing.T) {
	now := at("2025-03-16")

	p, err := Cancel(occurrence("2025-03-15"), now)
	require.NoError(t, err)
	assert.Equal(t, StateCanceled, p.State)

	_, err = Cancel(p, now)
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	received, err := ApplyMatch(occurrence("2025-03-15"), incoming("tx-1", 300000, "2025-03-15"), now)
	require.NoError(t, err)
	_, err = Cancel(received, now)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestStateMatchable(t *testing.T) {
	assert.True(t, StateUpcoming.Matchable())
	assert.True(t, StateDue.Matchable())
	assert.True(t, StatePartial.Matchable())
	assert.True(t, StateMissed.Matchable())
	assert.False(t, StateReceived.Matchable())
	assert.False(t, StateCanceled.Matchable())
}

func TestRetainerValidate(t *testing.T) {
	r := Retainer{
		ID: "ret-1", ClientID: "c1", AmountMinor: 500000, Currency: "EUR",
		Frequency: Monthly, StartDate: calendar.MustParse("2025-01-15"),
	}
	require.NoError(t, r.Validate())

	bad := r
	bad.Frequency = "weekly"
	assert.True(t, errors.Is(bad.Validate(), ErrInvalidRetainer))

	bad = r
	bad.EndDate = calendar.MustParse("2024-12-01")
	assert.True(t, errors.Is(bad.Validate(), ErrInvalidRetainer))
}

func TestGeneratePeriods(t *testing.T) {
	r := Retainer{
		ID: "ret-1", ClientID: "c1", ClientName: "Globex", AmountMinor: 500000, Currency: "EUR",
		Frequency: Monthly, DayOfMonth: 31, StartDate: calendar.MustParse("2025-01-15"),
	}
	today := calendar.MustParse("2025-02-21")

	t.Run("monthly with clamped expected dates", func(t *testing.T) {
		got := GeneratePeriods(r, calendar.MustParse("2025-01-01"), calendar.MustParse("2025-04-10"), today)
		require.Len(t, got, 4)

		assert.Equal(t, calendar.MustParse("2025-01-01"), got[0].PeriodStart)
		assert.Equal(t, calendar.MustParse("2025-01-31"), got[0].PeriodEnd)
		assert.Equal(t, calendar.MustParse("2025-02-28"), got[1].ExpectedDate)
		assert.Equal(t, calendar.MustParse("2025-04-30"), got[3].ExpectedDate)

		assert.Equal(t, StateMissed, got[0].State)
		assert.Equal(t, StateDue, got[1].State)
		assert.Equal(t, StateUpcoming, got[2].State)

		for i := 1; i < len(got); i++ {
			assert.True(t, got[i-1].PeriodEnd.Before(got[i].PeriodStart), "periods never overlap")
		}
	})

	t.Run("quarterly from an overlap window", func(t *testing.T) {
		q := r
		q.Frequency = Quarterly
		q.DayOfMonth = 0
		got := GeneratePeriods(q, calendar.MustParse("2025-05-01"), calendar.MustParse("2025-12-31"), today)
		require.Len(t, got, 3)
		assert.Equal(t, calendar.MustParse("2025-04-01"), got[0].PeriodStart)
		assert.Equal(t, calendar.MustParse("2025-06-30"), got[0].PeriodEnd)
		assert.Equal(t, calendar.MustParse("2025-04-15"), got[0].ExpectedDate)
		assert.Equal(t, calendar.MustParse("2025-10-01"), got[2].PeriodStart)
	})

	t.Run("stops at end date", func(t *testing.T) {
		e := r
		e.EndDate = calendar.MustParse("2025-02-10")
		got := GeneratePeriods(e, calendar.MustParse("2025-01-01"), calendar.MustParse("2025-12-31"), today)
		assert.Len(t, got, 2)
	})

	t.Run("paused yields nothing", func(t *testing.T) {
		p := r
		p.IsPaused = true
		assert.Empty(t, GeneratePeriods(p, calendar.MustParse("2025-01-01"), calendar.MustParse("2025-12-31"), today))
	})
}
