// Package income tracks expected retainer payments ("projected income")
// through their lifecycle.
//
// State is never advanced by a background job. It is derived on every read
// from the expected date, the current day and the match history:
//
//	upcoming -> due -> received | partial | missed
//	any non-terminal state -> canceled (explicit user action)
//
// ApplyMatch and UndoMatch are the only mutations of match history. Both
// recompute the received totals from the remaining matches, so applying the
// same pair twice never double-counts and undoing restores the state the
// occurrence would have had without that match.
package income

import (
	"errors"
	"slices"
	"time"

	"github.com/eshaffer321/freelance-ledger/internal/domain/calendar"
)

// State is the lifecycle state of a projected income occurrence.
type State string

const (
	StateUpcoming State = "upcoming"
	StateDue      State = "due"
	StateReceived State = "received"
	StatePartial  State = "partial"
	StateMissed   State = "missed"
	StateCanceled State = "canceled"
)

// Matchable reports whether a transaction may still be matched against an
// occurrence in this state.
func (s State) Matchable() bool {
	switch s {
	case StateUpcoming, StateDue, StatePartial, StateMissed:
		return true
	case StateReceived, StateCanceled:
		return false
	}
	return false
}

const (
	// DueWindowDays is how far ahead of the expected date an occurrence becomes due.
	DueWindowDays = 7
	// MissedAfterDays is how far past the expected date an unmatched occurrence
	// stays due before it is missed.
	MissedAfterDays = 7
)

var (
	// ErrMatchConflict means the occurrence can no longer accept this match,
	// usually because another update covered it first. Reload and retry.
	ErrMatchConflict = errors.New("match conflict")
	// ErrCurrencyMismatch means the transaction and occurrence currencies differ.
	ErrCurrencyMismatch = errors.New("currency mismatch")
	// ErrNotIncome means the transaction is not an incoming payment.
	ErrNotIncome = errors.New("transaction is not incoming")
	// ErrNotMatched means the transaction is not matched to the occurrence.
	ErrNotMatched = errors.New("transaction not matched")
	// ErrInvalidTransition means the requested state change is not allowed.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// Match is one transaction allocated to an occurrence.
type Match struct {
	TransactionID string        `json:"transaction_id"`
	AmountMinor   int64         `json:"amount_minor"`
	ReceivedOn    calendar.Date `json:"received_on"`
	MatchedAt     time.Time     `json:"matched_at"`
}

// ProjectedIncome is one expected payment of a retainer for one period.
// Unlike forecasts it is persisted, because it accumulates match history.
type ProjectedIncome struct {
	ID                  string        `json:"id"`
	RetainerID          string        `json:"retainer_id"`
	OwnerID             string        `json:"owner_id"`
	ClientID            string        `json:"client_id"`
	ClientName          string        `json:"client_name"`
	Currency            string        `json:"currency"`
	ExpectedAmountMinor int64         `json:"expected_amount_minor"`
	ExpectedDate        calendar.Date `json:"expected_date"`
	PeriodStart         calendar.Date `json:"period_start"`
	PeriodEnd           calendar.Date `json:"period_end"`
	State               State         `json:"state"`
	ReceivedAmountMinor int64         `json:"received_amount_minor"`
	ReceivedAt          calendar.Date `json:"received_at,omitempty"`
	Matches             []Match       `json:"matches"`
	CanceledAt          *time.Time    `json:"canceled_at,omitempty"`
	// Version is bumped on every mutation; storage uses it for compare-and-set.
	Version int64 `json:"version"`
}

// MatchedTransactionIDs lists matched transactions in match order.
func (p ProjectedIncome) MatchedTransactionIDs() []string {
	ids := make([]string, 0, len(p.Matches))
	for _, m := range p.Matches {
		ids = append(ids, m.TransactionID)
	}
	return ids
}

// OutstandingMinor is what is still expected, never negative.
func (p ProjectedIncome) OutstandingMinor() int64 {
	return max(p.ExpectedAmountMinor-p.ReceivedAmountMinor, 0)
}

// DeriveState computes the state of p on today from its own fields.
func DeriveState(p ProjectedIncome, today calendar.Date) State {
	switch {
	case p.CanceledAt != nil:
		return StateCanceled
	case p.ReceivedAmountMinor > 0 && p.ReceivedAmountMinor >= p.ExpectedAmountMinor:
		return StateReceived
	case p.ReceivedAmountMinor > 0:
		return StatePartial
	}

	days := today.DaysUntil(p.ExpectedDate)
	switch {
	case days > DueWindowDays:
		return StateUpcoming
	case days >= -MissedAfterDays:
		return StateDue
	default:
		return StateMissed
	}
}

// Refresh recomputes the received totals from the match list and the state
// for today. Callers use it on every read.
func Refresh(p ProjectedIncome, today calendar.Date) ProjectedIncome {
	p.ReceivedAmountMinor = 0
	p.ReceivedAt = calendar.Date{}
	for _, m := range p.Matches {
		p.ReceivedAmountMinor += m.AmountMinor
		if m.ReceivedOn.After(p.ReceivedAt) {
			p.ReceivedAt = m.ReceivedOn
		}
	}
	p.State = DeriveState(p, today)
	return p
}

// clone copies p so mutations never alias the caller's match slice.
func clone(p ProjectedIncome) ProjectedIncome {
	p.Matches = slices.Clone(p.Matches)
	return p
}
