package income

import (
	"fmt"
	"slices"
	"time"

	"github.com/eshaffer321/freelance-ledger/internal/domain/calendar"
	"github.com/eshaffer321/freelance-ledger/internal/domain/ledger"
)

// ApplyMatch allocates txn to p and returns the updated occurrence.
//
// Matching a pair that is already matched with the same amount is a no-op.
// A fully received or canceled occurrence rejects new transactions with
// ErrMatchConflict. The input value is never modified.
//
// This is the conceptual read-modify-write; the persistence layer makes it
// atomic by saving the result only if p.Version is still current.
func ApplyMatch(p ProjectedIncome, txn ledger.Entry, now time.Time) (ProjectedIncome, error) {
	today := calendar.FromTime(now)
	p = Refresh(clone(p), today)

	if !txn.IsIncome() || txn.IsDeleted() {
		return p, fmt.Errorf("%w: %s", ErrNotIncome, txn.ID)
	}
	if txn.Currency != p.Currency {
		return p, fmt.Errorf("%w: transaction %s is %s, occurrence %s is %s",
			ErrCurrencyMismatch, txn.ID, txn.Currency, p.ID, p.Currency)
	}

	if i := p.matchIndex(txn.ID); i >= 0 {
		if p.Matches[i].AmountMinor == txn.AmountMinor {
			return p, nil
		}
		return p, fmt.Errorf("%w: transaction %s already matched to %s with a different amount",
			ErrMatchConflict, txn.ID, p.ID)
	}

	switch p.State {
	case StateCanceled:
		return p, fmt.Errorf("%w: occurrence %s is canceled", ErrMatchConflict, p.ID)
	case StateReceived:
		return p, fmt.Errorf("%w: occurrence %s is already fully received", ErrMatchConflict, p.ID)
	case StateUpcoming, StateDue, StatePartial, StateMissed:
	}

	p.Matches = append(p.Matches, Match{
		TransactionID: txn.ID,
		AmountMinor:   txn.AmountMinor,
		ReceivedOn:    txn.OccurredAt,
		MatchedAt:     now,
	})
	p.Version++
	return Refresh(p, today), nil
}

// UndoMatch removes txnID from p. The resulting state is recomputed from the
// remaining matches.
func UndoMatch(p ProjectedIncome, txnID string, now time.Time) (ProjectedIncome, error) {
	today := calendar.FromTime(now)
	p = clone(p)

	i := p.matchIndex(txnID)
	if i < 0 {
		return Refresh(p, today), fmt.Errorf("%w: %s on %s", ErrNotMatched, txnID, p.ID)
	}
	p.Matches = slices.Delete(p.Matches, i, i+1)
	p.Version++
	return Refresh(p, today), nil
}

// Cancel marks p canceled. Received and already-canceled occurrences cannot be canceled.
func Cancel(p ProjectedIncome, now time.Time) (ProjectedIncome, error) {
	today := calendar.FromTime(now)
	p = Refresh(clone(p), today)

	if p.State == StateReceived || p.State == StateCanceled {
		return p, fmt.Errorf("%w: cannot cancel %s occurrence %s", ErrInvalidTransition, p.State, p.ID)
	}
	p.CanceledAt = &now
	p.Version++
	return Refresh(p, today), nil
}

func (p ProjectedIncome) matchIndex(txnID string) int {
	return slices.IndexFunc(p.Matches, func(m Match) bool { return m.TransactionID == txnID })
}
