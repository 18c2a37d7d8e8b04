package matcher

import (
	"slices"

	"github.com/eshaffer321/freelance-ledger/internal/domain/calendar"
	"github.com/eshaffer321/freelance-ledger/internal/domain/income"
	"github.com/eshaffer321/freelance-ledger/internal/domain/ledger"
)

// Rank keeps candidates scoring at least minScore, sorted by score
// descending and truncated to limit. Equal scores keep their input order.
// A limit <= 0 disables truncation. The input slice is not modified.
func Rank[T any](candidates []Candidate[T], minScore, limit int) []Candidate[T] {
	out := make([]Candidate[T], 0, len(candidates))
	for _, c := range candidates {
		if c.Score >= minScore {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b Candidate[T]) int {
		return b.Score - a.Score
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Matcher applies scoring and ranking with one configuration.
type Matcher struct {
	config Config
}

// NewMatcher creates a new matcher with the given config
func NewMatcher(config Config) *Matcher {
	return &Matcher{
		config: config,
	}
}

// Config returns the matcher configuration.
func (m *Matcher) Config() Config {
	return m.config
}

// SuggestExpenses ranks expenses for receipt. Soft-deleted entries and
// non-expense entries are skipped.
func (m *Matcher) SuggestExpenses(receipt ledger.Receipt, expenses []ledger.Entry) []Candidate[ledger.Entry] {
	candidates := make([]Candidate[ledger.Entry], 0, len(expenses))
	for _, e := range expenses {
		if e.IsDeleted() || e.Kind != ledger.KindExpense {
			continue
		}
		candidates = append(candidates, ScoreReceipt(receipt, e))
	}
	return Rank(candidates, m.config.MinScore, m.config.Limit)
}

// SuggestProjectedIncome ranks occurrences for an incoming transaction.
// Occurrence state is re-derived for today; received and canceled
// occurrences are skipped. Outgoing or deleted transactions yield nothing.
func (m *Matcher) SuggestProjectedIncome(
	txn ledger.Entry,
	occurrences []income.ProjectedIncome,
	today calendar.Date,
) []Candidate[income.ProjectedIncome] {
	if !txn.IsIncome() || txn.IsDeleted() {
		return nil
	}

	candidates := make([]Candidate[income.ProjectedIncome], 0, len(occurrences))
	for _, p := range occurrences {
		p = income.Refresh(p, today)
		if !p.State.Matchable() {
			continue
		}
		candidates = append(candidates, ScoreTransaction(txn, p, m.config.Weights))
	}
	return Rank(candidates, m.config.MinScore, m.config.Limit)
}
