package schedule

import (
	"iter"
	"slices"
	"time"

	"github.com/eshaffer321/freelance-ledger/internal/domain/calendar"
)

// Occurrence is one concrete dated instance of a rule. It is a read-only view
// and is never persisted.
type Occurrence struct {
	RuleID      string        `json:"rule_id"`
	Title       string        `json:"title"`
	Vendor      string        `json:"vendor,omitempty"`
	CategoryID  string        `json:"category_id,omitempty"`
	AmountMinor int64         `json:"amount_minor"`
	Currency    string        `json:"currency"`
	Date        calendar.Date `json:"date"`
}

// Materialize returns the occurrences of rules whose date falls in [from, to],
// in chronological order. Occurrences on the same day keep the input rule order.
//
// The sequence is lazy and may be ranged over any number of times; each pass
// recomputes from the rules.
func Materialize(rules []Rule, from, to calendar.Date) iter.Seq[Occurrence] {
	return func(yield func(Occurrence) bool) {
		if to.Before(from) {
			return
		}

		cursors := make([]*cursor, 0, len(rules))
		for i := range rules {
			c := newCursor(&rules[i], from, to)
			if c.advance() {
				cursors = append(cursors, c)
			}
		}

		// Merge the per-rule streams. Each is already chronological, and cursors
		// stay in input order so the first minimum found wins ties.
		for len(cursors) > 0 {
			best := 0
			for i := 1; i < len(cursors); i++ {
				if cursors[i].cur.Date.Before(cursors[best].cur.Date) {
					best = i
				}
			}
			if !yield(cursors[best].cur) {
				return
			}
			if !cursors[best].advance() {
				cursors = slices.Delete(cursors, best, best+1)
			}
		}
	}
}

// Collect materializes into a slice.
func Collect(rules []Rule, from, to calendar.Date) []Occurrence {
	return slices.Collect(Materialize(rules, from, to))
}

// cursor walks one rule month by month across [from, to].
type cursor struct {
	rule     *Rule
	from, to calendar.Date
	year     int
	month    time.Month
	cur      Occurrence
}

func newCursor(r *Rule, from, to calendar.Date) *cursor {
	c := &cursor{rule: r, from: from, to: to, year: from.Year(), month: from.Month()}
	if r.wellFormed() && r.StartDate.After(from) {
		c.year, c.month = r.StartDate.Year(), r.StartDate.Month()
	}
	return c
}

// advance moves to the next in-range occurrence. It returns false once the
// cursor has passed the last month of the range.
func (c *cursor) advance() bool {
	last := calendar.FirstOfMonth(c.to.Year(), c.to.Month())
	for !calendar.FirstOfMonth(c.year, c.month).After(last) {
		y, m := c.year, c.month
		c.month++
		if c.month > time.December {
			c.month = time.January
			c.year++
		}

		if !OccursInPeriod(*c.rule, y, m) {
			continue
		}
		date := OccurrenceDate(*c.rule, y, m)
		// The month qualified but the clamped day can still fall outside the range.
		if date.Before(c.from) || date.After(c.to) {
			continue
		}
		c.cur = Occurrence{
			RuleID:      c.rule.ID,
			Title:       c.rule.Title,
			Vendor:      c.rule.Vendor,
			CategoryID:  c.rule.CategoryID,
			AmountMinor: c.rule.AmountMinor,
			Currency:    c.rule.Currency,
			Date:        date,
		}
		return true
	}
	return false
}
