package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/eshaffer321/freelance-ledger/internal/domain/forecast"
	"github.com/eshaffer321/freelance-ledger/internal/domain/income"
	"github.com/eshaffer321/freelance-ledger/internal/domain/ledger"
	"github.com/eshaffer321/freelance-ledger/internal/domain/matcher"
	"github.com/eshaffer321/freelance-ledger/internal/domain/schedule"
	"github.com/eshaffer321/freelance-ledger/internal/infrastructure/currency"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// PrintForecast prints one currency's yearly forecast, one row per month.
func PrintForecast(w io.Writer, f forecast.Forecast) {
	fmt.Fprintf(w, "%d forecast (%s)\n", f.Year, f.Currency)
	fmt.Fprintln(w, strings.Repeat("-", 40))

	tw := newTable(w)
	fmt.Fprintln(tw, "MONTH\tSTATUS\tACTUAL\tPROJECTED\t")
	for _, b := range f.Months {
		status := "open"
		if b.Closed {
			status = "closed"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n",
			b.Month.String()[:3],
			status,
			currency.Format(b.ActualMinor, f.Currency),
			currency.Format(b.ProjectedMinor, f.Currency))
	}
	_ = tw.Flush()

	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintf(w, "Total: %s | Remaining: %s\n",
		currency.Format(f.TotalMinor, f.Currency),
		currency.Format(f.RemainingMinor, f.Currency))
}

// PrintOccurrences prints materialized rule occurrences in date order.
func PrintOccurrences(w io.Writer, occurrences []schedule.Occurrence) {
	if len(occurrences) == 0 {
		fmt.Fprintln(w, "No occurrences in range")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tTITLE\tVENDOR\tAMOUNT\t")
	for _, o := range occurrences {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n",
			o.Date, o.Title, dash(o.Vendor), currency.Format(o.AmountMinor, o.Currency))
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "%d occurrence(s)\n", len(occurrences))
}

// PrintExpenseSuggestions prints ranked expense candidates for a receipt.
func PrintExpenseSuggestions(w io.Writer, receiptID string, candidates []matcher.Candidate[ledger.Entry]) {
	fmt.Fprintf(w, "Suggestions for receipt %s\n", receiptID)
	if len(candidates) == 0 {
		fmt.Fprintln(w, "  none above threshold")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "SCORE\tCONFIDENCE\tEXPENSE\tDATE\tAMOUNT\tBREAKDOWN\t")
	for _, c := range candidates {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t\n",
			c.Score, c.Confidence, c.Target.ID, c.Target.OccurredAt,
			currency.Format(c.Target.AmountMinor, c.Target.Currency),
			FormatBreakdown(c.Breakdown))
	}
	_ = tw.Flush()
}

// PrintIncomeSuggestions prints ranked projected income candidates for a
// transaction.
func PrintIncomeSuggestions(w io.Writer, txnID string, candidates []matcher.Candidate[income.ProjectedIncome]) {
	fmt.Fprintf(w, "Suggestions for transaction %s\n", txnID)
	if len(candidates) == 0 {
		fmt.Fprintln(w, "  none above threshold")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "SCORE\tCONFIDENCE\tOCCURRENCE\tCLIENT\tEXPECTED\tOUTSTANDING\tBREAKDOWN\t")
	for _, c := range candidates {
		p := c.Target
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			c.Score, c.Confidence, p.ID, dash(p.ClientName), p.ExpectedDate,
			currency.Format(p.OutstandingMinor(), p.Currency),
			FormatBreakdown(c.Breakdown))
	}
	_ = tw.Flush()
}

// PrintProjectedIncome prints one occurrence with its match history.
func PrintProjectedIncome(w io.Writer, p income.ProjectedIncome) {
	fmt.Fprintf(w, "%s  %s  %s  expected %s on %s\n",
		p.ID, strings.ToUpper(string(p.State)), dash(p.ClientName),
		currency.Format(p.ExpectedAmountMinor, p.Currency), p.ExpectedDate)
	fmt.Fprintf(w, "  received %s, outstanding %s\n",
		currency.Format(p.ReceivedAmountMinor, p.Currency),
		currency.Format(p.OutstandingMinor(), p.Currency))
	for _, m := range p.Matches {
		fmt.Fprintf(w, "  + %s %s on %s\n",
			m.TransactionID, currency.Format(m.AmountMinor, p.Currency), m.ReceivedOn)
	}
}

// FormatBreakdown renders sub-scores as "amount 50/50, date 25/25".
func FormatBreakdown(b matcher.Breakdown) string {
	parts := make([]string, 0, len(b))
	for _, c := range b {
		parts = append(parts, fmt.Sprintf("%s %d/%d", c.Name, c.Points, c.Max))
	}
	return strings.Join(parts, ", ")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
