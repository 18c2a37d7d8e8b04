// Package matcher scores fuzzy pairings between unstructured records and
// structured ledger entries, and ranks them into suggestions.
//
// Two pairings are supported:
//   - receipt to expense: amount (50), date (25), vendor (25)
//   - incoming transaction to projected income: currency, client, amount and
//     date, weighted by IncomeWeights
//
// Scores are deterministic sums of the breakdown components. Missing optional
// fields score 0 for their component; scoring never fails.
//
// Example usage:
//
//	m := matcher.NewMatcher(matcher.DefaultConfig())
//	suggestions := m.SuggestExpenses(receipt, expenses)
//	for _, s := range suggestions {
//		fmt.Println(s.Target.ID, s.Score, s.Confidence)
//	}
package matcher

import (
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/freelance-ledger/internal/domain/calendar"
	"github.com/eshaffer321/freelance-ledger/internal/domain/income"
	"github.com/eshaffer321/freelance-ledger/internal/domain/ledger"
	"github.com/eshaffer321/freelance-ledger/internal/domain/vendor"
)

const (
	receiptAmountMax = 50
	receiptDateMax   = 25
	receiptVendorMax = 25

	vendorIDPoints     = 25
	vendorStrongPoints = 20
	vendorWeakPoints   = 10
	monthKeyPoints     = 10
)

// tier awards a share of a component (in tenths) when the measured value is
// within limit.
type tier struct {
	limit  decimal.Decimal
	tenths int
}

// Relative amount difference tiers, shared by both pairings.
var amountTiers = []tier{
	{decimal.RequireFromString("0.01"), 10},
	{decimal.RequireFromString("0.05"), 8},
	{decimal.RequireFromString("0.10"), 6},
	{decimal.RequireFromString("0.20"), 4},
}

// Day distance tiers, shared by both pairings.
var dateTiers = []tier{
	{decimal.NewFromInt(0), 10},
	{decimal.NewFromInt(3), 8},
	{decimal.NewFromInt(7), 6},
	{decimal.NewFromInt(30), 4},
}

func tierShare(tiers []tier, v decimal.Decimal) int {
	for _, t := range tiers {
		if v.LessThanOrEqual(t.limit) {
			return t.tenths
		}
	}
	return 0
}

// scaled returns full * tenths / 10, rounded down.
func scaled(full, tenths int) int {
	return full * tenths / 10
}

// amountShare compares got against the reference amount. The relative
// difference |got-ref|/ref is evaluated in exact decimal arithmetic so the
// tier boundaries hold exactly.
func amountShare(got, ref int64) int {
	if ref <= 0 || got <= 0 {
		return 0
	}
	diff := decimal.NewFromInt(got - ref).Abs()
	rel := diff.Div(decimal.NewFromInt(ref))
	return tierShare(amountTiers, rel)
}

func dateShare(a, b calendar.Date) int {
	if a.IsZero() || b.IsZero() {
		return 0
	}
	days := a.DaysUntil(b)
	if days < 0 {
		days = -days
	}
	return tierShare(dateTiers, decimal.NewFromInt(int64(days)))
}

// ScoreReceipt scores receipt against one expense.
func ScoreReceipt(receipt ledger.Receipt, expense ledger.Entry) Candidate[ledger.Entry] {
	return newCandidate(expense, Breakdown{
		{Name: ComponentAmount, Points: receiptAmountPoints(receipt, expense), Max: receiptAmountMax},
		{Name: ComponentDate, Points: receiptDatePoints(receipt, expense), Max: receiptDateMax},
		{Name: ComponentVendor, Points: receiptVendorPoints(receipt, expense), Max: receiptVendorMax},
	})
}

func receiptAmountPoints(receipt ledger.Receipt, expense ledger.Entry) int {
	if receipt.AmountMinor == nil {
		return 0
	}
	// No conversion: a receipt in a different known currency cannot match on amount.
	if receipt.Currency != "" && expense.Currency != "" && receipt.Currency != expense.Currency {
		return 0
	}
	return scaled(receiptAmountMax, amountShare(*receipt.AmountMinor, expense.AmountMinor))
}

func receiptDatePoints(receipt ledger.Receipt, expense ledger.Entry) int {
	if receipt.OccurredAt.IsZero() {
		if receipt.MonthKey != "" && !expense.OccurredAt.IsZero() && receipt.MonthKey == expense.OccurredAt.MonthKey() {
			return monthKeyPoints
		}
		return 0
	}
	return scaled(receiptDateMax, dateShare(receipt.OccurredAt, expense.OccurredAt))
}

func receiptVendorPoints(receipt ledger.Receipt, expense ledger.Entry) int {
	if receipt.VendorID != "" && receipt.VendorID == expense.VendorID {
		return vendorIDPoints
	}
	return vendorPoints(receipt.VendorRaw, expense.Vendor, vendorStrongPoints, vendorWeakPoints)
}

func vendorPoints(a, b string, strong, weak int) int {
	sim := vendor.Similarity(a, b)
	switch {
	case sim >= 0.8:
		return strong
	case sim >= 0.5:
		return weak
	default:
		return 0
	}
}

// ScoreTransaction scores an incoming transaction against one projected
// income occurrence. Amount is compared with what is still outstanding, so a
// second installment of a partial payment scores well.
func ScoreTransaction(txn ledger.Entry, p income.ProjectedIncome, w IncomeWeights) Candidate[income.ProjectedIncome] {
	sameCurrency := txn.Currency != "" && txn.Currency == p.Currency

	currency := 0
	if sameCurrency {
		currency = w.Currency
	}

	var client int
	if txn.ClientID != "" && txn.ClientID == p.ClientID {
		client = w.Client
	} else {
		client = vendorPoints(txn.Counterparty, p.ClientName, scaled(w.Client, 8), scaled(w.Client, 4))
	}

	amount := 0
	if sameCurrency {
		ref := p.OutstandingMinor()
		if ref == 0 {
			ref = p.ExpectedAmountMinor
		}
		amount = scaled(w.Amount, amountShare(txn.AmountMinor, ref))
	}

	date := scaled(w.Date, dateShare(txn.OccurredAt, p.ExpectedDate))

	return newCandidate(p, Breakdown{
		{Name: ComponentCurrency, Points: currency, Max: w.Currency},
		{Name: ComponentClient, Points: client, Max: w.Client},
		{Name: ComponentAmount, Points: amount, Max: w.Amount},
		{Name: ComponentDate, Points: date, Max: w.Date},
	})
}
