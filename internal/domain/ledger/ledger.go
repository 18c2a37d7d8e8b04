// Package ledger holds the raw entities the engine reads: structured ledger
// entries (expenses and bank-style transactions) and unstructured receipts.
//
// These are snapshots supplied by the persistence layer; nothing here mutates
// them.
package ledger

import (
	"time"

	"github.com/eshaffer321/freelance-ledger/internal/domain/calendar"
)

// Kind distinguishes the two ledger entry shapes.
type Kind string

const (
	KindExpense     Kind = "expense"
	KindTransaction Kind = "transaction"
)

// Entry is an expense or a transaction. Amounts are integer minor units.
// Expense amounts are positive. Transaction amounts are signed: positive is
// money in, negative is money out.
type Entry struct {
	ID          string        `json:"id"`
	OwnerID     string        `json:"owner_id"`
	Kind        Kind          `json:"kind"`
	Description string        `json:"description,omitempty"`
	AmountMinor int64         `json:"amount_minor"`
	Currency    string        `json:"currency"`
	OccurredAt  calendar.Date `json:"occurred_at"`
	DueDate     calendar.Date `json:"due_date,omitempty"`
	VendorID    string        `json:"vendor_id,omitempty"`
	Vendor      string        `json:"vendor,omitempty"`
	// ClientID / Counterparty identify the payer on income transactions.
	ClientID     string     `json:"client_id,omitempty"`
	Counterparty string     `json:"counterparty,omitempty"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// IsDeleted reports whether the entry was soft-deleted.
func (e Entry) IsDeleted() bool { return e.DeletedAt != nil }

// IsIncome reports whether e is an incoming transaction.
func (e Entry) IsIncome() bool { return e.Kind == KindTransaction && e.AmountMinor > 0 }

// Receipt is an uploaded document with whatever fields extraction managed to
// pull out. MonthKey is always set; everything else is optional.
type Receipt struct {
	ID          string            `json:"id"`
	OwnerID     string            `json:"owner_id"`
	AmountMinor *int64            `json:"amount_minor,omitempty"`
	Currency    string            `json:"currency,omitempty"`
	OccurredAt  calendar.Date     `json:"occurred_at,omitempty"`
	MonthKey    calendar.MonthKey `json:"month_key"`
	VendorID    string            `json:"vendor_id,omitempty"`
	VendorRaw   string            `json:"vendor_raw,omitempty"`
	// At most one of these is set.
	ExpenseID               string `json:"expense_id,omitempty"`
	LinkedProjectedIncomeID string `json:"linked_projected_income_id,omitempty"`
}

// Amount returns a pointer to v, for building receipts with a parsed amount.
func Amount(v int64) *int64 { return &v }
