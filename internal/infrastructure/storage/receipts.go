package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/eshaffer321/freelance-ledger/internal/domain/calendar"
	"github.com/eshaffer321/freelance-ledger/internal/domain/ledger"
)

// SaveReceipt inserts or replaces a receipt
func (s *Storage) SaveReceipt(ctx context.Context, receipt *ledger.Receipt) error {
	query := `
	INSERT OR REPLACE INTO receipts
	(id, owner_id, amount_minor, currency, occurred_at, month_key,
	 vendor_id, vendor_raw, expense_id, linked_projected_income_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var amount any
	if receipt.AmountMinor != nil {
		amount = *receipt.AmountMinor
	}

	_, err := s.db.ExecContext(ctx, query,
		receipt.ID,
		receipt.OwnerID,
		amount,
		receipt.Currency,
		dateValue(receipt.OccurredAt),
		string(receipt.MonthKey),
		receipt.VendorID,
		receipt.VendorRaw,
		nullString(receipt.ExpenseID),
		nullString(receipt.LinkedProjectedIncomeID),
	)
	if err != nil {
		return fmt.Errorf("failed to save receipt %s: %w", receipt.ID, err)
	}
	return nil
}

// GetReceipt retrieves a receipt by ID
func (s *Storage) GetReceipt(ctx context.Context, id string) (*ledger.Receipt, error) {
	query := `
	SELECT id, owner_id, amount_minor, currency, occurred_at, month_key,
	       vendor_id, vendor_raw, expense_id, linked_projected_income_id
	FROM receipts WHERE id = ?
	`

	var receipt ledger.Receipt
	var amount sql.NullInt64
	var occurredAt, expenseID, linkedID sql.NullString
	var monthKey string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&receipt.ID,
		&receipt.OwnerID,
		&amount,
		&receipt.Currency,
		&occurredAt,
		&monthKey,
		&receipt.VendorID,
		&receipt.VendorRaw,
		&expenseID,
		&linkedID,
	)
	if err != nil {
		return nil, notFound(err, "receipt", id)
	}

	if amount.Valid {
		receipt.AmountMinor = ledger.Amount(amount.Int64)
	}
	if receipt.OccurredAt, err = parseDate(occurredAt); err != nil {
		return nil, fmt.Errorf("receipt %s occurred_at: %w", id, err)
	}
	receipt.MonthKey = calendar.MonthKey(monthKey)
	receipt.ExpenseID = expenseID.String
	receipt.LinkedProjectedIncomeID = linkedID.String
	return &receipt, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
