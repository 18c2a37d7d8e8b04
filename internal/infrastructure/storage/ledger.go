package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/eshaffer321/freelance-ledger/internal/domain/ledger"
)

const entryColumns = `id, owner_id, kind, description, amount_minor, currency, occurred_at,
	due_date, vendor_id, vendor, client_id, counterparty, deleted_at`

// SaveEntry inserts or replaces an entry
func (s *Storage) SaveEntry(ctx context.Context, entry *ledger.Entry) error {
	// Upsert rather than REPLACE so linked receipts keep their expense_id.
	query := `
	INSERT INTO ledger_entries (` + entryColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		owner_id = excluded.owner_id,
		kind = excluded.kind,
		description = excluded.description,
		amount_minor = excluded.amount_minor,
		currency = excluded.currency,
		occurred_at = excluded.occurred_at,
		due_date = excluded.due_date,
		vendor_id = excluded.vendor_id,
		vendor = excluded.vendor,
		client_id = excluded.client_id,
		counterparty = excluded.counterparty,
		deleted_at = excluded.deleted_at
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.OwnerID,
		string(entry.Kind),
		entry.Description,
		entry.AmountMinor,
		entry.Currency,
		dateValue(entry.OccurredAt),
		dateValue(entry.DueDate),
		entry.VendorID,
		entry.Vendor,
		entry.ClientID,
		entry.Counterparty,
		timeValue(entry.DeletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save entry %s: %w", entry.ID, err)
	}
	return nil
}

// GetEntry retrieves an entry by ID, including soft-deleted ones
func (s *Storage) GetEntry(ctx context.Context, id string) (*ledger.Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if err != nil {
		return nil, notFound(err, "entry", id)
	}
	return entry, nil
}

// ListEntries returns entries matching the filters, ordered by date then ID
func (s *Storage) ListEntries(ctx context.Context, filters EntryFilters) ([]ledger.Entry, error) {
	var where []string
	var args []any

	if filters.OwnerID != "" {
		where = append(where, "owner_id = ?")
		args = append(args, filters.OwnerID)
	}
	if filters.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(filters.Kind))
	}
	if filters.Currency != "" {
		where = append(where, "currency = ?")
		args = append(args, filters.Currency)
	}
	// ISO dates compare correctly as text
	if !filters.From.IsZero() {
		where = append(where, "occurred_at >= ?")
		args = append(args, filters.From.String())
	}
	if !filters.To.IsZero() {
		where = append(where, "occurred_at <= ?")
		args = append(args, filters.To.String())
	}
	if !filters.IncludeDeleted {
		where = append(where, "deleted_at IS NULL")
	}

	query := `SELECT ` + entryColumns + ` FROM ledger_entries`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY occurred_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []ledger.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// SoftDeleteEntry marks an entry deleted
func (s *Storage) SoftDeleteEntry(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE ledger_entries SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete entry %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetEntry(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func scanEntry(row rowScanner) (*ledger.Entry, error) {
	var entry ledger.Entry
	var kind string
	var occurredAt, dueDate sql.NullString
	var deletedAt sql.NullTime

	err := row.Scan(
		&entry.ID,
		&entry.OwnerID,
		&kind,
		&entry.Description,
		&entry.AmountMinor,
		&entry.Currency,
		&occurredAt,
		&dueDate,
		&entry.VendorID,
		&entry.Vendor,
		&entry.ClientID,
		&entry.Counterparty,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Kind = ledger.Kind(kind)
	entry.DeletedAt = timePtr(deletedAt)
	if entry.OccurredAt, err = parseDate(occurredAt); err != nil {
		return nil, fmt.Errorf("entry %s occurred_at: %w", entry.ID, err)
	}
	if entry.DueDate, err = parseDate(dueDate); err != nil {
		return nil, fmt.Errorf("entry %s due_date: %w", entry.ID, err)
	}
	return &entry, nil
}
