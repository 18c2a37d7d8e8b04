// Package migrations holds goose migrations that need Go code. Plain schema
// changes live next to it as embedded .sql files.
package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upBackfillReceiptMonthKeys, downBackfillReceiptMonthKeys)
}

// upBackfillReceiptMonthKeys derives month_key for receipts imported before
// extraction started setting it. Receipts without a parsed date keep ''.
func upBackfillReceiptMonthKeys(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, occurred_at FROM receipts
		WHERE month_key = '' AND occurred_at IS NOT NULL AND length(occurred_at) >= 7
	`)
	if err != nil {
		return err
	}

	type pending struct{ id, key string }
	var updates []pending
	for rows.Next() {
		var id, occurredAt string
		if err := rows.Scan(&id, &occurredAt); err != nil {
			_ = rows.Close()
			return err
		}
		updates = append(updates, pending{id: id, key: occurredAt[:7]})
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	for _, u := range updates {
		if _, err := tx.ExecContext(ctx, `UPDATE receipts SET month_key = ? WHERE id = ?`, u.key, u.id); err != nil {
			return err
		}
	}
	return nil
}

// downBackfillReceiptMonthKeys is a no-op - derived keys are still correct
func downBackfillReceiptMonthKeys(ctx context.Context, tx *sql.Tx) error {
	return nil
}
