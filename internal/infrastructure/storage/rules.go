package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/eshaffer321/freelance-ledger/internal/domain/schedule"
)

const ruleColumns = `id, owner_id, title, vendor, category_id, amount_minor, currency,
	frequency, start_date, end_mode, end_date, is_paused`

// SaveRule inserts or replaces a rule
func (s *Storage) SaveRule(ctx context.Context, rule *schedule.Rule) error {
	query := `
	INSERT INTO recurring_rules (` + ruleColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		owner_id = excluded.owner_id,
		title = excluded.title,
		vendor = excluded.vendor,
		category_id = excluded.category_id,
		amount_minor = excluded.amount_minor,
		currency = excluded.currency,
		frequency = excluded.frequency,
		start_date = excluded.start_date,
		end_mode = excluded.end_mode,
		end_date = excluded.end_date,
		is_paused = excluded.is_paused,
		updated_at = CURRENT_TIMESTAMP
	`

	_, err := s.db.ExecContext(ctx, query,
		rule.ID,
		rule.OwnerID,
		rule.Title,
		rule.Vendor,
		rule.CategoryID,
		rule.AmountMinor,
		rule.Currency,
		string(rule.Frequency),
		dateValue(rule.StartDate),
		string(rule.EndMode),
		dateValue(rule.EndDate),
		rule.IsPaused,
	)
	if err != nil {
		return fmt.Errorf("failed to save rule %s: %w", rule.ID, err)
	}
	return nil
}

// GetRule retrieves a rule by ID
func (s *Storage) GetRule(ctx context.Context, id string) (*schedule.Rule, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM recurring_rules WHERE id = ?`, id)
	rule, err := scanRule(row)
	if err != nil {
		return nil, notFound(err, "rule", id)
	}
	return rule, nil
}

// ListRules returns rules matching the filters, ordered by ID
func (s *Storage) ListRules(ctx context.Context, filters RuleFilters) ([]schedule.Rule, error) {
	var where []string
	var args []any

	if filters.OwnerID != "" {
		where = append(where, "owner_id = ?")
		args = append(args, filters.OwnerID)
	}
	if filters.Currency != "" {
		where = append(where, "currency = ?")
		args = append(args, filters.Currency)
	}
	if !filters.IncludePaused {
		where = append(where, "is_paused = 0")
	}

	query := `SELECT ` + ruleColumns + ` FROM recurring_rules`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []schedule.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}
	return rules, rows.Err()
}

// DeleteRule removes a rule
func (s *Storage) DeleteRule(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recurring_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("rule %s: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*schedule.Rule, error) {
	var rule schedule.Rule
	var frequency, endMode string
	var startDate, endDate sql.NullString

	err := row.Scan(
		&rule.ID,
		&rule.OwnerID,
		&rule.Title,
		&rule.Vendor,
		&rule.CategoryID,
		&rule.AmountMinor,
		&rule.Currency,
		&frequency,
		&startDate,
		&endMode,
		&endDate,
		&rule.IsPaused,
	)
	if err != nil {
		return nil, err
	}

	rule.Frequency = schedule.Frequency(frequency)
	rule.EndMode = schedule.EndMode(endMode)
	if rule.StartDate, err = parseDate(startDate); err != nil {
		return nil, fmt.Errorf("rule %s start_date: %w", rule.ID, err)
	}
	if rule.EndDate, err = parseDate(endDate); err != nil {
		return nil, fmt.Errorf("rule %s end_date: %w", rule.ID, err)
	}
	return &rule, nil
}
