package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/eshaffer321/freelance-ledger/internal/domain/income"
)

// SaveRetainer inserts or updates a retainer. Existing occurrences are kept.
func (s *Storage) SaveRetainer(ctx context.Context, r *income.Retainer) error {
	query := `
	INSERT INTO retainers
	(id, owner_id, client_id, client_name, amount_minor, currency, frequency,
	 day_of_month, start_date, end_date, is_paused)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		owner_id = excluded.owner_id,
		client_id = excluded.client_id,
		client_name = excluded.client_name,
		amount_minor = excluded.amount_minor,
		currency = excluded.currency,
		frequency = excluded.frequency,
		day_of_month = excluded.day_of_month,
		start_date = excluded.start_date,
		end_date = excluded.end_date,
		is_paused = excluded.is_paused
	`

	_, err := s.db.ExecContext(ctx, query,
		r.ID,
		r.OwnerID,
		r.ClientID,
		r.ClientName,
		r.AmountMinor,
		r.Currency,
		string(r.Frequency),
		r.DayOfMonth,
		dateValue(r.StartDate),
		dateValue(r.EndDate),
		r.IsPaused,
	)
	if err != nil {
		return fmt.Errorf("failed to save retainer %s: %w", r.ID, err)
	}
	return nil
}

const retainerColumns = `id, owner_id, client_id, client_name, amount_minor, currency,
	frequency, day_of_month, start_date, end_date, is_paused`

// GetRetainer retrieves a retainer by ID
func (s *Storage) GetRetainer(ctx context.Context, id string) (*income.Retainer, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+retainerColumns+` FROM retainers WHERE id = ?`, id)
	r, err := scanRetainer(row)
	if err != nil {
		return nil, notFound(err, "retainer", id)
	}
	return r, nil
}

// ListRetainers returns retainers, optionally for one owner, ordered by ID
func (s *Storage) ListRetainers(ctx context.Context, ownerID string) ([]income.Retainer, error) {
	query := `SELECT ` + retainerColumns + ` FROM retainers`
	var args []any
	if ownerID != "" {
		query += " WHERE owner_id = ?"
		args = append(args, ownerID)
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list retainers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []income.Retainer
	for rows.Next() {
		r, err := scanRetainer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func scanRetainer(row rowScanner) (*income.Retainer, error) {
	var r income.Retainer
	var frequency string
	var startDate, endDate sql.NullString

	err := row.Scan(
		&r.ID,
		&r.OwnerID,
		&r.ClientID,
		&r.ClientName,
		&r.AmountMinor,
		&r.Currency,
		&frequency,
		&r.DayOfMonth,
		&startDate,
		&endDate,
		&r.IsPaused,
	)
	if err != nil {
		return nil, err
	}

	r.Frequency = income.Frequency(frequency)
	if r.StartDate, err = parseDate(startDate); err != nil {
		return nil, fmt.Errorf("retainer %s start_date: %w", r.ID, err)
	}
	if r.EndDate, err = parseDate(endDate); err != nil {
		return nil, fmt.Errorf("retainer %s end_date: %w", r.ID, err)
	}
	return &r, nil
}

// InsertProjectedIncome stores a new occurrence unless one already exists
// for (retainer, period start)
func (s *Storage) InsertProjectedIncome(ctx context.Context, p *income.ProjectedIncome) (bool, error) {
	var created bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
		INSERT INTO projected_incomes
		(id, retainer_id, owner_id, client_id, client_name, currency, expected_amount_minor,
		 expected_date, period_start, period_end, canceled_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(retainer_id, period_start) DO NOTHING
		`,
			p.ID,
			p.RetainerID,
			p.OwnerID,
			p.ClientID,
			p.ClientName,
			p.Currency,
			p.ExpectedAmountMinor,
			dateValue(p.ExpectedDate),
			dateValue(p.PeriodStart),
			dateValue(p.PeriodEnd),
			timeValue(p.CanceledAt),
			p.Version,
		)
		if err != nil {
			return fmt.Errorf("failed to insert projected income %s: %w", p.ID, err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return nil
		}
		created = true
		return insertMatches(ctx, tx, p)
	})
	return created, err
}

const projectedIncomeColumns = `id, retainer_id, owner_id, client_id, client_name, currency,
	expected_amount_minor, expected_date, period_start, period_end, canceled_at, version`

// GetProjectedIncome retrieves an occurrence with its matches
func (s *Storage) GetProjectedIncome(ctx context.Context, id string) (*income.ProjectedIncome, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+projectedIncomeColumns+` FROM projected_incomes WHERE id = ?`, id)
	p, err := scanProjectedIncome(row)
	if err != nil {
		return nil, notFound(err, "projected income", id)
	}

	byID, err := s.loadMatches(ctx, []string{p.ID})
	if err != nil {
		return nil, err
	}
	p.Matches = byID[p.ID]
	return p, nil
}

// ListProjectedIncome returns occurrences ordered by expected date then ID
func (s *Storage) ListProjectedIncome(ctx context.Context, filters ProjectedIncomeFilters) ([]income.ProjectedIncome, error) {
	var where []string
	var args []any

	if filters.OwnerID != "" {
		where = append(where, "owner_id = ?")
		args = append(args, filters.OwnerID)
	}
	if filters.RetainerID != "" {
		where = append(where, "retainer_id = ?")
		args = append(args, filters.RetainerID)
	}
	if filters.Currency != "" {
		where = append(where, "currency = ?")
		args = append(args, filters.Currency)
	}
	if !filters.From.IsZero() {
		where = append(where, "expected_date >= ?")
		args = append(args, filters.From.String())
	}
	if !filters.To.IsZero() {
		where = append(where, "expected_date <= ?")
		args = append(args, filters.To.String())
	}

	query := `SELECT ` + projectedIncomeColumns + ` FROM projected_incomes`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY expected_date, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projected income: %w", err)
	}

	var out []income.ProjectedIncome
	for rows.Next() {
		p, err := scanProjectedIncome(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	if len(out) == 0 {
		return out, nil
	}

	ids := make([]string, len(out))
	for i := range out {
		ids[i] = out[i].ID
	}
	byID, err := s.loadMatches(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Matches = byID[out[i].ID]
	}
	return out, nil
}

// UpdateProjectedIncome saves p only if the stored version still equals
// expectedVersion. The match list is replaced as a whole.
func (s *Storage) UpdateProjectedIncome(ctx context.Context, p *income.ProjectedIncome, expectedVersion int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
		UPDATE projected_incomes SET
			client_name = ?,
			expected_amount_minor = ?,
			expected_date = ?,
			canceled_at = ?,
			version = ?
		WHERE id = ? AND version = ?
		`,
			p.ClientName,
			p.ExpectedAmountMinor,
			dateValue(p.ExpectedDate),
			timeValue(p.CanceledAt),
			p.Version,
			p.ID,
			expectedVersion,
		)
		if err != nil {
			return fmt.Errorf("failed to update projected income %s: %w", p.ID, err)
		}

		if n, _ := res.RowsAffected(); n == 0 {
			var current int64
			err := tx.QueryRowContext(ctx, `SELECT version FROM projected_incomes WHERE id = ?`, p.ID).Scan(&current)
			if err != nil {
				return notFound(err, "projected income", p.ID)
			}
			return fmt.Errorf("%w: %w: projected income %s is at version %d, expected %d",
				ErrStaleVersion, income.ErrMatchConflict, p.ID, current, expectedVersion)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM projected_income_matches WHERE projected_income_id = ?`, p.ID); err != nil {
			return fmt.Errorf("failed to clear matches for %s: %w", p.ID, err)
		}
		return insertMatches(ctx, tx, p)
	})
}

func insertMatches(ctx context.Context, tx *sql.Tx, p *income.ProjectedIncome) error {
	for _, m := range p.Matches {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO projected_income_matches
		(projected_income_id, transaction_id, amount_minor, received_on, matched_at)
		VALUES (?, ?, ?, ?, ?)
		`, p.ID, m.TransactionID, m.AmountMinor, m.ReceivedOn.String(), m.MatchedAt.UTC())
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: transaction %s is already matched to another occurrence",
				income.ErrMatchConflict, m.TransactionID)
		}
		if err != nil {
			return fmt.Errorf("failed to save match %s on %s: %w", m.TransactionID, p.ID, err)
		}
	}
	return nil
}

// FindMatchByTransaction returns the ID of the occurrence txnID is matched
// to, or ErrNotFound.
func (s *Storage) FindMatchByTransaction(ctx context.Context, txnID string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT projected_income_id FROM projected_income_matches WHERE transaction_id = ?`, txnID).Scan(&id)
	if err != nil {
		return "", notFound(err, "match for transaction", txnID)
	}
	return id, nil
}

// loadMatches returns matches per occurrence in the order they were made
func (s *Storage) loadMatches(ctx context.Context, ids []string) (map[string][]income.Match, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT projected_income_id, transaction_id, amount_minor, received_on, matched_at
	FROM projected_income_matches
	WHERE projected_income_id IN (`+placeholders+`)
	ORDER BY matched_at, transaction_id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	byID := make(map[string][]income.Match, len(ids))
	for _, id := range ids {
		byID[id] = []income.Match{}
	}
	for rows.Next() {
		var id string
		var m income.Match
		var receivedOn sql.NullString
		if err := rows.Scan(&id, &m.TransactionID, &m.AmountMinor, &receivedOn, &m.MatchedAt); err != nil {
			return nil, err
		}
		if m.ReceivedOn, err = parseDate(receivedOn); err != nil {
			return nil, fmt.Errorf("match %s received_on: %w", m.TransactionID, err)
		}
		byID[id] = append(byID[id], m)
	}
	return byID, rows.Err()
}

func scanProjectedIncome(row rowScanner) (*income.ProjectedIncome, error) {
	var p income.ProjectedIncome
	var expectedDate, periodStart, periodEnd sql.NullString
	var canceledAt sql.NullTime

	err := row.Scan(
		&p.ID,
		&p.RetainerID,
		&p.OwnerID,
		&p.ClientID,
		&p.ClientName,
		&p.Currency,
		&p.ExpectedAmountMinor,
		&expectedDate,
		&periodStart,
		&periodEnd,
		&canceledAt,
		&p.Version,
	)
	if err != nil {
		return nil, err
	}

	if p.ExpectedDate, err = parseDate(expectedDate); err != nil {
		return nil, fmt.Errorf("projected income %s expected_date: %w", p.ID, err)
	}
	if p.PeriodStart, err = parseDate(periodStart); err != nil {
		return nil, fmt.Errorf("projected income %s period_start: %w", p.ID, err)
	}
	if p.PeriodEnd, err = parseDate(periodEnd); err != nil {
		return nil, fmt.Errorf("projected income %s period_end: %w", p.ID, err)
	}
	p.CanceledAt = timePtr(canceledAt)
	p.Matches = []income.Match{}
	return &p, nil
}
