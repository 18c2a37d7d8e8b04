package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eshaffer321/freelance-ledger/internal/domain/calendar"
	"github.com/eshaffer321/freelance-ledger/internal/domain/clock"
	"github.com/eshaffer321/freelance-ledger/internal/domain/forecast"
	"github.com/eshaffer321/freelance-ledger/internal/domain/income"
	"github.com/eshaffer321/freelance-ledger/internal/domain/ledger"
	"github.com/eshaffer321/freelance-ledger/internal/domain/matcher"
	"github.com/eshaffer321/freelance-ledger/internal/domain/schedule"
	"github.com/eshaffer321/freelance-ledger/internal/domain/vendor"
	"github.com/eshaffer321/freelance-ledger/internal/infrastructure/config"
	"github.com/eshaffer321/freelance-ledger/internal/infrastructure/storage"
)

// maxMatchAttempts bounds how often a mutation is replayed against fresh
// state after losing a compare-and-set.
const maxMatchAttempts = 3

const (
	// DefaultOccurrenceWindowDays is the span of an occurrence listing with no end date.
	DefaultOccurrenceWindowDays = 30
	// DefaultRefreshMonthsAhead is how many whole months past the current one
	// projected income is generated by default.
	DefaultRefreshMonthsAhead = 3
)

// DefaultRefreshThrough is the last day of the month DefaultRefreshMonthsAhead
// months after today's.
func DefaultRefreshThrough(today calendar.Date) calendar.Date {
	return calendar.FirstOfMonth(today.Year(), today.Month()+time.Month(DefaultRefreshMonthsAhead+1)).AddDays(-1)
}

var (
	// ErrInvalidRange means a date range ends before it starts.
	ErrInvalidRange = errors.New("invalid date range")
	// ErrInvalidLink means a receipt cannot be linked to the requested entry.
	ErrInvalidLink = errors.New("invalid receipt link")
	// ErrOwnerMismatch means two records belong to different owners.
	ErrOwnerMismatch = errors.New("owner mismatch")
)

// LedgerService wires the pure engine to storage. It is the only layer that
// reads the clock, so every computation sees one consistent "today".
type LedgerService struct {
	store   storage.Repository
	matcher *matcher.Matcher
	clock   clock.Clock
	logger  *slog.Logger
	newID   func() string
}

// NewLedgerService creates a service. A nil clock uses the system clock and a
// nil matcher uses matcher.DefaultConfig.
func NewLedgerService(store storage.Repository, m *matcher.Matcher, clk clock.Clock, logger *slog.Logger) *LedgerService {
	if clk == nil {
		clk = clock.System{}
	}
	if m == nil {
		m = matcher.NewMatcher(matcher.DefaultConfig())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerService{
		store:   store,
		matcher: m,
		clock:   clk,
		logger:  logger,
		newID:   uuid.NewString,
	}
}

// MatcherConfig converts the matching section of the app config. Weights
// that could push a score past 100 are rejected.
func MatcherConfig(cfg config.MatchingConfig) (matcher.Config, error) {
	mc := matcher.DefaultConfig()
	mc.MinScore = cfg.MinScore
	mc.Limit = cfg.Limit
	if cfg.Weights.IsSet() {
		mc.Weights = matcher.IncomeWeights{
			Currency: cfg.Weights.Currency,
			Client:   cfg.Weights.Client,
			Amount:   cfg.Weights.Amount,
			Date:     cfg.Weights.Date,
		}
	}
	if err := mc.Validate(); err != nil {
		return matcher.Config{}, fmt.Errorf("matching: %w", err)
	}
	return mc, nil
}

// ClockFromConfig returns a frozen clock when frozen_at is set.
func ClockFromConfig(cfg config.ClockConfig) (clock.Clock, error) {
	if cfg.FrozenAt == "" {
		return clock.System{}, nil
	}
	d, err := calendar.Parse(cfg.FrozenAt)
	if err != nil {
		return nil, fmt.Errorf("clock.frozen_at: %w", err)
	}
	return clock.FixedOn(d), nil
}

// Today returns the current day according to the service clock.
func (s *LedgerService) Today() calendar.Date {
	return clock.Today(s.clock)
}

// SaveRule validates and stores a recurring rule.
func (s *LedgerService) SaveRule(ctx context.Context, rule *schedule.Rule) error {
	if rule.ID == "" {
		rule.ID = s.newID()
	}
	if err := rule.Validate(); err != nil {
		return err
	}
	if err := s.store.SaveRule(ctx, rule); err != nil {
		return fmt.Errorf("failed to save rule: %w", err)
	}
	s.logger.Info("rule saved", "rule_id", rule.ID, "frequency", rule.Frequency, "currency", rule.Currency)
	return nil
}

// SaveRetainer validates and stores a retainer agreement.
func (s *LedgerService) SaveRetainer(ctx context.Context, r *income.Retainer) error {
	if r.ID == "" {
		r.ID = s.newID()
	}
	if err := r.Validate(); err != nil {
		return err
	}
	if err := s.store.SaveRetainer(ctx, r); err != nil {
		return fmt.Errorf("failed to save retainer: %w", err)
	}
	s.logger.Info("retainer saved", "retainer_id", r.ID, "client_id", r.ClientID)
	return nil
}

// Forecast returns the year forecast for one currency, or one forecast per
// currency when currency is empty.
func (s *LedgerService) Forecast(ctx context.Context, year int, currency string) ([]forecast.Forecast, error) {
	rules, actuals, err := s.forecastInputs(ctx, year, currency)
	if err != nil {
		return nil, err
	}

	today := s.Today()
	if currency != "" {
		return []forecast.Forecast{forecast.Aggregate(year, currency, rules, actuals, today)}, nil
	}
	return forecast.AggregateAll(year, rules, actuals, today), nil
}

// MinimumNeededFunds is the projected spend still ahead in year.
func (s *LedgerService) MinimumNeededFunds(ctx context.Context, year int, currency string) (int64, error) {
	rules, err := s.store.ListRules(ctx, storage.RuleFilters{Currency: currency})
	if err != nil {
		return 0, fmt.Errorf("failed to list rules: %w", err)
	}
	return forecast.MinimumNeededFunds(year, currency, rules, s.Today()), nil
}

// vendorDedupeThreshold is the similarity at which two vendor spellings
// collapse into one typeahead entry.
const vendorDedupeThreshold = 0.8

// VendorNames returns the owner's distinct vendors from rules and expenses,
// display-cased and sorted. A non-empty query keeps only names whose
// normalized form starts with the normalized query.
func (s *LedgerService) VendorNames(ctx context.Context, ownerID, query string) ([]string, error) {
	rules, err := s.store.ListRules(ctx, storage.RuleFilters{OwnerID: ownerID, IncludePaused: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	expenses, err := s.store.ListEntries(ctx, storage.EntryFilters{OwnerID: ownerID, Kind: ledger.KindExpense})
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	raw := make([]string, 0, len(rules)+len(expenses))
	for _, r := range rules {
		raw = append(raw, r.Vendor)
	}
	for _, e := range expenses {
		raw = append(raw, e.Vendor)
	}

	prefix := vendor.Normalize(query)
	names := make([]string, 0, len(raw))
	for _, name := range vendor.Dedupe(raw, vendorDedupeThreshold) {
		if prefix != "" && !strings.HasPrefix(vendor.Normalize(name), prefix) {
			continue
		}
		names = append(names, vendor.DisplayName(name))
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}

func (s *LedgerService) forecastInputs(ctx context.Context, year int, currency string) ([]schedule.Rule, []ledger.Entry, error) {
	rules, err := s.store.ListRules(ctx, storage.RuleFilters{Currency: currency})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list rules: %w", err)
	}
	actuals, err := s.store.ListEntries(ctx, storage.EntryFilters{
		Kind:     ledger.KindExpense,
		Currency: currency,
		From:     calendar.New(year, time.January, 1),
		To:       calendar.New(year, time.December, 31),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return rules, actuals, nil
}

// Occurrences lists the dated instances of active rules in [from, to].
func (s *LedgerService) Occurrences(ctx context.Context, from, to calendar.Date) ([]schedule.Occurrence, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: %s is before %s", ErrInvalidRange, to, from)
	}
	rules, err := s.store.ListRules(ctx, storage.RuleFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	return schedule.Collect(rules, from, to), nil
}

// SuggestForReceipt ranks the owner's expenses against a receipt.
func (s *LedgerService) SuggestForReceipt(ctx context.Context, receiptID string) ([]matcher.Candidate[ledger.Entry], error) {
	receipt, err := s.store.GetReceipt(ctx, receiptID)
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt %s: %w", receiptID, err)
	}
	expenses, err := s.store.ListEntries(ctx, storage.EntryFilters{
		OwnerID: receipt.OwnerID,
		Kind:    ledger.KindExpense,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	suggestions := s.matcher.SuggestExpenses(*receipt, expenses)
	s.logger.Debug("receipt suggestions",
		"receipt_id", receiptID,
		"candidates", len(expenses),
		"suggested", len(suggestions))
	return suggestions, nil
}

// SuggestForTransaction ranks open projected income against an incoming
// transaction. Outgoing transactions get no suggestions.
func (s *LedgerService) SuggestForTransaction(ctx context.Context, txnID string) ([]matcher.Candidate[income.ProjectedIncome], error) {
	txn, err := s.store.GetEntry(ctx, txnID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", txnID, err)
	}
	if !txn.IsIncome() {
		return []matcher.Candidate[income.ProjectedIncome]{}, nil
	}
	occurrences, err := s.store.ListProjectedIncome(ctx, storage.ProjectedIncomeFilters{OwnerID: txn.OwnerID})
	if err != nil {
		return nil, fmt.Errorf("failed to list projected income: %w", err)
	}

	suggestions := s.matcher.SuggestProjectedIncome(*txn, occurrences, s.Today())
	s.logger.Debug("transaction suggestions",
		"transaction_id", txnID,
		"candidates", len(occurrences),
		"suggested", len(suggestions))
	return suggestions, nil
}

// GetProjectedIncome returns one occurrence with its state derived for today.
func (s *LedgerService) GetProjectedIncome(ctx context.Context, id string) (*income.ProjectedIncome, error) {
	p, err := s.store.GetProjectedIncome(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get projected income %s: %w", id, err)
	}
	refreshed := income.Refresh(*p, s.Today())
	return &refreshed, nil
}

// ListProjectedIncome returns occurrences with their state derived for today.
func (s *LedgerService) ListProjectedIncome(ctx context.Context, filters storage.ProjectedIncomeFilters) ([]income.ProjectedIncome, error) {
	list, err := s.store.ListProjectedIncome(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list projected income: %w", err)
	}
	today := s.Today()
	for i := range list {
		list[i] = income.Refresh(list[i], today)
	}
	return list, nil
}

// RefreshProjectedIncome creates the missing occurrences of every retainer up
// to through. Existing periods keep their match history. It returns the
// number of occurrences created.
func (s *LedgerService) RefreshProjectedIncome(ctx context.Context, through calendar.Date) (int, error) {
	retainers, err := s.store.ListRetainers(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("failed to list retainers: %w", err)
	}

	today := s.Today()
	created := 0
	for _, r := range retainers {
		if err := r.Validate(); err != nil {
			s.logger.Warn("skipping invalid retainer", "retainer_id", r.ID, "error", err)
			continue
		}
		for _, p := range income.GeneratePeriods(r, r.StartDate, through, today) {
			p.ID = s.newID()
			ok, err := s.store.InsertProjectedIncome(ctx, &p)
			if err != nil {
				return created, fmt.Errorf("failed to insert period %s of retainer %s: %w", p.PeriodStart, r.ID, err)
			}
			if ok {
				created++
			}
		}
	}

	s.logger.Info("projected income refreshed",
		"retainers", len(retainers),
		"created", created,
		"through", through.String())
	return created, nil
}

// MatchTransaction allocates an incoming transaction to an occurrence.
// A repeated match of the same pair is a no-op. A transaction already matched
// to another occurrence is a conflict. When another writer updates the
// occurrence first, the match is replayed against the fresh state, so a
// conflict is only returned if the fresh state rejects it.
func (s *LedgerService) MatchTransaction(ctx context.Context, occurrenceID, txnID string) (*income.ProjectedIncome, error) {
	txn, err := s.store.GetEntry(ctx, txnID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", txnID, err)
	}
	p, err := s.mutate(ctx, occurrenceID, "match", func(p income.ProjectedIncome, now time.Time) (income.ProjectedIncome, error) {
		if txn.OwnerID != "" && p.OwnerID != "" && txn.OwnerID != p.OwnerID {
			return p, fmt.Errorf("%w: transaction %s and occurrence %s", ErrOwnerMismatch, txnID, p.ID)
		}
		owner, err := s.store.FindMatchByTransaction(ctx, txnID)
		switch {
		case err == nil && owner != p.ID:
			return p, fmt.Errorf("%w: transaction %s is already matched to %s", income.ErrMatchConflict, txnID, owner)
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			return p, fmt.Errorf("failed to look up matches of %s: %w", txnID, err)
		}
		return income.ApplyMatch(p, *txn, now)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("transaction matched",
		"projected_income_id", occurrenceID,
		"transaction_id", txnID,
		"state", p.State,
		"received_minor", p.ReceivedAmountMinor)
	return p, nil
}

// UnmatchTransaction removes a transaction from an occurrence.
func (s *LedgerService) UnmatchTransaction(ctx context.Context, occurrenceID, txnID string) (*income.ProjectedIncome, error) {
	p, err := s.mutate(ctx, occurrenceID, "unmatch", func(p income.ProjectedIncome, now time.Time) (income.ProjectedIncome, error) {
		return income.UndoMatch(p, txnID, now)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("transaction unmatched",
		"projected_income_id", occurrenceID,
		"transaction_id", txnID,
		"state", p.State)
	return p, nil
}

// CancelProjectedIncome marks an occurrence canceled.
func (s *LedgerService) CancelProjectedIncome(ctx context.Context, occurrenceID string) (*income.ProjectedIncome, error) {
	p, err := s.mutate(ctx, occurrenceID, "cancel", income.Cancel)
	if err != nil {
		return nil, err
	}
	s.logger.Info("projected income canceled", "projected_income_id", occurrenceID)
	return p, nil
}

// mutate runs a read-modify-write of one occurrence under compare-and-set.
func (s *LedgerService) mutate(
	ctx context.Context,
	id, op string,
	fn func(income.ProjectedIncome, time.Time) (income.ProjectedIncome, error),
) (*income.ProjectedIncome, error) {
	var lastErr error
	for attempt := 1; attempt <= maxMatchAttempts; attempt++ {
		current, err := s.store.GetProjectedIncome(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get projected income %s: %w", id, err)
		}

		updated, err := fn(*current, s.clock.Now())
		if err != nil {
			return nil, err
		}
		if updated.Version == current.Version {
			return &updated, nil
		}

		err = s.store.UpdateProjectedIncome(ctx, &updated, current.Version)
		if err == nil {
			return &updated, nil
		}
		if !errors.Is(err, storage.ErrStaleVersion) {
			return nil, fmt.Errorf("failed to save projected income %s: %w", id, err)
		}
		lastErr = err
		s.logger.Warn("projected income changed concurrently, retrying",
			"op", op,
			"projected_income_id", id,
			"attempt", attempt)
	}
	return nil, lastErr
}

// LinkReceipt attaches a receipt to a single expense, replacing any previous link.
func (s *LedgerService) LinkReceipt(ctx context.Context, receiptID, expenseID string) (*ledger.Receipt, error) {
	receipt, err := s.store.GetReceipt(ctx, receiptID)
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt %s: %w", receiptID, err)
	}
	expense, err := s.store.GetEntry(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense %s: %w", expenseID, err)
	}
	if expense.Kind != ledger.KindExpense || expense.IsDeleted() {
		return nil, fmt.Errorf("%w: %s is not an active expense", ErrInvalidLink, expenseID)
	}
	if receipt.OwnerID != "" && expense.OwnerID != "" && receipt.OwnerID != expense.OwnerID {
		return nil, fmt.Errorf("%w: %w: receipt %s and expense %s", ErrInvalidLink, ErrOwnerMismatch, receiptID, expenseID)
	}

	receipt.ExpenseID = expenseID
	receipt.LinkedProjectedIncomeID = ""
	if err := s.store.SaveReceipt(ctx, receipt); err != nil {
		return nil, fmt.Errorf("failed to save receipt %s: %w", receiptID, err)
	}
	s.logger.Info("receipt linked", "receipt_id", receiptID, "expense_id", expenseID)
	return receipt, nil
}
