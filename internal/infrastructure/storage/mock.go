package storage

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/eshaffer321/freelance-ledger/internal/domain/income"
	"github.com/eshaffer321/freelance-ledger/internal/domain/ledger"
	"github.com/eshaffer321/freelance-ledger/internal/domain/schedule"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps, making tests fast and isolated, and applies
// the same compare-and-set rule as the SQLite implementation.
type MockRepository struct {
	mu        sync.Mutex
	rules     map[string]schedule.Rule
	entries   map[string]ledger.Entry
	receipts  map[string]ledger.Receipt
	retainers map[string]income.Retainer
	incomes   map[string]income.ProjectedIncome
	periods   map[string]string // retainer_id|period_start -> occurrence id

	// Hooks for test assertions
	SaveRuleCalled        bool
	UpdateIncomeCalls     int
	LastUpdatedIncome     *income.ProjectedIncome
	InsertedIncomeCount   int
	SaveReceiptCalled     bool
	LastSavedReceipt      *ledger.Receipt
	SoftDeleteEntryCalled bool

	// Error injection for testing error paths
	SaveRuleErr     error
	ListRulesErr    error
	ListEntriesErr  error
	SaveReceiptErr  error
	UpdateIncomeErr error
	InsertIncomeErr error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		rules:     make(map[string]schedule.Rule),
		entries:   make(map[string]ledger.Entry),
		receipts:  make(map[string]ledger.Receipt),
		retainers: make(map[string]income.Retainer),
		incomes:   make(map[string]income.ProjectedIncome),
		periods:   make(map[string]string),
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// SaveRule stores a rule
func (m *MockRepository) SaveRule(_ context.Context, rule *schedule.Rule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveRuleCalled = true
	if m.SaveRuleErr != nil {
		return m.SaveRuleErr
	}
	m.rules[rule.ID] = *rule
	return nil
}

// GetRule retrieves a rule
func (m *MockRepository) GetRule(_ context.Context, id string) (*schedule.Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rule, ok := m.rules[id]
	if !ok {
		return nil, fmt.Errorf("rule %s: %w", id, ErrNotFound)
	}
	return &rule, nil
}

// ListRules returns rules matching the filters, ordered by ID
func (m *MockRepository) ListRules(_ context.Context, filters RuleFilters) ([]schedule.Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListRulesErr != nil {
		return nil, m.ListRulesErr
	}

	var out []schedule.Rule
	for _, r := range m.rules {
		if filters.OwnerID != "" && r.OwnerID != filters.OwnerID {
			continue
		}
		if filters.Currency != "" && r.Currency != filters.Currency {
			continue
		}
		if !filters.IncludePaused && r.IsPaused {
			continue
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b schedule.Rule) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

// DeleteRule removes a rule
func (m *MockRepository) DeleteRule(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rules[id]; !ok {
		return fmt.Errorf("rule %s: %w", id, ErrNotFound)
	}
	delete(m.rules, id)
	return nil
}

// SaveEntry stores an entry
func (m *MockRepository) SaveEntry(_ context.Context, entry *ledger.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.ID] = *entry
	return nil
}

// GetEntry retrieves an entry, including soft-deleted ones
func (m *MockRepository) GetEntry(_ context.Context, id string) (*ledger.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[id]
	if !ok {
		return nil, fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	return &entry, nil
}

// ListEntries returns entries matching the filters, ordered by date then ID
func (m *MockRepository) ListEntries(_ context.Context, filters EntryFilters) ([]ledger.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListEntriesErr != nil {
		return nil, m.ListEntriesErr
	}

	var out []ledger.Entry
	for _, e := range m.entries {
		switch {
		case filters.OwnerID != "" && e.OwnerID != filters.OwnerID,
			filters.Kind != "" && e.Kind != filters.Kind,
			filters.Currency != "" && e.Currency != filters.Currency,
			!filters.From.IsZero() && e.OccurredAt.Before(filters.From),
			!filters.To.IsZero() && e.OccurredAt.After(filters.To),
			!filters.IncludeDeleted && e.IsDeleted():
			continue
		}
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b ledger.Entry) int {
		if c := a.OccurredAt.Compare(b.OccurredAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// SoftDeleteEntry marks an entry deleted
func (m *MockRepository) SoftDeleteEntry(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SoftDeleteEntryCalled = true
	entry, ok := m.entries[id]
	if !ok {
		return fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	if entry.DeletedAt == nil {
		entry.DeletedAt = &at
		m.entries[id] = entry
	}
	return nil
}

// SaveReceipt stores a receipt
func (m *MockRepository) SaveReceipt(_ context.Context, receipt *ledger.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveReceiptCalled = true
	m.LastSavedReceipt = receipt
	if m.SaveReceiptErr != nil {
		return m.SaveReceiptErr
	}
	m.receipts[receipt.ID] = *receipt
	return nil
}

// GetReceipt retrieves a receipt
func (m *MockRepository) GetReceipt(_ context.Context, id string) (*ledger.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	receipt, ok := m.receipts[id]
	if !ok {
		return nil, fmt.Errorf("receipt %s: %w", id, ErrNotFound)
	}
	return &receipt, nil
}

// SaveRetainer stores a retainer
func (m *MockRepository) SaveRetainer(_ context.Context, r *income.Retainer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retainers[r.ID] = *r
	return nil
}

// GetRetainer retrieves a retainer
func (m *MockRepository) GetRetainer(_ context.Context, id string) (*income.Retainer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.retainers[id]
	if !ok {
		return nil, fmt.Errorf("retainer %s: %w", id, ErrNotFound)
	}
	return &r, nil
}

// ListRetainers returns retainers ordered by ID
func (m *MockRepository) ListRetainers(_ context.Context, ownerID string) ([]income.Retainer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []income.Retainer
	for _, r := range m.retainers {
		if ownerID == "" || r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b income.Retainer) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func periodKey(retainerID string, p *income.ProjectedIncome) string {
	return retainerID + "|" + p.PeriodStart.String()
}

// InsertProjectedIncome stores an occurrence unless its period already exists
func (m *MockRepository) InsertProjectedIncome(_ context.Context, p *income.ProjectedIncome) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertIncomeErr != nil {
		return false, m.InsertIncomeErr
	}
	key := periodKey(p.RetainerID, p)
	if _, exists := m.periods[key]; exists {
		return false, nil
	}
	m.periods[key] = p.ID
	m.incomes[p.ID] = cloneIncome(*p)
	m.InsertedIncomeCount++
	return true, nil
}

// GetProjectedIncome retrieves an occurrence
func (m *MockRepository) GetProjectedIncome(_ context.Context, id string) (*income.ProjectedIncome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.incomes[id]
	if !ok {
		return nil, fmt.Errorf("projected income %s: %w", id, ErrNotFound)
	}
	p = cloneIncome(p)
	return &p, nil
}

// ListProjectedIncome returns occurrences ordered by expected date then ID
func (m *MockRepository) ListProjectedIncome(_ context.Context, filters ProjectedIncomeFilters) ([]income.ProjectedIncome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []income.ProjectedIncome{}
	for _, p := range m.incomes {
		switch {
		case filters.OwnerID != "" && p.OwnerID != filters.OwnerID,
			filters.RetainerID != "" && p.RetainerID != filters.RetainerID,
			filters.Currency != "" && p.Currency != filters.Currency,
			!filters.From.IsZero() && p.ExpectedDate.Before(filters.From),
			!filters.To.IsZero() && p.ExpectedDate.After(filters.To):
			continue
		}
		out = append(out, cloneIncome(p))
	}
	slices.SortFunc(out, func(a, b income.ProjectedIncome) int {
		if c := a.ExpectedDate.Compare(b.ExpectedDate); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// UpdateProjectedIncome saves p if the stored version equals expectedVersion
func (m *MockRepository) UpdateProjectedIncome(_ context.Context, p *income.ProjectedIncome, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateIncomeCalls++
	m.LastUpdatedIncome = p
	if m.UpdateIncomeErr != nil {
		return m.UpdateIncomeErr
	}

	current, ok := m.incomes[p.ID]
	if !ok {
		return fmt.Errorf("projected income %s: %w", p.ID, ErrNotFound)
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("%w: %w: projected income %s is at version %d, expected %d",
			ErrStaleVersion, income.ErrMatchConflict, p.ID, current.Version, expectedVersion)
	}
	for _, match := range p.Matches {
		if owner, ok := m.matchOwner(match.TransactionID); ok && owner != p.ID {
			return fmt.Errorf("%w: transaction %s is already matched to another occurrence",
				income.ErrMatchConflict, match.TransactionID)
		}
	}
	m.incomes[p.ID] = cloneIncome(*p)
	return nil
}

// FindMatchByTransaction returns the occurrence txnID is matched to
func (m *MockRepository) FindMatchByTransaction(_ context.Context, txnID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if owner, ok := m.matchOwner(txnID); ok {
		return owner, nil
	}
	return "", fmt.Errorf("match for transaction %s: %w", txnID, ErrNotFound)
}

func (m *MockRepository) matchOwner(txnID string) (string, bool) {
	for id, p := range m.incomes {
		if slices.Contains(p.MatchedTransactionIDs(), txnID) {
			return id, true
		}
	}
	return "", false
}

func cloneIncome(p income.ProjectedIncome) income.ProjectedIncome {
	p.Matches = slices.Clone(p.Matches)
	if p.Matches == nil {
		p.Matches = []income.Match{}
	}
	return p
}
