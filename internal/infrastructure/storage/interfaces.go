package storage

import (
	"context"
	"errors"
	"time"

	"github.com/eshaffer321/freelance-ledger/internal/domain/calendar"
	"github.com/eshaffer321/freelance-ledger/internal/domain/income"
	"github.com/eshaffer321/freelance-ledger/internal/domain/ledger"
	"github.com/eshaffer321/freelance-ledger/internal/domain/schedule"
)

var (
	// ErrNotFound is returned when a lookup by ID finds nothing.
	ErrNotFound = errors.New("not found")
	// ErrStaleVersion is returned when a compare-and-set update loses to a
	// concurrent writer. It also matches income.ErrMatchConflict.
	ErrStaleVersion = errors.New("stale version")
)

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, in-memory)
// and makes testing with mocks straightforward.
type Repository interface {
	RuleRepository
	LedgerRepository
	ReceiptRepository
	IncomeRepository
	Close() error
}

// RuleRepository handles recurring rules
type RuleRepository interface {
	// SaveRule inserts or replaces a rule
	SaveRule(ctx context.Context, rule *schedule.Rule) error

	// GetRule retrieves a rule by ID
	GetRule(ctx context.Context, id string) (*schedule.Rule, error)

	// ListRules returns rules matching the filters, ordered by ID
	ListRules(ctx context.Context, filters RuleFilters) ([]schedule.Rule, error)

	// DeleteRule removes a rule
	DeleteRule(ctx context.Context, id string) error
}

// RuleFilters defines filters for listing rules
type RuleFilters struct {
	OwnerID       string // empty = all
	Currency      string // empty = all
	IncludePaused bool
}

// LedgerRepository handles expenses and transactions
type LedgerRepository interface {
	// SaveEntry inserts or replaces an entry
	SaveEntry(ctx context.Context, entry *ledger.Entry) error

	// GetEntry retrieves an entry by ID, including soft-deleted ones
	GetEntry(ctx context.Context, id string) (*ledger.Entry, error)

	// ListEntries returns entries matching the filters, ordered by date then ID
	ListEntries(ctx context.Context, filters EntryFilters) ([]ledger.Entry, error)

	// SoftDeleteEntry marks an entry deleted
	SoftDeleteEntry(ctx context.Context, id string, at time.Time) error
}

// EntryFilters defines filters for listing ledger entries
type EntryFilters struct {
	OwnerID        string      // empty = all
	Kind           ledger.Kind // empty = all
	Currency       string      // empty = all
	From           calendar.Date
	To             calendar.Date // inclusive; zero = open
	IncludeDeleted bool
}

// ReceiptRepository handles uploaded receipts
type ReceiptRepository interface {
	SaveReceipt(ctx context.Context, receipt *ledger.Receipt) error
	GetReceipt(ctx context.Context, id string) (*ledger.Receipt, error)
}

// IncomeRepository handles retainers and their projected income occurrences
type IncomeRepository interface {
	SaveRetainer(ctx context.Context, retainer *income.Retainer) error
	GetRetainer(ctx context.Context, id string) (*income.Retainer, error)
	ListRetainers(ctx context.Context, ownerID string) ([]income.Retainer, error)

	// InsertProjectedIncome stores a new occurrence unless one already exists
	// for (retainer, period start). created is false when it already existed.
	InsertProjectedIncome(ctx context.Context, p *income.ProjectedIncome) (created bool, err error)

	// GetProjectedIncome retrieves an occurrence with its matches. State is
	// not derived here; callers refresh for their own "today".
	GetProjectedIncome(ctx context.Context, id string) (*income.ProjectedIncome, error)

	// ListProjectedIncome returns occurrences ordered by expected date then ID
	ListProjectedIncome(ctx context.Context, filters ProjectedIncomeFilters) ([]income.ProjectedIncome, error)

	// UpdateProjectedIncome saves p only if the stored version still equals
	// expectedVersion. A lost race returns ErrStaleVersion, which also
	// matches income.ErrMatchConflict.
	UpdateProjectedIncome(ctx context.Context, p *income.ProjectedIncome, expectedVersion int64) error

	// FindMatchByTransaction returns the occurrence a transaction is matched
	// to, or ErrNotFound. A transaction is matched to at most one occurrence;
	// saving a second one returns income.ErrMatchConflict.
	FindMatchByTransaction(ctx context.Context, txnID string) (occurrenceID string, err error)
}

// ProjectedIncomeFilters defines filters for listing occurrences
type ProjectedIncomeFilters struct {
	OwnerID    string
	RetainerID string
	Currency   string
	From       calendar.Date // expected date lower bound, inclusive
	To         calendar.Date // expected date upper bound, inclusive
}
