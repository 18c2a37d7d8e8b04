package matcher

import (
	"errors"
	"fmt"
)

// Confidence is the coarse bucket shown next to a suggestion.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

// Bucket thresholds. These are shown to users and must not drift.
const (
	HighThreshold   = 80
	MediumThreshold = 60
	LowThreshold    = 40
)

// ConfidenceFor buckets a 0-100 score.
func ConfidenceFor(score int) Confidence {
	switch {
	case score >= HighThreshold:
		return ConfidenceHigh
	case score >= MediumThreshold:
		return ConfidenceMedium
	case score >= LowThreshold:
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}

// Sub-score names.
const (
	ComponentAmount   = "amount"
	ComponentDate     = "date"
	ComponentVendor   = "vendor"
	ComponentCurrency = "currency"
	ComponentClient   = "client"
)

// Component is one itemized sub-score.
type Component struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
	Max    int    `json:"max"`
}

// Breakdown lists the sub-scores of a candidate. Its Total is the score.
type Breakdown []Component

// Total sums the component points.
func (b Breakdown) Total() int {
	total := 0
	for _, c := range b {
		total += c.Points
	}
	return total
}

// Points returns the points of the named component, 0 if absent.
func (b Breakdown) Points(name string) int {
	for _, c := range b {
		if c.Name == name {
			return c.Points
		}
	}
	return 0
}

// Candidate pairs a ledger target with its score. Candidates are computed on
// demand and never persisted.
type Candidate[T any] struct {
	Target     T          `json:"target"`
	Score      int        `json:"score"`
	Breakdown  Breakdown  `json:"breakdown"`
	Confidence Confidence `json:"confidence"`
}

func newCandidate[T any](target T, b Breakdown) Candidate[T] {
	score := b.Total()
	return Candidate[T]{
		Target:     target,
		Score:      score,
		Breakdown:  b,
		Confidence: ConfidenceFor(score),
	}
}

// ErrInvalidConfig means a matcher configuration could produce scores
// outside 0..100.
var ErrInvalidConfig = errors.New("invalid matcher config")

// IncomeWeights are the maximum points per transaction-to-income sub-score.
// They must be non-negative and sum to 100.
type IncomeWeights struct {
	Currency int `yaml:"currency" json:"currency"`
	Client   int `yaml:"client" json:"client"`
	Amount   int `yaml:"amount" json:"amount"`
	Date     int `yaml:"date" json:"date"`
}

// DefaultIncomeWeights favour amount, then client identity.
var DefaultIncomeWeights = IncomeWeights{
	Currency: 15,
	Client:   25,
	Amount:   40,
	Date:     20,
}

// Sum is the maximum score these weights can produce.
func (w IncomeWeights) Sum() int {
	return w.Currency + w.Client + w.Amount + w.Date
}

// Validate rejects weights that break the 0..100 score range.
func (w IncomeWeights) Validate() error {
	if w.Currency < 0 || w.Client < 0 || w.Amount < 0 || w.Date < 0 {
		return fmt.Errorf("%w: negative weight in %+v", ErrInvalidConfig, w)
	}
	if sum := w.Sum(); sum != 100 {
		return fmt.Errorf("%w: weights sum to %d, want 100", ErrInvalidConfig, sum)
	}
	return nil
}

const (
	DefaultMinScore = LowThreshold
	DefaultLimit    = 5
)

// Config holds matcher configuration
type Config struct {
	MinScore int           // Default: 40
	Limit    int           // Default: 5, <= 0 disables truncation
	Weights  IncomeWeights // Transaction to projected income weights
}

// Validate checks the score threshold and the income weights.
func (c Config) Validate() error {
	if c.MinScore < 0 || c.MinScore > 100 {
		return fmt.Errorf("%w: min score %d outside 0..100", ErrInvalidConfig, c.MinScore)
	}
	return c.Weights.Validate()
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		MinScore: DefaultMinScore,
		Limit:    DefaultLimit,
		Weights:  DefaultIncomeWeights,
	}
}
