// Package numerator provides domain contracts for document auto-numbering.
// Implementations live in pkg/numerator (PostgreSQL) and the in-memory store.
package numerator

import (
	"context"
	"fmt"
	"time"
)

// Strategy defines the numbering generation strategy.
type Strategy int

const (
	// StrategyStrict bumps the stored counter for every number.
	// Numbers are gapless as long as the surrounding transaction commits.
	StrategyStrict Strategy = iota

	// StrategyCached allocates ranges of numbers in memory.
	// Faster, but leaves gaps when the process restarts.
	StrategyCached
)

// Options configuration for number generation.
type Options struct {
	Strategy Strategy
	// RangeSize is the number of values reserved at once in Cached strategy (default 50)
	RangeSize int64
}

// DefaultOptions returns standard options (Strict).
func DefaultOptions() *Options {
	return &Options{
		Strategy: StrategyStrict,
	}
}

// ResetPeriod controls when a sequence restarts at 1.
type ResetPeriod string

const (
	ResetYearly  ResetPeriod = "year"
	ResetMonthly ResetPeriod = "month"
	ResetNever   ResetPeriod = "never"
)

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "S")
	Prefix string

	// IncludeYear adds year to the number
	IncludeYear bool

	// PadWidth is the minimum number width (default 5)
	PadWidth int

	ResetPeriod ResetPeriod
}

// DefaultConfig returns sensible defaults: PREFIX-YYYY-NNNNN, yearly reset.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: ResetYearly,
	}
}

// Key returns the sequence key for period.
func (c Config) Key(period time.Time) string {
	switch c.ResetPeriod {
	case ResetMonthly:
		return fmt.Sprintf("%s_%s", c.Prefix, period.Format("2006_01"))
	case ResetYearly:
		return fmt.Sprintf("%s_%s", c.Prefix, period.Format("2006"))
	default:
		return c.Prefix
	}
}

// Format renders the n-th number of period.
func (c Config) Format(period time.Time, n int64) string {
	pad := c.PadWidth
	if pad == 0 {
		pad = 5
	}
	if c.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", c.Prefix, period.Format("2006"), pad, n)
	}
	return fmt.Sprintf("%s-%0*d", c.Prefix, pad, n)
}

// Generator generates sequential document numbers.
type Generator interface {
	// GetNextNumber generates the next document number.
	// Pattern: PREFIX-YEAR-XXXXX (e.g., S-2026-00001)
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

	// SetNextNumber sets the last issued value (for data migration).
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}
