package memory

import (
	"context"
	"time"

	"barpos/internal/core/numerator"
)

// Numerator is an in-memory numerator.Generator. Counters live in a store
// table, so numbers drawn inside a rolled back transaction are reused.
type Numerator struct {
	store    *Store
	counters *table[string, int64]
}

// NewNumerator creates a new in-memory numerator.
func NewNumerator(s *Store) *Numerator {
	return &Numerator{
		store:    s,
		counters: newTable[string, int64](s, identity[int64]),
	}
}

// GetNextNumber implements numerator.Generator. Strategies behave the same in memory.
func (n *Numerator) GetNextNumber(ctx context.Context, cfg numerator.Config, _ *numerator.Options, period time.Time) (string, error) {
	var num int64
	err := n.store.do(ctx, func() error {
		key := cfg.Key(period)
		num = n.counters.rows[key] + 1
		n.counters.rows[key] = num
		return nil
	})
	if err != nil {
		return "", err
	}
	return cfg.Format(period, num), nil
}

// SetNextNumber implements numerator.Generator.
func (n *Numerator) SetNextNumber(ctx context.Context, cfg numerator.Config, period time.Time, value int64) error {
	return n.store.do(ctx, func() error {
		n.counters.rows[cfg.Key(period)] = value
		return nil
	})
}

var _ numerator.Generator = (*Numerator)(nil)
