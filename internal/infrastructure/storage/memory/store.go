// Package memory implements the storage ports in process memory.
// Transactions are serialized and rolled back by restoring a snapshot of every table.
package memory

import (
	"context"
	"fmt"
	"sync"

	"barpos/internal/core/tx"
	"barpos/pkg/logger"
)

// snapshotter is a table whose content can be saved and restored.
type snapshotter interface {
	snapshot() any
	restore(state any)
}

// Store owns every in-memory table and the transaction lock.
type Store struct {
	txMu   sync.Mutex
	tables []snapshotter
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

type txKey struct{ store *Store }

func (s *Store) inTx(ctx context.Context) bool {
	return ctx.Value(txKey{s}) != nil
}

func (s *Store) register(t snapshotter) {
	s.tables = append(s.tables, t)
}

// RunInTransaction implements tx.Manager. Nested calls reuse the open transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	saved := make([]any, len(s.tables))
	for i, t := range s.tables {
		saved[i] = t.snapshot()
	}
	rollback := func() {
		for i, t := range s.tables {
			t.restore(saved[i])
		}
	}

	defer func() {
		if p := recover(); p != nil {
			rollback()
			logger.Error(ctx, "transaction panic, rolled back", "panic", p)
			err = fmt.Errorf("transaction panic: %v", p)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{s}, true)); err != nil {
		rollback()
		logger.Debug(ctx, "transaction rolled back", "error", err)
		return err
	}
	return nil
}

// do runs a single repository operation, joining the transaction in ctx or
// taking the store lock for the duration of the call.
func (s *Store) do(ctx context.Context, fn func() error) error {
	if s.inTx(ctx) {
		return fn()
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn()
}

var _ tx.Manager = (*Store)(nil)

// table is a keyed collection of rows with copy-on-snapshot semantics.
type table[K comparable, V any] struct {
	rows  map[K]V
	clone func(V) V
}

func newTable[K comparable, V any](s *Store, clone func(V) V) *table[K, V] {
	t := &table[K, V]{rows: make(map[K]V), clone: clone}
	s.register(t)
	return t
}

func (t *table[K, V]) snapshot() any {
	cp := make(map[K]V, len(t.rows))
	for k, v := range t.rows {
		cp[k] = t.clone(v)
	}
	return cp
}

func (t *table[K, V]) restore(state any) {
	t.rows = state.(map[K]V)
}

func (t *table[K, V]) get(k K) (V, bool) {
	v, ok := t.rows[k]
	if !ok {
		return v, false
	}
	return t.clone(v), true
}

func (t *table[K, V]) put(k K, v V) {
	t.rows[k] = t.clone(v)
}

func (t *table[K, V]) delete(k K) {
	delete(t.rows, k)
}

// clonePtr returns a shallow copy of *p. Rows never share mutable state
// because pointer fields are replaced, not written through.
func clonePtr[E any](p *E) *E {
	c := *p
	return &c
}

func cloneSlice[E any](s []E) []E {
	return append([]E(nil), s...)
}

func identity[V any](v V) V { return v }
