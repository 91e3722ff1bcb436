// Package tx provides transaction management abstractions.
// Services depend on Manager, never on a concrete database handle.
package tx

import (
	"context"
)

// Manager is the only component allowed to open a transaction scope.
// Repositories join whatever transaction is carried by ctx.
//
// Implementations live in infrastructure/storage/postgres and
// infrastructure/storage/memory.
type Manager interface {
	// RunInTransaction executes fn within a transaction.
	// If fn returns an error, every write made through ctx is rolled back.
	// If fn succeeds, the transaction is committed.
	//
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Func adapts a plain function to Manager.
type Func func(ctx context.Context, fn func(ctx context.Context) error) error

// RunInTransaction implements Manager.
func (f Func) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return f(ctx, fn)
}
