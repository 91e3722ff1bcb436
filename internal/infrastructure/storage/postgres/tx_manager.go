package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	appctx "barpos/internal/core/context"
	"barpos/internal/core/tx"
	"barpos/pkg/logger"
)

var tracer = otel.Tracer("barpos/postgres")

var _ tx.Manager = (*TxManager)(nil)

// TxOptions configures one transaction.
type TxOptions struct {
	IsolationLevel pgx.TxIsoLevel
	AccessMode     pgx.TxAccessMode

	// StatementTimeout is applied with SET LOCAL; zero disables it
	StatementTimeout time.Duration
}

// DefaultTxOptions returns READ COMMITTED with a 30s statement timeout.
// Row locks (SELECT ... FOR UPDATE) and unique indexes carry the
// ledger invariants, so no stronger isolation is needed.
func DefaultTxOptions() TxOptions {
	return TxOptions{
		IsolationLevel:   pgx.ReadCommitted,
		AccessMode:       pgx.ReadWrite,
		StatementTimeout: 30 * time.Second,
	}
}

// Querier is satisfied by pgx.Tx and *pgxpool.Pool.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxManager runs functions inside a database transaction carried by the context.
// Nested calls join the outer transaction.
type TxManager struct {
	pool     *pgxpool.Pool
	defaults TxOptions
}

// NewTxManager creates a transaction manager over pool.
func NewTxManager(pool *Pool, defaults TxOptions) *TxManager {
	return &TxManager{pool: pool.Pool, defaults: defaults}
}

type txKey struct{}

// RunInTransaction implements tx.Manager with the manager defaults.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.RunInTransactionWithOptions(ctx, m.defaults, fn)
}

// ReadOnly runs fn in a read-only REPEATABLE READ transaction, so the count
// and the page of a list read come from one snapshot.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.RunInTransactionWithOptions(ctx, m.readOnlyOptions(), fn)
}

func (m *TxManager) readOnlyOptions() TxOptions {
	opts := m.defaults
	opts.IsolationLevel = pgx.RepeatableRead
	opts.AccessMode = pgx.ReadOnly
	return opts
}

// RunInTransactionWithOptions runs fn inside a transaction started with opts.
// When ctx already carries a transaction, fn runs in it and opts are ignored.
func (m *TxManager) RunInTransactionWithOptions(ctx context.Context, opts TxOptions, fn func(ctx context.Context) error) (err error) {
	if m.txFrom(ctx) != nil {
		return fn(ctx)
	}

	ctx, span := tracer.Start(ctx, "db.transaction",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.tx.isolation", string(opts.IsolationLevel)),
			attribute.String("db.tx.access_mode", string(opts.AccessMode)),
		))
	if t := appctx.GetTrace(ctx); t != nil && t.Operation != "" {
		span.SetAttributes(attribute.String("barpos.operation", t.Operation))
	}
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "rolled back")
		}
		span.End()
	}()

	pgTx, err := m.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   opts.IsolationLevel,
		AccessMode: opts.AccessMode,
	})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if opts.StatementTimeout > 0 {
		if _, err = pgTx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = %d", opts.StatementTimeout.Milliseconds())); err != nil {
			m.rollback(ctx, pgTx, err)
			return fmt.Errorf("set statement_timeout: %w", err)
		}
	}

	defer func() {
		if p := recover(); p != nil {
			m.rollback(ctx, pgTx, fmt.Errorf("panic: %v", p))
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, pgTx)); err != nil {
		m.rollback(ctx, pgTx, err)
		return err
	}

	if err = pgTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", TranslateError(err))
	}
	return nil
}

// rollback uses a fresh context so a canceled request still releases the connection.
func (m *TxManager) rollback(ctx context.Context, pgTx pgx.Tx, cause error) {
	rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if rbErr := pgTx.Rollback(rbCtx); rbErr != nil {
		logger.Error(ctx, "rollback failed", "error", rbErr, "cause", cause)
	}
}

func (m *TxManager) txFrom(ctx context.Context) pgx.Tx {
	if t, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return t
	}
	return nil
}

// GetQuerier returns the transaction in ctx, or the pool outside one.
func (m *TxManager) GetQuerier(ctx context.Context) Querier {
	if t := m.txFrom(ctx); t != nil {
		return t
	}
	return m.pool
}
