// Package context carries request-scoped metadata used for log enrichment.
package context

import (
	"context"

	"github.com/google/uuid"
)

// TraceContext contains request tracing information.
type TraceContext struct {
	TraceID   string
	RequestID string
	// Operation is a short name of the business operation (e.g. "sale.close")
	Operation string
}

type traceContextKey struct{}

// WithTrace adds TraceContext to context.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns TraceContext from context.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// GetRequestID returns request ID from context or empty string.
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}

// WithOperation returns ctx carrying a trace for op, creating one if missing.
func WithOperation(ctx context.Context, op string) context.Context {
	t := GetTrace(ctx)
	if t == nil {
		t = NewTraceContext()
	} else {
		cp := *t
		t = &cp
	}
	t.Operation = op
	return WithTrace(ctx, t)
}

// NewTraceContext creates a new TraceContext with generated IDs.
func NewTraceContext() *TraceContext {
	return &TraceContext{
		TraceID:   uuid.New().String(),
		RequestID: uuid.New().String(),
	}
}
