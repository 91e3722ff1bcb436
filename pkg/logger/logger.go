// Package logger provides structured logging with context support.
package logger

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appctx "barpos/internal/core/context"
)

// Logger wraps zap.SugaredLogger with context-aware logging.
type Logger struct {
	*zap.SugaredLogger
}

type loggerKey struct{}

// Config holds logger configuration.
type Config struct {
	Level       string // debug, info, warn, error
	Development bool   // console encoder with colors
	OutputPaths []string

	// Fields are attached to every entry (app name, env)
	Fields map[string]any
}

// New creates a new Logger from configuration. An unknown level means info.
func New(cfg Config) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if len(cfg.OutputPaths) > 0 {
		zc.OutputPaths = cfg.OutputPaths
	}
	if len(cfg.Fields) > 0 {
		zc.InitialFields = cfg.Fields
	}

	z, err := zc.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{z.Sugar()}, nil
}

// NewFromZap wraps an existing zap logger (tests use zaptest/observer cores).
func NewFromZap(z *zap.Logger) *Logger {
	return &Logger{z.Sugar()}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zap.NewNop().Sugar()}
}

var fallback atomic.Pointer[Logger]

// SetDefault makes l the logger used when a context carries none.
func SetDefault(l *Logger) {
	fallback.Store(l)
}

// Default returns the logger set by SetDefault, or a production logger on stdout.
func Default() *Logger {
	if l := fallback.Load(); l != nil {
		return l
	}
	z, err := zap.NewProduction(zap.AddCallerSkip(1))
	if err != nil {
		return Nop()
	}
	l := &Logger{z.Sugar()}
	if !fallback.CompareAndSwap(nil, l) {
		return fallback.Load()
	}
	return l
}

// WithContext adds the operation trace and the active span, when present.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	var kv []any
	if t := appctx.GetTrace(ctx); t != nil {
		kv = append(kv, "trace_id", t.TraceID, "request_id", t.RequestID)
		if t.Operation != "" {
			kv = append(kv, "operation", t.Operation)
		}
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		kv = append(kv, "span_id", sc.SpanID().String())
	}
	if len(kv) == 0 {
		return l
	}
	return &Logger{l.SugaredLogger.With(kv...)}
}

// With adds key-value pairs to logger.
func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{l.SugaredLogger.With(keysAndValues...)}
}

// WithComponent tags entries with the emitting subsystem.
func (l *Logger) WithComponent(name string) *Logger {
	return l.With("component", name)
}

// WithLogger adds Logger to context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the context logger enriched from ctx, or Default.
func FromContext(ctx context.Context) *Logger {
	l, ok := ctx.Value(loggerKey{}).(*Logger)
	if !ok {
		l = Default()
	}
	return l.WithContext(ctx)
}

func Debug(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Debugw(msg, keysAndValues...)
}

func Info(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Infow(msg, keysAndValues...)
}

func Warn(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Warnw(msg, keysAndValues...)
}

func Error(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Errorw(msg, keysAndValues...)
}
