// Package observability holds the logging, metrics and tracing hooks shared by
// the session, RPC and command layers. The enigma core does not depend on it.
package observability

import (
	"context"
	"time"
)

// Logger is the structured logging surface used throughout rotorcore. Its
// shape matches log/slog so a *slog.Logger satisfies it directly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// MetricsRecorder receives the outcome and duration of every observed operation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Tracer starts spans around observed operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan is ended exactly once with the operation's error, if any.
type TraceSpan interface {
	End(err error)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger { return noopLogger{} }

// NopMetrics returns a MetricsRecorder that discards everything.
func NopMetrics() MetricsRecorder { return noopMetrics{} }

// NopTracer returns a Tracer whose spans do nothing.
func NopTracer() Tracer { return noopTracer{} }

// Hooks bundles the three observers; zero fields fall back to no-ops.
type Hooks struct {
	Logger  Logger
	Metrics MetricsRecorder
	Tracer  Tracer
}

// Normalize replaces nil observers with no-ops.
func (h Hooks) Normalize() Hooks {
	if h.Logger == nil {
		h.Logger = noopLogger{}
	}
	if h.Metrics == nil {
		h.Metrics = noopMetrics{}
	}
	if h.Tracer == nil {
		h.Tracer = noopTracer{}
	}
	return h
}

// Run executes fn as the named operation: it opens a span, records the
// outcome with the metrics recorder and logs failures.
func (h Hooks) Run(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	h = h.Normalize()
	ctx, span := h.Tracer.Start(ctx, operation)
	start := time.Now()
	err := fn(ctx)
	h.Metrics.Observe(ctx, operation, err == nil, time.Since(start))
	span.End(err)
	if err != nil {
		h.Logger.Error("operation failed", "operation", operation, "error", err)
	}
	return err
}
