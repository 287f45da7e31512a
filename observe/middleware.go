package observe

import (
	"context"
	"math/big"
	"time"
)

// EvaluateFunc is the signature Middleware wraps.
type EvaluateFunc func(ctx context.Context, n int) (*big.Int, error)

// Middleware wraps evaluation with observability (tracing, metrics, logging).
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe EvaluateFunc.
//   - Context: Propagates context through tracing spans.
//   - Errors: Errors from the wrapped function are recorded and propagated unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given components.
// Nil components are replaced with no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = &noopMetrics{}
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Wrap wraps fn with tracing, metrics, and logging for op.
func (m *Middleware) Wrap(op Operation, fn EvaluateFunc) EvaluateFunc {
	return func(ctx context.Context, n int) (*big.Int, error) {
		ctx, span := m.tracer.StartSpan(ctx, op, n)
		start := time.Now()

		result, err := fn(ctx, n)

		duration := time.Since(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordEvaluation(ctx, op, duration, err)

		fields := []Field{
			F("operation", op.Name),
			F("n", n),
			F("duration_ms", float64(duration.Microseconds())/1000),
		}
		if op.Route != "" {
			fields = append(fields, F("route", op.Route))
		}

		if err != nil {
			fields = append(fields, F("error", err.Error()))
			m.logger.Error(ctx, "evaluation failed", fields...)
		} else {
			m.logger.Info(ctx, "evaluation completed", fields...)
		}

		return result, err
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
