package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Metric instrument names.
const (
	MetricEvalTotal    = "fib.eval.total"
	MetricEvalErrors   = "fib.eval.errors"
	MetricEvalDuration = "fib.eval.duration_ms"
	MetricCacheEntries = "fib.cache.entries"

	MetricGuardInFlight  = "fib.guard.in_flight"
	MetricGuardRejected  = "fib.guard.rejected"
	MetricGuardTokens    = "fib.guard.tokens"
	MetricGuardAbandoned = "fib.guard.abandoned"
)

// Metrics records evaluation metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordEvaluation records one evaluation with duration and error status.
	RecordEvaluation(ctx context.Context, op Operation, duration time.Duration, err error)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates a new Metrics instance with the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		MetricEvalTotal,
		metric.WithDescription("Total number of evaluations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		MetricEvalErrors,
		metric.WithDescription("Total number of rejected evaluations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		MetricEvalDuration,
		metric.WithDescription("Evaluation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
	}, nil
}

// RecordEvaluation records metrics for one evaluation.
func (m *metricsImpl) RecordEvaluation(ctx context.Context, op Operation, duration time.Duration, err error) {
	opt := metric.WithAttributes(op.attributes()...)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}

	durationMs := float64(duration.Microseconds()) / 1000
	m.durationHist.Record(ctx, durationMs, opt)
}

// RegisterTableGauge registers an observable gauge reporting the memo table
// size returned by size on every collection.
func RegisterTableGauge(meter metric.Meter, size func() int64) error {
	_, err := meter.Int64ObservableGauge(
		MetricCacheEntries,
		metric.WithDescription("Number of memoized Fibonacci values"),
		metric.WithUnit("{entry}"),
		metric.WithInt64Callback(observeInt64(size)),
	)
	return err
}

// GuardReadings samples the request guards on every collection.
// Nil readings are not registered.
type GuardReadings struct {
	InFlight  func() int64   // evaluations holding a bulkhead slot
	Rejected  func() int64   // cumulative bulkhead rejections
	Tokens    func() float64 // rate limiter tokens available
	Abandoned func() int64   // cumulative waits ended by the timeout
}

// RegisterGuardGauges registers observable instruments for g.
func RegisterGuardGauges(meter metric.Meter, g GuardReadings) error {
	if g.InFlight != nil {
		if _, err := meter.Int64ObservableGauge(
			MetricGuardInFlight,
			metric.WithDescription("Evaluations holding a concurrency slot"),
			metric.WithUnit("{evaluation}"),
			metric.WithInt64Callback(observeInt64(g.InFlight)),
		); err != nil {
			return err
		}
	}
	if g.Rejected != nil {
		if _, err := meter.Int64ObservableCounter(
			MetricGuardRejected,
			metric.WithDescription("Requests rejected because every concurrency slot was taken"),
			metric.WithUnit("{request}"),
			metric.WithInt64Callback(observeInt64(g.Rejected)),
		); err != nil {
			return err
		}
	}
	if g.Abandoned != nil {
		if _, err := meter.Int64ObservableCounter(
			MetricGuardAbandoned,
			metric.WithDescription("Requests that stopped waiting at the evaluation timeout"),
			metric.WithUnit("{request}"),
			metric.WithInt64Callback(observeInt64(g.Abandoned)),
		); err != nil {
			return err
		}
	}
	if g.Tokens != nil {
		tokens := g.Tokens
		if _, err := meter.Float64ObservableGauge(
			MetricGuardTokens,
			metric.WithDescription("Rate limiter tokens available"),
			metric.WithUnit("{token}"),
			metric.WithFloat64Callback(func(_ context.Context, o metric.Float64Observer) error {
				o.Observe(tokens())
				return nil
			}),
		); err != nil {
			return err
		}
	}
	return nil
}

func observeInt64(fn func() int64) metric.Int64Callback {
	return func(_ context.Context, o metric.Int64Observer) error {
		o.Observe(fn())
		return nil
	}
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordEvaluation(context.Context, Operation, time.Duration, error) {}
