package resilience

import (
	"context"
	"time"
)

// Executor composes the request guards.
// A zero Executor runs operations unguarded.
type Executor struct {
	rateLimiter *RateLimiter
	bulkhead    *Bulkhead
	timeout     *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates a new executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithRateLimiter adds rate limiting to the executor. Nil is ignored.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) {
		e.rateLimiter = rl
	}
}

// WithBulkhead adds a concurrency cap to the executor. Nil is ignored.
func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) {
		e.bulkhead = b
	}
}

// WithTimeout bounds each operation. Non-positive durations disable it.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) {
		if timeout <= 0 {
			e.timeout = nil
			return
		}
		e.timeout = NewTimeout(TimeoutConfig{Timeout: timeout})
	}
}

// RateLimiter returns the configured limiter, or nil.
func (e *Executor) RateLimiter() *RateLimiter { return e.rateLimiter }

// Bulkhead returns the configured bulkhead, or nil.
func (e *Executor) Bulkhead() *Bulkhead { return e.bulkhead }

// Timeout returns the configured timeout guard, or nil.
func (e *Executor) Timeout() *Timeout { return e.timeout }

// Execute runs op through the configured guards.
//
// The order is rate limiter, then timeout, then bulkhead. A request shed by
// the limiter never holds a bulkhead slot. A timed out caller stops waiting,
// but the slot stays held until op returns, so MaxConcurrent bounds the
// evaluations actually running.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	execute := op

	if e.bulkhead != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.bulkhead.Execute(ctx, inner)
		}
	}

	if e.timeout != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.timeout.Execute(ctx, inner)
		}
	}

	if e.rateLimiter != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.rateLimiter.Execute(ctx, inner)
		}
	}

	return execute(ctx)
}

// Do runs fn through e and returns its value.
// On a guard error the zero value is returned.
func Do[T any](ctx context.Context, e *Executor, fn func(context.Context) (T, error)) (T, error) {
	var (
		out T
		zero T
	)
	err := e.Execute(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		return zero, err
	}
	return out, nil
}
