package resilience

import (
	"context"
	"sync/atomic"
	"time"
)

const defaultTimeout = 30 * time.Second

// TimeoutConfig configures the timeout guard.
type TimeoutConfig struct {
	// Timeout is how long a caller waits for a result.
	// Default: 30 seconds
	Timeout time.Duration
}

// Timeout bounds how long a caller waits for an operation. It abandons
// the wait, not the work: op keeps running in its goroutine and sees its
// context cancelled with ErrTimeout as the cause.
type Timeout struct {
	config    TimeoutConfig
	abandoned atomic.Int64
}

// NewTimeout creates a new timeout guard.
func NewTimeout(config TimeoutConfig) *Timeout {
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	return &Timeout{config: config}
}

// Execute runs op and returns ErrTimeout if it does not finish in time.
// A cancelled parent context returns the parent's cause instead.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeoutCause(ctx, t.config.Timeout, ErrTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		cause := context.Cause(ctx)
		if cause == ErrTimeout {
			t.abandoned.Add(1)
		}
		return cause
	}
}

// Abandoned reports how many waits ended at the deadline.
func (t *Timeout) Abandoned() int64 {
	return t.abandoned.Load()
}

// Config returns the timeout configuration.
func (t *Timeout) Config() TimeoutConfig {
	return t.config
}
