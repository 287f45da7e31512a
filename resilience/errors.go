package resilience

import "errors"

// Sentinel errors returned by request guards.
var (
	// ErrRateLimitExceeded is returned when the rate limit is exceeded.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrBulkheadFull is returned when every evaluation slot is taken.
	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")

	// ErrTimeout is returned when an operation outlives its deadline.
	ErrTimeout = errors.New("resilience: operation timed out")
)

// IsOverload reports whether err means the service shed the request
// rather than failing it.
func IsOverload(err error) bool {
	return errors.Is(err, ErrRateLimitExceeded) || errors.Is(err, ErrBulkheadFull)
}
