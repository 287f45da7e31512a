package health

import "errors"

var (
	// ErrCheckFailed marks a check that ran and found a problem.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout marks a check abandoned at the aggregator deadline.
	ErrCheckTimeout = errors.New("health: check timed out")

	// ErrCheckerNotFound is returned by Aggregator.Check for unknown names.
	ErrCheckerNotFound = errors.New("health: no checker registered under that name")

	// ErrUnknownStatus is returned when decoding an unrecognized status.
	ErrUnknownStatus = errors.New("health: unknown status")
)
