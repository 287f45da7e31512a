// Package fib provides a memoized Fibonacci evaluator.
//
// An Evaluator owns a memo table for its lifetime. Evaluate fills the table
// bottom-up, from the highest contiguous cached index to the requested one,
// so repeated and overlapping queries never re-derive shared results and the
// stack stays constant regardless of n. Values are arbitrary precision.
//
// # Basic Usage
//
//	ev := fib.New()
//	v, err := ev.Evaluate(90)
//	if errors.Is(err, fib.ErrInvalidArgument) {
//	    // n was negative
//	}
//
// # Bounded Tables
//
// The default table is unbounded. A bounded table keeps the lowest indices
// and refuses the rest; evaluation stays correct, only slower past the bound:
//
//	ev := fib.New(fib.WithTable(cache.NewMemoryTable(cache.BoundedPolicy(4096))))
//
// # Concurrency
//
// Evaluator is safe for concurrent use. Concurrent misses for the same index
// share a single fill.
package fib
