// Package cache provides the memo table backing Fibonacci evaluation.
//
// It provides a Table interface with an in-memory implementation, write-once
// semantics per index, and a capacity policy.
package cache
