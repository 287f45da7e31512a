package cache

import (
	"errors"
	"math/big"
)

// ErrNegativeIndex is returned by ValidateIndex for indices below zero.
var ErrNegativeIndex = errors.New("cache: index is negative")

// Table is the interface for a memo table keyed by sequence index.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Write-once: Put never replaces an existing entry.
// - Ownership: values passed to Put and returned by Get must not be mutated.
type Table interface {
	// Get retrieves a cached value. Returns (nil, false) on miss.
	Get(n int) (*big.Int, bool)

	// Put stores v under n if n is absent and the policy admits it.
	// Returns true when the entry was stored.
	Put(n int, v *big.Int) bool

	// Highest returns the largest k such that every index in [2, k] is
	// present. Returns 1 when index 2 is absent.
	Highest() int

	// Len returns the number of stored entries.
	Len() int
}

// ValidateIndex checks if n is a valid sequence index.
func ValidateIndex(n int) error {
	if n < 0 {
		return ErrNegativeIndex
	}
	return nil
}
