package fib

import (
	"fmt"
	"math/big"
	"strconv"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/fibops/cache"
)

// Evaluator computes Fibonacci numbers with memoization.
type Evaluator struct {
	table cache.Table
	group singleflight.Group // collapses concurrent fills per index

	hits   atomic.Uint64
	misses atomic.Uint64
	steps  atomic.Uint64
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithTable sets the memo table. A nil table is ignored.
func WithTable(t cache.Table) Option {
	return func(e *Evaluator) {
		if t != nil {
			e.table = t
		}
	}
}

// New creates an Evaluator. The default table is unbounded.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{}
	for _, opt := range opts {
		opt(e)
	}
	if e.table == nil {
		e.table = cache.NewMemoryTable(cache.DefaultPolicy())
	}
	return e
}

// Evaluate returns the n-th Fibonacci number.
// Returns an error wrapping ErrInvalidArgument if n is negative.
// The returned value is owned by the caller.
func (e *Evaluator) Evaluate(n int) (*big.Int, error) {
	if err := cache.ValidateIndex(n); err != nil {
		return nil, fmt.Errorf("%w: index %d is negative", ErrInvalidArgument, n)
	}

	// Base cases never touch the table
	if n < 2 {
		return big.NewInt(int64(n)), nil
	}

	if v, ok := e.table.Get(n); ok {
		e.hits.Add(1)
		return new(big.Int).Set(v), nil
	}

	e.misses.Add(1)
	v, _, _ := e.group.Do(strconv.Itoa(n), func() (any, error) {
		return e.fill(n), nil
	})
	return new(big.Int).Set(v.(*big.Int)), nil
}

// fill computes fib(n) starting from the contiguous watermark and stores
// every intermediate value.
func (e *Evaluator) fill(n int) *big.Int {
	start := e.table.Highest()
	if start >= n {
		if v, ok := e.table.Get(n); ok {
			return v
		}
	}

	a, b, ok := e.pair(start)
	if !ok || start >= n {
		// Inconsistent table; recompute from the base cases
		start = 1
		a, b = big.NewInt(0), big.NewInt(1)
	}

	for i := start + 1; i <= n; i++ {
		c := new(big.Int).Add(a, b)
		e.steps.Add(1)
		e.table.Put(i, c)
		a, b = b, c
	}
	return b
}

// pair returns fib(k-1) and fib(k), reading the table for k >= 2.
func (e *Evaluator) pair(k int) (*big.Int, *big.Int, bool) {
	if k < 2 {
		return big.NewInt(0), big.NewInt(1), true
	}
	b, ok := e.table.Get(k)
	if !ok {
		return nil, nil, false
	}
	if k == 2 {
		return big.NewInt(1), b, true
	}
	a, ok := e.table.Get(k - 1)
	if !ok {
		return nil, nil, false
	}
	return a, b, true
}

// Table returns the memo table. Callers must treat it as read-only.
func (e *Evaluator) Table() cache.Table {
	return e.table
}

// Stats is a snapshot of evaluator counters.
type Stats struct {
	// Hits counts lookups answered from the table.
	Hits uint64
	// Misses counts lookups that required a fill.
	Misses uint64
	// Steps counts additions performed while filling.
	Steps uint64
	// Entries is the current table size.
	Entries int
}

// Stats returns a snapshot of the evaluator counters.
func (e *Evaluator) Stats() Stats {
	return Stats{
		Hits:    e.hits.Load(),
		Misses:  e.misses.Load(),
		Steps:   e.steps.Load(),
		Entries: e.table.Len(),
	}
}
