package cache

import (
	"math/big"
	"sync"
)

// firstIndex is the lowest index stored in a table; 0 and 1 are constants.
const firstIndex = 2

// MemoryTable is an in-memory Table implementation.
type MemoryTable struct {
	mu      sync.RWMutex
	entries map[int]*big.Int
	highest int
	policy  Policy
}

// NewMemoryTable creates a new in-memory table with the given policy.
func NewMemoryTable(policy Policy) *MemoryTable {
	return &MemoryTable{
		entries: make(map[int]*big.Int),
		highest: firstIndex - 1,
		policy:  policy,
	}
}

// Get retrieves a value from the table. Returns (nil, false) on miss.
func (t *MemoryTable) Get(n int) (*big.Int, bool) {
	t.mu.RLock()
	v, ok := t.entries[n]
	t.mu.RUnlock()
	return v, ok
}

// Put stores v under n. Existing entries are kept; indices below 2 and
// nil values are refused.
func (t *MemoryTable) Put(n int, v *big.Int) bool {
	if n < firstIndex || v == nil {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.entries[n]; exists {
		return false
	}
	if !t.policy.Admits(len(t.entries)) {
		return false
	}
	t.entries[n] = v

	// Advance the contiguous watermark
	for {
		if _, ok := t.entries[t.highest+1]; !ok {
			break
		}
		t.highest++
	}
	return true
}

// Highest returns the contiguous watermark.
func (t *MemoryTable) Highest() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.highest
}

// Len returns the number of stored entries.
func (t *MemoryTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Policy returns the table policy.
func (t *MemoryTable) Policy() Policy {
	return t.policy
}

// Ensure MemoryTable implements Table
var _ Table = (*MemoryTable)(nil)
