package cache

// Policy configures table capacity.
type Policy struct {
	// MaxEntries is the maximum number of stored entries.
	// If zero, the table is unbounded.
	MaxEntries int
}

// DefaultPolicy returns the default policy: unbounded, process lifetime.
func DefaultPolicy() Policy {
	return Policy{MaxEntries: 0}
}

// BoundedPolicy returns a policy that keeps at most max entries.
// Once full, further entries are refused rather than evicted.
func BoundedPolicy(max int) Policy {
	if max < 0 {
		max = 0
	}
	return Policy{MaxEntries: max}
}

// Bounded returns true if the policy caps the table size.
func (p Policy) Bounded() bool {
	return p.MaxEntries > 0
}

// Admits returns true if a table holding size entries may store another.
func (p Policy) Admits(size int) bool {
	return !p.Bounded() || size < p.MaxEntries
}
