package health

import (
	"context"
	"fmt"
	"runtime"
)

// MemoryCheckerConfig configures the memory health checker.
type MemoryCheckerConfig struct {
	// WarningThreshold is the heap ratio that triggers degraded status.
	// Value should be between 0 and 1. Default: 0.8
	WarningThreshold float64

	// CriticalThreshold is the heap ratio that triggers unhealthy status.
	// Value should be between 0 and 1. Default: 0.95
	CriticalThreshold float64

	// MaxAlloc is the heap budget in bytes. If zero, heap usage is
	// reported but never judged.
	MaxAlloc uint64

	// Entries reports the memo table size. Optional.
	Entries func() int

	// MaxEntries marks the table degraded once Entries reaches it.
	// If zero, entry count is reported but never judged.
	MaxEntries int
}

// MemoryChecker reports heap usage and memo table growth.
type MemoryChecker struct {
	config MemoryCheckerConfig
	stats  func(*runtime.MemStats)
}

// NewMemoryChecker creates a new memory health checker.
func NewMemoryChecker(config MemoryCheckerConfig) *MemoryChecker {
	if config.WarningThreshold <= 0 || config.WarningThreshold >= 1 {
		config.WarningThreshold = 0.8
	}
	if config.CriticalThreshold <= 0 || config.CriticalThreshold >= 1 {
		config.CriticalThreshold = 0.95
	}
	if config.CriticalThreshold < config.WarningThreshold {
		config.CriticalThreshold = min(config.WarningThreshold+0.1, 0.99)
	}

	return &MemoryChecker{config: config, stats: runtime.ReadMemStats}
}

// Name returns the name of this checker.
func (m *MemoryChecker) Name() string {
	return "memory"
}

// Check performs the memory health check.
func (m *MemoryChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	var stats runtime.MemStats
	m.stats(&stats)

	details := map[string]any{
		"heap_alloc_bytes": stats.HeapAlloc,
		"heap_sys_bytes":   stats.HeapSys,
		"num_gc":           stats.NumGC,
		"goroutines":       runtime.NumGoroutine(),
	}

	entries := -1
	if m.config.Entries != nil {
		entries = m.config.Entries()
		details["cache_entries"] = entries
	}

	if budget := m.config.MaxAlloc; budget > 0 {
		usage := float64(stats.HeapAlloc) / float64(budget)
		details["max_alloc_bytes"] = budget
		details["usage_percent"] = usage * 100

		switch {
		case usage >= m.config.CriticalThreshold:
			return Unhealthy(fmt.Sprintf("memory usage critical: %.1f%%", usage*100), ErrCheckFailed).WithDetails(details)
		case usage >= m.config.WarningThreshold:
			return Degraded(fmt.Sprintf("memory usage high: %.1f%%", usage*100)).WithDetails(details)
		}
	}

	if m.config.MaxEntries > 0 && entries >= m.config.MaxEntries {
		return Degraded(fmt.Sprintf("memo table at capacity: %d entries", entries)).WithDetails(details)
	}
	return Healthy("memory usage normal").WithDetails(details)
}
