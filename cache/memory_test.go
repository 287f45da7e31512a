package cache

import (
	"math/big"
	"sync"
	"testing"
)

func TestMemoryTable_GetPut(t *testing.T) {
	table := NewMemoryTable(DefaultPolicy())

	// Test Get on empty table
	val, ok := table.Get(5)
	if ok {
		t.Error("Get on empty table should return ok=false")
	}
	if val != nil {
		t.Error("Get on empty table should return nil value")
	}

	// Test Put
	if !table.Put(5, big.NewInt(5)) {
		t.Fatal("Put on empty table should store the entry")
	}

	// Test Get after Put
	got, ok := table.Get(5)
	if !ok {
		t.Error("Get after Put should return ok=true")
	}
	if got.Cmp(big.NewInt(5)) != 0 {
		t.Errorf("Get returned %v, want 5", got)
	}
}

func TestMemoryTable_WriteOnce(t *testing.T) {
	table := NewMemoryTable(DefaultPolicy())

	if !table.Put(3, big.NewInt(2)) {
		t.Fatal("first Put should store the entry")
	}
	if table.Put(3, big.NewInt(99)) {
		t.Error("second Put for the same index should be refused")
	}

	got, _ := table.Get(3)
	if got.Int64() != 2 {
		t.Errorf("Get returned %v after overwrite attempt, want 2", got)
	}
}

func TestMemoryTable_RefusesInvalid(t *testing.T) {
	table := NewMemoryTable(DefaultPolicy())

	tests := []struct {
		name string
		n    int
		v    *big.Int
	}{
		{name: "index zero", n: 0, v: big.NewInt(0)},
		{name: "index one", n: 1, v: big.NewInt(1)},
		{name: "negative index", n: -4, v: big.NewInt(3)},
		{name: "nil value", n: 7, v: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if table.Put(tt.n, tt.v) {
				t.Errorf("Put(%d, %v) = true, want false", tt.n, tt.v)
			}
		})
	}

	if table.Len() != 0 {
		t.Errorf("Len() = %d, want 0", table.Len())
	}
}

func TestMemoryTable_Highest(t *testing.T) {
	table := NewMemoryTable(DefaultPolicy())

	if got := table.Highest(); got != 1 {
		t.Fatalf("Highest() on empty table = %d, want 1", got)
	}

	table.Put(2, big.NewInt(1))
	table.Put(3, big.NewInt(2))
	if got := table.Highest(); got != 3 {
		t.Errorf("Highest() = %d, want 3", got)
	}

	// A gap stops the watermark
	table.Put(5, big.NewInt(5))
	if got := table.Highest(); got != 3 {
		t.Errorf("Highest() with gap = %d, want 3", got)
	}

	// Filling the gap advances past the previously stored entry
	table.Put(4, big.NewInt(3))
	if got := table.Highest(); got != 5 {
		t.Errorf("Highest() after filling gap = %d, want 5", got)
	}
}

func TestMemoryTable_BoundedPolicy(t *testing.T) {
	table := NewMemoryTable(BoundedPolicy(2))

	if !table.Put(2, big.NewInt(1)) {
		t.Fatal("Put within bound should succeed")
	}
	if !table.Put(3, big.NewInt(2)) {
		t.Fatal("Put within bound should succeed")
	}
	if table.Put(4, big.NewInt(3)) {
		t.Error("Put beyond bound should be refused")
	}

	if table.Len() != 2 {
		t.Errorf("Len() = %d, want 2", table.Len())
	}
	if table.Highest() != 3 {
		t.Errorf("Highest() = %d, want 3", table.Highest())
	}
}

func TestMemoryTable_ConcurrentAccess(t *testing.T) {
	table := NewMemoryTable(DefaultPolicy())

	const numGoroutines = 50
	const maxIndex = 200

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for n := 2; n <= maxIndex; n++ {
				table.Put(n, big.NewInt(int64(n)))
				_, _ = table.Get(n)
				_ = table.Highest()
			}
		}()
	}

	wg.Wait()

	if table.Len() != maxIndex-1 {
		t.Errorf("Len() = %d, want %d", table.Len(), maxIndex-1)
	}
	if table.Highest() != maxIndex {
		t.Errorf("Highest() = %d, want %d", table.Highest(), maxIndex)
	}
}
