package atomics

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestSubtract(t *testing.T) {
	tests := []struct {
		name        string
		initial     uint64
		subtract    uint64
		maxRetries  int
		wantSuccess bool
		wantFinal   uint64
	}{
		{"already zero", 0, 5, 1, true, 0},
		{"simple subtraction", 10, 3, 3, true, 7},
		{"subtract more than available", 5, 10, 3, true, 0},
		{"no retries allowed", 5, 1, 0, false, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a atomic.Uint64
			a.Store(tt.initial)

			ok := Subtract(&a, tt.subtract, tt.maxRetries)
			if ok != tt.wantSuccess {
				t.Fatalf("expected success=%v, got %v", tt.wantSuccess, ok)
			}
			if a.Load() != tt.wantFinal {
				t.Fatalf("expected final=%d, got %d", tt.wantFinal, a.Load())
			}
		})
	}
}

func TestStoreMax(t *testing.T) {
	var high atomic.Uint64
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			StoreMax(&high, uint64(i))
		}()
	}
	wg.Wait()
	if high.Load() != 49 {
		t.Fatalf("expected 49, got %d", high.Load())
	}

	StoreMax(&high, 3)
	if high.Load() != 49 {
		t.Fatalf("expected smaller value to be ignored, got %d", high.Load())
	}
}
