package workers

import (
	"runtime"
	"testing"
)

// TestCountBounds verifies worker counts stay within sane bounds.
func TestCountBounds(t *testing.T) {
	tests := []struct {
		name       string
		multiplier float64
		limit      int
	}{
		{"cpu bound", 1.0, 0},
		{"io bound", 2.0, 0},
		{"tiny multiplier", 0.1, 0},
		{"capped", 2.0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Count(tt.multiplier, tt.limit)
			if got < 1 {
				t.Errorf("Count(%v, %d) = %d, want >= 1", tt.multiplier, tt.limit, got)
			}
			if tt.limit > 0 && got > tt.limit {
				t.Errorf("Count(%v, %d) = %d, exceeds limit", tt.multiplier, tt.limit, got)
			}
		})
	}
}

// TestCountOverride verifies the environment override wins.
func TestCountOverride(t *testing.T) {
	t.Setenv("MEDIA_CACHE_WORKERS", "3")

	if got := Count(1.0, 0); got != 3 {
		t.Errorf("Count with override = %d, want 3", got)
	}
	if got := Count(1.0, 2); got != 2 {
		t.Errorf("Count with override and limit = %d, want 2", got)
	}
}

// TestForIOScales verifies I/O pools are at least as large as CPU pools.
func TestForIOScales(t *testing.T) {
	if runtime.GOMAXPROCS(0) < 1 {
		t.Skip("no CPUs reported")
	}
	if ForIO(0) < ForCPU(0) {
		t.Errorf("ForIO(0) = %d < ForCPU(0) = %d", ForIO(0), ForCPU(0))
	}
}
