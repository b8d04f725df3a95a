package resilience

import (
	"testing"
	"time"
)

func TestBackoff_Delay(t *testing.T) {
	b := NewBackoff(time.Second, 30*time.Second, 0)

	tests := []struct {
		failures int
		expected time.Duration
	}{
		{-1, 1 * time.Second},
		{0, 1 * time.Second},  // 1 * 2^0
		{1, 2 * time.Second},  // 1 * 2^1
		{2, 4 * time.Second},  // 1 * 2^2
		{3, 8 * time.Second},  // 1 * 2^3
		{4, 16 * time.Second}, // 1 * 2^4
		{5, 30 * time.Second}, // capped
		{6, 30 * time.Second},
		{5000, 30 * time.Second},
	}

	for _, tt := range tests {
		if got := b.Delay(tt.failures); got != tt.expected {
			t.Errorf("failures %d: expected %v, got %v", tt.failures, tt.expected, got)
		}
	}
}

func TestBackoff_ZeroFactorDoubles(t *testing.T) {
	b := &Backoff{Initial: 100 * time.Millisecond, Max: time.Second}
	if got := b.Delay(3); got != 800*time.Millisecond {
		t.Errorf("expected 800ms, got %v", got)
	}
}

func TestBackoff_CustomFactor(t *testing.T) {
	b := &Backoff{Initial: 100 * time.Millisecond, Max: 10 * time.Second, Factor: 3}
	if got := b.Delay(2); got != 900*time.Millisecond {
		t.Errorf("expected 900ms, got %v", got)
	}
}

func TestBackoff_JitterNeverExceedsBase(t *testing.T) {
	b := NewBackoff(time.Second, 30*time.Second, 0.5)
	base := NewBackoff(time.Second, 30*time.Second, 0)

	for failures := 0; failures < 10; failures++ {
		want := base.Delay(failures)
		for i := 0; i < 50; i++ {
			got := b.Delay(failures)
			if got > want {
				t.Fatalf("failures %d: jittered delay %v exceeds %v", failures, got, want)
			}
			if got < want/2 {
				t.Fatalf("failures %d: jittered delay %v below half of %v", failures, got, want)
			}
		}
	}
}

func TestBackoff_JitterClamped(t *testing.T) {
	b := NewBackoff(time.Second, 30*time.Second, 5)
	for i := 0; i < 20; i++ {
		if got := b.Delay(0); got < 0 || got > time.Second {
			t.Fatalf("unexpected delay %v", got)
		}
	}
	neg := NewBackoff(time.Second, 30*time.Second, -1)
	if got := neg.Delay(0); got != time.Second {
		t.Errorf("negative jitter should be ignored, got %v", got)
	}
}
