package resilience

import (
	"sync"
	"testing"
)

func TestBulkhead_Slots(t *testing.T) {
	b := NewBulkhead("streams", 2)
	if !b.TryAcquire() || !b.TryAcquire() {
		t.Fatal("two slots should be available")
	}
	if b.TryAcquire() {
		t.Error("third acquire should fail")
	}
	if b.InUse() != 2 || b.Max() != 2 {
		t.Errorf("in use %d max %d", b.InUse(), b.Max())
	}

	b.Release()
	if !b.TryAcquire() {
		t.Error("released slot should be reusable")
	}

	b.Release()
	b.Release()
	b.Release()
	if b.InUse() != 0 {
		t.Errorf("extra releases must not go negative, in use %d", b.InUse())
	}
}

func TestBulkhead_Unlimited(t *testing.T) {
	b := NewBulkhead("streams", 0)
	for i := 0; i < 100; i++ {
		if !b.TryAcquire() {
			t.Fatal("unlimited bulkhead must always admit")
		}
	}
	b.Release()
	if b.Max() != 0 || b.InUse() != 0 {
		t.Errorf("unexpected accounting max=%d in use=%d", b.Max(), b.InUse())
	}
}

func TestBulkhead_Concurrent(t *testing.T) {
	b := NewBulkhead("streams", 5)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if b.TryAcquire() {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if admitted != 5 {
		t.Errorf("expected 5 admitted, got %d", admitted)
	}
}
