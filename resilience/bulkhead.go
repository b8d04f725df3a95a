package resilience

// Bulkhead bounds the number of long-lived operations, such as open event
// streams, that may run at once.
type Bulkhead struct {
	name string
	sem  chan struct{}
}

// NewBulkhead returns a bulkhead with max slots. A non-positive max means
// unlimited.
func NewBulkhead(name string, max int) *Bulkhead {
	b := &Bulkhead{name: name}
	if max > 0 {
		b.sem = make(chan struct{}, max)
	}
	return b
}

// TryAcquire takes a slot without waiting. Every successful call must be
// paired with Release.
func (b *Bulkhead) TryAcquire() bool {
	if b.sem == nil {
		return true
	}
	select {
	case b.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release returns a slot.
func (b *Bulkhead) Release() {
	if b.sem == nil {
		return
	}
	select {
	case <-b.sem:
	default:
	}
}

// InUse returns the number of held slots.
func (b *Bulkhead) InUse() int { return len(b.sem) }

// Max returns the slot count, 0 when unlimited.
func (b *Bulkhead) Max() int { return cap(b.sem) }

// Name returns the bulkhead name.
func (b *Bulkhead) Name() string { return b.name }
