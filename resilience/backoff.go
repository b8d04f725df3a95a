package resilience

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Backoff computes exponential reconnect delays.
//
// The delay for a given number of consecutive failures is
// min(Initial * Factor^failures, Max). Jitter, when set, shortens the delay
// by a random fraction up to Jitter so it never exceeds the unjittered value.
type Backoff struct {
	// Initial is the delay after the first failure.
	Initial time.Duration
	// Max caps every delay.
	Max time.Duration
	// Factor is the growth multiplier. Zero means 2.
	Factor float64
	// Jitter is the maximum fraction (0.0 to 1.0) removed at random.
	Jitter float64

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewBackoff returns a doubling Backoff between initial and max.
func NewBackoff(initial, max time.Duration, jitter float64) *Backoff {
	return &Backoff{Initial: initial, Max: max, Factor: 2, Jitter: jitter}
}

// Delay returns the wait before the next attempt after failures consecutive
// failures (0 for the first retry).
func (b *Backoff) Delay(failures int) time.Duration {
	if failures < 0 {
		failures = 0
	}
	factor := b.Factor
	if factor <= 0 {
		factor = 2
	}

	d := float64(b.Initial) * math.Pow(factor, float64(failures))
	if b.Max > 0 && (d > float64(b.Max) || math.IsInf(d, 1)) {
		d = float64(b.Max)
	}

	if j := clampJitter(b.Jitter); j > 0 {
		d -= d * j * b.float64()
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

func (b *Backoff) float64() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rnd == nil {
		b.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return b.rnd.Float64()
}

func clampJitter(j float64) float64 {
	switch {
	case j < 0:
		return 0
	case j > 1:
		return 1
	default:
		return j
	}
}
