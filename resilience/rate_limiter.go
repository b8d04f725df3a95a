package resilience

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// RateLimiterConfig configures a token bucket.
type RateLimiterConfig struct {
	// Name identifies the limiter in logs.
	Name string
	// Rate is the number of tokens added per second.
	Rate float64
	// Burst is the bucket size.
	Burst int
	// OnLimit is called when a request is rejected.
	OnLimit func(name string)
	// Clock drives refills. Defaults to the wall clock.
	Clock clock.Clock
}

// RateLimiter is a non-blocking token bucket.
type RateLimiter struct {
	config RateLimiterConfig
	clock  clock.Clock

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// NewRateLimiter returns a full bucket. Rate defaults to 10/s and Burst to
// the rate.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = 10
	}
	if config.Burst <= 0 {
		config.Burst = int(config.Rate)
		if config.Burst < 1 {
			config.Burst = 1
		}
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &RateLimiter{
		config:     config,
		clock:      clk,
		tokens:     float64(config.Burst),
		lastRefill: clk.Now(),
	}
}

// Allow takes one token if available.
func (rl *RateLimiter) Allow() bool {
	return rl.AllowN(1)
}

// AllowN takes n tokens if available. It never blocks.
func (rl *RateLimiter) AllowN(n int) bool {
	rl.mu.Lock()
	rl.refillLocked()
	ok := rl.tokens >= float64(n)
	if ok {
		rl.tokens -= float64(n)
	}
	rl.mu.Unlock()

	if !ok && rl.config.OnLimit != nil {
		rl.config.OnLimit(rl.config.Name)
	}
	return ok
}

// Tokens returns the tokens currently available.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refillLocked()
	return rl.tokens
}

// Rate returns tokens added per second.
func (rl *RateLimiter) Rate() float64 { return rl.config.Rate }

// Name returns the configured name.
func (rl *RateLimiter) Name() string { return rl.config.Name }

func (rl *RateLimiter) refillLocked() {
	now := rl.clock.Now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.lastRefill = now
	if elapsed <= 0 {
		return
	}
	rl.tokens += elapsed * rl.config.Rate
	if rl.tokens > float64(rl.config.Burst) {
		rl.tokens = float64(rl.config.Burst)
	}
}
