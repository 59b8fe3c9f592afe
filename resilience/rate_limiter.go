package resilience

import (
	"sync"
	"time"
)

// RateLimiter is a token bucket refilled at Rate tokens per second up to Burst.
type RateLimiter struct {
	rate  float64
	burst float64
	now   func() time.Time

	mu     sync.Mutex
	tokens float64
	last   time.Time
}

// NewRateLimiter creates a full bucket.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	if rate <= 0 {
		rate = 1
	}
	if burst <= 0 {
		burst = 1
	}
	now := time.Now
	return &RateLimiter{
		rate:   rate,
		burst:  float64(burst),
		now:    now,
		tokens: float64(burst),
		last:   now(),
	}
}

// Allow takes one token if available.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.tokens = min(rl.burst, rl.tokens+now.Sub(rl.last).Seconds()*rl.rate)
	rl.last = now
	if rl.tokens < 1 {
		return false
	}
	rl.tokens--
	return true
}

// LastUsed returns the time of the most recent Allow call.
func (rl *RateLimiter) LastUsed() time.Time {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.last
}
