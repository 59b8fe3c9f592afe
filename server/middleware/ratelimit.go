package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/estatly/mediasign/errors"
	"github.com/estatly/mediasign/resilience"
)

// RateLimitConfig configures per-client token buckets.
type RateLimitConfig struct {
	// RequestsPerSecond is the refill rate. Zero disables limiting.
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	// Burst is the bucket size. Defaults to the per-second rate rounded up.
	Burst int `yaml:"burst" mapstructure:"burst"`
	// KeyFunc picks the bucket for a request. Defaults to client IP.
	KeyFunc func(*gin.Context) string `yaml:"-" mapstructure:"-"`
	// IdleTTL drops buckets unused for this long.
	IdleTTL time.Duration `yaml:"idle_ttl" mapstructure:"idle_ttl"`
}

// RateLimit answers 429 RATE_LIMITED once a client's bucket is empty.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.RequestsPerSecond <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.RequestsPerSecond + 0.999)
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = IPBasedKey
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}

	b := &buckets{
		limiters: make(map[string]*resilience.RateLimiter),
		rate:     cfg.RequestsPerSecond,
		burst:    cfg.Burst,
		idle:     cfg.IdleTTL,
	}

	return func(c *gin.Context) {
		if !b.get(cfg.KeyFunc(c)).Allow() {
			c.Header("Retry-After", "1")
			abort(c, errors.RateLimited())
			return
		}
		c.Next()
	}
}

// IPBasedKey keys buckets by client IP.
func IPBasedKey(c *gin.Context) string {
	return c.ClientIP()
}

// SubjectBasedKey keys buckets by the authenticated subject, falling back to
// client IP for anonymous requests.
func SubjectBasedKey(c *gin.Context) string {
	if sub := c.GetString(ContextKeySubject); sub != "" {
		return sub
	}
	return c.ClientIP()
}

type buckets struct {
	mu       sync.Mutex
	limiters map[string]*resilience.RateLimiter
	rate     float64
	burst    int
	idle     time.Duration
	swept    time.Time
}

func (b *buckets) get(key string) *resilience.RateLimiter {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if now.Sub(b.swept) > b.idle {
		for k, l := range b.limiters {
			if now.Sub(l.LastUsed()) > b.idle {
				delete(b.limiters, k)
			}
		}
		b.swept = now
	}

	l, ok := b.limiters[key]
	if !ok {
		l = resilience.NewRateLimiter(b.rate, b.burst)
		b.limiters[key] = l
	}
	return l
}
