package mediacache

import (
	"context"
	"time"
)

// DefaultSkew is subtracted from a signed URL's validity when caching it, so
// an entry is never served within a minute of the URL actually expiring.
const DefaultSkew = time.Minute

// Entry is a cached signed URL with its absolute expiry.
type Entry struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Fresh reports whether the entry may still be served at now.
func (e Entry) Fresh(now time.Time) bool {
	return e.URL != "" && now.Before(e.ExpiresAt)
}

// Cache maps references to signed URLs. The caller owns the cache and
// passes it explicitly; it is the only state shared across resolutions.
// Implementations return only fresh entries from Get.
type Cache interface {
	Get(ctx context.Context, refs []string) (map[string]Entry, error)
	Set(ctx context.Context, entries map[string]Entry) error
}

// Expiry returns the cache expiry for a URL signed at now with the given
// TTL: now + ttl - skew. A skew at or above ttl yields now, so the entry is
// never fresh.
func Expiry(now time.Time, ttl, skew time.Duration) time.Time {
	if skew >= ttl {
		return now
	}
	return now.Add(ttl - skew)
}

// Config selects and sizes the cache.
type Config struct {
	// Size bounds the in-memory LRU.
	Size int `yaml:"size" mapstructure:"size"`
	// Skew is subtracted from the signing TTL.
	Skew time.Duration `yaml:"skew" mapstructure:"skew"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Size <= 0 {
		c.Size = 4096
	}
	if c.Skew == 0 {
		c.Skew = DefaultSkew
	}
}
