package resolver

import (
	"fmt"
	"time"

	"github.com/estatly/mediasign/mediacache"
	"github.com/estatly/mediasign/validation"
)

const (
	// DefaultBatchSize matches the signing service's per-request limit.
	DefaultBatchSize = 20
	// DefaultPresignPath is the signing endpoint relative to BaseURL.
	DefaultPresignPath = "/api/media/presign"

	defaultTimeout     = 30 * time.Second
	defaultTTL         = time.Hour
	defaultMaxAttempts = 3
)

// Config configures the batch signing client.
type Config struct {
	// BaseURL is the signing service, e.g. "http://localhost:8080".
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// PresignPath is the presign endpoint path.
	PresignPath string `yaml:"presign_path" mapstructure:"presign_path"`

	// BatchSize is the number of references per request.
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"`

	// ServerMaxBatch is the largest batch the service accepts. BatchSize is
	// clamped to it.
	ServerMaxBatch int `yaml:"server_max_batch" mapstructure:"server_max_batch"`

	// MaxConcurrentBatches bounds in-flight batches. Zero issues every batch
	// at once.
	MaxConcurrentBatches int `yaml:"max_concurrent_batches" mapstructure:"max_concurrent_batches"`

	// Timeout bounds one request attempt.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// MaxAttempts is the number of attempts for a batch that fails with a
	// network error or a 5xx. 1 disables retries.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`

	// BreakerThreshold opens a circuit breaker shared by all calls after
	// this many consecutive failed attempts. Zero disables the breaker so
	// that failing batches never short-circuit healthy ones.
	BreakerThreshold int `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`

	// TTL is the validity assumed for signed URLs when the service does not
	// report one.
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`

	// Skew is subtracted from the TTL before caching a signed URL.
	Skew time.Duration `yaml:"skew" mapstructure:"skew"`
}

// ApplyDefaults fills in zero-valued fields and clamps BatchSize.
func (c *Config) ApplyDefaults() {
	if c.PresignPath == "" {
		c.PresignPath = DefaultPresignPath
	}
	if c.ServerMaxBatch <= 0 {
		c.ServerMaxBatch = DefaultBatchSize
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.BatchSize > c.ServerMaxBatch {
		c.BatchSize = c.ServerMaxBatch
	}
	if c.MaxConcurrentBatches < 0 {
		c.MaxConcurrentBatches = 0
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.BreakerThreshold < 0 {
		c.BreakerThreshold = 0
	}
	if c.TTL <= 0 {
		c.TTL = defaultTTL
	}
	if c.Skew == 0 {
		c.Skew = mediacache.DefaultSkew
	}
}

// Validate checks the configuration after defaults are applied.
func (c *Config) Validate() error {
	if appErr := validation.New().
		Required("base_url", c.BaseURL).
		HTTPURL("base_url", c.BaseURL).
		Path("presign_path", c.PresignPath).
		Validate(); appErr != nil {
		return fmt.Errorf("resolver: %w", appErr)
	}
	if c.Skew < 0 {
		return fmt.Errorf("resolver: skew must not be negative")
	}
	return nil
}
