package signing

import (
	"fmt"
	"time"

	"github.com/estatly/mediasign/util"
)

const (
	// DefaultMaxBatch is the largest number of references one presign request may carry.
	DefaultMaxBatch = 20
	// DefaultTTL is how long issued URLs stay valid.
	DefaultTTL = time.Hour

	defaultConcurrency   = 8
	defaultFetchMaxSize  = "15MB"
	defaultFetchTimeout  = 30 * time.Second
	defaultFetchInFlight = 16
	defaultFetchWait     = 2 * time.Second
	defaultUploadFolder  = "uploads"
	maxFolderSegmentSize = 64
)

// DefaultAllowedTypes is the upload allow list.
var DefaultAllowedTypes = []string{
	"image/jpeg",
	"image/png",
	"image/webp",
	"image/gif",
	"image/heic",
	"image/avif",
	"application/pdf",
}

// Config configures the presign endpoint.
type Config struct {
	// MaxBatch caps the number of references per request.
	MaxBatch int `yaml:"max_batch" mapstructure:"max_batch"`
	// TTL is the validity of issued URLs.
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
	// Concurrency bounds how many items of one request are signed at once.
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
	// PublicFallback declares that the bucket is publicly readable, so an
	// unsigned reference still loads. It is reported by /info and drives
	// whether clients probe identity fallbacks.
	PublicFallback bool `yaml:"public_fallback" mapstructure:"public_fallback"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.MaxBatch <= 0 {
		c.MaxBatch = DefaultMaxBatch
	}
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.MaxBatch <= 0 {
		return fmt.Errorf("presign: max_batch must be positive")
	}
	if c.TTL < time.Second || c.TTL > 7*24*time.Hour {
		return fmt.Errorf("presign: ttl must be between 1s and 7 days, got %s", c.TTL)
	}
	return nil
}

// FetchConfig configures the fetch-and-encode endpoint.
type FetchConfig struct {
	// MaxSize caps the fetched body ("15MB").
	MaxSize string `yaml:"max_size" mapstructure:"max_size"`
	// Timeout bounds the upstream request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// AllowedHosts restricts absolute URLs to these hosts. Empty allows any
	// host. Bare keys are always allowed since they are signed first.
	AllowedHosts []string `yaml:"allowed_hosts" mapstructure:"allowed_hosts"`
	// MaxInFlight caps concurrent downloads; each may buffer MaxSize.
	MaxInFlight int `yaml:"max_in_flight" mapstructure:"max_in_flight"`
	// QueueWait is how long a request waits for a download slot before
	// failing with 503. A negative value fails immediately.
	QueueWait time.Duration `yaml:"queue_wait" mapstructure:"queue_wait"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *FetchConfig) ApplyDefaults() {
	if c.MaxSize == "" {
		c.MaxSize = defaultFetchMaxSize
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultFetchTimeout
	}
	if c.MaxInFlight <= 0 {
		c.MaxInFlight = defaultFetchInFlight
	}
	if c.QueueWait == 0 {
		c.QueueWait = defaultFetchWait
	}
}

// Validate checks the configuration.
func (c *FetchConfig) Validate() error {
	if c.MaxBytes() <= 0 {
		return fmt.Errorf("fetch: invalid max_size %q", c.MaxSize)
	}
	return nil
}

// MaxBytes returns MaxSize in bytes.
func (c *FetchConfig) MaxBytes() int64 {
	return util.ParseSize(c.MaxSize, 0)
}

// UploadConfig configures the upload endpoint.
type UploadConfig struct {
	// DefaultFolder is used when the request names no folder.
	DefaultFolder string `yaml:"default_folder" mapstructure:"default_folder"`
	// AllowedTypes lists the accepted sniffed content types.
	AllowedTypes []string `yaml:"allowed_types" mapstructure:"allowed_types"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *UploadConfig) ApplyDefaults() {
	if c.DefaultFolder == "" {
		c.DefaultFolder = defaultUploadFolder
	}
	if len(c.AllowedTypes) == 0 {
		c.AllowedTypes = append([]string(nil), DefaultAllowedTypes...)
	}
}

// Validate checks the configuration.
func (c *UploadConfig) Validate() error {
	if util.SanitizePathSegment(c.DefaultFolder) == "" {
		return fmt.Errorf("upload: default_folder %q is not a valid path segment", c.DefaultFolder)
	}
	return nil
}
