package export

import (
	"fmt"
	"time"

	"github.com/estatly/mediasign/util"
	"github.com/estatly/mediasign/validation"
)

const (
	// DefaultFetchPath is the fetch-and-encode endpoint relative to ServiceURL.
	DefaultFetchPath = "/api/media/fetch"

	defaultTimeout     = 30 * time.Second
	defaultMaxSize     = "15MB"
	defaultConcurrency = 4
)

// Config configures media embedding.
type Config struct {
	// ServiceURL is the signing service. Empty skips the server path.
	ServiceURL string `yaml:"service_url" mapstructure:"service_url"`

	// FetchPath is the fetch endpoint path.
	FetchPath string `yaml:"fetch_path" mapstructure:"fetch_path"`

	// Timeout bounds one download.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// MaxSize caps a downloaded object, e.g. "15MB".
	MaxSize string `yaml:"max_size" mapstructure:"max_size"`

	// Concurrency bounds embeds in flight for one document.
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.FetchPath == "" {
		c.FetchPath = DefaultFetchPath
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxSize == "" {
		c.MaxSize = defaultMaxSize
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
}

// Validate checks the configuration after defaults are applied.
func (c *Config) Validate() error {
	if c.MaxBytes() <= 0 {
		return fmt.Errorf("export: invalid max_size %q", c.MaxSize)
	}
	if appErr := validation.New().
		HTTPURL("service_url", c.ServiceURL).
		Path("fetch_path", c.FetchPath).
		Validate(); appErr != nil {
		return fmt.Errorf("export: %w", appErr)
	}
	return nil
}

// MaxBytes returns MaxSize in bytes.
func (c *Config) MaxBytes() int64 {
	return util.ParseSize(c.MaxSize, 0)
}
