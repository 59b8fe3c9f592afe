package storage

import (
	"fmt"

	"github.com/estatly/mediasign/util"
)

// Provider names.
const (
	ProviderS3       = "s3"
	ProviderSupabase = "supabase"
)

const (
	defaultProvider    = ProviderS3
	defaultRegion      = "us-east-1"
	defaultMaxFileSize = "10MB"
)

// Config holds object storage configuration. Settings for both providers
// live side by side so that legacy AWS_* variables map onto them directly.
type Config struct {
	// Provider selects the backend ("s3" or "supabase").
	Provider string `yaml:"provider" mapstructure:"provider"`

	// Bucket is the bucket every key is relative to.
	Bucket string `yaml:"bucket" mapstructure:"bucket"`

	// Region is the AWS region of the bucket.
	Region string `yaml:"region" mapstructure:"region"`

	// Endpoint overrides the S3 endpoint (MinIO, R2, localstack).
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`

	// ForcePathStyle addresses buckets as {endpoint}/{bucket}/{key}.
	ForcePathStyle bool `yaml:"force_path_style" mapstructure:"force_path_style"`

	// AccessKey is the AWS access key ID.
	AccessKey string `yaml:"access_key" mapstructure:"access_key"`

	// SecretKey is the AWS secret key or the Supabase service-role key.
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key"`

	// URL is the Supabase project URL (https://xyz.supabase.co).
	URL string `yaml:"url" mapstructure:"url"`

	// MaxFileSize caps uploads ("10MB", "512KB").
	MaxFileSize string `yaml:"max_file_size" mapstructure:"max_file_size"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
// Region is only defaulted for custom endpoints: against AWS itself an
// absent region is a configuration error.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = defaultProvider
	}
	if c.Region == "" && c.Endpoint != "" {
		c.Region = defaultRegion
	}
	if c.MaxFileSize == "" {
		c.MaxFileSize = defaultMaxFileSize
	}
}

// Missing lists the required settings that are not set for the selected
// provider. An empty result means the store can be built.
func (c *Config) Missing() []string {
	var missing []string
	add := func(name, value string) {
		if value == "" {
			missing = append(missing, name)
		}
	}
	switch c.Provider {
	case ProviderSupabase:
		add("storage.url", c.URL)
		add("storage.bucket", c.Bucket)
		add("storage.secret_key", c.SecretKey)
	default:
		add("storage.region", c.Region)
		add("storage.bucket", c.Bucket)
		add("storage.access_key", c.AccessKey)
		add("storage.secret_key", c.SecretKey)
	}
	return missing
}

// Validate checks the parts of the configuration that are never optional.
// Missing credentials are not an error here; see Missing.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderS3, ProviderSupabase:
	default:
		return fmt.Errorf("storage: unsupported provider %q", c.Provider)
	}
	if c.MaxFileSizeBytes() <= 0 {
		return fmt.Errorf("storage: invalid max_file_size %q", c.MaxFileSize)
	}
	return nil
}

// MaxFileSizeBytes returns MaxFileSize in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return util.ParseSize(c.MaxFileSize, 0)
}
