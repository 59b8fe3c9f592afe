package service

import (
	"fmt"

	"github.com/estatly/mediasign/auth"
	"github.com/estatly/mediasign/config"
	"github.com/estatly/mediasign/export"
	"github.com/estatly/mediasign/gallery"
	"github.com/estatly/mediasign/mediacache"
	"github.com/estatly/mediasign/observability"
	"github.com/estatly/mediasign/redis"
	"github.com/estatly/mediasign/resolver"
	"github.com/estatly/mediasign/server"
	"github.com/estatly/mediasign/signing"
	"github.com/estatly/mediasign/storage"
)

// Name is the service name used for config discovery and telemetry.
const Name = "mediasign"

// EnvPrefix scopes environment variables, e.g. MEDIASIGN_PRESIGN_TTL.
const EnvPrefix = "MEDIASIGN"

// Config is the complete configuration of the signing service and of the
// client-side commands that talk to it.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Storage       storage.Config       `yaml:"storage" mapstructure:"storage"`
	Presign       signing.Config       `yaml:"presign" mapstructure:"presign"`
	Fetch         signing.FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
	Upload        signing.UploadConfig `yaml:"upload" mapstructure:"upload"`
	Auth          auth.Config          `yaml:"auth" mapstructure:"auth"`
	Redis         redis.Config         `yaml:"redis" mapstructure:"redis"`
	Cache         mediacache.Config    `yaml:"cache" mapstructure:"cache"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
	Client        resolver.Config      `yaml:"client" mapstructure:"client"`
	Gallery       gallery.Config       `yaml:"gallery" mapstructure:"gallery"`
	Export        export.Config        `yaml:"export" mapstructure:"export"`
}

// envAliases maps config keys onto the environment names deployments
// already use for the bucket and the Supabase project.
var envAliases = map[string][]string{
	"storage.region":     {"AWS_REGION", "AWS_DEFAULT_REGION"},
	"storage.access_key": {"AWS_ACCESS_KEY_ID"},
	"storage.secret_key": {"AWS_SECRET_ACCESS_KEY", "SUPABASE_SERVICE_ROLE_KEY"},
	"storage.bucket":     {"AWS_S3_BUCKET_NAME", "S3_BUCKET"},
	"storage.endpoint":   {"AWS_ENDPOINT_URL_S3", "AWS_ENDPOINT_URL"},
	"storage.url":        {"SUPABASE_URL"},
	"auth.jwt_secret":    {"SUPABASE_JWT_SECRET"},
	"server.port":        {"PORT"},
	"redis.addr":         {"REDIS_ADDR"},
}

// defaults seeds every key that is only ever set from the environment, so
// viper unmarshals it even without a config file.
var defaults = map[string]any{
	"name":                    Name,
	"storage.provider":        storage.ProviderS3,
	"storage.bucket":          "",
	"storage.region":          "",
	"storage.endpoint":        "",
	"storage.access_key":      "",
	"storage.secret_key":      "",
	"storage.url":             "",
	"presign.public_fallback": false,
	"auth.jwt_secret":         "",
	"redis.enabled":           false,
	"redis.addr":              "",
	"client.base_url":         "",
	"export.service_url":      "",
}

// LoadConfig reads configuration from the optional YAML file, .env and the
// environment.
func LoadConfig(opts ...config.LoaderOption) (*Config, error) {
	cfg := &Config{}
	opts = append([]config.LoaderOption{
		config.WithEnvPrefix(EnvPrefix),
		config.WithAliases(envAliases),
		config.WithDefaults(defaults),
	}, opts...)
	if err := config.Load(Name, cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills every section. The client sections inherit the
// server's batch limit and TTL so a single file configures both ends.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	if c.Name == "" {
		c.Name = Name
	}
	c.Server.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.Presign.ApplyDefaults()
	c.Fetch.ApplyDefaults()
	c.Upload.ApplyDefaults()
	c.Auth.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Cache.ApplyDefaults()
	c.Observability.ApplyDefaults()

	if c.Client.ServerMaxBatch == 0 {
		c.Client.ServerMaxBatch = c.Presign.MaxBatch
	}
	if c.Client.TTL == 0 {
		c.Client.TTL = c.Presign.TTL
	}
	if c.Client.Skew == 0 {
		c.Client.Skew = c.Cache.Skew
	}
	c.Client.ApplyDefaults()

	if !c.Gallery.PublicFallback {
		c.Gallery.PublicFallback = c.Presign.PublicFallback
	}
	c.Gallery.ApplyDefaults()
	c.Export.ApplyDefaults()
}

// Validate checks the server-side sections. Missing storage settings are
// not an error: the service starts and reports MISCONFIGURED per request.
// Client sections are validated by the commands that use them.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	checks := []struct {
		name string
		fn   func() error
	}{
		{"server", c.Server.Validate},
		{"storage", c.Storage.Validate},
		{"presign", c.Presign.Validate},
		{"fetch", c.Fetch.Validate},
		{"upload", c.Upload.Validate},
		{"auth", c.Auth.Validate},
		{"redis", c.Redis.Validate},
		{"observability", c.Observability.Validate},
	}
	for _, check := range checks {
		if err := check.fn(); err != nil {
			return fmt.Errorf("%s: %w", check.name, err)
		}
	}
	return nil
}
