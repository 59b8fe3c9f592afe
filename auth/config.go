package auth

import (
	"fmt"
	"time"
)

// DefaultAudience is the "aud" claim Supabase puts on signed-in users'
// access tokens.
const DefaultAudience = "authenticated"

// Config controls bearer-token verification on the upload endpoint.
// Verification is active when JWTSecret is set.
type Config struct {
	// JWTSecret is the Supabase project JWT secret (HS256).
	JWTSecret string `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	// Issuer, when set, must match "iss", e.g. https://<ref>.supabase.co/auth/v1.
	Issuer   string `yaml:"issuer" mapstructure:"issuer"`
	Audience string `yaml:"audience" mapstructure:"audience"`
	// Optional accepts anonymous uploads while still rejecting bad tokens.
	Optional bool          `yaml:"optional" mapstructure:"optional"`
	Leeway   time.Duration `yaml:"leeway" mapstructure:"leeway"`
}

// Enabled reports whether upload requests are verified.
func (c *Config) Enabled() bool {
	return c.JWTSecret != ""
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Audience == "" {
		c.Audience = DefaultAudience
	}
	if c.Leeway == 0 {
		c.Leeway = 30 * time.Second
	}
}

// Validate checks for invalid values.
func (c *Config) Validate() error {
	if c.Enabled() && len(c.JWTSecret) < 16 {
		return fmt.Errorf("auth.jwt_secret must be at least 16 characters")
	}
	if c.Leeway < 0 {
		return fmt.Errorf("auth.leeway must be non-negative")
	}
	return nil
}

// Describe is the startup summary one-liner.
func (c *Config) Describe() string {
	if !c.Enabled() {
		return "upload auth disabled"
	}
	mode := "required"
	if c.Optional {
		mode = "optional"
	}
	return fmt.Sprintf("JWT(HS256) aud=%s %s", c.Audience, mode)
}
