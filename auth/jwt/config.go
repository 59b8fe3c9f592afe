package jwt

import (
	"errors"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// SigningMethod is an HMAC algorithm name.
type SigningMethod string

const (
	HS256 SigningMethod = "HS256"
	HS384 SigningMethod = "HS384"
	HS512 SigningMethod = "HS512"
)

// Config configures an HMAC token service. Supabase signs its access tokens
// with the project's JWT secret using HS256.
type Config struct {
	Secret string
	// Method defaults to HS256.
	Method SigningMethod
	// Issuer is required in the "iss" claim when set.
	Issuer string
	// Audience is required in the "aud" claim when set.
	Audience string
	// Leeway tolerates clock skew on exp/nbf/iat.
	Leeway time.Duration
	// TTL is used by Generate when the claims carry no expiry.
	TTL time.Duration
}

func (c *Config) applyDefaults() {
	if c.Method == "" {
		c.Method = HS256
	}
	if c.TTL == 0 {
		c.TTL = time.Hour
	}
}

func (c *Config) validate() error {
	if c.Secret == "" {
		return errors.New("secret is required")
	}
	switch c.Method {
	case HS256, HS384, HS512:
		return nil
	default:
		return errors.New("method must be one of HS256, HS384, HS512")
	}
}

func (c *Config) signingMethod() gojwt.SigningMethod {
	return gojwt.GetSigningMethod(string(c.Method))
}
