package auth

import (
	stderrors "errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/estatly/mediasign/auth/jwt"
	"github.com/estatly/mediasign/errors"
	"github.com/estatly/mediasign/server/middleware"
)

// Claims is the subset of a Supabase access token the service reads.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// SetDefaults fills time and issuer claims for generated tokens.
func (c *Claims) SetDefaults(now time.Time, ttl time.Duration, issuer, audience string) {
	if c.IssuedAt == nil {
		c.IssuedAt = jwt.NewNumericDate(now)
	}
	if c.ExpiresAt == nil {
		c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	if c.Issuer == "" {
		c.Issuer = issuer
	}
	if len(c.Audience) == 0 && audience != "" {
		c.Audience = []string{audience}
	}
}

// Verifier checks Supabase-issued bearer tokens.
type Verifier struct {
	svc *jwt.Service[*Claims]
}

// NewVerifier creates a verifier from cfg. cfg must be enabled.
func NewVerifier(cfg Config) (*Verifier, error) {
	cfg.ApplyDefaults()
	svc, err := jwt.NewService(jwt.Config{
		Secret:   cfg.JWTSecret,
		Method:   jwt.HS256,
		Issuer:   cfg.Issuer,
		Audience: cfg.Audience,
		Leeway:   cfg.Leeway,
	}, func() *Claims { return &Claims{} })
	if err != nil {
		return nil, err
	}
	return &Verifier{svc: svc}, nil
}

// Verify parses token and maps failures to TOKEN_EXPIRED or INVALID_TOKEN.
func (v *Verifier) Verify(token string) (*Claims, error) {
	claims, err := v.svc.Parse(token)
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.TokenExpired().WithCause(err)
		}
		return nil, errors.InvalidToken().WithCause(err)
	}
	if claims.Subject == "" {
		return nil, errors.InvalidToken()
	}
	return claims, nil
}

// Validate adapts Verify to middleware.TokenValidator.
func (v *Verifier) Validate(token string) (map[string]any, error) {
	claims, err := v.Verify(token)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"sub":   claims.Subject,
		"email": claims.Email,
		"role":  claims.Role,
	}, nil
}

// Issue signs claims with the verifier's secret. Used by tests and the
// CLI's local tooling.
func (v *Verifier) Issue(claims *Claims) (string, error) {
	return v.svc.Generate(claims)
}

// Guard returns the upload guard for cfg, or nil when auth is disabled.
func Guard(cfg Config) (gin.HandlerFunc, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	v, err := NewVerifier(cfg)
	if err != nil {
		return nil, err
	}
	return middleware.Auth(middleware.AuthConfig{
		Validator: v.Validate,
		Optional:  cfg.Optional,
	}), nil
}
