// Package jwt parses and issues HMAC-signed JWTs into a caller-defined
// claims type.
//
//	type Claims struct {
//	    jwt.RegisteredClaims
//	    Role string `json:"role"`
//	}
//
//	svc, err := jwt.NewService(cfg, func() *Claims { return &Claims{} })
//	claims, err := svc.Parse(token)
package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// RegisteredClaims re-exports the standard claim set for embedding.
type RegisteredClaims = gojwt.RegisteredClaims

// NewNumericDate re-exports the claim time constructor.
var NewNumericDate = gojwt.NewNumericDate

// ErrTokenExpired is wrapped by Parse for tokens past their expiry.
var ErrTokenExpired = gojwt.ErrTokenExpired

// Service parses and generates tokens with claims of type T.
type Service[T gojwt.Claims] struct {
	cfg      Config
	newEmpty func() T
}

// NewService validates cfg and creates a service. newEmpty returns a fresh
// claims value for each Parse.
func NewService[T gojwt.Claims](cfg Config, newEmpty func() T) (*Service[T], error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("jwt: %w", err)
	}
	return &Service[T]{cfg: cfg, newEmpty: newEmpty}, nil
}

// Parse verifies the signature, algorithm, time claims and the configured
// issuer and audience.
func (s *Service[T]) Parse(token string) (T, error) {
	var zero T
	claims := s.newEmpty()
	parsed, err := gojwt.ParseWithClaims(token, claims, s.keyFunc, s.parserOptions()...)
	if err != nil {
		return zero, fmt.Errorf("jwt: parse token: %w", err)
	}
	if !parsed.Valid {
		return zero, errors.New("jwt: invalid token")
	}
	out, ok := parsed.Claims.(T)
	if !ok {
		return zero, errors.New("jwt: unexpected claims type")
	}
	return out, nil
}

// Generate signs claims. Claims implementing SetDefaults get issued-at,
// expiry and issuer filled first.
func (s *Service[T]) Generate(claims T) (string, error) {
	if d, ok := any(claims).(interface {
		SetDefaults(now time.Time, ttl time.Duration, issuer, audience string)
	}); ok {
		d.SetDefaults(time.Now(), s.cfg.TTL, s.cfg.Issuer, s.cfg.Audience)
	}
	signed, err := gojwt.NewWithClaims(s.cfg.signingMethod(), claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, nil
}

func (s *Service[T]) keyFunc(token *gojwt.Token) (interface{}, error) {
	if token.Method.Alg() != string(s.cfg.Method) {
		return nil, fmt.Errorf("jwt: unexpected signing method: %s", token.Method.Alg())
	}
	return []byte(s.cfg.Secret), nil
}

func (s *Service[T]) parserOptions() []gojwt.ParserOption {
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{string(s.cfg.Method)}),
		gojwt.WithExpirationRequired(),
		gojwt.WithIssuedAt(),
	}
	if s.cfg.Leeway > 0 {
		opts = append(opts, gojwt.WithLeeway(s.cfg.Leeway))
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, gojwt.WithIssuer(s.cfg.Issuer))
	}
	if s.cfg.Audience != "" {
		opts = append(opts, gojwt.WithAudience(s.cfg.Audience))
	}
	return opts
}
