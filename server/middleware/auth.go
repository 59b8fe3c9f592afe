package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/estatly/mediasign/errors"
)

// ContextKeySubject holds the verified token subject in the gin context.
const ContextKeySubject = "subject"

// ContextKeyClaims holds the verified claims map in the gin context.
const ContextKeyClaims = "claims"

// TokenValidator verifies a bearer token and returns its claims. Returning
// an *errors.AppError (for example TokenExpired) controls the response body.
type TokenValidator func(token string) (map[string]any, error)

// AuthConfig configures bearer-token authentication.
type AuthConfig struct {
	Validator TokenValidator
	// Optional lets anonymous requests through while still verifying a token
	// when one is sent.
	Optional bool
}

// Auth requires a valid "Authorization: Bearer <token>" header and stores
// the claims under ContextKeyClaims and the "sub" claim under
// ContextKeySubject.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			if cfg.Optional {
				c.Next()
				return
			}
			abort(c, errors.Unauthorized("Authorization header required"))
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			abort(c, errors.Unauthorized("Invalid authorization header format"))
			return
		}

		claims, err := cfg.Validator(strings.TrimSpace(token))
		if err != nil {
			if appErr, ok := errors.AsAppError(err); ok {
				abort(c, appErr)
				return
			}
			abort(c, errors.InvalidToken())
			return
		}

		c.Set(ContextKeyClaims, claims)
		if sub, ok := claims["sub"].(string); ok {
			c.Set(ContextKeySubject, sub)
		}
		c.Next()
	}
}
