package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/estatly/mediasign/errors"
)

// Middleware wraps an http.Handler. Server-level concerns that must apply to
// every request (CORS preflight, body limits) use this form and wrap the
// whole handler; request-scoped ones are gin.HandlerFunc.
type Middleware func(http.Handler) http.Handler

// Chain composes middleware. The first in the list is the outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// abort stops the gin chain with the service's error body.
func abort(c *gin.Context, err *errors.AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus, err.ToResponse())
}
