package server

import (
	"github.com/gin-gonic/gin"

	"github.com/estatly/mediasign/errors"
	"github.com/estatly/mediasign/logger"
)

// RespondWithError writes err as {"error", "code"}. Non-AppErrors become a
// generic 500. Server-side failures are logged with their cause; client
// errors are not.
func RespondWithError(c *gin.Context, err error) {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		appErr = errors.Internal(err)
	}
	if appErr.HTTPStatus >= 500 {
		l := logger.GetGlobalLogger().WithContext(c.Request.Context())
		if appErr.Cause != nil {
			l = l.WithError(appErr.Cause)
		}
		l.Error(appErr.Message, logger.Fields(
			"code", string(appErr.Code),
			"path", c.Request.URL.Path,
		))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}
