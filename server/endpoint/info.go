package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/estatly/mediasign/version"
)

var startTime = time.Now()

// InfoFunc contributes service-specific settings to GET /info.
type InfoFunc func() map[string]any

// Info reports build information, uptime and the settings returned by extra,
// such as the presign TTL and whether identity fallbacks are publicly
// readable.
func Info(serviceName string, extra InfoFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		v := version.Get()
		body := gin.H{
			"service":    serviceName,
			"version":    v.Version,
			"git_commit": v.GitCommit,
			"go_version": v.GoVersion,
			"uptime":     time.Since(startTime).Round(time.Second).String(),
		}
		if extra != nil {
			for k, val := range extra() {
				body[k] = val
			}
		}
		c.JSON(http.StatusOK, body)
	}
}

// Version reports build version information.
func Version() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, version.Get())
	}
}
