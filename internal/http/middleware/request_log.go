package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/examprep-backend/internal/http/response"
	"github.com/yungbote/examprep-backend/internal/platform/ctxutil"
	"github.com/yungbote/examprep-backend/internal/platform/logger"
)

// RequestLogger writes one access line per request. Streams are logged when
// they close, so their duration is the connection lifetime.
func RequestLogger(baseLog *logger.Logger) gin.HandlerFunc {
	if baseLog == nil {
		return func(c *gin.Context) { c.Next() }
	}
	log := baseLog.With("component", "HTTP")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		fields := append([]interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}, ctxutil.LogFields(c.Request.Context())...)
		if code := c.GetString(response.ErrorCodeKey); code != "" {
			fields = append(fields, "error_code", code)
		}

		switch {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Debug("request", fields...)
		}
	}
}
