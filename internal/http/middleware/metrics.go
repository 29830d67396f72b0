package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/examprep-backend/internal/observability"
)

// Metrics records request count and latency per matched route. Unmatched
// paths share one label so scanners cannot grow the series count, and the
// scrape endpoint does not observe itself.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		m.ApiInflightInc()
		defer m.ApiInflightDec()

		c.Next()

		if route == "" {
			route = "unmatched"
		}
		m.ObserveAPI(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
