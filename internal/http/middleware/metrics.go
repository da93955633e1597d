package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pulse-backend/internal/observability"
)

// unobserved routes are either scrapes or session-long streams whose latency
// would swamp the histogram.
var unobserved = map[string]bool{
	"/metrics":    true,
	"/api/stream": true,
}

// Metrics records dashboard API counts and latency per matched route.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		route := c.FullPath()
		if unobserved[route] {
			c.Next()
			return
		}
		began := time.Now()
		c.Next()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveAPI(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(began))
	}
}
