package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yungbote/skillhub-backend/internal/observability"
)

// unobservedRoutes are scraped or probed constantly and would drown the
// latency histograms.
var unobservedRoutes = map[string]bool{
	"/metrics":     true,
	"/healthcheck": true,
	"/readyz":      true,
}

// Metrics records in-flight requests and latency per route template. Unmatched
// paths share the "unmatched" label so probes for random URLs cannot explode
// cardinality.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if m == nil || unobservedRoutes[route] {
			c.Next()
			return
		}
		if route == "" {
			route = "unmatched"
		}

		m.ApiInflightInc()
		start := time.Now()
		defer func() {
			m.ApiInflightDec()
			m.ObserveAPI(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
		}()
		c.Next()
	}
}
