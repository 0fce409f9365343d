package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillhub-backend/internal/platform/ctxutil"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
)

// RequestLogger writes one line per request: info below 400, warn for 4xx and
// error for 5xx. Successful health probes are not logged.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		status := c.Writer.Status()
		if status < 400 && unobservedRoutes[route] {
			return
		}
		if route == "" {
			route = c.Request.URL.Path
		}

		ctx := c.Request.Context()
		fields := append([]any{
			"method", c.Request.Method,
			"path", route,
			"status", status,
			"bytes", c.Writer.Size(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}, ctxutil.GetTraceData(ctx).Fields()...)
		fields = append(fields, ctxutil.GetRequestData(ctx).Fields()...)
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}
