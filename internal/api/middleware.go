package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// loggingMiddleware logs every request except /health, which fires on a
// tight poll interval and would otherwise dominate the log stream —
// same exclusion the teacher's middleware makes.
func (h *Handler) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		if path == "/health" {
			return
		}

		latency := time.Since(start)
		level := zap.InfoLevel
		if c.Writer.Status() >= 400 {
			level = zap.ErrorLevel
		}

		if ce := h.logger.Check(level, "http request"); ce != nil {
			ce.Write(
				zap.String("method", c.Request.Method),
				zap.String("path", path),
				zap.Int("status", c.Writer.Status()),
				zap.Duration("latency", latency),
				zap.String("client_ip", c.ClientIP()),
			)
		}
	}
}

// corsMiddleware allows cross-origin access from the status dashboard
// (out of scope for this core, per spec.md §1, but ingress still needs
// to not reject browser preflight requests).
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
