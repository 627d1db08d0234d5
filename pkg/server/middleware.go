package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/entrhq/titleforge/pkg/logging"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
)

// requestLogger assigns a request ID, reusing one sent by the client, and
// logs each request when it completes.
func requestLogger(log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(requestIDHeader, requestID)

		c.Next()

		entry := log.With(
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
		if len(c.Errors) > 0 {
			entry.Warnf("request failed: %s", c.Errors.String())
			return
		}
		entry.Infof("request completed")
	}
}

// instrument records per-route counts and latency.
func instrument(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		operation := c.FullPath()
		if operation == "" {
			operation = "unmatched"
		}
		m.observe(operation, c.Writer.Status(), time.Since(start))
	}
}
