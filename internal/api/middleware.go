package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"welchpower/internal"
	"welchpower/internal/metrics"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
)

// RequestID tags every request with an id, reusing a valid incoming one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// Observe logs each request and records its latency
func Observe(collector *metrics.Collector, logger *internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		elapsed := time.Since(start)
		status := c.Writer.Status()
		if collector != nil {
			collector.RecordHTTPRequest(c.Request.Method, path, status, elapsed)
		}
		logger.With("request_id", c.GetString(requestIDKey)).
			Info("%s %s -> %d (%s)", c.Request.Method, path, status, elapsed)
	}
}
