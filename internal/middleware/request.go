package middleware

import (
	"log/slog"
	"time"

	"github.com/JAFletch-surg/dukes-club/internal/audit"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request ID in and out.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// RequestContext assigns a request ID and attaches client details for audit
// records to the request context.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)

		ctx := audit.WithRequestMeta(c.Request.Context(), audit.RequestMeta{
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			RequestID: id,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequestID returns the ID assigned by RequestContext.
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// RequestLogger logs one line per request.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", RequestID(c),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}
		logger.Log(c.Request.Context(), level, "Request", attrs...)
	}
}
