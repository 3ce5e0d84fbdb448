package middleware

import (
	"time"

	"github.com/bizcribe/bizcribe-backend/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ContextRequestID = "request_id"
	ContextLogger    = "logger"
)

// RequestLogging assigns each request an ID, stores a request-scoped logger
// on the context and logs method, path, status and latency on completion.
func RequestLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(ContextRequestID, requestID)
		c.Header("X-Request-ID", requestID)

		requestLogger := logger.WithContext(map[string]interface{}{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		})
		c.Set(ContextLogger, requestLogger)

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := map[string]interface{}{
			"status":     c.Writer.Status(),
			"latency_ms": latency.Milliseconds(),
			"client_ip":  c.ClientIP(),
		}
		if userID, ok := GetUserID(c); ok {
			fields["user_id"] = userID
		}

		switch {
		case c.Writer.Status() >= 500:
			requestLogger.Error("Request failed", nil, fields)
		case c.Writer.Status() >= 400:
			requestLogger.Warn("Request rejected", fields)
		default:
			requestLogger.Info("Request completed", fields)
		}
	}
}

// GetLoggerFromContext returns the request-scoped logger, falling back to
// the global logger when middleware did not run.
func GetLoggerFromContext(c *gin.Context) *logger.Logger {
	if v, exists := c.Get(ContextLogger); exists {
		if l, ok := v.(*logger.Logger); ok {
			return l
		}
	}
	return logger.Get()
}
