package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stitchline/stitchline-backend/pkg/logger"
)

// LoggingMiddleware logs every request with a per-request structured logger
// that handlers can pick up from the context.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		requestID := c.GetString("request_id")
		if requestID == "" {
			requestID = uuid.NewString()
			c.Set("request_id", requestID)
		}

		log := logger.WithContext(map[string]interface{}{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"ip":         c.ClientIP(),
		})
		c.Set("logger", log)

		c.Next()

		latency := time.Since(startTime)
		statusCode := c.Writer.Status()

		fields := map[string]interface{}{
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"body_size":   c.Writer.Size(),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		msg := "Request completed"
		switch {
		case statusCode >= 500:
			log.Error(msg, nil, fields)
		case statusCode >= 400:
			log.Warn(msg, fields)
		default:
			log.Info(msg, fields)
		}
	}
}

// GetLoggerFromContext retrieves the request logger, falling back to the
// global one.
func GetLoggerFromContext(c *gin.Context) *logger.Logger {
	if log, exists := c.Get("logger"); exists {
		if l, ok := log.(*logger.Logger); ok {
			return l
		}
	}
	return logger.Get()
}
