package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shoplist/shopping-gateway/internal/infrastructure/tracing"
)

// AccessLog logs one line per finished request. For streamed responses the
// duration covers the whole stream. Requests that end in a panic, including
// aborted streams, are logged as errors with aborted=true.
func AccessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		completed := false
		defer func() {
			logRequest(logger, c, start, !completed)
		}()

		c.Next()
		completed = true
	}
}

func logRequest(logger *zap.Logger, c *gin.Context, start time.Time, aborted bool) {
	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", c.Writer.Status()),
		zap.Int("bytes", c.Writer.Size()),
		zap.Duration("duration", time.Since(start)),
		zap.String("client_ip", c.ClientIP()),
		tracing.Field(c.Request.Context()),
	}
	if len(c.Errors) > 0 {
		fields = append(fields, zap.String("errors", c.Errors.String()))
	}
	if aborted {
		fields = append(fields, zap.Bool("aborted", true))
	}

	switch status := c.Writer.Status(); {
	case aborted || status >= 500:
		logger.Error("request", fields...)
	case status >= 400:
		logger.Warn("request", fields...)
	default:
		logger.Info("request", fields...)
	}
}
