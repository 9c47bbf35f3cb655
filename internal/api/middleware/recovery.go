package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shoplist/shopping-gateway/internal/infrastructure/tracing"
)

// Recovery turns handler panics into a 500 response. http.ErrAbortHandler is
// passed through so net/http drops the connection; handlers use it to end a
// stream without its terminating chunk.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if err, ok := r.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(r)
			}

			logger.Error("handler panic",
				zap.Any("panic", r),
				zap.String("path", c.Request.URL.Path),
				zap.Stack("stack"),
				tracing.Field(c.Request.Context()))

			if c.Writer.Written() {
				panic(http.ErrAbortHandler)
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}()
		c.Next()
	}
}
