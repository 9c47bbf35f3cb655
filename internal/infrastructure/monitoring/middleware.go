package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// AbortedStatus labels requests that ended in a panic, such as aborted streams
const AbortedStatus = "aborted"

// Middleware creates a Gin middleware for metrics collection
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		status := ""
		defer func() {
			// Route template keeps label cardinality bounded
			path := c.FullPath()
			if path == "" {
				path = "unmatched"
			}
			if status == "" {
				status = AbortedStatus
			}
			metrics.RecordHTTPRequest(c.Request.Method, path, status, time.Since(start))
		}()

		c.Next()
		status = strconv.Itoa(c.Writer.Status())
	}
}
