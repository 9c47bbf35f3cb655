package tracing

import (
	"errors"

	"github.com/gin-gonic/gin"
)

// ErrRequestAborted is recorded on spans of requests that ended in a panic
var ErrRequestAborted = errors.New("request aborted")

// HTTPMiddleware creates Gin middleware for HTTP tracing
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID, parentID := ExtractTraceContext(c.Request.Header)
		ctx := WithTraceContext(c.Request.Context(), traceID, parentID)

		span, ctx := tracer.StartSpan(ctx, c.Request.Method+" "+c.FullPath())
		span.SetTag("http.method", c.Request.Method)
		span.SetTag("http.path", c.Request.URL.Path)

		c.Request = c.Request.WithContext(ctx)

		c.Header(TraceHeader, span.TraceID.String())
		c.Header(SpanHeader, span.SpanID.String())

		completed := false
		defer func() {
			span.SetStatus(c.Writer.Status())
			switch {
			case len(c.Errors) > 0:
				span.SetError(c.Errors.Last())
			case !completed:
				span.SetError(ErrRequestAborted)
			}

			span.Finish()
			tracer.Submit(span)
		}()

		c.Next()
		completed = true
	}
}
