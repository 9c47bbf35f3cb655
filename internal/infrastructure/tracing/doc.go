/*
Package tracing provides lightweight request tracing for the gateway.

Trace context travels in the X-Trace-ID and X-Span-ID headers. The HTTP
middleware continues an incoming trace (or starts one), stores it in the
request context and echoes it in the response headers. Outbound calls to the
list backend and the pricer forward the same context with
InjectTraceContext, so one trace ID ties a streamed response to every price
lookup it triggered.

Finished spans are buffered (1000) and logged by a collector goroutine
through zap; a full buffer drops spans instead of blocking requests.

	tracer := tracing.New("shopping-list-service", logger)
	router.Use(tracing.HTTPMiddleware(tracer))
*/
package tracing
