/*
Package monitoring provides Prometheus metrics for the gateway.

# Features

- HTTP request metrics (count, latency per route template)
- List backend fetches by outcome
- Price lookups by outcome: priced, failed, timeout, circuit_open, cancelled
- Circuit breaker state gauge and transition counter
- Stream metrics: active streams, written lines, end reason

# Usage

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)
	router.Use(monitoring.Middleware(metrics))

	end := metrics.StreamStarted()
	defer end("complete")

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
