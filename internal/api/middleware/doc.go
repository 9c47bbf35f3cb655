// Package middleware provides the HTTP middleware of the gateway.
//
// Middleware stack includes:
//   - CORS: Cross-origin resource sharing, read-only methods
//   - RateLimit: Per-IP token bucket rate limiting with idle eviction
//   - AccessLog: One zap line per finished request
//   - Recovery: Panic recovery that lets aborted streams drop the connection
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
//	router.Use(middleware.AccessLog(logger))
package middleware
