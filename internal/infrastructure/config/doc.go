// Package config provides 12-factor configuration for the shopping list gateway.
//
// Configuration is loaded from environment variables with defaults. A YAML
// or TOML file named by CONFIG_FILE may override individual values.
//
// Configuration Sections:
//   - Server: HTTP listener and shutdown timeout
//   - ListBackend: shopping list backend URL and request timeout
//   - Pricer: pricer service name, static URL and discovery mode
//   - Breaker: circuit breaker thresholds (3 failures, 5s reset, 1s call timeout)
//   - Enrich: price lookup worker pool size
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting
//
// Example Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Environment Variables:
//   - PORT, HOST, SHUTDOWN_TIMEOUT
//   - SHOPPING_BACKEND_URL, SHOPPING_BACKEND_TIMEOUT
//   - PRICER_SERVICE, PRICER_URL, PRICER_DISCOVERY
//   - BREAKER_MAX_FAILURES, BREAKER_RESET_TIMEOUT, BREAKER_CALL_TIMEOUT, BREAKER_FAILURE_WINDOW
//   - ENRICH_WORKERS, LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - CONFIG_FILE
package config
