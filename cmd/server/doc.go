// Package main is the entry point of the shopping list gateway.
//
// The gateway fetches the shopping list from the list backend, prices every
// item through the pricer service behind a circuit breaker, and streams the
// priced lines back as they resolve.
//
// Architecture:
//
//	Client → Gateway → Shopping list backend (GET /shopping)
//	               → Pricer service (GET /prices/{name}, circuit breaker)
//
// Configuration:
//   - Environment variables (12-factor)
//   - CONFIG_FILE or -config: YAML/TOML file, overrides the environment
//   - CLI flags override both
//
// Usage:
//
//	SHOPPING_BACKEND_URL=http://shopping-backend:8080 ./server
//	./server -config gateway.yaml -port 9000 -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
