// Package providers groups the gateways to the services the shopping list
// gateway depends on.
//
// Providers:
//   - shopping: the shopping list backend (fetch, add, remove)
//   - pricer: the pricer service, guarded by the shared circuit breaker
//   - http/client: the resty-based client both gateways share
package providers
