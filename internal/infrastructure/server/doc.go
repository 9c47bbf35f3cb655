// Package server wires configuration, gateways, the shared pricer circuit
// breaker and the HTTP router into a runnable gateway.
package server
