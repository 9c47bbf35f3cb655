// Package http serves the shopping list gateway over HTTP.
//
// Routes:
//   - GET /        priced shopping list, streamed as newline-delimited JSON
//   - GET /health  liveness, always "OK"
//   - GET /breaker pricer circuit breaker state and counters
//
// Each streamed line is a JSON object:
//
//	{"name":"coffee","quantity":2,"price":4.2,"available":true}
//	{"name":"bacon","quantity":1,"price":null,"available":false}
//
// Lines arrive in completion order. An empty list yields a 200 with no lines.
package http
