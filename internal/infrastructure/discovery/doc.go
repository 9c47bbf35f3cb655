// Package discovery resolves the base URL of a named service on every call,
// so a moved or rescheduled service is picked up without a restart.
package discovery
