// Package shopping is the gateway to the shopping list backend.
//
// FetchList is called once per incoming request; any failure is fatal to
// that request and wraps shopping.ErrBackendUnavailable. Add and Remove
// back the command line client.
package shopping
