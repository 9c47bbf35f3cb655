package shopping

import "errors"

var (
	// ErrBackendUnavailable means the shopping list could not be fetched:
	// the backend is unreachable, answered with an error status, or sent a
	// malformed body. It is fatal to the request.
	ErrBackendUnavailable = errors.New("shopping backend unavailable")

	// ErrInvalidItem marks a list entry violating the Item invariants
	ErrInvalidItem = errors.New("invalid shopping item")

	// ErrEnrichment reports an unrecoverable failure while pricing a list
	ErrEnrichment = errors.New("price enrichment failed")
)
