package domain

import "errors"

// Error kinds surfaced across package boundaries. Callers wrap them with
// context ("op: step: %w") and test with errors.Is.
var (
	// A referenced route, delivery, driver, user or alert does not exist.
	ErrNotFound = errors.New("not found")

	// Inbound payload is malformed or breaks an entity invariant.
	ErrValidation = errors.New("validation failed")

	// The persistence collaborator cannot be reached.
	ErrStoreUnavailable = errors.New("store unavailable")

	// A subscriber connection broke or stalled mid-send.
	ErrTransport = errors.New("transport failure")
)
