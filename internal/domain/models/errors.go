package models

import "errors"

// Sentinel errors shared by the repository, service and HTTP layers. Callers
// wrap them with context and test with errors.Is.
var (
	// ErrNotFound indicates that a referenced entity does not exist (or was
	// soft-deleted).
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates malformed input rejected before reaching the store.
	ErrValidation = errors.New("validation failed")

	// ErrForbidden is returned when the caller does not own the target resource.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict signals that the operation clashes with the current state,
	// e.g. completing a task twice.
	ErrConflict = errors.New("conflict")
)
