// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested action does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidID indicates a path id that does not parse to an integer.
	ErrInvalidID = errors.New("invalid id")

	// ErrValidation indicates a request body that fails shape or rule checks.
	ErrValidation = errors.New("validation")

	// ErrNotArray indicates a stored document that is not a JSON array of actions.
	ErrNotArray = errors.New("stored document is not an array")
)
