package api

import "errors"

var (
	// ErrInvalidRequest is returned when the body is not a JSON object with
	// string fields.
	ErrInvalidRequest = errors.New("invalid JSON body")

	// ErrMissingField is returned when role or content is absent or empty.
	ErrMissingField = errors.New("fields 'role' and 'content' are required")
)
