package model

import "errors"

// Failure taxonomy surfaced by the note service. Anything else coming out
// of the store is an opaque downstream failure.
var (
	ErrNotFound     = errors.New("note not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("note was modified concurrently")
)
