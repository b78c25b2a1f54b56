package ai

import "errors"

var (
	// ErrInvalidInput marks requests rejected before any upstream call.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstream marks failures that survived the single internal retry.
	ErrUpstream = errors.New("ai service unavailable")
)
