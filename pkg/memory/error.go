package memory

import "errors"

var (
	// ErrNotConfigured is returned when an engine is built without one of
	// its stores.
	ErrNotConfigured = errors.New("memory not configured")

	// ErrEmptyContent is logged when a write carries no text.
	ErrEmptyContent = errors.New("memory content is empty")

	ErrEmptyCategory = errors.New("category is empty")
)
