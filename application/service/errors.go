package service

import "errors"

var (
	// ErrEmptyQuery indicates a search with no query text.
	ErrEmptyQuery = errors.New("query text is empty")

	// ErrInvalidTopK indicates a search with a non-positive result count.
	ErrInvalidTopK = errors.New("result count must be positive")

	// ErrNoEmbedder indicates an operation that needs an embedding
	// provider was run without one configured.
	ErrNoEmbedder = errors.New("no embedding provider configured")
)
