package vector

import "errors"

var (
	// ErrEmbedding is returned when embedding generation fails.
	ErrEmbedding = errors.New("embedding failed")

	// ErrConnection is returned when the vector store connection fails.
	ErrConnection = errors.New("vector store connection failed")

	// ErrSearch is returned when a nearest-neighbor query fails.
	ErrSearch = errors.New("vector search failed")
)
