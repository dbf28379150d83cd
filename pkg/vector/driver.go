// Package vector provides interfaces and implementations for vector storage
// and nearest-neighbor retrieval of transaction records.
package vector

import "context"

// Point is a stored transaction record: its embedding plus the structured
// payload fields kept alongside it.
type Point struct {
	// ID is the record identifier. The bulk loader assigns sequential
	// integers starting at 0 in dataset order, so re-running the loader
	// overwrites records in place.
	ID uint64

	// Embedding is the vector representation of the transaction.
	Embedding []float32

	// Payload is the non-vector structured data stored with the embedding.
	Payload map[string]any
}

// Neighbor is a search result: a stored point annotated with its cosine
// similarity to the query vector.
type Neighbor struct {
	ID      uint64         `json:"id"`
	Score   float32        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// Driver handles storage and retrieval of transaction embeddings.
type Driver interface {
	// EnsureCollection creates the backing collection if it does not exist:
	// fixed dimensionality, cosine distance, and payload indexes on amount,
	// device_type, and payment_method. Safe to call repeatedly.
	EnsureCollection(ctx context.Context) error

	// Upsert inserts or overwrites points by ID.
	Upsert(ctx context.Context, points []Point) error

	// Search returns the limit nearest stored points to the given embedding
	// by cosine similarity, each with its payload and similarity score.
	Search(ctx context.Context, embedding []float32, limit int) ([]Neighbor, error)

	// Close releases any resources held by the driver.
	Close() error
}
