// Package vector defines the storage contract for embedded memory entries.
package vector

import (
	"context"
	"time"
)

// Document is one semantic entry: the text it was embedded from plus the
// metadata recall needs to present it.
type Document struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Kind      string    `json:"kind"`
	Context   string    `json:"context,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Embedding []float32 `json:"embedding"`
}

// QueryResult is a nearest-neighbour hit.
type QueryResult struct {
	Document

	// Distance is the L2 distance between the query and the document.
	Distance float32

	// Score is Similarity(Distance), in (0, 1].
	Score float32
}

// Driver stores and searches embeddings. Entries are append-only.
type Driver interface {
	// Add stores documents. Embeddings in one driver must share a length.
	Add(ctx context.Context, docs []Document) error

	// Query returns up to topK documents ordered by ascending distance.
	Query(ctx context.Context, embedding []float32, topK int) ([]QueryResult, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	Close() error
}

// Similarity maps a distance onto (0, 1]: zero distance scores 1 and large
// distances approach 0.
func Similarity(distance float32) float32 {
	if distance < 0 {
		distance = 0
	}
	return 1 / (1 + distance)
}

// DefaultTopK is used for non-positive topK values.
const DefaultTopK = 10
