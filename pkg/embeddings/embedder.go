// Package embeddings defines the text to vector contract used by the
// semantic index.
package embeddings

import "context"

// Embedder converts text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}
