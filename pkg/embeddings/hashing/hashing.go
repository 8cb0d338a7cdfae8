// Package hashing implements an offline embeddings.Embedder using feature
// hashing over word tokens and character trigrams. It needs no model server,
// which makes it the fallback for machines without Ollama and the embedder
// used in tests.
package hashing

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/papercomputeco/sassy/pkg/embeddings"
)

// DefaultDimensions is used when the configured size is zero.
const DefaultDimensions = 256

// Embedder hashes tokens into a fixed number of buckets and L2 normalizes the
// result.
type Embedder struct {
	dims int
}

func NewEmbedder(dimensions uint) *Embedder {
	if dimensions == 0 {
		dimensions = DefaultDimensions
	}
	return &Embedder{dims: int(dimensions)}
}

// Embed never fails; empty text yields the zero vector.
func (e *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dims)

	for _, word := range tokenize(text) {
		e.add(vec, "w:"+word, 1)

		padded := []rune("^" + word + "$")
		for i := 0; i+3 <= len(padded); i++ {
			e.add(vec, "t:"+string(padded[i:i+3]), 0.5)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, nil
	}

	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}

func (e *Embedder) Close() error {
	return nil
}

func (e *Embedder) add(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	// the top bit picks the sign so collisions tend to cancel out
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[sum%uint64(len(vec))] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

var _ embeddings.Embedder = (*Embedder)(nil)
