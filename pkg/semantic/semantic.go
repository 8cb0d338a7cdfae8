// Package semantic pairs an embeddings.Embedder with a vector.Driver to
// provide nearest-text lookup over memory content.
package semantic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/sassy/pkg/embeddings"
	"github.com/papercomputeco/sassy/pkg/vector"
)

// ErrEmptyText is returned when asked to index or query blank text.
var ErrEmptyText = errors.New("text is empty")

// Entry is the text and metadata added to the index.
type Entry struct {
	Content string
	Kind    string
	Context string
}

// Match is a nearest-neighbour result.
type Match struct {
	Content   string
	Kind      string
	Context   string
	CreatedAt time.Time

	// Distance is the L2 distance to the query; Score is 1/(1+Distance).
	Distance float32
	Score    float32
}

// Index is the semantic index. It is safe for concurrent use when its
// driver is.
type Index struct {
	embedder embeddings.Embedder
	driver   vector.Driver
	logger   *slog.Logger
	now      func() time.Time
}

func New(embedder embeddings.Embedder, driver vector.Driver, logger *slog.Logger) *Index {
	return &Index{
		embedder: embedder,
		driver:   driver,
		logger:   logger,
		now:      time.Now,
	}
}

// Add embeds the entry content and stores it.
func (i *Index) Add(ctx context.Context, e Entry) error {
	if strings.TrimSpace(e.Content) == "" {
		return ErrEmptyText
	}

	emb, err := i.embedder.Embed(ctx, e.Content)
	if err != nil {
		return fmt.Errorf("embedding entry: %w", err)
	}

	doc := vector.Document{
		ID:        uuid.NewString(),
		Content:   e.Content,
		Kind:      e.Kind,
		Context:   e.Context,
		CreatedAt: i.now(),
		Embedding: emb,
	}
	if err := i.driver.Add(ctx, []vector.Document{doc}); err != nil {
		return fmt.Errorf("adding to vector store: %w", err)
	}

	i.logger.Debug("indexed entry", "id", doc.ID, "kind", doc.Kind)
	return nil
}

// Nearest returns up to k entries closest to query, best first.
func (i *Index) Nearest(ctx context.Context, query string, k int) ([]Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyText
	}
	if k <= 0 {
		k = vector.DefaultTopK
	}

	emb, err := i.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := i.driver.Query(ctx, emb, k)
	if err != nil {
		return nil, fmt.Errorf("querying vector store: %w", err)
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, Match{
			Content:   r.Content,
			Kind:      r.Kind,
			Context:   r.Context,
			CreatedAt: r.CreatedAt,
			Distance:  r.Distance,
			Score:     r.Score,
		})
	}
	return matches, nil
}

func (i *Index) Count(ctx context.Context) (int, error) {
	return i.driver.Count(ctx)
}

// Close closes the driver and the embedder.
func (i *Index) Close() error {
	return errors.Join(i.driver.Close(), i.embedder.Close())
}
