// Package search provides the recall request and response shapes shared by
// the REST search endpoint and the MCP memory_recall tool.
package search

import (
	"context"
	"log/slog"

	"github.com/papercomputeco/sassy/pkg/memory"
)

// DefaultLimit is used when a request does not set a limit.
const DefaultLimit = 5

// SearchInput represents the input arguments for a recall request.
type SearchInput struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

// SearchOutput represents the output of a recall request.
type SearchOutput struct {
	Query   string       `json:"query"`
	Results []memory.Hit `json:"results"`
	Count   int          `json:"count"`
}

// Searcher is the part of the memory engine recall needs.
type Searcher interface {
	Search(ctx context.Context, p memory.SearchParams) []memory.Hit
}

// Search runs input against the engine.
func Search(ctx context.Context, input SearchInput, engine Searcher, logger *slog.Logger) SearchOutput {
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	logger.Debug("recall request",
		"query", input.Query,
		"limit", limit,
		"kind", input.Kind,
	)

	hits := engine.Search(ctx, memory.SearchParams{
		Query: input.Query,
		Limit: limit,
		Kind:  input.Kind,
	})
	if hits == nil {
		hits = []memory.Hit{}
	}

	return SearchOutput{
		Query:   input.Query,
		Results: hits,
		Count:   len(hits),
	}
}
