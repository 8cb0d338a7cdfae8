// Package storage defines the durable record store behind the memory engine.
package storage

import (
	"context"
)

// Driver persists memory records. Every implementation orders ranked results
// by relevance, then created_at, then id, all descending, and matches content
// case-insensitively.
type Driver interface {
	// Insert appends a record and returns its assigned id. Ids increase
	// monotonically and are never reused.
	Insert(ctx context.Context, rec Record) (int64, error)

	// Search returns records whose content contains params.Query, optionally
	// restricted to params.Kind.
	Search(ctx context.Context, params SearchParams) ([]Record, error)

	// Recent returns the newest records first.
	Recent(ctx context.Context, limit int) ([]Record, error)

	// UpdateRelevance overwrites the relevance of a record.
	UpdateRelevance(ctx context.Context, id int64, relevance float64) error

	// AppendCategory adds category to a record unless it is already present.
	AppendCategory(ctx context.Context, id int64, category string) error

	// ByCategory returns records tagged with category.
	ByCategory(ctx context.Context, category string, limit int) ([]Record, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	Close() error
}

// SearchParams filters a substring search.
type SearchParams struct {
	Query string
	Kind  string
	Limit int
}
