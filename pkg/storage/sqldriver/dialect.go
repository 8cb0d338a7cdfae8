package sqldriver

import (
	"strconv"
	"strings"
)

// Dialect captures the SQL differences between the supported databases.
type Dialect struct {
	Name string

	// Schema is executed statement by statement when the driver opens.
	Schema []string

	// CategoryMatch is a WHERE fragment with a single ? bound to the category.
	CategoryMatch string

	// Numbered switches ? placeholders to $1, $2, ...
	Numbered bool
}

// SQLite stores categories and metadata as JSON text and matches categories
// through json_each.
var SQLite = Dialect{
	Name: "sqlite",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS memories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL DEFAULT 'general',
			content TEXT NOT NULL,
			content_folded TEXT NOT NULL,
			context TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			relevance REAL NOT NULL DEFAULT 1.0,
			categories TEXT NOT NULL DEFAULT '[]',
			metadata TEXT NOT NULL DEFAULT '{}'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_kind ON memories(kind)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_rank ON memories(relevance DESC, created_at DESC)`,
	},
	CategoryMatch: `EXISTS (SELECT 1 FROM json_each(memories.categories) WHERE json_each.value = ?)`,
}

// Postgres stores categories and metadata as JSONB and matches categories
// with containment.
var Postgres = Dialect{
	Name: "postgres",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS memories (
			id BIGSERIAL PRIMARY KEY,
			kind TEXT NOT NULL DEFAULT 'general',
			content TEXT NOT NULL,
			content_folded TEXT NOT NULL,
			context TEXT NOT NULL DEFAULT '',
			created_at BIGINT NOT NULL,
			relevance DOUBLE PRECISION NOT NULL DEFAULT 1.0,
			categories JSONB NOT NULL DEFAULT '[]'::jsonb,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb
		)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_kind ON memories(kind)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_rank ON memories(relevance DESC, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_categories ON memories USING GIN (categories)`,
	},
	CategoryMatch: `categories @> jsonb_build_array(?::text)`,
	Numbered:      true,
}

// rebind rewrites ? placeholders for numbered dialects. Queries never carry a
// literal question mark.
func (d Dialect) rebind(query string) string {
	if !d.Numbered {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
