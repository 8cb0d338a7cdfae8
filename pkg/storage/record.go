package storage

import (
	"slices"
	"sort"
	"strings"
	"time"
)

// Record kinds.
const (
	KindGeneral        = "general"
	KindPersonalFact   = "personal-fact"
	KindPreference     = "preference"
	KindReminder       = "reminder"
	KindCommand        = "command"
	KindInteraction    = "interaction"
	KindWebNourishment = "web-nourishment"
)

// DefaultRelevance is assigned to records written without an explicit value.
const DefaultRelevance = 1.0

// DefaultLimit caps queries made with a non-positive limit.
const DefaultLimit = 10

// Record is one stored memory.
type Record struct {
	ID         int64          `json:"id"`
	Kind       string         `json:"kind"`
	Content    string         `json:"content"`
	Context    string         `json:"context,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	Relevance  float64        `json:"relevance"`
	Categories []string       `json:"categories"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// HasCategory reports whether the record carries category.
func (r Record) HasCategory(category string) bool {
	return slices.Contains(r.Categories, category)
}

// Fold lower-cases s for case-insensitive matching.
func Fold(s string) string {
	return strings.ToLower(s)
}

// Normalize fills defaults on a record about to be inserted.
func Normalize(rec Record, now time.Time) Record {
	if rec.Kind == "" {
		rec.Kind = KindGeneral
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.Relevance == 0 {
		rec.Relevance = DefaultRelevance
	}
	rec.Categories = UniqueCategories(rec.Categories)
	if rec.Metadata == nil {
		rec.Metadata = map[string]any{}
	}
	return rec
}

// UniqueCategories drops blanks and repeats while keeping first-seen order.
func UniqueCategories(categories []string) []string {
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c == "" || slices.Contains(out, c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// SortRanked orders records by relevance, created_at and id, all descending.
func SortRanked(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Relevance != b.Relevance {
			return a.Relevance > b.Relevance
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// ClampLimit returns DefaultLimit for non-positive limits.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
