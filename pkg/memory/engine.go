// Package memory is the recall engine: it funnels every write into the
// durable record store, the semantic index and the recent buffer, and merges
// results from all three on search.
//
// Engine methods never return errors for reads or writes. Store failures are
// logged and the call degrades to fewer results or a partial write. Only the
// record management calls (UpdateRelevance, AddCategory) report errors, so
// callers can tell an unknown id apart from success.
package memory

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/papercomputeco/sassy/pkg/classify"
	"github.com/papercomputeco/sassy/pkg/logger"
	"github.com/papercomputeco/sassy/pkg/recent"
	"github.com/papercomputeco/sassy/pkg/semantic"
	"github.com/papercomputeco/sassy/pkg/storage"
)

// Hit sources.
const (
	SourceSemantic = "semantic"
	SourceTextual  = "textual"
	SourceRecent   = "recent"
)

const (
	// DefaultFlushEvery is how many writes pass between recent buffer flushes.
	DefaultFlushEvery = 100

	// InteractionWindow is how many recent entries survive an interaction.
	InteractionWindow = 500

	relatedWindow = 50
)

// Config wires an Engine to its stores.
type Config struct {
	Store  storage.Driver
	Index  *semantic.Index
	Buffer *recent.Buffer

	// Classifier defaults to classify.New(classify.DefaultRules).
	Classifier *classify.Classifier

	FlushEvery int
	Logger     *slog.Logger
}

// Engine is the recall engine. It is safe for concurrent use.
type Engine struct {
	// mu serializes writes so the three stores see them in the same order.
	mu     sync.Mutex
	writes int

	store      storage.Driver
	index      *semantic.Index
	buffer     *recent.Buffer
	classifier *classify.Classifier
	flushEvery int
	logger     *slog.Logger
	now        func() time.Time
}

func NewEngine(c Config) (*Engine, error) {
	if c.Store == nil || c.Index == nil || c.Buffer == nil {
		return nil, ErrNotConfigured
	}
	if c.Classifier == nil {
		c.Classifier = classify.New(classify.DefaultRules)
	}
	if c.FlushEvery <= 0 {
		c.FlushEvery = DefaultFlushEvery
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	return &Engine{
		store:      c.Store,
		index:      c.Index,
		buffer:     c.Buffer,
		classifier: c.Classifier,
		flushEvery: c.FlushEvery,
		logger:     c.Logger,
		now:        time.Now,
	}, nil
}

// WriteParams describes one memory to store. An empty Kind means general.
type WriteParams struct {
	Content    string         `json:"content"`
	Kind       string         `json:"kind,omitempty"`
	Context    string         `json:"context,omitempty"`
	Categories []string       `json:"categories,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// WriteResult reports where a write landed.
type WriteResult struct {
	ID         int64    `json:"id,omitempty"`
	Kind       string   `json:"kind"`
	Categories []string `json:"categories"`
	Stored     bool     `json:"stored"`
	Indexed    bool     `json:"indexed"`
}

// augmentable reports whether the classifier may replace kind.
func augmentable(kind string) bool {
	return kind == "" || kind == storage.KindGeneral || kind == storage.KindInteraction
}

// Write stores p in every store. Blank content is dropped.
func (e *Engine) Write(ctx context.Context, p WriteParams) WriteResult {
	if strings.TrimSpace(p.Content) == "" {
		e.logger.Warn("dropping memory write", "error", ErrEmptyContent)
		return WriteResult{Kind: p.Kind, Categories: []string{}}
	}

	kind := p.Kind
	categories := storage.UniqueCategories(p.Categories)
	if augmentable(kind) {
		def := kind
		if def == "" {
			def = storage.KindGeneral
		}
		c := e.classifier.Classify(p.Content, def)
		kind = c.Kind
		categories = storage.UniqueCategories(append(categories, c.Categories...))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	res := WriteResult{Kind: kind, Categories: categories}

	id, err := e.store.Insert(ctx, storage.Record{
		Kind:       kind,
		Content:    p.Content,
		Context:    p.Context,
		CreatedAt:  now,
		Categories: categories,
		Metadata:   p.Metadata,
	})
	if err != nil {
		e.logger.Error("storing memory", "kind", kind, "error", err)
	} else {
		res.ID = id
		res.Stored = true
	}

	if err := e.index.Add(ctx, semantic.Entry{Content: p.Content, Kind: kind, Context: p.Context}); err != nil {
		e.logger.Error("indexing memory", "kind", kind, "error", err)
	} else {
		res.Indexed = true
	}

	e.buffer.Append(recent.Entry{
		Content:    p.Content,
		Kind:       kind,
		CreatedAt:  now,
		Context:    p.Context,
		Categories: categories,
	})

	e.writes++
	if e.writes%e.flushEvery == 0 {
		e.flushLocked()
	}

	e.logger.Debug("memory written",
		"id", res.ID,
		"kind", kind,
		"categories", categories,
		"stored", res.Stored,
		"indexed", res.Indexed,
	)
	return res
}

// AddInteraction records a user turn and the assistant's reply, then trims
// the recent buffer to InteractionWindow entries and flushes it.
func (e *Engine) AddInteraction(ctx context.Context, input, response string) []WriteResult {
	results := []WriteResult{
		e.Write(ctx, WriteParams{
			Content:    "Usuario: " + input,
			Kind:       storage.KindInteraction,
			Context:    "user",
			Categories: []string{"user"},
		}),
		e.Write(ctx, WriteParams{
			Content:    "Sassy: " + response,
			Kind:       storage.KindInteraction,
			Context:    "assistant",
			Categories: []string{"assistant"},
		}),
	}
	e.buffer.Trim(InteractionWindow)
	e.Flush()
	return results
}

// SearchParams scopes a search. Kind filters every source when set.
type SearchParams struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

// Hit is one search result.
type Hit struct {
	ID         int64     `json:"id,omitempty"`
	Content    string    `json:"content"`
	Kind       string    `json:"kind"`
	Context    string    `json:"context,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	Categories []string  `json:"categories,omitempty"`

	// Score is a similarity for semantic hits and the record relevance
	// otherwise.
	Score  float64 `json:"score"`
	Source string  `json:"source"`
}

// Search merges semantic and textual matches, best first, with no repeated
// content, and tops the list up from the recent buffer.
func (e *Engine) Search(ctx context.Context, p SearchParams) []Hit {
	hits := []Hit{}
	if strings.TrimSpace(p.Query) == "" {
		return hits
	}
	limit := storage.ClampLimit(p.Limit)

	matches, err := e.index.Nearest(ctx, p.Query, limit)
	if err != nil {
		e.logger.Error("semantic search", "query", p.Query, "error", err)
	}
	for _, m := range matches {
		if p.Kind != "" && m.Kind != p.Kind {
			continue
		}
		hits = append(hits, Hit{
			Content:   m.Content,
			Kind:      m.Kind,
			Context:   m.Context,
			CreatedAt: m.CreatedAt,
			Score:     float64(m.Score),
			Source:    SourceSemantic,
		})
	}

	records, err := e.store.Search(ctx, storage.SearchParams{Query: p.Query, Kind: p.Kind, Limit: limit})
	if err != nil {
		e.logger.Error("textual search", "query", p.Query, "error", err)
	}
	for _, r := range records {
		hits = append(hits, hitFromRecord(r, SourceTextual))
	}

	sortHits(hits)
	hits = dedupe(hits)
	if len(hits) > limit {
		hits = hits[:limit]
	}

	if len(hits) < limit {
		seen := make(map[string]struct{}, len(hits))
		for _, h := range hits {
			seen[h.Content] = struct{}{}
		}
		for _, entry := range e.buffer.Matching(p.Query, e.buffer.Len()) {
			if len(hits) >= limit {
				break
			}
			if p.Kind != "" && entry.Kind != p.Kind {
				continue
			}
			if _, dup := seen[entry.Content]; dup {
				continue
			}
			seen[entry.Content] = struct{}{}
			hits = append(hits, Hit{
				Content:    entry.Content,
				Kind:       entry.Kind,
				Context:    entry.Context,
				CreatedAt:  entry.CreatedAt,
				Categories: entry.Categories,
				Score:      storage.DefaultRelevance,
				Source:     SourceRecent,
			})
		}
		sortHits(hits)
	}

	return hits
}

func hitFromRecord(r storage.Record, source string) Hit {
	return Hit{
		ID:         r.ID,
		Content:    r.Content,
		Kind:       r.Kind,
		Context:    r.Context,
		CreatedAt:  r.CreatedAt,
		Categories: r.Categories,
		Score:      r.Relevance,
		Source:     source,
	}
}

// sortHits orders by score then recency, both descending.
func sortHits(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].CreatedAt.After(hits[j].CreatedAt)
	})
}

// dedupe keeps the first hit for each content.
func dedupe(hits []Hit) []Hit {
	seen := make(map[string]struct{}, len(hits))
	out := hits[:0]
	for _, h := range hits {
		if _, ok := seen[h.Content]; ok {
			continue
		}
		seen[h.Content] = struct{}{}
		out = append(out, h)
	}
	return out
}

// RecentInteractions returns the last n buffered entries, oldest first.
func (e *Engine) RecentInteractions(n int) []recent.Entry {
	return e.buffer.Last(n)
}

// RelatedTopics returns up to n distinct words of text that appear anywhere
// in the last 50 buffered entries. Matching is plain substring containment.
func (e *Engine) RelatedTopics(text string, n int) []string {
	topics := []string{}
	if n <= 0 {
		return topics
	}

	window := e.buffer.Last(relatedWindow)
	contents := make([]string, len(window))
	for i, entry := range window {
		contents[i] = strings.ToLower(entry.Content)
	}

	for _, word := range strings.Fields(strings.ToLower(text)) {
		if len(topics) >= n {
			break
		}
		if slices.Contains(topics, word) {
			continue
		}
		for _, c := range contents {
			if strings.Contains(c, word) {
				topics = append(topics, word)
				break
			}
		}
	}
	return topics
}

// UpdateRelevance overwrites the relevance of record id.
func (e *Engine) UpdateRelevance(ctx context.Context, id int64, relevance float64) error {
	if err := e.store.UpdateRelevance(ctx, id, relevance); err != nil {
		e.logger.Error("updating relevance", "id", id, "error", err)
		return err
	}
	return nil
}

// AddCategory tags record id. Adding a category twice is a no-op.
func (e *Engine) AddCategory(ctx context.Context, id int64, category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return ErrEmptyCategory
	}
	if err := e.store.AppendCategory(ctx, id, category); err != nil {
		e.logger.Error("adding category", "id", id, "category", category, "error", err)
		return err
	}
	return nil
}

// ByCategory returns records tagged category, best first.
func (e *Engine) ByCategory(ctx context.Context, category string, limit int) []storage.Record {
	records, err := e.store.ByCategory(ctx, category, storage.ClampLimit(limit))
	if err != nil {
		e.logger.Error("listing category", "category", category, "error", err)
		return []storage.Record{}
	}
	return records
}

// Recent returns the newest stored records.
func (e *Engine) Recent(ctx context.Context, limit int) []storage.Record {
	records, err := e.store.Recent(ctx, storage.ClampLimit(limit))
	if err != nil {
		e.logger.Error("listing recent records", "error", err)
		return []storage.Record{}
	}
	return records
}

// Flush persists the recent buffer.
func (e *Engine) Flush() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.flushLocked()
}

func (e *Engine) flushLocked() {
	if err := e.buffer.Flush(); err != nil {
		e.logger.Error("flushing recent buffer", "error", err)
	}
}

// Close flushes the recent buffer and closes the stores.
func (e *Engine) Close() error {
	e.Flush()
	return errors.Join(e.index.Close(), e.store.Close())
}
