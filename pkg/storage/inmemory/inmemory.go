// Package inmemory provides a process-local record store for tests and
// ephemeral runs.
package inmemory

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/papercomputeco/sassy/pkg/storage"
)

// Driver implements storage.Driver with a slice guarded by a mutex.
type Driver struct {
	mu      sync.RWMutex
	records []storage.Record
	nextID  int64
	now     func() time.Time
}

func NewDriver() *Driver {
	return &Driver{now: time.Now}
}

func (d *Driver) Insert(_ context.Context, rec storage.Record) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec = storage.Normalize(rec, d.now())
	d.nextID++
	rec.ID = d.nextID
	d.records = append(d.records, clone(rec))

	return rec.ID, nil
}

func (d *Driver) Search(_ context.Context, params storage.SearchParams) ([]storage.Record, error) {
	needle := storage.Fold(params.Query)
	return d.ranked(params.Limit, func(r storage.Record) bool {
		if params.Kind != "" && r.Kind != params.Kind {
			return false
		}
		return strings.Contains(storage.Fold(r.Content), needle)
	}), nil
}

func (d *Driver) Recent(_ context.Context, limit int) ([]storage.Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	limit = storage.ClampLimit(limit)
	out := make([]storage.Record, 0, limit)
	for i := len(d.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, clone(d.records[i]))
	}
	return out, nil
}

func (d *Driver) UpdateRelevance(_ context.Context, id int64, relevance float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	i, err := d.index(id)
	if err != nil {
		return err
	}
	d.records[i].Relevance = relevance
	return nil
}

func (d *Driver) AppendCategory(_ context.Context, id int64, category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return errors.New("empty category")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	i, err := d.index(id)
	if err != nil {
		return err
	}
	if !d.records[i].HasCategory(category) {
		d.records[i].Categories = append(d.records[i].Categories, category)
	}
	return nil
}

func (d *Driver) ByCategory(_ context.Context, category string, limit int) ([]storage.Record, error) {
	return d.ranked(limit, func(r storage.Record) bool {
		return r.HasCategory(category)
	}), nil
}

func (d *Driver) Count(_ context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.records), nil
}

func (d *Driver) Close() error {
	return nil
}

func (d *Driver) ranked(limit int, match func(storage.Record) bool) []storage.Record {
	d.mu.RLock()
	var out []storage.Record
	for _, r := range d.records {
		if match(r) {
			out = append(out, clone(r))
		}
	}
	d.mu.RUnlock()

	storage.SortRanked(out)
	if limit = storage.ClampLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out
}

// index must be called with mu held.
func (d *Driver) index(id int64) (int, error) {
	// ids are assigned in order, so the slot is id-1
	i := int(id - 1)
	if i < 0 || i >= len(d.records) {
		return 0, storage.NotFoundError{ID: id}
	}
	return i, nil
}

func clone(r storage.Record) storage.Record {
	r.Categories = slices.Clone(r.Categories)
	r.Metadata = maps.Clone(r.Metadata)
	return r
}
