// Package flat provides a brute-force vector driver persisted as a single
// JSON snapshot. Every Add rewrites the snapshot, which keeps the file and the
// in-memory index identical at the cost of O(n) writes.
package flat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/papercomputeco/sassy/pkg/vector"
)

const snapshotVersion = 1

type snapshot struct {
	Version    int               `json:"version"`
	Dimensions int               `json:"dimensions"`
	Documents  []vector.Document `json:"documents"`
}

// Config configures the flat driver.
type Config struct {
	// Path is the snapshot file. Required.
	Path string
}

// Driver implements vector.Driver.
type Driver struct {
	mu     sync.RWMutex
	path   string
	dims   int
	docs   []vector.Document
	logger *slog.Logger
}

// NewDriver loads the snapshot at c.Path. A missing, empty or unreadable
// snapshot resets the index to empty and immediately writes an empty
// snapshot in its place.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	if c.Path == "" {
		return nil, errors.New("snapshot path is required")
	}

	d := &Driver{path: c.Path, logger: logger}
	if err := d.load(); err != nil {
		logger.Warn("semantic index snapshot unusable, starting empty",
			"path", c.Path,
			"reason", err,
		)
		d.docs = nil
		d.dims = 0
		if err := d.persist(); err != nil {
			return nil, fmt.Errorf("writing empty snapshot: %w", err)
		}
	}

	logger.Debug("flat vector driver initialized",
		"path", c.Path,
		"documents", len(d.docs),
		"dimensions", d.dims,
	)

	return d, nil
}

func (d *Driver) load() error {
	data, err := os.ReadFile(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return errors.New("snapshot missing")
	}
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}
	if len(data) == 0 {
		return errors.New("snapshot empty")
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decoding snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	for _, doc := range snap.Documents {
		if len(doc.Embedding) != snap.Dimensions {
			return fmt.Errorf("document %s: %w", doc.ID, vector.ErrDimensions)
		}
	}

	d.dims = snap.Dimensions
	d.docs = snap.Documents
	return nil
}

// persist writes the whole index to a temp file and renames it over the
// snapshot. Callers hold mu.
func (d *Driver) persist() error {
	docs := d.docs
	if docs == nil {
		docs = []vector.Document{}
	}

	data, err := json.Marshal(snapshot{
		Version:    snapshotVersion,
		Dimensions: d.dims,
		Documents:  docs,
	})
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(d.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp snapshot: %w", err)
	}

	return os.Rename(tmp.Name(), d.path)
}

// Add appends docs and rewrites the snapshot. On a failed write the
// in-memory index is rolled back.
func (d *Driver) Add(_ context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	dims := d.dims
	for _, doc := range docs {
		if len(doc.Embedding) == 0 {
			return fmt.Errorf("document %s: empty embedding: %w", doc.ID, vector.ErrDimensions)
		}
		if dims == 0 {
			dims = len(doc.Embedding)
		}
		if len(doc.Embedding) != dims {
			return fmt.Errorf("document %s has %d dimensions, index has %d: %w",
				doc.ID, len(doc.Embedding), dims, vector.ErrDimensions)
		}
	}

	prevDims, prevLen := d.dims, len(d.docs)
	d.dims = dims
	d.docs = append(d.docs, docs...)

	if err := d.persist(); err != nil {
		d.dims = prevDims
		d.docs = d.docs[:prevLen]
		return fmt.Errorf("persisting snapshot: %w", err)
	}

	d.logger.Debug("added documents to flat index", "count", len(docs), "total", len(d.docs))
	return nil
}

// Query scans every document. Equal distances favour newer documents.
func (d *Driver) Query(_ context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = vector.DefaultTopK
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if len(d.docs) == 0 {
		return []vector.QueryResult{}, nil
	}
	if len(embedding) != d.dims {
		return nil, fmt.Errorf("query has %d dimensions, index has %d: %w", len(embedding), d.dims, vector.ErrDimensions)
	}

	results := make([]vector.QueryResult, 0, len(d.docs))
	for _, doc := range d.docs {
		dist := l2(embedding, doc.Embedding)
		results = append(results, vector.QueryResult{
			Document: doc,
			Distance: dist,
			Score:    vector.Similarity(dist),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (d *Driver) Count(_ context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.docs), nil
}

func (d *Driver) Close() error {
	return nil
}

func l2(a, b []float32) float32 {
	var sum float64
	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}
	return float32(math.Sqrt(sum))
}

var _ vector.Driver = (*Driver)(nil)
