// Package recent keeps a bounded, persisted list of the latest memory
// entries for cheap recency lookups.
package recent

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DefaultCapacity bounds a buffer created with a non-positive capacity.
const DefaultCapacity = 1000

// Entry is one buffered memory.
type Entry struct {
	Content    string    `json:"content"`
	Kind       string    `json:"kind"`
	CreatedAt  time.Time `json:"created_at"`
	Context    string    `json:"context,omitempty"`
	Categories []string  `json:"categories,omitempty"`
}

// Buffer is a FIFO of at most capacity entries backed by a JSON snapshot.
type Buffer struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
	path     string
	logger   *slog.Logger
}

// New creates an empty buffer. An empty path disables persistence.
func New(path string, capacity int, logger *slog.Logger) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		entries:  make([]Entry, 0),
		capacity: capacity,
		path:     path,
		logger:   logger,
	}
}

// Load replaces the contents with the snapshot. A missing or unreadable
// snapshot leaves the buffer empty and is replaced by an empty one.
func (b *Buffer) Load() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = b.entries[:0]
	if b.path == "" {
		return
	}

	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		b.reset()
		return
	}
	if err != nil {
		b.logger.Warn("recent buffer snapshot unreadable, starting empty", "path", b.path, "error", err)
		b.reset()
		return
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		b.logger.Warn("recent buffer snapshot corrupt, starting empty", "path", b.path, "error", err)
		b.reset()
		return
	}

	if len(entries) > b.capacity {
		entries = entries[len(entries)-b.capacity:]
	}
	b.entries = entries
	b.logger.Debug("recent buffer loaded", "path", b.path, "entries", len(entries))
}

// reset writes an empty snapshot. Callers hold b.mu.
func (b *Buffer) reset() {
	if err := b.write([]byte("[]")); err != nil {
		b.logger.Error("writing empty recent buffer snapshot", "path", b.path, "error", err)
	}
}

// Append adds e, evicting the oldest entries beyond capacity.
func (b *Buffer) Append(e Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append(b.entries, e)
	if over := len(b.entries) - b.capacity; over > 0 {
		b.entries = append(b.entries[:0], b.entries[over:]...)
	}
}

// Trim drops the oldest entries so at most n remain.
func (b *Buffer) Trim(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if over := len(b.entries) - max(n, 0); over > 0 {
		b.entries = append(b.entries[:0], b.entries[over:]...)
	}
}

// Flush atomically overwrites the snapshot with the current contents.
func (b *Buffer) Flush() error {
	b.mu.Lock()
	data, err := json.Marshal(b.entries)
	b.mu.Unlock()

	if b.path == "" {
		return nil
	}
	if err != nil {
		return fmt.Errorf("encoding recent buffer: %w", err)
	}

	return b.write(data)
}

// write atomically replaces the snapshot file with data.
func (b *Buffer) write(data []byte) error {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating recent buffer dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(b.path)+".*.tmp")
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
	return os.Rename(tmp.Name(), b.path)
}

// Last returns up to n newest entries in chronological order.
func (b *Buffer) Last(n int) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n <= 0 {
		return []Entry{}
	}
	start := max(len(b.entries)-n, 0)
	return append([]Entry(nil), b.entries[start:]...)
}

// Snapshot returns a copy of every entry, oldest first.
func (b *Buffer) Snapshot() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Entry(nil), b.entries...)
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Matching returns up to limit entries whose content contains query
// (case-insensitive), newest first.
func (b *Buffer) Matching(query string, limit int) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	q := strings.ToLower(query)
	out := []Entry{}
	for i := len(b.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if strings.Contains(strings.ToLower(b.entries[i].Content), q) {
			out = append(out, b.entries[i])
		}
	}
	return out
}
