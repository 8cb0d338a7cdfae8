// Package chroma provides a Chroma vector database driver implementation.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/sassy/pkg/vector"
)

const (
	// DefaultCollectionName is the collection memories are stored in.
	DefaultCollectionName = "sassy_memories"

	defaultMaxRetries    = 5
	defaultRetryDelay    = 500 * time.Millisecond
	defaultMaxRetryDelay = 5 * time.Second

	apiPrefix = "/api/v2/tenants/default_tenant/databases/default_database/collections"
)

// Driver implements vector.Driver using Chroma's REST API.
type Driver struct {
	baseURL        string
	collectionName string
	collectionID   string
	httpClient     *http.Client
	logger         *slog.Logger
}

// Config holds configuration for the Chroma driver.
type Config struct {
	// URL is the Chroma server URL (e.g., "http://localhost:8000").
	URL string

	// CollectionName defaults to DefaultCollectionName.
	CollectionName string

	// MaxRetries bounds the connection attempts made while Chroma starts up.
	MaxRetries int

	// RetryDelay is the first backoff delay, doubled per attempt up to MaxRetryDelay.
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// NewDriver connects to Chroma and resolves (or creates) the collection,
// retrying with exponential backoff.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	if c.URL == "" {
		return nil, errors.New("chroma URL is required")
	}

	if c.CollectionName == "" {
		c.CollectionName = DefaultCollectionName
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = defaultRetryDelay
	}
	if c.MaxRetryDelay <= 0 {
		c.MaxRetryDelay = defaultMaxRetryDelay
	}

	d := &Driver{
		baseURL:        strings.TrimRight(c.URL, "/"),
		collectionName: c.CollectionName,
		httpClient:     &http.Client{Timeout: 60 * time.Second},
		logger:         logger,
	}

	var (
		lastErr error
		delay   = c.RetryDelay
	)
	for attempt := 1; attempt <= c.MaxRetries; attempt++ {
		id, err := d.getOrCreateCollection(context.Background())
		if err == nil {
			d.collectionID = id
			logger.Info("connected to chroma",
				"url", c.URL,
				"collection", c.CollectionName,
				"collection_id", id,
			)
			return d, nil
		}

		lastErr = err
		logger.Warn("chroma not ready",
			"attempt", attempt,
			"max_retries", c.MaxRetries,
			"error", err,
		)

		if attempt < c.MaxRetries {
			time.Sleep(delay)
			delay = min(delay*2, c.MaxRetryDelay)
		}
	}

	return nil, fmt.Errorf("connecting to chroma after %d attempts: %w: %w", c.MaxRetries, vector.ErrConnection, lastErr)
}

func (d *Driver) collectionURL(suffix string) string {
	return d.baseURL + apiPrefix + "/" + d.collectionID + suffix
}

func (d *Driver) getOrCreateCollection(ctx context.Context) (string, error) {
	var collection chromaCollection

	status, err := d.do(ctx, http.MethodGet, d.baseURL+apiPrefix+"/"+d.collectionName, nil, &collection)
	if err == nil {
		return collection.ID, nil
	}
	if status != http.StatusNotFound && status != http.StatusBadRequest {
		return "", err
	}

	if _, err := d.do(ctx, http.MethodPost, d.baseURL+apiPrefix, map[string]string{"name": d.collectionName}, &collection); err != nil {
		return "", fmt.Errorf("creating collection: %w", err)
	}
	return collection.ID, nil
}

// do sends body as JSON and decodes a 2xx response into out. The status code
// is returned even when err is non-nil.
func (d *Driver) do(ctx context.Context, method, url string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, fmt.Errorf("status %d: %s", resp.StatusCode, string(msg))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// Add stores documents with their embeddings. Document metadata rides along
// as Chroma metadata.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	req := chromaAddRequest{
		IDs:        make([]string, len(docs)),
		Embeddings: make([][]float32, len(docs)),
		Metadatas:  make([]map[string]any, len(docs)),
		Documents:  make([]string, len(docs)),
	}
	for i, doc := range docs {
		req.IDs[i] = doc.ID
		req.Embeddings[i] = doc.Embedding
		req.Documents[i] = doc.Content
		req.Metadatas[i] = map[string]any{
			"kind":       doc.Kind,
			"context":    doc.Context,
			"created_at": doc.CreatedAt.UnixNano(),
		}
	}

	if _, err := d.do(ctx, http.MethodPost, d.collectionURL("/add"), req, nil); err != nil {
		return fmt.Errorf("adding documents: %w", err)
	}

	d.logger.Debug("added documents to chroma", "count", len(docs))
	return nil
}

// Query finds the topK nearest documents to the given embedding.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = vector.DefaultTopK
	}

	req := chromaQueryRequest{
		QueryEmbeddings: [][]float32{embedding},
		NResults:        topK,
		Include:         []string{"metadatas", "distances", "documents"},
	}

	var resp chromaQueryResponse
	if _, err := d.do(ctx, http.MethodPost, d.collectionURL("/query"), req, &resp); err != nil {
		return nil, fmt.Errorf("querying: %w", err)
	}

	results := []vector.QueryResult{}
	if len(resp.IDs) == 0 {
		return results, nil
	}

	for i, id := range resp.IDs[0] {
		r := vector.QueryResult{Document: vector.Document{ID: id}}

		if len(resp.Documents) > 0 && i < len(resp.Documents[0]) {
			r.Content = resp.Documents[0][i]
		}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			applyMetadata(&r.Document, resp.Metadatas[0][i])
		}
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			r.Distance = resp.Distances[0][i]
		}
		r.Score = vector.Similarity(r.Distance)

		results = append(results, r)
	}

	d.logger.Debug("queried chroma", "results", len(results))
	return results, nil
}

func applyMetadata(doc *vector.Document, md map[string]any) {
	if md == nil {
		return
	}
	if kind, ok := md["kind"].(string); ok {
		doc.Kind = kind
	}
	if c, ok := md["context"].(string); ok {
		doc.Context = c
	}
	// JSON numbers decode as float64.
	if ts, ok := md["created_at"].(float64); ok {
		doc.CreatedAt = time.Unix(0, int64(ts))
	}
}

func (d *Driver) Count(ctx context.Context) (int, error) {
	var n int
	if _, err := d.do(ctx, http.MethodGet, d.collectionURL("/count"), nil, &n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

// Close is a no-op: the HTTP client holds nothing to release.
func (d *Driver) Close() error {
	return nil
}

var _ vector.Driver = (*Driver)(nil)
