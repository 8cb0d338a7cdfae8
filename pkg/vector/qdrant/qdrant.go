// Package qdrant provides a Qdrant vector driver over the gRPC client.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/sassy/pkg/vector"
)

const (
	// DefaultCollectionName is the collection memories are stored in.
	DefaultCollectionName = "sassy_memories"

	// DefaultPort is Qdrant's gRPC port.
	DefaultPort = 6334
)

// Driver implements vector.Driver on a Qdrant collection using Euclidean
// distance, so scores returned by Qdrant are L2 distances.
type Driver struct {
	client     *qdrant.Client
	collection string
	logger     *slog.Logger
}

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Target is "host" or "host:port" of the gRPC endpoint.
	Target string

	CollectionName string

	// Dimensions sizes the collection when it has to be created.
	Dimensions uint
}

// ParseTarget splits a target into host and port, accepting an optional
// http:// or https:// scheme.
func ParseTarget(target string) (string, int, error) {
	target = strings.TrimPrefix(strings.TrimPrefix(target, "http://"), "https://")
	target = strings.TrimRight(target, "/")
	if target == "" {
		return "", 0, errors.New("qdrant target is required")
	}

	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		// no port
		return target, DefaultPort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid qdrant port %q: %w", portStr, err)
	}
	return host, port, nil
}

// NewDriver connects to Qdrant and creates the collection if needed.
func NewDriver(ctx context.Context, c Config, logger *slog.Logger) (*Driver, error) {
	host, port, err := ParseTarget(c.Target)
	if err != nil {
		return nil, err
	}
	if c.Dimensions == 0 {
		return nil, errors.New("qdrant embedding dimensions cannot be 0, must be configured")
	}
	if c.CollectionName == "" {
		c.CollectionName = DefaultCollectionName
	}

	client, err := qdrant.NewClient(&qdrant.Config{Host: host, Port: port})
	if err != nil {
		return nil, fmt.Errorf("creating qdrant client: %w: %w", vector.ErrConnection, err)
	}

	exists, err := client.CollectionExists(ctx, c.CollectionName)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("checking collection %q: %w: %w", c.CollectionName, vector.ErrConnection, err)
	}

	if !exists {
		err = client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: c.CollectionName,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(c.Dimensions),
				Distance: qdrant.Distance_Euclid,
			}),
		})
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("creating collection %q: %w", c.CollectionName, err)
		}
		logger.Info("created qdrant collection", "collection", c.CollectionName, "dimensions", c.Dimensions)
	}

	logger.Info("connected to qdrant", "host", host, "port", port, "collection", c.CollectionName)

	return &Driver{client: client, collection: c.CollectionName, logger: logger}, nil
}

// Add upserts documents. IDs must be UUIDs.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(docs))
	for _, doc := range docs {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(doc.ID),
			Vectors: qdrant.NewVectors(doc.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				"content":    doc.Content,
				"kind":       doc.Kind,
				"context":    doc.Context,
				"created_at": doc.CreatedAt.UnixNano(),
			}),
		})
	}

	wait := true
	if _, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: d.collection,
		Wait:           &wait,
		Points:         points,
	}); err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	d.logger.Debug("added documents to qdrant", "count", len(docs))
	return nil
}

// Query returns the nearest points. Qdrant reports Euclidean distance as the
// point score.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = vector.DefaultTopK
	}

	limit := uint64(topK)
	points, err := d.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: d.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}

	results := make([]vector.QueryResult, 0, len(points))
	for _, p := range points {
		doc := documentFromPayload(p.GetPayload())
		doc.ID = p.GetId().GetUuid()

		results = append(results, vector.QueryResult{
			Document: doc,
			Distance: p.GetScore(),
			Score:    vector.Similarity(p.GetScore()),
		})
	}

	d.logger.Debug("queried qdrant", "results", len(results))
	return results, nil
}

func documentFromPayload(payload map[string]*qdrant.Value) vector.Document {
	return vector.Document{
		Content:   payload["content"].GetStringValue(),
		Kind:      payload["kind"].GetStringValue(),
		Context:   payload["context"].GetStringValue(),
		CreatedAt: time.Unix(0, payload["created_at"].GetIntegerValue()),
	}
}

func (d *Driver) Count(ctx context.Context) (int, error) {
	exact := true
	n, err := d.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: d.collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("counting points: %w", err)
	}
	return int(n), nil
}

func (d *Driver) Close() error {
	return d.client.Close()
}

var _ vector.Driver = (*Driver)(nil)
