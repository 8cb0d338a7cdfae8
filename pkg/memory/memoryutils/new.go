// Package memoryutils assembles a memory.Engine from configuration.
package memoryutils

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/papercomputeco/sassy/pkg/config"
	embeddingutils "github.com/papercomputeco/sassy/pkg/embeddings/utils"
	"github.com/papercomputeco/sassy/pkg/memory"
	"github.com/papercomputeco/sassy/pkg/recent"
	"github.com/papercomputeco/sassy/pkg/semantic"
	storageutils "github.com/papercomputeco/sassy/pkg/storage/utils"
	vectorutils "github.com/papercomputeco/sassy/pkg/vector/utils"
)

// Default semantic index files per local provider.
const (
	FlatSnapshotFile = "semantic.json"
	SQLiteVecFile    = "semantic.db"
)

type NewEngineOpts struct {
	Config *config.Config

	// Dir anchors relative file paths, normally the .sassy/ directory.
	Dir    string
	Logger *slog.Logger
}

func resolve(dir, name string) string {
	if name == "" || name == ":memory:" || filepath.IsAbs(name) || dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

// VectorTarget returns the configured vector target, defaulting local
// providers to a file in dir.
func VectorTarget(cfg *config.Config, dir string) string {
	target := cfg.VectorStore.Target
	if target == "" {
		switch cfg.VectorStore.Provider {
		case "flat", "":
			target = FlatSnapshotFile
		case "sqlite":
			target = SQLiteVecFile
		}
	}
	switch cfg.VectorStore.Provider {
	case "flat", "", "sqlite":
		return resolve(dir, target)
	}
	return target
}

// NewEngine opens every store named by o.Config. Stores opened before a
// failure are closed again.
func NewEngine(ctx context.Context, o *NewEngineOpts) (*memory.Engine, error) {
	cfg := o.Config
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}

	store, err := storageutils.NewStorageDriver(ctx, &storageutils.NewStorageDriverOpts{
		ProviderType: cfg.Storage.Provider,
		SQLitePath:   resolve(o.Dir, cfg.Storage.SQLitePath),
		PostgresDSN:  cfg.Storage.PostgresDSN,
	})
	if err != nil {
		return nil, fmt.Errorf("creating storage driver: %w", err)
	}

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Embedding.Model,
		Dimensions:   cfg.Embedding.Dimensions,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	driver, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
		ProviderType: cfg.VectorStore.Provider,
		Target:       VectorTarget(cfg, o.Dir),
		Collection:   cfg.VectorStore.Collection,
		Dimensions:   cfg.Embedding.Dimensions,
		Logger:       o.Logger,
	})
	if err != nil {
		embedder.Close()
		store.Close()
		return nil, fmt.Errorf("creating vector driver: %w", err)
	}

	buffer := recent.New(resolve(o.Dir, cfg.Recent.SnapshotPath), cfg.Recent.Capacity, o.Logger)
	buffer.Load()

	engine, err := memory.NewEngine(memory.Config{
		Store:      store,
		Index:      semantic.New(embedder, driver, o.Logger),
		Buffer:     buffer,
		FlushEvery: cfg.Recent.FlushEvery,
		Logger:     o.Logger,
	})
	if err != nil {
		driver.Close()
		embedder.Close()
		store.Close()
		return nil, err
	}

	o.Logger.Debug("memory engine ready",
		"storage", cfg.Storage.Provider,
		"vector_store", cfg.VectorStore.Provider,
		"embedding", cfg.Embedding.Provider,
		"recent_entries", buffer.Len(),
	)
	return engine, nil
}
