// Package storageutils builds a storage.Driver from configuration.
package storageutils

import (
	"context"
	"errors"
	"fmt"

	"github.com/papercomputeco/sassy/pkg/storage"
	"github.com/papercomputeco/sassy/pkg/storage/inmemory"
	"github.com/papercomputeco/sassy/pkg/storage/postgres"
	"github.com/papercomputeco/sassy/pkg/storage/sqlite"
)

type NewStorageDriverOpts struct {
	ProviderType string
	SQLitePath   string
	PostgresDSN  string
}

func NewStorageDriver(ctx context.Context, o *NewStorageDriverOpts) (storage.Driver, error) {
	switch o.ProviderType {
	case "sqlite", "":
		if o.SQLitePath == "" {
			return nil, errors.New("sqlite storage requires a database path")
		}
		return sqlite.NewDriver(ctx, o.SQLitePath)
	case "postgres":
		if o.PostgresDSN == "" {
			return nil, errors.New("postgres storage requires a connection string")
		}
		return postgres.NewDriver(ctx, o.PostgresDSN)
	case "inmemory":
		return inmemory.NewDriver(), nil
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", o.ProviderType)
	}
}
