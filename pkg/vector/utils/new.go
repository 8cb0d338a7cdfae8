// Package vectorutils builds a vector.Driver from configuration.
package vectorutils

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/sassy/pkg/vector"
	"github.com/papercomputeco/sassy/pkg/vector/chroma"
	"github.com/papercomputeco/sassy/pkg/vector/flat"
	"github.com/papercomputeco/sassy/pkg/vector/qdrant"
	"github.com/papercomputeco/sassy/pkg/vector/sqlitevec"
)

type NewVectorDriverOpts struct {
	ProviderType string

	// Target is a file path for "flat" and "sqlite", a URL for "chroma" and
	// a host:port for "qdrant".
	Target     string
	Collection string
	Dimensions uint
	Logger     *slog.Logger
}

func NewVectorDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.Driver, error) {
	if o.Target == "" {
		return nil, fmt.Errorf("vector store provider %q requires a target", o.ProviderType)
	}

	switch o.ProviderType {
	case "flat", "":
		return flat.NewDriver(flat.Config{Path: o.Target}, o.Logger)
	case "sqlite":
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:     o.Target,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case "chroma":
		return chroma.NewDriver(chroma.Config{
			URL:            o.Target,
			CollectionName: o.Collection,
		}, o.Logger)
	case "qdrant":
		if o.Dimensions == 0 {
			return nil, errors.New("qdrant requires embedding dimensions")
		}
		return qdrant.NewDriver(ctx, qdrant.Config{
			Target:         o.Target,
			CollectionName: o.Collection,
			Dimensions:     o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
