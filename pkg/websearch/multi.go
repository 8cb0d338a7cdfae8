package websearch

import (
	"context"
	"errors"
	"fmt"
)

// Multi asks each source in turn and returns the first non-empty answer.
type Multi struct {
	sources []Source
}

func NewMulti(sources ...Source) *Multi {
	return &Multi{sources: sources}
}

// Search simplifies query and tries every source. An empty Result with a nil
// error means no source had anything. Source errors are only returned, wrapped
// in ErrNoResult, when no source produced text.
func (m *Multi) Search(ctx context.Context, query string) (Result, error) {
	q := Simplify(query)

	var errs []error
	for _, s := range m.sources {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		res, err := s.Search(ctx, q)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if res.Summary != "" {
			return res, nil
		}
	}

	if len(errs) > 0 {
		return Result{}, fmt.Errorf("%w for %q: %w", ErrNoResult, q, errors.Join(errs...))
	}
	return Result{}, nil
}
