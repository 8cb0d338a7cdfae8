// Package nourishutils assembles the ingestion pipeline from configuration.
package nourishutils

import (
	"log/slog"

	"github.com/papercomputeco/sassy/pkg/config"
	"github.com/papercomputeco/sassy/pkg/eventstream"
	"github.com/papercomputeco/sassy/pkg/nourish"
	"github.com/papercomputeco/sassy/pkg/websearch"
)

type NewPipelineOpts struct {
	Config *config.Config
	Writer nourish.Writer

	// Searcher replaces the configured web search chain.
	Searcher nourish.Searcher

	// Queries replaces the default query set.
	Queries []string

	Logger *slog.Logger
}

// NewPipeline builds a pipeline searching the configured web sources.
func NewPipeline(o *NewPipelineOpts) *nourish.Pipeline {
	cfg := o.Config
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}

	timeout := config.ParseDuration(cfg.Nourish.QueryTimeout)

	searcher := o.Searcher
	if searcher == nil {
		searcher = websearch.FromConfig(cfg.WebSearch, timeout)
	}

	return nourish.New(searcher, o.Writer, nourish.Config{
		Queries:      o.Queries,
		QueryTimeout: timeout,
		Delay:        config.ParseDuration(cfg.Nourish.Delay),
		MinLength:    cfg.Nourish.MinLength,
		ExcerptRunes: cfg.Nourish.ExcerptRunes,
		Logger:       o.Logger,
	})
}

// MonitorFactory returns a constructor for per-run monitors that log progress
// and publish it to publisher. extra monitors are added to every run.
func MonitorFactory(publisher eventstream.Publisher, logger *slog.Logger, extra ...nourish.Monitor) func() nourish.Monitor {
	return func() nourish.Monitor {
		mm := nourish.MultiMonitor{
			nourish.NewLogMonitor(logger),
			nourish.NewEventMonitor(publisher, logger),
		}
		return append(mm, extra...)
	}
}
