// Package nourish runs the background ingestion pipeline that feeds
// encyclopedic snippets from the web into memory.
//
// A run walks a fixed query set sequentially, accepting only answers that
// are long enough and free of low-value phrases, and writes each new snippet
// once. At most one run is active per Pipeline.
package nourish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/papercomputeco/sassy/pkg/logger"
	"github.com/papercomputeco/sassy/pkg/memory"
	"github.com/papercomputeco/sassy/pkg/storage"
	"github.com/papercomputeco/sassy/pkg/websearch"
)

// ErrAlreadyRunning is returned by Run while another run is active.
var ErrAlreadyRunning = errors.New("nourishment already running")

// MemoryContext is the context of every memory the pipeline writes.
const MemoryContext = "auto-nourishment"

// Categories are attached to every stored snippet.
var Categories = []string{"internet", "auto-nourishment"}

const (
	defaultQueryTimeout = 15 * time.Second
	defaultMinLength    = 80
	defaultExcerptRunes = 1200
)

// Searcher fetches text for a query. An empty Summary means nothing found.
type Searcher interface {
	Search(ctx context.Context, query string) (websearch.Result, error)
}

// Writer stores accepted snippets. *memory.Engine implements it.
type Writer interface {
	Write(ctx context.Context, p memory.WriteParams) memory.WriteResult
}

// State is the pipeline lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

// Result summarises a finished run.
type Result struct {
	Attempted  int  `json:"attempted"`
	Accepted   int  `json:"accepted"`
	Duplicates int  `json:"duplicates"`
	Rejected   int  `json:"rejected"`
	Errors     int  `json:"errors"`
	Cancelled  bool `json:"cancelled"`
}

// Config tunes a Pipeline. Zero values use defaults.
type Config struct {
	// Queries replaces DefaultQueries.
	Queries []string

	QueryTimeout time.Duration

	// Delay pauses between queries to respect search rate limits.
	Delay time.Duration

	// MinLength is the summary length, in runes, an answer must exceed.
	MinLength int

	// ExcerptRunes bounds the extended text appended to a summary.
	ExcerptRunes int

	Logger *slog.Logger
}

// Pipeline is the ingestion pipeline.
type Pipeline struct {
	searcher Searcher
	writer   Writer
	cfg      Config
	logger   *slog.Logger

	state atomic.Int32
	delay atomic.Int64

	// seen holds every text accepted by this pipeline, across runs.
	seenMu sync.Mutex
	seen   map[string]struct{}

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	last   Result
}

func New(searcher Searcher, writer Writer, cfg Config) *Pipeline {
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = defaultQueryTimeout
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = defaultMinLength
	}
	if cfg.ExcerptRunes <= 0 {
		cfg.ExcerptRunes = defaultExcerptRunes
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	p := &Pipeline{
		searcher: searcher,
		writer:   writer,
		cfg:      cfg,
		logger:   cfg.Logger,
		seen:     map[string]struct{}{},
	}
	p.delay.Store(int64(cfg.Delay))
	return p
}

// Queries returns the query set a run walks.
func (p *Pipeline) Queries() []string {
	if len(p.cfg.Queries) > 0 {
		return append([]string(nil), p.cfg.Queries...)
	}
	return DefaultQueries()
}

// SetDelay changes the pause between queries, including for a run in
// progress.
func (p *Pipeline) SetDelay(d time.Duration) {
	p.delay.Store(int64(max(d, 0)))
}

func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// LastResult returns the result of the most recent finished run.
func (p *Pipeline) LastResult() Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// begin moves the pipeline into StateRunning unless it already is, and
// installs the run's cancel func and done channel in the same critical
// section so Stop and Wait always see the run they race with.
func (p *Pipeline) begin(ctx context.Context) (context.Context, chan struct{}, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.State() == StateRunning {
		return nil, nil, false
	}
	p.state.Store(int32(StateRunning))

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	return runCtx, p.done, true
}

// Start launches a run in the background and reports whether it did. A run
// already in progress makes Start a no-op returning false.
func (p *Pipeline) Start(ctx context.Context, monitor Monitor) bool {
	runCtx, done, ok := p.begin(ctx)
	if !ok {
		p.logger.Debug("nourishment start ignored, already running")
		return false
	}

	go func() {
		p.finish(p.run(runCtx, monitor), done)
	}()
	return true
}

// Run executes a run on the calling goroutine.
func (p *Pipeline) Run(ctx context.Context, monitor Monitor) (Result, error) {
	runCtx, done, ok := p.begin(ctx)
	if !ok {
		return Result{}, ErrAlreadyRunning
	}

	res := p.run(runCtx, monitor)
	p.finish(res, done)
	return res, nil
}

func (p *Pipeline) finish(res Result, done chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	p.last = res
	p.cancel = nil

	if res.Cancelled {
		p.state.Store(int32(StateCancelled))
	} else {
		p.state.Store(int32(StateIdle))
	}
	close(done)
}

// Stop asks the active run to end after its current query.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
}

// Wait blocks until the latest run has finished.
func (p *Pipeline) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()

	if done != nil {
		<-done
	}
}

// RunEvery starts a run immediately and then every interval until ctx is
// done, skipping ticks that land while a run is active. Each run gets a
// fresh monitor from newMonitor.
func (p *Pipeline) RunEvery(ctx context.Context, interval time.Duration, newMonitor func() Monitor) {
	if interval <= 0 {
		p.logger.Warn("nourishment interval not positive, scheduling disabled", "interval", interval)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if !p.Start(ctx, newMonitor()) {
			p.logger.Info("nourishment still running, skipping scheduled run")
		}

		select {
		case <-ctx.Done():
			p.Stop()
			p.Wait()
			return
		case <-ticker.C:
		}
	}
}

func (p *Pipeline) run(ctx context.Context, monitor Monitor) Result {
	if monitor == nil {
		monitor = NewLogMonitor(p.logger)
	}

	queries := p.Queries()
	total := len(queries)
	res := Result{}

	p.logger.Info("nourishment started", "queries", total)

	for i, q := range queries {
		if ctx.Err() != nil {
			res.Cancelled = true
			break
		}

		res.Attempted++
		prog := p.ingest(ctx, q, &res)
		prog.Query = q
		prog.Index = i + 1
		prog.Total = total
		prog.Accepted = res.Accepted
		monitor.Report(prog)

		if monitor.Closed() || ctx.Err() != nil {
			res.Cancelled = true
			break
		}

		if d := time.Duration(p.delay.Load()); d > 0 && i < total-1 {
			select {
			case <-ctx.Done():
			case <-time.After(d):
			}
		}
	}

	status := fmt.Sprintf("Nourishment complete: %d memories stored from %d queries", res.Accepted, res.Attempted)
	if res.Cancelled {
		status = fmt.Sprintf("Nourishment cancelled: %d memories stored from %d of %d queries", res.Accepted, res.Attempted, total)
	}
	monitor.Report(Progress{
		Accepted: res.Accepted,
		Source:   "-",
		Status:   status,
		Index:    res.Attempted,
		Total:    total,
		Done:     true,
	})

	p.logger.Info("nourishment finished",
		"attempted", res.Attempted,
		"accepted", res.Accepted,
		"duplicates", res.Duplicates,
		"rejected", res.Rejected,
		"errors", res.Errors,
		"cancelled", res.Cancelled,
	)
	return res
}

// ingest handles one query. Failures become statuses, never errors.
func (p *Pipeline) ingest(ctx context.Context, query string, res *Result) Progress {
	qctx, cancel := context.WithTimeout(ctx, p.cfg.QueryTimeout)
	defer cancel()

	found, err := p.searcher.Search(qctx, query)
	if err != nil {
		res.Errors++
		p.logger.Warn("nourishment query failed", "query", query, "error", err)
		return Progress{Source: "-", Status: fmt.Sprintf("[ERROR] %s: %v", query, err)}
	}

	if !acceptable(found.Summary, p.cfg.MinLength) {
		res.Rejected++
		return Progress{Source: "-", Status: "No useful result: " + query}
	}

	text := compose(found.Summary, found.Extended, p.cfg.ExcerptRunes)

	p.seenMu.Lock()
	defer p.seenMu.Unlock()

	if _, dup := p.seen[text]; dup {
		res.Duplicates++
		return Progress{Source: found.Source, Status: "(duplicate) " + query}
	}

	w := p.writer.Write(ctx, memory.WriteParams{
		Content:    text,
		Kind:       storage.KindWebNourishment,
		Context:    MemoryContext,
		Categories: Categories,
		Metadata: map[string]any{
			"query":  query,
			"source": found.Source,
		},
	})
	if !w.Stored && !w.Indexed {
		res.Errors++
		return Progress{Source: found.Source, Status: "[ERROR] could not store result for: " + query}
	}

	p.seen[text] = struct{}{}
	res.Accepted++
	return Progress{
		Source:  found.Source,
		Status:  "[OK] stored memory from: " + query,
		Excerpt: text,
	}
}
