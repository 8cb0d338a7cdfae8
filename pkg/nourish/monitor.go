package nourish

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/sassy/pkg/eventstream"
)

// Progress is reported after every query and once more when a run ends.
type Progress struct {
	// Accepted is the running count of stored snippets.
	Accepted int
	Source   string
	Status   string

	// Excerpt is the stored text when the query was accepted.
	Excerpt string
	Query   string
	Index   int
	Total   int

	// Done marks the final report of a run.
	Done bool
}

// Monitor observes a run. Closed lets the monitor ask the run to stop; it is
// checked after every query.
type Monitor interface {
	Report(p Progress)
	Closed() bool
}

// LogMonitor writes progress to a logger.
type LogMonitor struct {
	logger *slog.Logger
}

func NewLogMonitor(logger *slog.Logger) *LogMonitor {
	return &LogMonitor{logger: logger}
}

func (m *LogMonitor) Report(p Progress) {
	if p.Done {
		m.logger.Info("nourishment finished", "accepted", p.Accepted, "attempted", p.Index, "total", p.Total, "status", p.Status)
		return
	}
	m.logger.Info("nourishment progress",
		"query", p.Query,
		"index", p.Index,
		"total", p.Total,
		"accepted", p.Accepted,
		"source", p.Source,
		"status", p.Status,
	)
}

func (m *LogMonitor) Closed() bool { return false }

// EventMonitor publishes progress to an event stream. Publish failures are
// logged and never stop the run.
type EventMonitor struct {
	publisher eventstream.Publisher
	runID     string
	timeout   time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func NewEventMonitor(publisher eventstream.Publisher, logger *slog.Logger) *EventMonitor {
	return &EventMonitor{
		publisher: publisher,
		runID:     uuid.NewString(),
		timeout:   5 * time.Second,
		logger:    logger,
		now:       time.Now,
	}
}

// RunID identifies the run in published events.
func (m *EventMonitor) RunID() string { return m.runID }

func (m *EventMonitor) Report(p Progress) {
	eventType := eventstream.EventTypeNourishmentProgress
	if p.Done {
		eventType = eventstream.EventTypeNourishmentCompleted
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	err := m.publisher.PublishNourishment(ctx, &eventstream.NourishmentEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventType,
		EventID:       uuid.NewString(),
		EmittedAt:     m.now().UTC(),
		RunID:         m.runID,
		Query:         p.Query,
		Index:         p.Index,
		Total:         p.Total,
		Accepted:      p.Accepted,
		Source:        p.Source,
		Status:        p.Status,
		Excerpt:       p.Excerpt,
	})
	if err != nil {
		m.logger.Warn("publishing nourishment event", "run_id", m.runID, "error", err)
	}
}

func (m *EventMonitor) Closed() bool { return false }

// MultiMonitor fans reports out to several monitors and is closed as soon as
// any of them is.
type MultiMonitor []Monitor

func (mm MultiMonitor) Report(p Progress) {
	for _, m := range mm {
		if m != nil {
			m.Report(p)
		}
	}
}

func (mm MultiMonitor) Closed() bool {
	for _, m := range mm {
		if m != nil && m.Closed() {
			return true
		}
	}
	return false
}
