package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeNourishmentProgress is emitted after every ingestion query.
	EventTypeNourishmentProgress = "sassy.nourishment.progress"

	// EventTypeNourishmentCompleted is emitted once when a run ends.
	EventTypeNourishmentCompleted = "sassy.nourishment.completed"
)

// NourishmentEvent is a transport-neutral payload describing ingestion
// progress.
type NourishmentEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	// RunID groups the events of one ingestion run.
	RunID string `json:"run_id"`

	Query    string `json:"query,omitempty"`
	Index    int    `json:"index"`
	Total    int    `json:"total"`
	Accepted int    `json:"accepted"`
	Source   string `json:"source,omitempty"`
	Status   string `json:"status"`
	Excerpt  string `json:"excerpt,omitempty"`
}
