package testutils

import (
	"sync"

	"github.com/papercomputeco/sassy/pkg/nourish"
)

// RecordingMonitor keeps every progress report. It reports itself closed
// once CloseAfter reports arrived, when CloseAfter is positive.
type RecordingMonitor struct {
	mu      sync.Mutex
	reports []nourish.Progress

	CloseAfter int
}

func NewRecordingMonitor() *RecordingMonitor {
	return &RecordingMonitor{}
}

func (m *RecordingMonitor) Report(p nourish.Progress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, p)
}

func (m *RecordingMonitor) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CloseAfter > 0 && len(m.reports) >= m.CloseAfter
}

// Reports returns a copy of the reports received so far.
func (m *RecordingMonitor) Reports() []nourish.Progress {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]nourish.Progress(nil), m.reports...)
}
