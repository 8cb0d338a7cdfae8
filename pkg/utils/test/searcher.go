package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/sassy/pkg/websearch"
)

// MockSearcher answers from fixed maps and records the queries it saw.
type MockSearcher struct {
	mu sync.Mutex

	Results map[string]websearch.Result
	Errors  map[string]error

	// Default answers queries missing from both maps.
	Default websearch.Result

	// Gate, when set, blocks every search until it is closed or the context
	// ends.
	Gate chan struct{}

	calls []string
}

func NewMockSearcher() *MockSearcher {
	return &MockSearcher{
		Results: map[string]websearch.Result{},
		Errors:  map[string]error{},
	}
}

func (m *MockSearcher) Search(ctx context.Context, query string) (websearch.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, query)
	gate := m.Gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return websearch.Result{}, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.Errors[query]; ok {
		return websearch.Result{}, err
	}
	if res, ok := m.Results[query]; ok {
		return res, nil
	}
	return m.Default, nil
}

// Calls returns the queries searched so far.
func (m *MockSearcher) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
