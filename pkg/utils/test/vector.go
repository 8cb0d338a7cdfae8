package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/papercomputeco/sassy/pkg/vector"
)

// ErrMockVector is returned by MockVectorDriver when told to fail.
var ErrMockVector = errors.New("mock vector failure")

// MockVectorDriver is a test vector driver. Query returns Results when set,
// otherwise every added document with a perfect score.
type MockVectorDriver struct {
	mu        sync.Mutex
	documents []vector.Document

	Results   []vector.QueryResult
	FailAdd   bool
	FailQuery bool
	Closed    bool
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		documents: make([]vector.Document, 0),
	}
}

func (m *MockVectorDriver) Add(_ context.Context, docs []vector.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAdd {
		return ErrMockVector
	}
	m.documents = append(m.documents, docs...)
	return nil
}

func (m *MockVectorDriver) Query(_ context.Context, _ []float32, topK int) ([]vector.QueryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailQuery {
		return nil, ErrMockVector
	}

	results := m.Results
	if results == nil {
		results = make([]vector.QueryResult, 0, len(m.documents))
		for _, d := range m.documents {
			results = append(results, vector.QueryResult{Document: d, Score: 1})
		}
	}
	if len(results) < topK {
		return results, nil
	}
	return results[:topK], nil
}

func (m *MockVectorDriver) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.documents), nil
}

// Documents returns a copy of everything added so far.
func (m *MockVectorDriver) Documents() []vector.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]vector.Document(nil), m.documents...)
}

func (m *MockVectorDriver) Close() error {
	m.Closed = true
	return nil
}
