package testutils

import (
	"context"
	"fmt"

	"github.com/keepsakehq/keepsake/pkg/graph"
)

// MockGraphDriver is a test graph driver that records calls and can
// simulate the service being unreachable.
type MockGraphDriver struct {
	// Documents accumulates every Put by document id.
	Documents map[string]graph.Document

	// Unavailable causes every call to fail with graph.ErrUnavailable.
	Unavailable bool

	// SearchResults is returned by Search for any query.
	SearchResults []graph.SearchResult
}

// NewMockGraphDriver creates a new mock graph driver.
func NewMockGraphDriver() *MockGraphDriver {
	return &MockGraphDriver{
		Documents: make(map[string]graph.Document),
	}
}

func (m *MockGraphDriver) Put(_ context.Context, doc graph.Document) error {
	if m.Unavailable {
		return fmt.Errorf("%w: mock outage", graph.ErrUnavailable)
	}
	m.Documents[doc.ID] = doc
	return nil
}

func (m *MockGraphDriver) Delete(_ context.Context, id string) error {
	if m.Unavailable {
		return fmt.Errorf("%w: mock outage", graph.ErrUnavailable)
	}
	delete(m.Documents, id)
	return nil
}

func (m *MockGraphDriver) DeleteOwner(_ context.Context, ownerID string) (int, error) {
	if m.Unavailable {
		return 0, fmt.Errorf("%w: mock outage", graph.ErrUnavailable)
	}

	deleted := 0
	for id, doc := range m.Documents {
		if doc.OwnerID == ownerID {
			delete(m.Documents, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MockGraphDriver) Search(_ context.Context, _, _ string, _ int) ([]graph.SearchResult, error) {
	if m.Unavailable {
		return nil, fmt.Errorf("%w: mock outage", graph.ErrUnavailable)
	}
	return m.SearchResults, nil
}

func (m *MockGraphDriver) EntityCount(_ context.Context, ownerID string) (int, error) {
	if m.Unavailable {
		return 0, fmt.Errorf("%w: mock outage", graph.ErrUnavailable)
	}

	count := 0
	for _, doc := range m.Documents {
		if doc.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}
