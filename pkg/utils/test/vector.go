package testutils

import (
	"context"

	"github.com/cardinalpay/sift/pkg/vector"
)

// MockVectorDriver is a test vector driver
type MockVectorDriver struct {
	// Neighbors is returned from Search, trimmed to the requested limit
	Neighbors []vector.Neighbor

	// Upserts records every batch passed to Upsert
	Upserts [][]vector.Point

	// SearchErr and UpsertErr force the corresponding call to fail
	SearchErr error
	UpsertErr error

	EnsureCalls int
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{}
}

func (m *MockVectorDriver) EnsureCollection(_ context.Context) error {
	m.EnsureCalls++
	return nil
}

func (m *MockVectorDriver) Upsert(_ context.Context, points []vector.Point) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	m.Upserts = append(m.Upserts, points)
	return nil
}

func (m *MockVectorDriver) Search(_ context.Context, _ []float32, limit int) ([]vector.Neighbor, error) {
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	if len(m.Neighbors) < limit {
		return m.Neighbors, nil
	}
	return m.Neighbors[:limit], nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}
