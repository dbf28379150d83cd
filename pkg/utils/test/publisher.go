package testutils

import (
	"context"

	"github.com/cardinalpay/sift/pkg/eventstream"
)

// MockPublisher is a test eventstream publisher that records events
type MockPublisher struct {
	Events []*eventstream.TransactionAnalyzedEvent

	// Err forces PublishAnalysis to fail
	Err error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishAnalysis(_ context.Context, event *eventstream.TransactionAnalyzedEvent) error {
	if m.Err != nil {
		return m.Err
	}
	if event == nil {
		return eventstream.ErrNilAnalysisEvent
	}
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}
