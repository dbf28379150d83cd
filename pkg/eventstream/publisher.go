package eventstream

import "context"

// Publisher publishes analysis events to an event stream backend.
type Publisher interface {
	PublishAnalysis(ctx context.Context, event *TransactionAnalyzedEvent) error
	Close() error
}
