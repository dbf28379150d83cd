package eventstream

import (
	"time"

	"github.com/cardinalpay/sift/pkg/fraud"
	"github.com/cardinalpay/sift/pkg/transaction"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTransactionAnalyzed is emitted after a transaction is scored.
	EventTypeTransactionAnalyzed = "sift.transaction.analyzed"
)

// TransactionAnalyzedEvent is a transport-neutral event payload for one
// completed fraud analysis.
type TransactionAnalyzedEvent struct {
	SchemaVersion int                     `json:"schema_version"`
	EventType     string                  `json:"event_type"`
	EventID       string                  `json:"event_id"`
	EmittedAt     time.Time               `json:"emitted_at"`
	RequestMeta   AnalysisRequestMeta     `json:"request_meta"`
	Transaction   transaction.Transaction `json:"transaction"`
	Result        AnalysisResult          `json:"result"`
}

// AnalysisRequestMeta captures request lifecycle metadata for the event.
type AnalysisRequestMeta struct {
	Path        string    `json:"path,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
}

// AnalysisResult captures the scoring outcome carried on the event.
type AnalysisResult struct {
	Score         float64            `json:"score"`
	Level         string             `json:"level"`
	NeighborCount int                `json:"neighbor_count"`
	Explanation   *fraud.Explanation `json:"explanation,omitempty"`
}
