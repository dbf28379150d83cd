// Package analyze runs the fraud-analysis pipeline: embed the transaction,
// search the vector store for its nearest historical neighbors, then score
// it against them. It is used by both endpoint variants.
package analyze

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cardinalpay/sift/pkg/embeddings"
	"github.com/cardinalpay/sift/pkg/fraud"
	"github.com/cardinalpay/sift/pkg/transaction"
	"github.com/cardinalpay/sift/pkg/vector"
)

// Output is the analysis response body.
type Output struct {
	FraudScore          float64            `json:"fraudScore"`
	Analysis            *fraud.Explanation `json:"analysis,omitempty"`
	SimilarTransactions []vector.Neighbor  `json:"similarTransactions"`
}

// Analyze embeds txn, retrieves its limit nearest neighbors, and scores it.
// The three stages are strictly sequential; a failure at any stage fails the
// whole operation.
func Analyze(
	ctx context.Context,
	txn transaction.Transaction,
	limit int,
	explain bool,
	embedder embeddings.Embedder,
	vectorDriver vector.Driver,
	logger *slog.Logger,
) (*Output, error) {
	logger.Debug("analyzing transaction",
		"amount", txn.Amount,
		"location", txn.CityState(),
		"limit", limit,
		"explain", explain,
	)

	embedding, err := embedder.Embed(ctx, txn.EmbeddingText())
	if err != nil {
		return nil, fmt.Errorf("failed to embed transaction: %w", err)
	}

	neighbors, err := vectorDriver.Search(ctx, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search vector store: %w", err)
	}

	analysis, err := fraud.Analyze(txn, neighbors, fraud.Options{Explain: explain})
	if err != nil {
		return nil, fmt.Errorf("failed to score transaction: %w", err)
	}

	output := &Output{
		FraudScore:          analysis.Score,
		SimilarTransactions: neighbors,
	}
	if analysis.Explanation != nil && !analysis.Explanation.Empty() {
		output.Analysis = analysis.Explanation
	}
	return output, nil
}
