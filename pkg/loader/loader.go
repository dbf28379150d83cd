// Package loader seeds the vector store from a historical transaction
// dataset: embeddings are generated concurrently within a batch, batches are
// upserted sequentially with a throttle pause between them.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cardinalpay/sift/pkg/embeddings"
	"github.com/cardinalpay/sift/pkg/transaction"
	"github.com/cardinalpay/sift/pkg/vector"
)

// DefaultBatchSize is the number of records embedded and upserted per batch.
const DefaultBatchSize = 20

// DefaultDelay is the pause between batches, respecting embedding provider
// rate limits.
const DefaultDelay = 1 * time.Second

// Options configures a load run.
type Options struct {
	// BatchSize is the records per batch. Defaults to DefaultBatchSize.
	BatchSize int

	// Throttle paces consecutive batches. Defaults to a FixedDelay of
	// DefaultDelay.
	Throttle Throttle
}

// Result contains statistics from a load run.
type Result struct {
	Records  int
	Batches  int
	Duration time.Duration
}

// Summary returns a human-readable summary of the load result.
func (r *Result) Summary() string {
	return fmt.Sprintf("Loaded %d records in %d batches (%s)", r.Records, r.Batches, r.Duration.Round(time.Millisecond))
}

// Loader embeds and upserts historical transactions.
type Loader struct {
	embedder embeddings.Embedder
	driver   vector.Driver
	logger   *slog.Logger

	batchSize int
	throttle  Throttle
}

// NewLoader creates a Loader over the given embedder and vector driver.
func NewLoader(embedder embeddings.Embedder, driver vector.Driver, logger *slog.Logger, opts Options) *Loader {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	throttle := opts.Throttle
	if throttle == nil {
		throttle = FixedDelay{Delay: DefaultDelay}
	}

	return &Loader{
		embedder:  embedder,
		driver:    driver,
		logger:    logger,
		batchSize: batchSize,
		throttle:  throttle,
	}
}

// Run loads the dataset. Ids are assigned sequentially from 0 in dataset
// order, so a re-run overwrites the same records instead of duplicating
// them. A single failure anywhere aborts the run.
func (l *Loader) Run(ctx context.Context, txns []transaction.Transaction) (*Result, error) {
	start := time.Now()
	result := &Result{}

	for offset := 0; offset < len(txns); offset += l.batchSize {
		end := offset + l.batchSize
		if end > len(txns) {
			end = len(txns)
		}
		batch := txns[offset:end]

		l.logger.Info("loading batch",
			"batch", result.Batches+1,
			"records", len(batch),
			"loaded", offset,
			"total", len(txns),
		)

		points, err := l.embedBatch(ctx, batch, uint64(offset))
		if err != nil {
			return nil, err
		}

		if err := l.driver.Upsert(ctx, points); err != nil {
			return nil, fmt.Errorf("upserting batch starting at %d: %w", offset, err)
		}

		result.Records += len(batch)
		result.Batches++

		if end < len(txns) {
			if err := l.throttle.Wait(ctx); err != nil {
				return nil, err
			}
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

// embedBatch embeds every record in the batch concurrently and waits for all
// of them before returning. Any single embedding failure fails the batch.
func (l *Loader) embedBatch(ctx context.Context, batch []transaction.Transaction, baseID uint64) ([]vector.Point, error) {
	points := make([]vector.Point, len(batch))
	errs := make([]error, len(batch))

	var wg sync.WaitGroup
	for i, txn := range batch {
		wg.Add(1)
		go func(i int, txn transaction.Transaction) {
			defer wg.Done()

			embedding, err := l.embedder.Embed(ctx, txn.EmbeddingText())
			if err != nil {
				errs[i] = fmt.Errorf("embedding record %d: %w", baseID+uint64(i), err)
				return
			}

			points[i] = vector.Point{
				ID:        baseID + uint64(i),
				Embedding: embedding,
				Payload:   txn.Payload(),
			}
		}(i, txn)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return points, nil
}
