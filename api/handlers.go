package api

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/cardinalpay/sift/api/analyze"
	"github.com/cardinalpay/sift/pkg/eventstream"
	"github.com/cardinalpay/sift/pkg/fraud"
	"github.com/cardinalpay/sift/pkg/transaction"
)

// ErrorResponse is the generic failure body. Every pipeline failure maps to
// the same message; causes are logged, never exposed to the caller.
type ErrorResponse struct {
	Error string `json:"error"`
}

const analyzeErrorMessage = "Error analyzing transaction"

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleAnalyzeFraud scores a transaction against its 5 nearest historical
// neighbors and returns the score with per-heuristic explanations.
func (s *Server) handleAnalyzeFraud(c *fiber.Ctx) error {
	return s.analyzeRequest(c, InteractiveNeighborLimit, true)
}

// handleAnalyzeFraudHistory scores a transaction against its 50 nearest
// historical neighbors and returns the bare score.
func (s *Server) handleAnalyzeFraudHistory(c *fiber.Ctx) error {
	return s.analyzeRequest(c, HistoryNeighborLimit, false)
}

func (s *Server) analyzeRequest(c *fiber.Ctx, limit int, explain bool) error {
	start := time.Now()
	logger := s.logger.With("request_id", uuid.NewString(), "path", c.Path())

	var txn transaction.Transaction
	if err := json.Unmarshal(c.Body(), &txn); err != nil {
		logger.Warn("malformed request body", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: analyzeErrorMessage})
	}
	if err := txn.Validate(); err != nil {
		logger.Warn("invalid transaction", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: analyzeErrorMessage})
	}

	output, err := analyze.Analyze(c.Context(), txn, limit, explain, s.embedder, s.driver, logger)
	if err != nil {
		logger.Error("analysis failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: analyzeErrorMessage})
	}

	s.publishAnalysis(c, logger, txn, output, start)

	return c.JSON(output)
}

// publishAnalysis emits a transaction-analyzed event. Publishing is
// best-effort: a failure is logged and never fails the request.
func (s *Server) publishAnalysis(c *fiber.Ctx, logger *slog.Logger, txn transaction.Transaction, output *analyze.Output, start time.Time) {
	completed := time.Now()
	event := &eventstream.TransactionAnalyzedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeTransactionAnalyzed,
		EventID:       uuid.NewString(),
		EmittedAt:     completed,
		RequestMeta: eventstream.AnalysisRequestMeta{
			Path:        c.Path(),
			StartedAt:   start,
			CompletedAt: completed,
			DurationMs:  completed.Sub(start).Milliseconds(),
		},
		Transaction: txn,
		Result: eventstream.AnalysisResult{
			Score:         output.FraudScore,
			Level:         fraud.Level(output.FraudScore),
			NeighborCount: len(output.SimilarTransactions),
			Explanation:   output.Analysis,
		},
	}

	if err := s.publisher.PublishAnalysis(c.Context(), event); err != nil {
		logger.Warn("failed to publish analysis event", "error", err)
	}
}
