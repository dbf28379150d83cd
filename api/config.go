// Package api provides the HTTP server for scoring transactions and serving
// the fraud-analysis form UI.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string
}

const (
	// InteractiveNeighborLimit is the neighbor count for the interactive
	// endpoint, which returns per-heuristic explanations.
	InteractiveNeighborLimit = 5

	// HistoryNeighborLimit is the neighbor count for the historical-analysis
	// endpoint, which returns the bare score.
	HistoryNeighborLimit = 50
)
