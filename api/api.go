package api

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"

	"github.com/cardinalpay/sift/pkg/embeddings"
	"github.com/cardinalpay/sift/pkg/eventstream"
	"github.com/cardinalpay/sift/pkg/vector"
	"github.com/cardinalpay/sift/web"
)

// Server is the HTTP server for the fraud-analysis endpoints and form UI
type Server struct {
	config    Config
	embedder  embeddings.Embedder
	driver    vector.Driver
	publisher eventstream.Publisher
	logger    *slog.Logger
	app       *fiber.App
}

// NewServer creates a new API server. The embedder, vector driver, and
// publisher are injected so the process entry point owns their lifecycle
// and tests can substitute fakes.
func NewServer(
	config Config,
	embedder embeddings.Embedder,
	driver vector.Driver,
	publisher eventstream.Publisher,
	logger *slog.Logger,
) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:    config,
		embedder:  embedder,
		driver:    driver,
		publisher: publisher,
		logger:    logger,
		app:       app,
	}

	app.Get("/ping", s.handlePing)
	app.Post("/analyze-fraud", s.handleAnalyzeFraud)
	app.Post("/analyze-fraud/history", s.handleAnalyzeFraudHistory)
	app.Use("/", filesystem.New(filesystem.Config{
		Root: http.FS(web.FS),
	}))

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
