// Package servecmder provides the fraud-analysis API server command.
package servecmder

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cardinalpay/sift/api"
	"github.com/cardinalpay/sift/pkg/config"
	embeddingutils "github.com/cardinalpay/sift/pkg/embeddings/utils"
	"github.com/cardinalpay/sift/pkg/eventstream"
	"github.com/cardinalpay/sift/pkg/eventstream/kafka"
	"github.com/cardinalpay/sift/pkg/eventstream/nop"
	"github.com/cardinalpay/sift/pkg/logger"
	vectorutils "github.com/cardinalpay/sift/pkg/vector/utils"
)

type serveCommander struct {
	listen string
	debug  bool

	vectorStoreProvider string
	vectorStoreTarget   string
	vectorStoreAPIKey   string
	collection          string

	embeddingProvider   string
	embeddingTarget     string
	embeddingModel      string
	embeddingAPIKey     string
	embeddingDimensions uint

	eventStreamProvider string
	eventStreamBrokers  string
	eventStreamTopic    string
}

const serveLongDesc string = `Run the fraud-analysis API server.

The server accepts transaction JSON on POST /analyze-fraud, embeds it,
retrieves the nearest historical transactions from the vector store, and
returns a fraud score with per-heuristic explanations. The form UI is
served at the root path.

Credentials are read from the environment:
  SIFT_EMBEDDING_API_KEY      Embedding provider API key
  SIFT_VECTOR_STORE_API_KEY   Vector store API key`

const serveShortDesc string = "Run the fraud-analysis API server"

var serveFlagKeys = []string{
	config.FlagAPIListen,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagCollection,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagEventStreamProv,
	config.FlagEventStreamBrk,
	config.FlagEventStreamTop,
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, serveFlagKeys)

			cmder.resolve(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &cmder.vectorStoreProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &cmder.vectorStoreTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagCollection, &cmder.collection)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.embeddingProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &cmder.embeddingTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &cmder.embeddingModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &cmder.embeddingDimensions)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventStreamProv, &cmder.eventStreamProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventStreamBrk, &cmder.eventStreamBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventStreamTop, &cmder.eventStreamTopic)

	return cmd
}

// resolve pulls the final settings out of viper after flag binding, so the
// flag > env > config file > default precedence applies uniformly.
func (c *serveCommander) resolve(v *viper.Viper) {
	c.listen = v.GetString("api.listen")
	c.vectorStoreProvider = v.GetString("vector_store.provider")
	c.vectorStoreTarget = v.GetString("vector_store.target")
	c.vectorStoreAPIKey = v.GetString("vector_store.api_key")
	c.collection = v.GetString("vector_store.collection")
	c.embeddingProvider = v.GetString("embedding.provider")
	c.embeddingTarget = v.GetString("embedding.target")
	c.embeddingModel = v.GetString("embedding.model")
	c.embeddingAPIKey = v.GetString("embedding.api_key")
	c.embeddingDimensions = v.GetUint("embedding.dimensions")
	c.eventStreamProvider = v.GetString("eventstream.provider")
	c.eventStreamBrokers = v.GetString("eventstream.brokers")
	c.eventStreamTopic = v.GetString("eventstream.topic")
}

func (c *serveCommander) run() error {
	log := logger.New(logger.WithDebug(c.debug), logger.WithJSON(true))

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: c.embeddingProvider,
		TargetURL:    c.embeddingTarget,
		Model:        c.embeddingModel,
		APIKey:       c.embeddingAPIKey,
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer embedder.Close()

	driver, err := vectorutils.NewDriver(&vectorutils.NewDriverOpts{
		ProviderType: c.vectorStoreProvider,
		Target:       c.vectorStoreTarget,
		APIKey:       c.vectorStoreAPIKey,
		Collection:   c.collection,
		Dimensions:   c.embeddingDimensions,
	}, log)
	if err != nil {
		return fmt.Errorf("creating vector driver: %w", err)
	}
	defer driver.Close()

	publisher, err := c.newPublisher()
	if err != nil {
		return fmt.Errorf("creating event publisher: %w", err)
	}
	defer publisher.Close()

	server := api.NewServer(
		api.Config{ListenAddr: c.listen},
		embedder,
		driver,
		publisher,
		log,
	)

	// Graceful shutdown on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("shutting down", "signal", sig.String())
		if err := server.Shutdown(); err != nil {
			log.Error("shutdown failed", "error", err)
		}
	}()

	return server.Run()
}

func (c *serveCommander) newPublisher() (eventstream.Publisher, error) {
	switch c.eventStreamProvider {
	case "", "nop":
		return nop.NewPublisher(), nil
	case "kafka":
		return kafka.NewPublisher(kafka.Config{
			Brokers: strings.Split(c.eventStreamBrokers, ","),
			Topic:   c.eventStreamTopic,
		})
	default:
		return nil, fmt.Errorf("unsupported eventstream provider: %s", c.eventStreamProvider)
	}
}
