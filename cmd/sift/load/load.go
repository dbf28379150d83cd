// Package loadcmder provides the bulk-load command that seeds the vector
// store with the bundled historical payment dataset.
package loadcmder

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cardinalpay/sift/pkg/cliui"
	"github.com/cardinalpay/sift/pkg/config"
	embeddingutils "github.com/cardinalpay/sift/pkg/embeddings/utils"
	"github.com/cardinalpay/sift/pkg/loader"
	"github.com/cardinalpay/sift/pkg/logger"
	vectorutils "github.com/cardinalpay/sift/pkg/vector/utils"
)

type loadCommander struct {
	debug bool

	vectorStoreProvider string
	vectorStoreTarget   string
	vectorStoreAPIKey   string
	collection          string

	embeddingProvider   string
	embeddingTarget     string
	embeddingModel      string
	embeddingAPIKey     string
	embeddingDimensions uint

	batchSize uint
	delayMs   uint
}

const loadLongDesc string = `Seed the vector store with historical payment transactions.

Ensures the collection exists (with payload indexes), then embeds and
upserts the bundled payment history in batches, pausing between batches to
respect embedding provider rate limits. Record ids are assigned
sequentially from 0, so re-running overwrites rather than duplicates.`

const loadShortDesc string = "Seed the vector store with historical payments"

var loadFlagKeys = []string{
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagCollection,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagLoaderBatchSize,
	config.FlagLoaderDelayMs,
}

func NewLoadCmd() *cobra.Command {
	cmder := &loadCommander{}

	cmd := &cobra.Command{
		Use:   "load",
		Short: loadShortDesc,
		Long:  loadLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, loadFlagKeys)

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

	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &cmder.vectorStoreProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &cmder.vectorStoreTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagCollection, &cmder.collection)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.embeddingProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &cmder.embeddingTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &cmder.embeddingModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &cmder.embeddingDimensions)
	config.AddUintFlag(cmd, config.Flags, config.FlagLoaderBatchSize, &cmder.batchSize)
	config.AddUintFlag(cmd, config.Flags, config.FlagLoaderDelayMs, &cmder.delayMs)

	return cmd
}

func (c *loadCommander) resolve(v *viper.Viper) {
	c.vectorStoreProvider = v.GetString("vector_store.provider")
	c.vectorStoreTarget = v.GetString("vector_store.target")
	c.vectorStoreAPIKey = v.GetString("vector_store.api_key")
	c.collection = v.GetString("vector_store.collection")
	c.embeddingProvider = v.GetString("embedding.provider")
	c.embeddingTarget = v.GetString("embedding.target")
	c.embeddingModel = v.GetString("embedding.model")
	c.embeddingAPIKey = v.GetString("embedding.api_key")
	c.embeddingDimensions = v.GetUint("embedding.dimensions")
	c.batchSize = v.GetUint("loader.batch_size")
	c.delayMs = v.GetUint("loader.delay_ms")
}

func (c *loadCommander) run() error {
	log := logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))
	ctx := context.Background()

	txns, err := loader.Dataset()
	if err != nil {
		return err
	}

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

	err = cliui.Step(os.Stdout, "Ensuring collection", func() error {
		return driver.EnsureCollection(ctx)
	})
	if err != nil {
		return err
	}

	var result *loader.Result
	err = cliui.Step(os.Stdout, fmt.Sprintf("Loading %d transactions", len(txns)), func() error {
		l := loader.NewLoader(embedder, driver, log, loader.Options{
			BatchSize: int(c.batchSize),
			Throttle:  loader.FixedDelay{Delay: time.Duration(c.delayMs) * time.Millisecond},
		})
		result, err = l.Run(ctx, txns)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s\n", result.Summary())
	return nil
}
