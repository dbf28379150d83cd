// Package configcmder provides the config command for managing persistent
// sift configuration stored in the .sift/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent sift configuration.

Configuration is stored as config.toml in the .sift/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  api.listen,
  vector_store.provider, vector_store.target, vector_store.collection,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  eventstream.provider, eventstream.brokers, eventstream.topic,
  loader.batch_size, loader.delay_ms

Use subcommands to get, set, or list configuration values:
  sift config set <key> <value>    Set a configuration value
  sift config get <key>            Get a configuration value
  sift config list                 List all configuration values

Examples:
  sift config set vector_store.target https://qdrant.example.com:6334
  sift config set embedding.model text-embedding-ada-002
  sift config get vector_store.collection
  sift config list`

const configShortDesc string = "Manage persistent sift configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
