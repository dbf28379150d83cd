// Package siftcmder
package siftcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/cardinalpay/sift/cmd/sift/config"
	loadcmder "github.com/cardinalpay/sift/cmd/sift/load"
	servecmder "github.com/cardinalpay/sift/cmd/sift/serve"
	versioncmder "github.com/cardinalpay/sift/cmd/version"
)

const siftLongDesc string = `Sift scores payment transactions for fraud risk by comparing them
against historically similar transactions in a vector index.

Run services using:
  sift serve           Run the fraud-analysis API server
  sift load            Seed the vector store with historical payments
  sift config          Manage persistent configuration`

const siftShortDesc string = "Sift - Transaction Fraud Analysis"

func NewSiftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sift",
		Short: siftShortDesc,
		Long:  siftLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .sift/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(loadcmder.NewLoadCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
