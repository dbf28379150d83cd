package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g.,
// --vector-store-target on both "sift serve" and "sift load").
type Flag struct {
	// Name is the long flag name (e.g. "listen").
	Name string

	// Shorthand is the one-letter short flag (e.g. "l"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "api.listen").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag registry keys to Flag structs that hold their
// name, shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagAPIListen       = "listen"
	FlagVectorStoreProv = "vector-store-provider"
	FlagVectorStoreTgt  = "vector-store-target"
	FlagCollection      = "collection"
	FlagEmbeddingProv   = "embedding-provider"
	FlagEmbeddingTgt    = "embedding-target"
	FlagEmbeddingModel  = "embedding-model"
	FlagEmbeddingDims   = "embedding-dimensions"
	FlagEventStreamProv = "eventstream-provider"
	FlagEventStreamBrk  = "eventstream-brokers"
	FlagEventStreamTop  = "eventstream-topic"
	FlagLoaderBatchSize = "batch-size"
	FlagLoaderDelayMs   = "delay-ms"
)

// Flags is the shared flag registry used by the serve and load commands.
var Flags = FlagSet{
	FlagAPIListen: {
		Name: "listen", Shorthand: "l",
		ViperKey:    "api.listen",
		Description: "Address for the API server to listen on",
	},
	FlagVectorStoreProv: {
		Name:        "vector-store-provider",
		ViperKey:    "vector_store.provider",
		Description: "Vector store provider (qdrant, sqlite)",
	},
	FlagVectorStoreTgt: {
		Name:        "vector-store-target",
		ViperKey:    "vector_store.target",
		Description: "Vector store endpoint URL (qdrant) or database path (sqlite)",
	},
	FlagCollection: {
		Name:        "collection",
		ViperKey:    "vector_store.collection",
		Description: "Vector store collection name",
	},
	FlagEmbeddingProv: {
		Name:        "embedding-provider",
		ViperKey:    "embedding.provider",
		Description: "Embedding provider (openai)",
	},
	FlagEmbeddingTgt: {
		Name:        "embedding-target",
		ViperKey:    "embedding.target",
		Description: "Embedding provider base URL",
	},
	FlagEmbeddingModel: {
		Name:        "embedding-model",
		ViperKey:    "embedding.model",
		Description: "Embedding model name",
	},
	FlagEmbeddingDims: {
		Name:        "embedding-dimensions",
		ViperKey:    "embedding.dimensions",
		Description: "Embedding vector dimensions",
	},
	FlagEventStreamProv: {
		Name:        "eventstream-provider",
		ViperKey:    "eventstream.provider",
		Description: "Analyzed-event publisher (nop, kafka)",
	},
	FlagEventStreamBrk: {
		Name:        "eventstream-brokers",
		ViperKey:    "eventstream.brokers",
		Description: "Comma-separated Kafka broker addresses",
	},
	FlagEventStreamTop: {
		Name:        "eventstream-topic",
		ViperKey:    "eventstream.topic",
		Description: "Kafka topic for analyzed events",
	},
	FlagLoaderBatchSize: {
		Name:        "batch-size",
		ViperKey:    "loader.batch_size",
		Description: "Number of records embedded and upserted per batch",
	},
	FlagLoaderDelayMs: {
		Name:        "delay-ms",
		ViperKey:    "loader.delay_ms",
		Description: "Pause between batches in milliseconds",
	},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}
