package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent sift configuration stored as config.toml
// in the .sift/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	API         APIConfig         `toml:"api"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	EventStream EventStreamConfig `toml:"eventstream"`
	Loader      LoaderConfig      `toml:"loader"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// VectorStoreConfig holds vector store settings.
//
// Target is the store endpoint URL for the qdrant provider, or the database
// file path for the sqlite provider. APIKey is normally supplied through the
// SIFT_VECTOR_STORE_API_KEY environment variable rather than the config file.
type VectorStoreConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	APIKey     string `toml:"api_key,omitempty"`
	Collection string `toml:"collection,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
//
// APIKey is normally supplied through the SIFT_EMBEDDING_API_KEY environment
// variable rather than the config file.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	APIKey     string `toml:"api_key,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// EventStreamConfig holds analyzed-event publisher settings.
type EventStreamConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// LoaderConfig holds bulk loader settings.
type LoaderConfig struct {
	BatchSize uint `toml:"batch_size,omitempty"`
	DelayMs   uint `toml:"delay_ms,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"vector_store.provider": {
		get: func(c *Config) string { return c.VectorStore.Provider },
		set: func(c *Config, v string) error { c.VectorStore.Provider = v; return nil },
	},
	"vector_store.target": {
		get: func(c *Config) string { return c.VectorStore.Target },
		set: func(c *Config, v string) error { c.VectorStore.Target = v; return nil },
	},
	"vector_store.api_key": {
		get: func(c *Config) string { return c.VectorStore.APIKey },
		set: func(c *Config, v string) error { c.VectorStore.APIKey = v; return nil },
	},
	"vector_store.collection": {
		get: func(c *Config) string { return c.VectorStore.Collection },
		set: func(c *Config, v string) error { c.VectorStore.Collection = v; return nil },
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"embedding.api_key": {
		get: func(c *Config) string { return c.Embedding.APIKey },
		set: func(c *Config, v string) error { c.Embedding.APIKey = v; return nil },
	},
	"embedding.dimensions": {
		get: func(c *Config) string {
			if c.Embedding.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Embedding.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.dimensions: %w", err)
			}
			c.Embedding.Dimensions = uint(n)
			return nil
		},
	},
	"eventstream.provider": {
		get: func(c *Config) string { return c.EventStream.Provider },
		set: func(c *Config, v string) error { c.EventStream.Provider = v; return nil },
	},
	"eventstream.brokers": {
		get: func(c *Config) string { return c.EventStream.Brokers },
		set: func(c *Config, v string) error { c.EventStream.Brokers = v; return nil },
	},
	"eventstream.topic": {
		get: func(c *Config) string { return c.EventStream.Topic },
		set: func(c *Config, v string) error { c.EventStream.Topic = v; return nil },
	},
	"loader.batch_size": {
		get: func(c *Config) string {
			if c.Loader.BatchSize == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Loader.BatchSize), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for loader.batch_size: %w", err)
			}
			c.Loader.BatchSize = uint(n)
			return nil
		},
	},
	"loader.delay_ms": {
		get: func(c *Config) string {
			if c.Loader.DelayMs == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Loader.DelayMs), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for loader.delay_ms: %w", err)
			}
			c.Loader.DelayMs = uint(n)
			return nil
		},
	},
}
