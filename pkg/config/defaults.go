package config

const (
	defaultAPIListen = ":8080"

	defaultVectorProvider   = "qdrant"
	defaultVectorCollection = "fraud-detection"

	defaultEmbeddingProvider = "openai"
	defaultEmbeddingTarget   = "https://api.openai.com"

	// defaultEmbeddingModel produces 1536-dimension vectors, which is the
	// dimensionality the fraud-detection collection is created with.
	defaultEmbeddingModel      = "text-embedding-ada-002"
	defaultEmbeddingDimensions = 1536

	defaultEventStreamProvider = "nop"
	defaultEventStreamTopic    = "sift.transactions"

	defaultLoaderBatchSize = 20
	defaultLoaderDelayMs   = 1000
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Collection: defaultVectorCollection,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventStreamProvider,
			Topic:    defaultEventStreamTopic,
		},
		Loader: LoaderConfig{
			BatchSize: defaultLoaderBatchSize,
			DelayMs:   defaultLoaderDelayMs,
		},
	}
}
