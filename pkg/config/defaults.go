package config

const (
	defaultStorageProvider = "sqlite"
	defaultSQLiteFile      = "memory.db"

	defaultVectorProvider   = "flat"
	defaultVectorCollection = "sassy_memories"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768

	defaultRecentCapacity   = 1000
	defaultRecentFlushEvery = 100
	defaultRecentFile       = "recent.json"

	defaultAPIListen       = ":8181"
	defaultClientAPITarget = "http://localhost:8181"

	defaultNourishInterval     = "6h"
	defaultNourishQueryTimeout = "15s"
	defaultNourishDelay        = "1s"
	defaultNourishExcerptRunes = 1200
	defaultNourishMinLength    = 80

	defaultWebSearchLanguage   = "es"
	defaultWebSearchDuckDuckGo = "https://api.duckduckgo.com"
	defaultWebSearchUserAgent  = "sassy/0 (personal assistant memory)"

	defaultEventsProvider = "nop"
	defaultEventsTopic    = "sassy.nourishment"
)

// NewDefaultConfig returns a Config with defaults for every field. File paths
// that are left empty resolve inside the .sassy/ directory.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Provider:   defaultStorageProvider,
			SQLitePath: defaultSQLiteFile,
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
		Recent: RecentConfig{
			Capacity:     defaultRecentCapacity,
			FlushEvery:   defaultRecentFlushEvery,
			SnapshotPath: defaultRecentFile,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		Nourish: NourishConfig{
			Interval:     defaultNourishInterval,
			QueryTimeout: defaultNourishQueryTimeout,
			Delay:        defaultNourishDelay,
			ExcerptRunes: defaultNourishExcerptRunes,
			MinLength:    defaultNourishMinLength,
		},
		WebSearch: WebSearchConfig{
			Language:      defaultWebSearchLanguage,
			DuckDuckGoURL: defaultWebSearchDuckDuckGo,
			UserAgent:     defaultWebSearchUserAgent,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}

// applyDefaults fills zero-value fields in cfg from NewDefaultConfig.
func applyDefaults(cfg *Config) {
	d := NewDefaultConfig()

	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fillInt := func(dst *int, def int) {
		if *dst == 0 {
			*dst = def
		}
	}

	if cfg.Version == 0 {
		cfg.Version = d.Version
	}

	fill(&cfg.Storage.Provider, d.Storage.Provider)
	fill(&cfg.Storage.SQLitePath, d.Storage.SQLitePath)

	fill(&cfg.VectorStore.Provider, d.VectorStore.Provider)
	fill(&cfg.VectorStore.Collection, d.VectorStore.Collection)

	fill(&cfg.Embedding.Provider, d.Embedding.Provider)
	fill(&cfg.Embedding.Target, d.Embedding.Target)
	fill(&cfg.Embedding.Model, d.Embedding.Model)
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = d.Embedding.Dimensions
	}

	fillInt(&cfg.Recent.Capacity, d.Recent.Capacity)
	fillInt(&cfg.Recent.FlushEvery, d.Recent.FlushEvery)
	fill(&cfg.Recent.SnapshotPath, d.Recent.SnapshotPath)

	fill(&cfg.API.Listen, d.API.Listen)
	fill(&cfg.Client.APITarget, d.Client.APITarget)

	fill(&cfg.Nourish.Interval, d.Nourish.Interval)
	fill(&cfg.Nourish.QueryTimeout, d.Nourish.QueryTimeout)
	fill(&cfg.Nourish.Delay, d.Nourish.Delay)
	fillInt(&cfg.Nourish.ExcerptRunes, d.Nourish.ExcerptRunes)
	fillInt(&cfg.Nourish.MinLength, d.Nourish.MinLength)

	fill(&cfg.WebSearch.Language, d.WebSearch.Language)
	fill(&cfg.WebSearch.DuckDuckGoURL, d.WebSearch.DuckDuckGoURL)
	fill(&cfg.WebSearch.UserAgent, d.WebSearch.UserAgent)

	fill(&cfg.Events.Provider, d.Events.Provider)
	fill(&cfg.Events.Topic, d.Events.Topic)
}
