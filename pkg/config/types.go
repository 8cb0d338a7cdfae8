package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config is the persistent sassy configuration stored as config.toml in the
// .sassy/ directory.
type Config struct {
	Version     int               `toml:"version"`
	Storage     StorageConfig     `toml:"storage"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	Recent      RecentConfig      `toml:"recent"`
	API         APIConfig         `toml:"api"`
	Client      ClientConfig      `toml:"client"`
	Nourish     NourishConfig     `toml:"nourish"`
	WebSearch   WebSearchConfig   `toml:"websearch"`
	Events      EventsConfig      `toml:"events"`
}

// StorageConfig selects the durable record store.
type StorageConfig struct {
	// Provider is one of "sqlite", "postgres" or "inmemory".
	Provider    string `toml:"provider,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// VectorStoreConfig selects the semantic index backend. Target is a file path
// for "flat" and "sqlite", and a URL for "chroma" and "qdrant".
type VectorStoreConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Collection string `toml:"collection,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// RecentConfig holds recent buffer settings.
type RecentConfig struct {
	Capacity     int    `toml:"capacity,omitempty"`
	FlushEvery   int    `toml:"flush_every,omitempty"`
	SnapshotPath string `toml:"snapshot_path,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for commands that talk to a running server.
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// NourishConfig holds ingestion pipeline settings. Durations use Go syntax
// ("15s", "1h").
type NourishConfig struct {
	Enabled      bool   `toml:"enabled,omitempty"`
	Interval     string `toml:"interval,omitempty"`
	QueryTimeout string `toml:"query_timeout,omitempty"`
	Delay        string `toml:"delay,omitempty"`
	ExcerptRunes int    `toml:"excerpt_runes,omitempty"`
	MinLength    int    `toml:"min_length,omitempty"`
}

// ParseDuration parses one of the NourishConfig duration strings. Blank or
// malformed values yield zero.
func ParseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// WebSearchConfig holds the search collaborator endpoints.
type WebSearchConfig struct {
	Language      string `toml:"language,omitempty"`
	WikipediaURL  string `toml:"wikipedia_url,omitempty"`
	DuckDuckGoURL string `toml:"duckduckgo_url,omitempty"`
	UserAgent     string `toml:"user_agent,omitempty"`
}

// EventsConfig selects where nourishment progress events are published.
type EventsConfig struct {
	// Provider is "nop" or "kafka".
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// BrokerList splits the comma separated broker setting.
func (e EventsConfig) BrokerList() []string {
	var out []string
	for _, b := range strings.Split(e.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func durationKey(name string, field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = v
			return nil
		},
	}
}

func intKey(name string, field func(c *Config) *int) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.Itoa(*field(c))
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			if n < 0 {
				return fmt.Errorf("invalid value for %s: must not be negative", name)
			}
			*field(c) = n
			return nil
		},
	}
}

// configKeys is the authoritative map of supported config keys, in dotted
// notation matching the TOML sections.
var configKeys = map[string]configKeyInfo{
	"storage.provider":     stringKey(func(c *Config) *string { return &c.Storage.Provider }),
	"storage.sqlite_path":  stringKey(func(c *Config) *string { return &c.Storage.SQLitePath }),
	"storage.postgres_dsn": stringKey(func(c *Config) *string { return &c.Storage.PostgresDSN }),

	"vector_store.provider":   stringKey(func(c *Config) *string { return &c.VectorStore.Provider }),
	"vector_store.target":     stringKey(func(c *Config) *string { return &c.VectorStore.Target }),
	"vector_store.collection": stringKey(func(c *Config) *string { return &c.VectorStore.Collection }),

	"embedding.provider": stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":   stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.model":    stringKey(func(c *Config) *string { return &c.Embedding.Model }),
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

	"recent.capacity":      intKey("recent.capacity", func(c *Config) *int { return &c.Recent.Capacity }),
	"recent.flush_every":   intKey("recent.flush_every", func(c *Config) *int { return &c.Recent.FlushEvery }),
	"recent.snapshot_path": stringKey(func(c *Config) *string { return &c.Recent.SnapshotPath }),

	"api.listen":        stringKey(func(c *Config) *string { return &c.API.Listen }),
	"client.api_target": stringKey(func(c *Config) *string { return &c.Client.APITarget }),

	"nourish.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Nourish.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for nourish.enabled: %w", err)
			}
			c.Nourish.Enabled = b
			return nil
		},
	},
	"nourish.interval":      durationKey("nourish.interval", func(c *Config) *string { return &c.Nourish.Interval }),
	"nourish.query_timeout": durationKey("nourish.query_timeout", func(c *Config) *string { return &c.Nourish.QueryTimeout }),
	"nourish.delay":         durationKey("nourish.delay", func(c *Config) *string { return &c.Nourish.Delay }),
	"nourish.excerpt_runes": intKey("nourish.excerpt_runes", func(c *Config) *int { return &c.Nourish.ExcerptRunes }),
	"nourish.min_length":    intKey("nourish.min_length", func(c *Config) *int { return &c.Nourish.MinLength }),

	"websearch.language":       stringKey(func(c *Config) *string { return &c.WebSearch.Language }),
	"websearch.wikipedia_url":  stringKey(func(c *Config) *string { return &c.WebSearch.WikipediaURL }),
	"websearch.duckduckgo_url": stringKey(func(c *Config) *string { return &c.WebSearch.DuckDuckGoURL }),
	"websearch.user_agent":     stringKey(func(c *Config) *string { return &c.WebSearch.UserAgent }),

	"events.provider": stringKey(func(c *Config) *string { return &c.Events.Provider }),
	"events.brokers":  stringKey(func(c *Config) *string { return &c.Events.Brokers }),
	"events.topic":    stringKey(func(c *Config) *string { return &c.Events.Topic }),
}

// orderedKeys mirrors the TOML section layout for listing.
var orderedKeys = []string{
	"storage.provider",
	"storage.sqlite_path",
	"storage.postgres_dsn",
	"vector_store.provider",
	"vector_store.target",
	"vector_store.collection",
	"embedding.provider",
	"embedding.target",
	"embedding.model",
	"embedding.dimensions",
	"recent.capacity",
	"recent.flush_every",
	"recent.snapshot_path",
	"api.listen",
	"client.api_target",
	"nourish.enabled",
	"nourish.interval",
	"nourish.query_timeout",
	"nourish.delay",
	"nourish.excerpt_runes",
	"nourish.min_length",
	"websearch.language",
	"websearch.wikipedia_url",
	"websearch.duckduckgo_url",
	"websearch.user_agent",
	"events.provider",
	"events.brokers",
	"events.topic",
}
