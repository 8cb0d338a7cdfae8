package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/sassy/pkg/dotdir"
)

// InitViper returns a viper instance with defaults from NewDefaultConfig, the
// config.toml file (when found) and SASSY_ environment variables.
//
// Precedence, highest first:
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (SASSY_API_LISTEN, SASSY_STORAGE_PROVIDER, ...)
//  3. config.toml
//  4. Defaults
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	target, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}
	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("SASSY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("storage.provider", d.Storage.Provider)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)

	v.SetDefault("vector_store.provider", d.VectorStore.Provider)
	v.SetDefault("vector_store.target", d.VectorStore.Target)
	v.SetDefault("vector_store.collection", d.VectorStore.Collection)

	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)

	v.SetDefault("recent.capacity", d.Recent.Capacity)
	v.SetDefault("recent.flush_every", d.Recent.FlushEvery)
	v.SetDefault("recent.snapshot_path", d.Recent.SnapshotPath)

	v.SetDefault("api.listen", d.API.Listen)
	v.SetDefault("client.api_target", d.Client.APITarget)

	v.SetDefault("nourish.enabled", d.Nourish.Enabled)
	v.SetDefault("nourish.interval", d.Nourish.Interval)
	v.SetDefault("nourish.query_timeout", d.Nourish.QueryTimeout)
	v.SetDefault("nourish.delay", d.Nourish.Delay)
	v.SetDefault("nourish.excerpt_runes", d.Nourish.ExcerptRunes)
	v.SetDefault("nourish.min_length", d.Nourish.MinLength)

	v.SetDefault("websearch.language", d.WebSearch.Language)
	v.SetDefault("websearch.wikipedia_url", d.WebSearch.WikipediaURL)
	v.SetDefault("websearch.duckduckgo_url", d.WebSearch.DuckDuckGoURL)
	v.SetDefault("websearch.user_agent", d.WebSearch.UserAgent)

	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)
}

// FromViper materialises a Config from the resolved viper values.
func FromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Version: v.GetInt("version"),
		Storage: StorageConfig{
			Provider:    v.GetString("storage.provider"),
			SQLitePath:  v.GetString("storage.sqlite_path"),
			PostgresDSN: v.GetString("storage.postgres_dsn"),
		},
		VectorStore: VectorStoreConfig{
			Provider:   v.GetString("vector_store.provider"),
			Target:     v.GetString("vector_store.target"),
			Collection: v.GetString("vector_store.collection"),
		},
		Embedding: EmbeddingConfig{
			Provider:   v.GetString("embedding.provider"),
			Target:     v.GetString("embedding.target"),
			Model:      v.GetString("embedding.model"),
			Dimensions: v.GetUint("embedding.dimensions"),
		},
		Recent: RecentConfig{
			Capacity:     v.GetInt("recent.capacity"),
			FlushEvery:   v.GetInt("recent.flush_every"),
			SnapshotPath: v.GetString("recent.snapshot_path"),
		},
		API:    APIConfig{Listen: v.GetString("api.listen")},
		Client: ClientConfig{APITarget: v.GetString("client.api_target")},
		Nourish: NourishConfig{
			Enabled:      v.GetBool("nourish.enabled"),
			Interval:     v.GetString("nourish.interval"),
			QueryTimeout: v.GetString("nourish.query_timeout"),
			Delay:        v.GetString("nourish.delay"),
			ExcerptRunes: v.GetInt("nourish.excerpt_runes"),
			MinLength:    v.GetInt("nourish.min_length"),
		},
		WebSearch: WebSearchConfig{
			Language:      v.GetString("websearch.language"),
			WikipediaURL:  v.GetString("websearch.wikipedia_url"),
			DuckDuckGoURL: v.GetString("websearch.duckduckgo_url"),
			UserAgent:     v.GetString("websearch.user_agent"),
		},
		Events: EventsConfig{
			Provider: v.GetString("events.provider"),
			Brokers:  v.GetString("events.brokers"),
			Topic:    v.GetString("events.topic"),
		},
	}
	applyDefaults(cfg)
	return cfg
}

// Resolved is the configuration a command runs with.
type Resolved struct {
	Viper  *viper.Viper
	Config *Config

	// Dir is the .sassy/ directory relative paths are anchored to.
	Dir string
}

// ForCommand initialises viper for cmd, binds the registered flags named in
// keys and materialises the result. It reads the persistent --config-dir flag.
func ForCommand(cmd *cobra.Command, keys []string) (*Resolved, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := InitViper(configDir)
	if err != nil {
		return nil, err
	}
	BindRegisteredFlags(v, cmd, Flags, keys)

	dir, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	return &Resolved{
		Viper:  v,
		Config: FromViper(v),
		Dir:    dir,
	}, nil
}
