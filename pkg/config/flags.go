package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag describes a CLI flag once so every command that exposes it shares the
// same name, shorthand, viper key and help text.
type Flag struct {
	Name        string
	Shorthand   string
	ViperKey    string
	Description string
}

// FlagSet maps registry keys to flag definitions.
type FlagSet map[string]Flag

// Flag registry keys.
const (
	FlagAPIListen       = "api-listen"
	FlagAPITarget       = "api-target"
	FlagStorageProvider = "storage-provider"
	FlagSQLite          = "sqlite"
	FlagPostgresDSN     = "postgres-dsn"
	FlagVectorStoreProv = "vector-store-provider"
	FlagVectorStoreTgt  = "vector-store-target"
	FlagEmbeddingProv   = "embedding-provider"
	FlagEmbeddingTgt    = "embedding-target"
	FlagEmbeddingModel  = "embedding-model"
	FlagEmbeddingDims   = "embedding-dimensions"
	FlagNourish         = "nourish"
	FlagNourishDelay    = "nourish-delay"
	FlagEventsProvider  = "events-provider"
	FlagEventsBrokers   = "events-brokers"
)

// Flags is the registry shared by all sassy commands.
var Flags = FlagSet{
	FlagAPIListen:       {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for the API server to listen on"},
	FlagAPITarget:       {Name: "api-target", ViperKey: "client.api_target", Description: "Sassy API server URL"},
	FlagStorageProvider: {Name: "storage", ViperKey: "storage.provider", Description: "Record store provider (sqlite, postgres, inmemory)"},
	FlagSQLite:          {Name: "sqlite", Shorthand: "s", ViperKey: "storage.sqlite_path", Description: "Path to the SQLite record database"},
	FlagPostgresDSN:     {Name: "postgres", ViperKey: "storage.postgres_dsn", Description: "PostgreSQL connection string"},
	FlagVectorStoreProv: {Name: "vector-store-provider", ViperKey: "vector_store.provider", Description: "Semantic index provider (flat, sqlite, chroma, qdrant)"},
	FlagVectorStoreTgt:  {Name: "vector-store-target", ViperKey: "vector_store.target", Description: "Semantic index target (file path or URL)"},
	FlagEmbeddingProv:   {Name: "embedding-provider", ViperKey: "embedding.provider", Description: "Embedding provider (ollama, hashing)"},
	FlagEmbeddingTgt:    {Name: "embedding-target", ViperKey: "embedding.target", Description: "Embedding provider URL"},
	FlagEmbeddingModel:  {Name: "embedding-model", ViperKey: "embedding.model", Description: "Embedding model name"},
	FlagEmbeddingDims:   {Name: "embedding-dimensions", ViperKey: "embedding.dimensions", Description: "Embedding vector dimensions"},
	FlagNourish:         {Name: "nourish", ViperKey: "nourish.enabled", Description: "Run the nourishment pipeline in the background"},
	FlagNourishDelay:    {Name: "delay", ViperKey: "nourish.delay", Description: "Pause between nourishment queries"},
	FlagEventsProvider:  {Name: "events-provider", ViperKey: "events.provider", Description: "Progress event publisher (nop, kafka)"},
	FlagEventsBrokers:   {Name: "events-brokers", ViperKey: "events.brokers", Description: "Comma separated Kafka brokers"},
}

// StoreFlags are the flags every command that opens the memory engine exposes.
var StoreFlags = []string{
	FlagStorageProvider,
	FlagSQLite,
	FlagPostgresDSN,
	FlagVectorStoreProv,
	FlagVectorStoreTgt,
	FlagEmbeddingProv,
	FlagEmbeddingTgt,
	FlagEmbeddingModel,
	FlagEmbeddingDims,
}

// AddStringFlag registers a string flag on cmd from fs.
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

// AddUintFlag registers a uint flag on cmd from fs.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, key string, target *uint) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultViper().GetUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from fs.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, key string, target *bool) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultViper().GetBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddStoreFlags registers every StoreFlags entry, writing into cfg.
func AddStoreFlags(cmd *cobra.Command, cfg *Config) {
	AddStringFlag(cmd, Flags, FlagStorageProvider, &cfg.Storage.Provider)
	AddStringFlag(cmd, Flags, FlagSQLite, &cfg.Storage.SQLitePath)
	AddStringFlag(cmd, Flags, FlagPostgresDSN, &cfg.Storage.PostgresDSN)
	AddStringFlag(cmd, Flags, FlagVectorStoreProv, &cfg.VectorStore.Provider)
	AddStringFlag(cmd, Flags, FlagVectorStoreTgt, &cfg.VectorStore.Target)
	AddStringFlag(cmd, Flags, FlagEmbeddingProv, &cfg.Embedding.Provider)
	AddStringFlag(cmd, Flags, FlagEmbeddingTgt, &cfg.Embedding.Target)
	AddStringFlag(cmd, Flags, FlagEmbeddingModel, &cfg.Embedding.Model)
	AddUintFlag(cmd, Flags, FlagEmbeddingDims, &cfg.Embedding.Dimensions)
}

// BindRegisteredFlags binds already registered flags to viper so the
// flag > env > file > default chain applies. Call it in PreRunE after InitViper.
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, keys []string) {
	for _, key := range keys {
		def, ok := fs[key]
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

func defaultViper() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
}

func defaultString(viperKey string) string {
	return defaultViper().GetString(viperKey)
}
