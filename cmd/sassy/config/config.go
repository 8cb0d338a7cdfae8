// Package configcmder provides the config command for managing persistent
// sassy configuration stored in the .sassy/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent sassy configuration.

Configuration is stored as config.toml in the .sassy/ directory and provides
default values for command flags. CLI flags and SASSY_* environment variables
always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  storage.provider, storage.sqlite_path, storage.postgres_dsn,
  vector_store.provider, vector_store.target, vector_store.collection,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  recent.capacity, recent.flush_every, recent.snapshot_path,
  api.listen, client.api_target,
  nourish.enabled, nourish.interval, nourish.query_timeout, nourish.delay,
  nourish.excerpt_runes, nourish.min_length,
  websearch.language, websearch.wikipedia_url, websearch.duckduckgo_url,
  websearch.user_agent,
  events.provider, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  sassy config set <key> <value>    Set a configuration value
  sassy config get <key>            Get a configuration value
  sassy config list                 List all configuration values

Examples:
  sassy config set vector_store.provider sqlite
  sassy config set nourish.delay 2s
  sassy config get embedding.model
  sassy config list`

const configShortDesc string = "Manage persistent sassy configuration"

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

func validKeysArg(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return configKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}
