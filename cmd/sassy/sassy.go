// Package sassycmder
package sassycmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/sassy/cmd/sassy/config"
	nourishcmder "github.com/papercomputeco/sassy/cmd/sassy/nourish"
	recallcmder "github.com/papercomputeco/sassy/cmd/sassy/recall"
	remembercmder "github.com/papercomputeco/sassy/cmd/sassy/remember"
	servecmder "github.com/papercomputeco/sassy/cmd/sassy/serve"
	versioncmder "github.com/papercomputeco/sassy/cmd/version"
)

const sassyLongDesc string = `Sassy is a personal assistant's contextual memory.

It remembers what you tell it, classifies it, and recalls it by meaning or
by text. It can also nourish itself with general knowledge from the web.

Common commands:
  sassy serve               Run the memory API (and MCP) server
  sassy remember <text>     Store a memory
  sassy recall <query>      Recall memories
  sassy nourish             Feed the memory from web searches`

const sassyShortDesc string = "Sassy - contextual memory"

func NewSassyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sassy",
		Short:         sassyShortDesc,
		Long:          sassyLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().Bool("pretty", false, "Pretty print logs")
	cmd.PersistentFlags().String("config-dir", "", "Override the .sassy/ directory")

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(remembercmder.NewRememberCmd())
	cmd.AddCommand(recallcmder.NewRecallCmd())
	cmd.AddCommand(nourishcmder.NewNourishCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
