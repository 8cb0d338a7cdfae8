// Package remembercmder provides the remember command for storing a memory.
package remembercmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/sassy/pkg/cliui"
	"github.com/papercomputeco/sassy/pkg/config"
	"github.com/papercomputeco/sassy/pkg/logger"
	"github.com/papercomputeco/sassy/pkg/memory"
	"github.com/papercomputeco/sassy/pkg/memory/memoryutils"
)

type rememberCommander struct {
	flags      config.Config
	kind       string
	context    string
	categories []string

	resolved *config.Resolved
	logger   *slog.Logger
}

const rememberLongDesc string = `Store a memory.

The text is classified into a kind (personal-fact, preference, reminder,
command or general) and tagged with categories unless --kind is given.
It is written to the record store, the semantic index and the recent buffer.

Examples:
  sassy remember "me llamo Ana"
  sassy remember "recuérdame comprar pan" --category compras
  sassy remember "la reunión es el lunes" --kind reminder`

const rememberShortDesc string = "Store a memory"

func NewRememberCmd() *cobra.Command {
	cmder := &rememberCommander{}

	cmd := &cobra.Command{
		Use:   "remember <text>",
		Short: rememberShortDesc,
		Long:  rememberLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			resolved, err := config.ForCommand(cmd, config.StoreFlags)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.resolved = resolved
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			cmder.logger = logger.New(
				logger.WithDebug(debug),
				logger.WithWriter(cmd.ErrOrStderr()),
			)
			return cmder.run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), strings.Join(args, " "))
		},
	}

	config.AddStoreFlags(cmd, &cmder.flags)
	cmd.Flags().StringVar(&cmder.kind, "kind", "", "Memory kind; empty classifies automatically")
	cmd.Flags().StringVar(&cmder.context, "context", "cli", "Free-form origin of the memory")
	cmd.Flags().StringSliceVarP(&cmder.categories, "category", "c", nil, "Extra category tags")

	return cmd
}

func (c *rememberCommander) run(ctx context.Context, w, errW io.Writer, text string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(text) == "" {
		return memory.ErrEmptyContent
	}

	var engine *memory.Engine
	err := cliui.Step(errW, "Opening memory stores", func() error {
		var err error
		engine, err = memoryutils.NewEngine(ctx, &memoryutils.NewEngineOpts{
			Config: c.resolved.Config,
			Dir:    c.resolved.Dir,
			Logger: c.logger,
		})
		return err
	})
	if err != nil {
		return err
	}

	res := engine.Write(ctx, memory.WriteParams{
		Content:    text,
		Kind:       c.kind,
		Context:    c.context,
		Categories: c.categories,
	})
	closeErr := engine.Close()

	if !res.Stored && !res.Indexed {
		return errors.Join(errors.New("memory could not be stored"), closeErr)
	}

	fmt.Fprintf(w, "  %s Remembered as %s",
		cliui.Mark(nil),
		cliui.KeyStyle.Render(res.Kind),
	)
	if len(res.Categories) > 0 {
		fmt.Fprintf(w, " %s", cliui.DimStyle.Render("["+strings.Join(res.Categories, ", ")+"]"))
	}
	if res.ID > 0 {
		fmt.Fprintf(w, " %s", cliui.DimStyle.Render(fmt.Sprintf("#%d", res.ID)))
	}
	fmt.Fprintln(w)

	if !res.Stored || !res.Indexed {
		fmt.Fprintf(w, "  %s %s\n", cliui.FailMark, cliui.DimStyle.Render("partially stored; see logs"))
	}

	return closeErr
}
