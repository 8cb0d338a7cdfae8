// Package nourishcmder provides the nourish command that feeds the memory
// with general knowledge from web searches.
package nourishcmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/sassy/pkg/cliui"
	"github.com/papercomputeco/sassy/pkg/config"
	eventstreamutils "github.com/papercomputeco/sassy/pkg/eventstream/utils"
	"github.com/papercomputeco/sassy/pkg/logger"
	"github.com/papercomputeco/sassy/pkg/memory/memoryutils"
	"github.com/papercomputeco/sassy/pkg/nourish"
	"github.com/papercomputeco/sassy/pkg/nourish/nourishutils"
)

type nourishCommander struct {
	flags    config.Config
	headless bool
	queries  []string

	resolved *config.Resolved
	logger   *slog.Logger

	// searcher replaces the web search chain in tests.
	searcher nourish.Searcher
}

const nourishLongDesc string = `Feed sassy's memory from web searches.

Runs every nourishment query once against Wikipedia, then DuckDuckGo, and
stores useful answers as web-nourishment memories. Answers already stored
by this run are skipped.

An interactive progress view is shown when stdout is a terminal; press q to
stop after the current query. Use --headless (or pipe the output) to log
progress instead.

Examples:
  sassy nourish
  sassy nourish --headless --delay 3s
  sassy nourish --query "historia de Roma" --query "qué es la fotosíntesis"`

const nourishShortDesc string = "Feed the memory from web searches"

var nourishFlags = append([]string{
	config.FlagNourishDelay,
	config.FlagEventsProvider,
	config.FlagEventsBrokers,
}, config.StoreFlags...)

func NewNourishCmd() *cobra.Command {
	cmder := &nourishCommander{}
	return newNourishCmd(cmder)
}

func newNourishCmd(cmder *nourishCommander) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nourish",
		Short: nourishShortDesc,
		Long:  nourishLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			resolved, err := config.ForCommand(cmd, nourishFlags)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.resolved = resolved
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			interactive := !cmder.headless && cliui.IsTerminal(os.Stdout.Fd())

			debug, _ := cmd.Flags().GetBool("debug")
			pretty, _ := cmd.Flags().GetBool("pretty")
			opts := []logger.Option{logger.WithDebug(debug), logger.WithPretty(pretty)}
			if interactive {
				// The progress view owns the terminal.
				opts = append(opts, logger.WithWriter(io.Discard))
			} else {
				opts = append(opts, logger.WithWriter(cmd.ErrOrStderr()))
			}
			cmder.logger = logger.New(opts...)

			return cmder.run(cmd.Context(), cmd.OutOrStdout(), interactive)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagNourishDelay, &cmder.flags.Nourish.Delay)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsProvider, &cmder.flags.Events.Provider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsBrokers, &cmder.flags.Events.Brokers)
	config.AddStoreFlags(cmd, &cmder.flags)
	cmd.Flags().BoolVar(&cmder.headless, "headless", false, "Log progress instead of showing the progress view")
	cmd.Flags().StringArrayVarP(&cmder.queries, "query", "q", nil, "Query to run instead of the default set (repeatable)")

	return cmd
}

func (c *nourishCommander) run(parent context.Context, w io.Writer, interactive bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := c.resolved.Config

	engine, err := memoryutils.NewEngine(ctx, &memoryutils.NewEngineOpts{
		Config: cfg,
		Dir:    c.resolved.Dir,
		Logger: c.logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := engine.Close(); err != nil {
			c.logger.Error("closing memory engine", "error", err)
		}
	}()

	publisher, err := eventstreamutils.NewPublisher(cfg.Events, c.logger)
	if err != nil {
		return fmt.Errorf("creating event publisher: %w", err)
	}
	defer publisher.Close()

	pipeline := nourishutils.NewPipeline(&nourishutils.NewPipelineOpts{
		Config:   cfg,
		Writer:   engine,
		Searcher: c.searcher,
		Queries:  c.queries,
		Logger:   c.logger,
	})
	monitor := nourishutils.MonitorFactory(publisher, c.logger)()

	var res nourish.Result
	start := time.Now()
	if interactive {
		res, err = runTUI(ctx, pipeline, monitor)
	} else {
		res, err = pipeline.Run(ctx, monitor)
	}
	if err != nil {
		return err
	}

	printSummary(w, res, time.Since(start))
	return nil
}

func printSummary(w io.Writer, res nourish.Result, elapsed time.Duration) {
	verb := "complete"
	if res.Cancelled {
		verb = "stopped"
	}
	fmt.Fprintf(w, "\n  %s Nourishment %s: %s stored, %s\n\n",
		cliui.Mark(nil),
		verb,
		cliui.ValueStyle.Render(fmt.Sprintf("%d", res.Accepted)),
		cliui.DimStyle.Render(fmt.Sprintf("%d queries, %d duplicates, %d rejected, %d errors in %s",
			res.Attempted, res.Duplicates, res.Rejected, res.Errors, cliui.FormatDuration(elapsed))),
	)
}
