// Package servecmder provides the serve command that runs the memory API
// server and the background nourishment schedule.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/sassy/api"
	"github.com/papercomputeco/sassy/pkg/config"
	eventstreamutils "github.com/papercomputeco/sassy/pkg/eventstream/utils"
	"github.com/papercomputeco/sassy/pkg/logger"
	"github.com/papercomputeco/sassy/pkg/memory/memoryutils"
	"github.com/papercomputeco/sassy/pkg/nourish"
	"github.com/papercomputeco/sassy/pkg/nourish/nourishutils"
)

type ServeCommander struct {
	flags config.Config
	seed  bool

	resolved *config.Resolved
	logger   *slog.Logger
}

const serveLongDesc string = `Run the sassy memory server.

Serves the REST API and the MCP endpoint (/mcp) over one listener. With
--nourish the ingestion pipeline runs right away and then every
nourish.interval. Edits to nourish.delay in config.toml apply to the running
pipeline without a restart.

Examples:
  sassy serve
  sassy serve --listen :9090 --nourish
  sassy serve --vector-store-provider qdrant --vector-store-target localhost:6334`

const serveShortDesc string = "Run the sassy memory server"

var serveFlags = append([]string{
	config.FlagAPIListen,
	config.FlagNourish,
	config.FlagNourishDelay,
	config.FlagEventsProvider,
	config.FlagEventsBrokers,
}, config.StoreFlags...)

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			resolved, err := config.ForCommand(cmd, serveFlags)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.resolved = resolved
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			pretty, _ := cmd.Flags().GetBool("pretty")
			cmder.logger = logger.New(
				logger.WithDebug(debug),
				logger.WithPretty(pretty),
			)
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.flags.API.Listen)
	config.AddBoolFlag(cmd, config.Flags, config.FlagNourish, &cmder.flags.Nourish.Enabled)
	config.AddStringFlag(cmd, config.Flags, config.FlagNourishDelay, &cmder.flags.Nourish.Delay)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsProvider, &cmder.flags.Events.Provider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsBrokers, &cmder.flags.Events.Brokers)
	config.AddStoreFlags(cmd, &cmder.flags)
	cmd.Flags().BoolVar(&cmder.seed, "seed", true, "Write the starter memories into an empty store")

	return cmd
}

func (c *ServeCommander) run(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
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

	if c.seed {
		if n := engine.Seed(ctx); n > 0 {
			c.logger.Info("seeded starter memories", "count", n)
		}
	}

	publisher, err := eventstreamutils.NewPublisher(cfg.Events, c.logger)
	if err != nil {
		return fmt.Errorf("creating event publisher: %w", err)
	}
	defer publisher.Close()

	pipeline := nourishutils.NewPipeline(&nourishutils.NewPipelineOpts{
		Config: cfg,
		Writer: engine,
		Logger: c.logger,
	})
	newMonitor := nourishutils.MonitorFactory(publisher, c.logger)

	server, err := api.NewServer(api.Config{
		ListenAddr: cfg.API.Listen,
		Pipeline:   pipeline,
		NewMonitor: newMonitor,
	}, engine, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	c.watchDelay(c.resolved.Viper, pipeline)

	scheduled := make(chan struct{})
	if cfg.Nourish.Enabled {
		interval := config.ParseDuration(cfg.Nourish.Interval)
		c.logger.Info("scheduling nourishment", "interval", interval)
		go func() {
			defer close(scheduled)
			pipeline.RunEvery(ctx, interval, newMonitor)
		}()
	} else {
		close(scheduled)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err = <-errChan:
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
	}

	c.shutdown(cancel, server, pipeline, scheduled)
	return err
}

type shutdowner interface {
	Shutdown() error
}

// shutdown stops the API server first so no request can start a run, then
// ends the schedule and waits for the last run.
func (c *ServeCommander) shutdown(cancel context.CancelFunc, server shutdowner, pipeline *nourish.Pipeline, scheduled <-chan struct{}) {
	if err := server.Shutdown(); err != nil {
		c.logger.Error("shutting down API server", "error", err)
	}

	cancel()
	<-scheduled

	pipeline.Stop()
	pipeline.Wait()
}

// watchDelay applies nourish.delay edits in config.toml to the pipeline.
func (c *ServeCommander) watchDelay(v *viper.Viper, pipeline *nourish.Pipeline) {
	if v.ConfigFileUsed() == "" {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		delay := config.ParseDuration(v.GetString("nourish.delay"))
		pipeline.SetDelay(delay)
		c.logger.Info("nourishment delay updated", "delay", delay, "file", e.Name)
	})
	v.WatchConfig()
}
