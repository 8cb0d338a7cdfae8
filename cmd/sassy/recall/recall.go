// Package recallcmder provides the recall command for searching memories.
package recallcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	apisearch "github.com/papercomputeco/sassy/api/search"
	"github.com/papercomputeco/sassy/pkg/cliui"
	"github.com/papercomputeco/sassy/pkg/config"
	"github.com/papercomputeco/sassy/pkg/logger"
	"github.com/papercomputeco/sassy/pkg/memory"
	"github.com/papercomputeco/sassy/pkg/memory/memoryutils"
	"github.com/papercomputeco/sassy/pkg/utils"
)

var (
	rankStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	kindStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	sourceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	previewStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

const previewRunes = 120

type recallCommander struct {
	flags    config.Config
	query    string
	limit    int
	kind     string
	remote   bool
	markdown bool
	jsonOut  bool

	apiTarget string

	resolved *config.Resolved
	logger   *slog.Logger
}

const recallLongDesc string = `Recall memories.

Merges semantic (by meaning) and textual (by substring) matches, best first,
and tops the list up with matching entries from the recent conversation.

By default the local .sassy/ stores are opened directly. Use --remote to ask
a running "sassy serve" instead.

Examples:
  sassy recall "gatos"
  sassy recall "cumpleaños" --kind reminder --limit 3
  sassy recall "nombre" --remote --api-target http://localhost:8181
  sassy recall "música" --markdown`

const recallShortDesc string = "Recall memories"

func NewRecallCmd() *cobra.Command {
	cmder := &recallCommander{}

	cmd := &cobra.Command{
		Use:   "recall <query>",
		Short: recallShortDesc,
		Long:  recallLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			resolved, err := config.ForCommand(cmd, append([]string{config.FlagAPITarget}, config.StoreFlags...))
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.resolved = resolved
			cmder.apiTarget = resolved.Config.Client.APITarget
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = strings.Join(args, " ")

			debug, _ := cmd.Flags().GetBool("debug")
			cmder.logger = logger.New(
				logger.WithDebug(debug),
				logger.WithWriter(cmd.ErrOrStderr()),
			)
			return cmder.run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.flags.Client.APITarget)
	config.AddStoreFlags(cmd, &cmder.flags)
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", apisearch.DefaultLimit, "Number of memories to return")
	cmd.Flags().StringVar(&cmder.kind, "kind", "", "Only return memories of this kind")
	cmd.Flags().BoolVar(&cmder.remote, "remote", false, "Query a running sassy server")
	cmd.Flags().BoolVar(&cmder.markdown, "markdown", false, "Render results as markdown")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print raw JSON")

	return cmd
}

func (c *recallCommander) run(ctx context.Context, w, errW io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	input := apisearch.SearchInput{
		Query: c.query,
		Limit: c.limit,
		Kind:  c.kind,
	}

	var (
		output *apisearch.SearchOutput
		err    error
	)
	if c.remote {
		output, err = SearchAPI(ctx, c.apiTarget, input)
	} else {
		output, err = c.searchLocal(ctx, errW, input)
	}
	if err != nil {
		return err
	}

	switch {
	case c.jsonOut:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(output)
	case output.Count == 0:
		fmt.Fprintln(w, "No memories found.")
		return nil
	case c.markdown:
		rendered, err := cliui.RenderMarkdown(Markdown(output))
		if err != nil {
			c.logger.Debug("markdown rendering failed", "error", err)
		}
		fmt.Fprint(w, rendered)
		return nil
	}

	fmt.Fprintf(w, "\n%s %s\n\n",
		cliui.HeaderStyle.Render("Memories for:"),
		kindStyle.Render(strconv.Quote(output.Query)),
	)
	for i, hit := range output.Results {
		printHit(w, i+1, hit)
	}
	return nil
}

func (c *recallCommander) searchLocal(ctx context.Context, errW io.Writer, input apisearch.SearchInput) (*apisearch.SearchOutput, error) {
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
		return nil, err
	}
	defer engine.Close()

	output := apisearch.Search(ctx, input, engine, c.logger)
	return &output, nil
}

func printHit(w io.Writer, rank int, hit memory.Hit) {
	fmt.Fprintf(w, "  %s  %s  %s  %s\n",
		rankStyle.Render(fmt.Sprintf("#%d", rank)),
		scoreStyle.Render(fmt.Sprintf("score: %.4f", hit.Score)),
		kindStyle.Render(hit.Kind),
		sourceStyle.Render(hit.Source),
	)

	preview := strings.ReplaceAll(hit.Content, "\n", " ")
	fmt.Fprintf(w, "  %s\n", previewStyle.Render(utils.Truncate(preview, previewRunes)))

	if len(hit.Categories) > 0 {
		fmt.Fprintf(w, "  %s\n", cliui.DimStyle.Render(strings.Join(hit.Categories, ", ")))
	}
	fmt.Fprintln(w)
}

// Markdown renders output as a markdown list.
func Markdown(output *apisearch.SearchOutput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Memories for %q\n\n", output.Query)
	for i, hit := range output.Results {
		fmt.Fprintf(&b, "%d. **%s** _(%s, %.2f)_\n\n   %s\n\n",
			i+1,
			hit.Kind,
			hit.Source,
			hit.Score,
			strings.ReplaceAll(hit.Content, "\n", "\n   "),
		)
	}
	return b.String()
}

// SearchAPI calls the sassy search API and returns the parsed output.
func SearchAPI(ctx context.Context, apiTarget string, input apisearch.SearchInput) (*apisearch.SearchOutput, error) {
	searchURL, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	searchURL.Path = "/v1/search"
	q := searchURL.Query()
	q.Set("query", input.Query)
	if input.Limit > 0 {
		q.Set("limit", strconv.Itoa(input.Limit))
	}
	if input.Kind != "" {
		q.Set("kind", input.Kind)
	}
	searchURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sassy API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var output apisearch.SearchOutput
	if err := json.Unmarshal(body, &output); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	return &output, nil
}
