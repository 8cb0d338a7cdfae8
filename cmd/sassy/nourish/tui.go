package nourishcmder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/papercomputeco/sassy/pkg/nourish"
)

const (
	logLines        = 8
	excerptRunes    = 240
	defaultWidth    = 80
	maxBarWidth     = 60
	statusOKPrefix  = "[OK]"
	statusErrPrefix = "[ERROR]"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Bold(true)
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	excerptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
)

type keyMap struct {
	Stop key.Binding
}

func (k keyMap) ShortHelp() []key.Binding { return []key.Binding{k.Stop} }

func (k keyMap) FullHelp() [][]key.Binding { return [][]key.Binding{{k.Stop}} }

func defaultKeyMap() keyMap {
	return keyMap{
		Stop: key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "stop")),
	}
}

// progressMsg carries one pipeline report into the program.
type progressMsg nourish.Progress

type runDoneMsg struct {
	result nourish.Result
	err    error
}

type nourishModel struct {
	total    int
	index    int
	accepted int
	query    string
	source   string
	excerpt  string
	log      []string
	final    string
	stopping bool
	finished bool
	result   nourish.Result
	err      error
	width    int

	bar  progress.Model
	keys keyMap
	help help.Model

	// onStop asks the pipeline to stop after its current query.
	onStop func()
}

func newNourishModel(total int, onStop func()) nourishModel {
	return nourishModel{
		total:  total,
		width:  defaultWidth,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(maxBarWidth)),
		keys:   defaultKeyMap(),
		help:   help.New(),
		onStop: onStop,
	}
}

func (m nourishModel) Init() bubbletea.Cmd {
	return nil
}

func (m nourishModel) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(min(msg.Width-4, maxBarWidth), 10)
		return m, nil

	case progressMsg:
		return m.applyProgress(nourish.Progress(msg)), nil

	case runDoneMsg:
		m.finished = true
		m.result = msg.result
		m.err = msg.err
		return m, bubbletea.Quit

	case bubbletea.KeyMsg:
		if key.Matches(msg, m.keys.Stop) {
			if m.stopping {
				return m, bubbletea.Quit
			}
			m.stopping = true
			if m.onStop != nil {
				m.onStop()
			}
		}
		return m, nil
	}

	return m, nil
}

func (m nourishModel) applyProgress(p nourish.Progress) nourishModel {
	if p.Total > 0 {
		m.total = p.Total
	}
	m.index = p.Index
	m.accepted = p.Accepted

	if p.Done {
		m.final = p.Status
		return m
	}

	m.query = p.Query
	m.source = p.Source
	if p.Excerpt != "" {
		m.excerpt = p.Excerpt
	}

	m.log = append(m.log, p.Status)
	if len(m.log) > logLines {
		m.log = m.log[len(m.log)-logLines:]
	}
	return m
}

func (m nourishModel) percent() float64 {
	if m.total <= 0 {
		return 0
	}
	return float64(m.index) / float64(m.total)
}

func (m nourishModel) View() string {
	width := max(m.width, 20)
	fit := func(s string) string {
		return ansi.Truncate(strings.ReplaceAll(s, "\n", " "), width-2, "…")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Nourishing sassy's memory"))
	b.WriteString("\n\n")
	b.WriteString(m.bar.ViewAs(m.percent()))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%s %s\n",
		labelStyle.Render("Query:"),
		valueStyle.Render(fit(fmt.Sprintf("%d/%d %s", m.index, m.total, m.query))),
	)
	fmt.Fprintf(&b, "%s %s\n",
		labelStyle.Render("Stored:"),
		valueStyle.Render(fmt.Sprintf("%d", m.accepted)),
	)
	if m.source != "" && m.source != "-" {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Source:"), valueStyle.Render(m.source))
	}
	b.WriteString("\n")

	for _, line := range m.log {
		b.WriteString(renderStatus(fit(line)))
		b.WriteString("\n")
	}

	if m.excerpt != "" {
		b.WriteString("\n")
		excerpt := []rune(m.excerpt)
		if len(excerpt) > excerptRunes {
			excerpt = append(excerpt[:excerptRunes], '…')
		}
		b.WriteString(excerptStyle.Render(ansi.Wordwrap(string(excerpt), width-2, " ")))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.final != "":
		b.WriteString(valueStyle.Render(m.final))
	case m.stopping:
		b.WriteString(mutedStyle.Render("Stopping after the current query..."))
	default:
		b.WriteString(m.help.View(m.keys))
	}
	b.WriteString("\n")

	return b.String()
}

func renderStatus(s string) string {
	switch {
	case strings.HasPrefix(s, statusOKPrefix):
		return okStyle.Render(s)
	case strings.HasPrefix(s, statusErrPrefix):
		return failStyle.Render(s)
	default:
		return mutedStyle.Render(s)
	}
}

// teaMonitor forwards reports to a running program. It closes when the user
// asks to stop.
type teaMonitor struct {
	program *bubbletea.Program
	closed  atomic.Bool
}

func (t *teaMonitor) Report(p nourish.Progress) {
	t.program.Send(progressMsg(p))
}

func (t *teaMonitor) Closed() bool {
	return t.closed.Load()
}

// runTUI runs the pipeline under an interactive progress view.
func runTUI(ctx context.Context, pipeline *nourish.Pipeline, extra nourish.Monitor) (nourish.Result, error) {
	if termenv.EnvNoColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	mon := &teaMonitor{}
	stop := func() {
		mon.closed.Store(true)
		pipeline.Stop()
	}

	model := newNourishModel(len(pipeline.Queries()), stop)
	program := bubbletea.NewProgram(model, bubbletea.WithContext(ctx))
	mon.program = program

	done := make(chan runDoneMsg, 1)
	go func() {
		res, err := pipeline.Run(ctx, nourish.MultiMonitor{mon, extra})
		msg := runDoneMsg{result: res, err: err}
		done <- msg
		program.Send(msg)
	}()

	_, progErr := program.Run()
	if progErr != nil && !errors.Is(progErr, bubbletea.ErrProgramKilled) {
		stop()
		<-done
		return nourish.Result{}, fmt.Errorf("running progress view: %w", progErr)
	}

	// A second stop key quits the view before the run has ended.
	stop()
	msg := <-done
	return msg.result, msg.err
}
