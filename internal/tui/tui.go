// Package tui renders download progress in the terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	dlprogress "github.com/handiism/dlm/internal/progress"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(0, 2)
)

// MaxLogLines is how many log lines are kept above the bars.
const MaxLogLines = 10

// ErrInterrupted is returned by Run when the user quit before the work was
// done.
var ErrInterrupted = errors.New("interrupted by user")

// State represents the current UI state.
type State int

const (
	StateDownloading State = iota
	StateFinalizing
	StateComplete
	StateError
)

type laneView struct {
	label    string
	position int64
	total    int64
	finished bool
}

// WorkDoneMsg is sent when the work started by Run has returned.
type WorkDoneMsg struct {
	Err error
}

// Options configures the display.
type Options struct {
	// Title is shown in the header.
	Title string

	// Lanes is the number of lane bars to show before any update arrives.
	Lanes int

	// Verbose shows LevelVerbose log lines.
	Verbose bool

	// Cancel is called when the user presses ctrl+c.
	Cancel context.CancelFunc
}

// Model is the Bubble Tea model for the progress display.
type Model struct {
	state   State
	opts    Options
	spinner spinner.Model
	overall progress.Model
	laneBar progress.Model

	lanes     []laneView
	logs      []dlprogress.LogMsg
	completed int64
	total     int64

	interrupted bool
	err         error

	width int
}

// NewModel creates a new display model.
func NewModel(opts Options) Model {
	if opts.Title == "" {
		opts.Title = "dlm"
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	overall := progress.New(progress.WithDefaultGradient())
	overall.Width = 60

	laneBar := progress.New(progress.WithSolidFill("#4ECDC4"))
	laneBar.Width = 40

	lanes := make([]laneView, max(opts.Lanes, 0))
	for i := range lanes {
		lanes[i].label = dlprogress.FormatLabel(dlprogress.PendingLabel)
	}

	return Model{
		state:   StateDownloading,
		opts:    opts,
		spinner: sp,
		overall: overall,
		laneBar: laneBar,
		lanes:   lanes,
		logs:    make([]dlprogress.LogMsg, 0, MaxLogLines),
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.overall.Width = clamp(msg.Width-20, 20, 80)
		m.laneBar.Width = clamp(msg.Width-dlprogress.LabelWidth-24, 10, 60)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if m.opts.Cancel != nil {
				m.opts.Cancel()
			}
			m.interrupted = true
			m.state = StateError
			m.err = ErrInterrupted
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case dlprogress.LaneMsg:
		if msg.Lane < 0 {
			return m, nil
		}
		for len(m.lanes) <= msg.Lane {
			m.lanes = append(m.lanes, laneView{label: dlprogress.FormatLabel(dlprogress.PendingLabel)})
		}
		m.lanes[msg.Lane] = laneView{
			label:    msg.Label,
			position: msg.Position,
			total:    msg.Total,
			finished: msg.Finished,
		}

	case dlprogress.AggregateMsg:
		m.total = msg.Total
		// the counter never goes back
		if msg.Completed > m.completed {
			m.completed = msg.Completed
		}
		if msg.Finished {
			m.state = StateFinalizing
		}

	case dlprogress.LogMsg:
		if msg.Level == dlprogress.LevelVerbose && !m.opts.Verbose {
			return m, nil
		}
		m.logs = append(m.logs, msg)
		if len(m.logs) > MaxLogLines {
			m.logs = m.logs[len(m.logs)-MaxLogLines:]
		}

	case dlprogress.DoneMsg:
		m.state = StateFinalizing

	case WorkDoneMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.state = StateComplete
		}
		return m, tea.Quit

	case progress.FrameMsg:
		overallModel, cmd := m.overall.Update(msg)
		m.overall = overallModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// State returns the current UI state.
func (m Model) State() State { return m.state }

// Err returns the error the display ended with, if any.
func (m Model) Err() error { return m.err }

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	if m.state == StateDownloading {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
	}
	b.WriteString(titleStyle.Render(m.opts.Title))
	b.WriteString("\n")

	// Logs above the bars
	b.WriteString(m.renderLogs())
	if len(m.logs) > 0 {
		b.WriteString("\n")
	}

	for _, l := range m.lanes {
		b.WriteString(m.renderLane(l))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	var percent float64
	if m.total > 0 {
		percent = float64(m.completed) / float64(m.total)
	}
	b.WriteString(m.overall.ViewAs(percent))
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render(fmt.Sprintf("%d/%d", m.completed, m.total)))
	b.WriteString("\n")

	switch m.state {
	case StateComplete:
		b.WriteString("\n")
		b.WriteString(boxStyle.Render(fmt.Sprintf("Done: %d/%d files", m.completed, m.total)))
		b.WriteString("\n")
	case StateError:
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	default:
		b.WriteString(dimStyle.Render("ctrl+c: cancel"))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) renderLane(l laneView) string {
	var percent float64
	switch {
	case l.total > 0:
		percent = float64(l.position) / float64(l.total)
	case l.finished:
		percent = 1
	}

	size := formatBytes(l.position)
	if l.total > 0 {
		size += "/" + formatBytes(l.total)
	}

	style := infoStyle
	switch {
	case strings.HasPrefix(l.label, "✓"):
		style = successStyle
	case strings.HasPrefix(l.label, "✗"):
		style = errorStyle
	case strings.HasPrefix(l.label, dlprogress.PendingLabel):
		style = dimStyle
	}

	return style.Render(l.label) + " " + m.laneBar.ViewAs(percent) + " " + dimStyle.Render(size)
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		b.WriteString(dimStyle.Render(log.Time.Format("15:04:05")))
		b.WriteString(" ")
		b.WriteString(levelStyle(log.Level).Render(levelPrefix(log.Level) + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func levelStyle(level dlprogress.Level) lipgloss.Style {
	switch level {
	case dlprogress.LevelError:
		return errorStyle
	case dlprogress.LevelWarning:
		return warningStyle
	case dlprogress.LevelSuccess:
		return successStyle
	case dlprogress.LevelInfo:
		return infoStyle
	default:
		return dimStyle
	}
}

func levelPrefix(level dlprogress.Level) string {
	switch level {
	case dlprogress.LevelError:
		return "✗"
	case dlprogress.LevelWarning:
		return "!"
	case dlprogress.LevelSuccess:
		return "✓"
	case dlprogress.LevelInfo:
		return "›"
	default:
		return "•"
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// Run starts the display and calls work with the running program as its
// sink. It returns once work has returned, with work's error, or
// ErrInterrupted if the user quit first.
func Run(opts Options, work func(sink dlprogress.Sink) error, programOpts ...tea.ProgramOption) error {
	p := tea.NewProgram(NewModel(opts), programOpts...)

	done := make(chan error, 1)
	go func() {
		err := work(p)
		done <- err
		p.Send(WorkDoneMsg{Err: err})
	}()

	final, runErr := p.Run()
	// Send never blocks once the program has exited, so work can finish.
	workErr := <-done
	if runErr != nil {
		return fmt.Errorf("run display: %w", runErr)
	}
	if fm, ok := final.(Model); ok && fm.interrupted {
		return errors.Join(ErrInterrupted, workErr)
	}
	return workErr
}

// Plain is a Sink that writes log lines to w, for output that is not a
// terminal.
type Plain struct {
	mu      sync.Mutex
	w       io.Writer
	verbose bool
}

// NewPlain creates a line based sink.
func NewPlain(w io.Writer, verbose bool) *Plain {
	return &Plain{w: w, verbose: verbose}
}

// Send implements progress.Sink. Lane updates are dropped; log lines and
// the final aggregate are printed.
func (p *Plain) Send(msg tea.Msg) {
	var line string
	switch msg := msg.(type) {
	case dlprogress.LogMsg:
		if msg.Level == dlprogress.LevelVerbose && !p.verbose {
			return
		}
		line = fmt.Sprintf("[%s] %s %s", msg.Time.Format("15:04:05"), levelPrefix(msg.Level), msg.Message)
	case dlprogress.AggregateMsg:
		if !msg.Finished {
			return
		}
		line = fmt.Sprintf("completed %d/%d", msg.Completed, msg.Total)
	default:
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, line)
}
