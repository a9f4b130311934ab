// Package ui renders pipeline progress in the terminal.
package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"qllc/internal/pipeline"
)

type progressModel struct {
	title   string
	events  <-chan pipeline.Event
	spinner spinner.Model
	prog    progress.Model
	rows    []stageRow
	index   map[pipeline.Stage]int
	current pipeline.Stage
	width   int
	done    bool
}

type stageRow struct {
	stage   pipeline.Stage
	status  string
	detail  string
	elapsed time.Duration
}

type eventMsg pipeline.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model with one row per stage. It
// quits when events is closed.
func NewProgressModel(title string, stages []pipeline.Stage, events <-chan pipeline.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	rows := make([]stageRow, len(stages))
	index := make(map[pipeline.Stage]int, len(stages))
	for i, s := range stages {
		rows[i] = stageRow{stage: s, status: "queued"}
		index[s] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		rows:    rows,
		index:   index,
		width:   80,
	}
}

// Run shows the progress view on out until events is closed.
func Run(out io.Writer, title string, stages []pipeline.Stage, events <-chan pipeline.Event) error {
	p := tea.NewProgram(NewProgressModel(title, stages, events), tea.WithOutput(out), tea.WithInput(nil))
	_, err := p.Run()
	return err
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(pipeline.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.current != "" && !m.done {
		header = fmt.Sprintf("%s (%s)", header, m.current)
	}
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	const statusWidth, stageWidth, timeWidth = 9, 10, 10
	detailWidth := max(m.width-statusWidth-stageWidth-timeWidth-6, 10)
	for _, row := range m.rows {
		elapsed := ""
		if row.elapsed > 0 {
			elapsed = fmt.Sprintf("%.2fms", float64(row.elapsed)/float64(time.Millisecond))
		}
		fmt.Fprintf(&b, "  %s %-*s %*s %s\n",
			styleStatus(row.status).Render(fmt.Sprintf("%*s", statusWidth, row.status)),
			stageWidth, row.stage,
			timeWidth, elapsed,
			truncate(row.detail, detailWidth))
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(m.fraction()))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev pipeline.Event) tea.Cmd {
	idx, ok := m.index[ev.Stage]
	if !ok {
		return nil
	}
	row := &m.rows[idx]
	row.status = string(ev.Status)
	if ev.Detail != "" {
		row.detail = ev.Detail
	}
	row.elapsed = ev.Elapsed
	if ev.Status == pipeline.StatusWorking {
		m.current = ev.Stage
	}
	return m.prog.SetPercent(m.fraction())
}

// fraction counts finished rows; skipped ones count as finished.
func (m *progressModel) fraction() float64 {
	if len(m.rows) == 0 {
		return 1
	}
	n := 0
	for _, row := range m.rows {
		if row.status != "queued" && row.status != string(pipeline.StatusWorking) {
			n++
		}
	}
	return float64(n) / float64(len(m.rows))
}

func styleStatus(status string) lipgloss.Style {
	switch pipeline.Status(status) {
	case pipeline.StatusDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case pipeline.StatusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case pipeline.StatusWorking:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	case pipeline.StatusSkipped:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	// ширина хвоста учитывается внутри Truncate
	return runewidth.Truncate(value, width, "...")
}
