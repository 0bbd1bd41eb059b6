// ABOUTME: Bubbletea model for the sender status TUI
// ABOUTME: Shows destination, format, channels and live pipeline counters
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Resonate-Protocol/udp-audio/pkg/streamer"
)

// StatusMsg carries a pipeline snapshot to the model
type StatusMsg struct {
	Source      string
	Destination string
	Format      string
	Output      string
	Monitor     string
	State       string
	Stats       streamer.Stats
}

type tickMsg time.Time

// Model is the sender status view
type Model struct {
	status    StatusMsg
	prev      streamer.Stats
	rate      float64 // datagrams per second over the last tick
	startTime time.Time
	quitting  bool
	quitChan  chan struct{}
	now       func() time.Time
}

// NewModel creates a model that signals quitChan when the user quits.
// quitChan may be nil.
func NewModel(initial StatusMsg, quitChan chan struct{}) Model {
	return Model{
		status:    initial,
		startTime: time.Now(),
		quitChan:  quitChan,
		now:       time.Now,
	}
}

func (m Model) Init() tea.Cmd {
	return tickEvery()
}

func tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.quitting = true
			select {
			case m.quitChan <- struct{}{}:
			default:
			}
			return m, tea.Quit
		}

	case tickMsg:
		m.rate = float64(m.status.Stats.Datagrams - m.prev.Datagrams)
		m.prev = m.status.Stats
		return m, tickEvery()

	case StatusMsg:
		m.applyStatus(msg)
		return m, nil
	}

	return m, nil
}

// applyStatus replaces the snapshot, keeping fields the update leaves empty
func (m *Model) applyStatus(msg StatusMsg) {
	keep := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	keep(&m.status.Source, msg.Source)
	keep(&m.status.Destination, msg.Destination)
	keep(&m.status.Format, msg.Format)
	keep(&m.status.Output, msg.Output)
	keep(&m.status.Monitor, msg.Monitor)
	keep(&m.status.State, msg.State)
	m.status.Stats = msg.Stats
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).MarginBottom(1)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

func (m Model) View() string {
	if m.quitting {
		return "Stopping stream...\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("UDP Audio Sender"))
	b.WriteString("\n\n")

	row := func(label, value string) {
		b.WriteString(headerStyle.Render(label + ": "))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}

	s := m.status
	row("Source", s.Source)
	row("Destination", s.Destination)
	row("Format", fmt.Sprintf("%s stereo -> s16 mono (%s)", s.Format, s.Output))
	row("Monitor", s.Monitor)
	row("State", s.State)
	row("Uptime", m.now().Sub(m.startTime).Round(time.Second).String())
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Stream"))
	b.WriteString("\n\n")
	row("  Buffers", fmt.Sprintf("%d", s.Stats.Buffers))
	row("  Datagrams", fmt.Sprintf("%d (%.0f/s)", s.Stats.Datagrams, m.rate))
	row("  Bytes", formatBytes(s.Stats.Bytes))

	if s.Stats.Malformed > 0 || s.Stats.SendErrors > 0 || s.Stats.Repeats > 0 {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render("Problems"))
		b.WriteString("\n\n")
		b.WriteString(warnStyle.Render(fmt.Sprintf("  Malformed buffers: %d", s.Stats.Malformed)))
		b.WriteString("\n")
		b.WriteString(warnStyle.Render(fmt.Sprintf("  Send errors: %d", s.Stats.SendErrors)))
		b.WriteString("\n")
		repeats := fmt.Sprintf("  Repeated runs: %d", s.Stats.Repeats)
		if s.Stats.Repeats > 0 {
			repeats += fmt.Sprintf(" (last: value %d x%d)", s.Stats.LastRepeat.Value, s.Stats.LastRepeat.Count)
		}
		b.WriteString(warnStyle.Render(repeats))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Faint(true).Render("Press 'q' or Ctrl+C to quit"))

	return b.String()
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
