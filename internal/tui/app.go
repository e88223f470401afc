package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/p0l0/xknx/internal/capture"
	"github.com/p0l0/xknx/internal/monitor"
)

// Colors
var (
	cyanColor   = lipgloss.Color("#00FFFF")
	grayColor   = lipgloss.Color("#666666")
	whiteColor  = lipgloss.Color("#FFFFFF")
	yellowColor = lipgloss.Color("#FFFF00")
	redColor    = lipgloss.Color("#FF6666")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(whiteColor).
			Background(lipgloss.Color("#1a1a2e")).
			Padding(0, 2)

	statsStyle = lipgloss.NewStyle().
			Foreground(whiteColor)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(cyanColor)

	degradedStyle = lipgloss.NewStyle().Foreground(yellowColor)
	errorStyle    = lipgloss.NewStyle().Foreground(redColor)

	helpStyle = lipgloss.NewStyle().
			Foreground(grayColor)
)

// KeyMap defines keybindings
type KeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Pause key.Binding
	Clear key.Binding
	Quit  key.Binding
}

var keys = KeyMap{
	Up:    key.NewBinding(key.WithKeys("up", "k")),
	Down:  key.NewBinding(key.WithKeys("down", "j")),
	Pause: key.NewBinding(key.WithKeys("p", " ")),
	Clear: key.NewBinding(key.WithKeys("c")),
	Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c")),
}

// refreshInterval is how often the view pulls new frames and counters.
const refreshInterval = 250 * time.Millisecond

// reservedLines is title(2) + stats(2) + service table header(1) + gap(1) +
// frame header(1) + help(2).
const reservedLines = 9

// StatsSource provides live counters. *monitor.Stats implements it.
type StatsSource interface {
	Snapshot() monitor.Snapshot
}

// Model is the main TUI model
type Model struct {
	stats  StatsSource
	feed   *Feed
	listen string

	snap   monitor.Snapshot
	frames []monitor.FrameSummary
	paused bool
	scroll int
	width  int
	height int
}

// NewModel creates a TUI over live counters and a frame feed. listen is
// shown in the title.
func NewModel(stats StatsSource, feed *Feed, listen string) Model {
	return Model{
		stats:  stats,
		feed:   feed,
		listen: listen,
	}
}

// TickMsg is a message for periodic updates
type TickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, keys.Clear):
			m.feed.Clear()
			m.frames = nil
			m.scroll = 0
		case key.Matches(msg, keys.Down):
			if m.scroll < len(m.frames)-1 {
				m.scroll++
			}
		case key.Matches(msg, keys.Up):
			if m.scroll > 0 {
				m.scroll--
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case TickMsg:
		m.refresh()
		return m, tickCmd()
	}

	return m, nil
}

// refresh pulls counters always and frames unless paused.
func (m *Model) refresh() {
	m.snap = m.stats.Snapshot()
	if !m.paused {
		m.frames = m.feed.Recent(DefaultFeedSize)
	}
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("KNXnet/IP Monitor "+m.listen) + "\n\n")
	b.WriteString(m.renderTotals() + "\n\n")
	b.WriteString(m.renderServices() + "\n")

	if len(m.frames) == 0 {
		b.WriteString(helpStyle.Render("Waiting for KNXnet/IP frames...") + "\n")
	} else {
		b.WriteString(m.renderFrames())
	}

	help := "↑↓: scroll | p: pause | c: clear | q: quit"
	if m.paused {
		help = "PAUSED | " + help
	}
	b.WriteString("\n" + helpStyle.Render(help))

	return b.String()
}

func (m Model) renderTotals() string {
	s := m.snap
	uptime := s.Taken.Sub(s.Started).Truncate(time.Second)
	if s.Started.IsZero() {
		uptime = 0
	}

	lost := fmt.Sprintf("%d", s.RoutingLost)
	if s.RoutingLost > 0 {
		lost = degradedStyle.Render(lost)
	}
	dropped := fmt.Sprintf("%d", s.Dropped)
	if s.Dropped > 0 {
		dropped = errorStyle.Render(dropped)
	}

	return statsStyle.Render(fmt.Sprintf(
		"Frames: %d | Dropped: %s | Routing lost: %s | Tunnel gaps: %d | Up: %s",
		s.Total(), dropped, lost, s.TunnelGaps, uptime,
	))
}

func (m Model) renderServices() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-32s %9s %9s %9s %10s", "SERVICE", "DECODED", "DEGRADED", "FAILED", "BYTES")) + "\n")
	for _, svc := range m.snap.Services {
		line := fmt.Sprintf("%-32s %9d %9d %9d %10d", svc.Name, svc.Decoded, svc.Degraded, svc.Failed, svc.Bytes)
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m Model) renderFrames() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-12s %-21s %-28s %s", "TIME", "SOURCE", "SERVICE", "DETAIL")) + "\n")

	rows := max(1, m.height-reservedLines-len(m.snap.Services))
	start := min(m.scroll, len(m.frames)-1)
	end := min(len(m.frames), start+rows)

	for _, f := range m.frames[start:end] {
		line := fmt.Sprintf("%-12s %-21s %-28s %s",
			f.ReceivedAt.Format("15:04:05.000"), f.Source, f.ServiceType, frameDetail(f))
		switch f.Status {
		case capture.StatusDegraded:
			line = degradedStyle.Render(line)
		case capture.StatusError:
			line = errorStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// frameDetail is a one-line description of the interesting part of f.
func frameDetail(f monitor.FrameSummary) string {
	var parts []string
	if f.Tunnel != nil {
		parts = append(parts, fmt.Sprintf("ch=%d seq=%d", f.Tunnel.ChannelID, f.Tunnel.Sequence))
		if f.Tunnel.Status != "" {
			parts = append(parts, f.Tunnel.Status)
		}
	}
	if c := f.CEMI; c != nil {
		parts = append(parts, fmt.Sprintf("%s %s -> %s %s", c.Code, c.Source, c.Destination, c.Command))
		switch {
		case c.Decoded != nil:
			parts = append(parts, "= "+c.Decoded.Text)
		case c.Data != "":
			parts = append(parts, "data="+c.Data)
		default:
			parts = append(parts, fmt.Sprintf("value=%d", c.Value))
		}
	}
	if f.Error != "" {
		parts = append(parts, f.Error)
	}
	return strings.Join(parts, " ")
}
