package dashboard

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/omidkh/netwatch/internal/domain"
	"github.com/omidkh/netwatch/internal/engine"
)

// SnapshotSource is satisfied by *engine.Engine. The dashboard only ever
// reads snapshot copies, so it can render while a cycle is in flight.
type SnapshotSource interface {
	Snapshot() engine.Snapshot
}

type tickMsg time.Time

// Model is the bubbletea model for the terminal dashboard.
type Model struct {
	source   SnapshotSource
	interval time.Duration
	snap     engine.Snapshot
	width    int
	height   int
	paused   bool
}

func NewModel(source SnapshotSource, refresh time.Duration) Model {
	if refresh <= 0 {
		refresh = time.Second
	}
	return Model{
		source:   source,
		interval: refresh,
		snap:     source.Snapshot(),
	}
}

// Run blocks until the user quits the dashboard.
func Run(source SnapshotSource, refresh time.Duration) error {
	p := tea.NewProgram(NewModel(source, refresh), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "p", " ":
			m.paused = !m.paused
		case "r":
			m.snap = m.source.Snapshot()
		}
	case tickMsg:
		if !m.paused {
			m.snap = m.source.Snapshot()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	up, down, unknown := m.snap.Counts()
	title := titleStyle.Render(" netwatch ")
	status := fmt.Sprintf("  %s  %s  %s",
		upStyle.Render(fmt.Sprintf("%d up", up)),
		downStyle.Render(fmt.Sprintf("%d down", down)),
		unknownStyle.Render(fmt.Sprintf("%d unknown", unknown)),
	)
	paused := ""
	if m.paused {
		paused = dimStyle.Render("  [paused]")
	}
	b.WriteString(title + status + paused + "\n")

	uptime := time.Since(m.snap.StartedAt).Truncate(time.Second)
	b.WriteString(dimStyle.Render(fmt.Sprintf(
		"cycles %d · ok %d · fail %d · uptime %s · updated %s",
		m.snap.Cycles, m.snap.Successes, m.snap.Failures,
		uptime, m.snap.TakenAt.Format("15:04:05"),
	)) + "\n\n")

	b.WriteString(sectionStyle.Render(m.targetTable()) + "\n")
	b.WriteString(sectionStyle.Render(m.alertLog()) + "\n")
	b.WriteString(dimStyle.Render("q quit · p pause · r refresh"))

	return b.String()
}

func (m Model) targetTable() string {
	rows := []string{headerStyle.Render(fmt.Sprintf(
		"%-18s %-24s %-8s %-9s %6s  %s",
		"TARGET", "ENDPOINT", "KIND", "STATUS", "FAILS", "LATENCY"))}

	for _, t := range m.snap.Targets {
		latency := "-"
		if t.LastResult.Success {
			latency = t.LastResult.Latency.Truncate(100 * time.Microsecond).String()
		}
		rows = append(rows, fmt.Sprintf(
			"%-18s %-24s %-8s %s %6d  %s",
			trim(t.Target.Name, 18),
			trim(t.Target.Endpoint(), 24),
			t.Target.Kind,
			statusCell(t.Status),
			t.ConsecutiveFailures,
			latency,
		))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) alertLog() string {
	rows := []string{headerStyle.Render("RECENT ALERTS")}
	if len(m.snap.Alerts) == 0 {
		rows = append(rows, dimStyle.Render("none"))
	}
	// newest first
	for i := len(m.snap.Alerts) - 1; i >= 0; i-- {
		ev := m.snap.Alerts[i]
		style := upStyle
		if ev.Transition == domain.WentDown {
			style = downStyle
		}
		rows = append(rows, fmt.Sprintf("%s %s",
			dimStyle.Render(ev.At.Format("15:04:05")),
			style.Render(ev.Message)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func statusCell(s domain.Status) string {
	switch s {
	case domain.StatusUp:
		return upStyle.Render(fmt.Sprintf("%-9s", "● UP"))
	case domain.StatusDown:
		return downStyle.Render(fmt.Sprintf("%-9s", "● DOWN"))
	}
	return unknownStyle.Render(fmt.Sprintf("%-9s", "● ?"))
}

func trim(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
