// Package tui renders the live device state table for busproctl watch.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Hadz2009/buspro-ac/internal/metrics"
	"github.com/Hadz2009/buspro-ac/internal/protocol"
	"github.com/Hadz2009/buspro-ac/internal/state"
)

const refreshInterval = 500 * time.Millisecond

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7aa2f7"))
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#c0caf5")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("#414868"))
	offStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#565f89"))
	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9ece6a"))
	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#565f89"))
)

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model is the watch screen. It polls the state store on a timer; the
// listener keeps the store current in the background.
type Model struct {
	store    *state.Store
	counters *metrics.Counters
	nameFor  func(protocol.DeviceAddress) string

	rows []state.DeviceState
}

// NewModel builds the watch screen. nameFor resolves device addresses
// to configured names; nil falls back to bare addresses.
func NewModel(store *state.Store, counters *metrics.Counters,
	nameFor func(protocol.DeviceAddress) string) Model {
	if nameFor == nil {
		nameFor = func(addr protocol.DeviceAddress) string { return addr.String() }
	}
	return Model{
		store:    store,
		counters: counters,
		nameFor:  nameFor,
		rows:     store.Snapshot(),
	}
}

func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case tickMsg:
		m.rows = m.store.Snapshot()
		return m, tickCmd()
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("BusPro AC"))
	b.WriteString("\n\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-18s %-10s %-6s %-8s %-10s %s",
		"DEVICE", "MODE", "TEMP", "FAN", "SOURCE", "UPDATED")))
	b.WriteString("\n")

	if len(m.rows) == 0 {
		b.WriteString(offStyle.Render("waiting for status broadcasts..."))
		b.WriteString("\n")
	}
	for _, row := range m.rows {
		style := activeStyle
		if row.Mode == protocol.ModeOff {
			style = offStyle
		}
		temp := "-"
		if row.Temperature != 0 {
			temp = fmt.Sprintf("%d°C", row.Temperature)
		}
		line := fmt.Sprintf("%-18s %-10s %-6s %-8s %-10s %s",
			m.nameFor(row.Address),
			row.Mode,
			temp,
			row.FanSpeed,
			row.Source,
			row.UpdatedAt.Format("15:04:05"),
		)
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	snap := m.counters.Snapshot()
	b.WriteString("\n")
	b.WriteString(footerStyle.Render(fmt.Sprintf(
		"frames %d | decoded %d | checksum errors %d | other traffic %d | q to quit",
		snap.FramesReceived, snap.EventsDecoded, snap.ChecksumFailures, snap.UnrecognizedFrames)))
	b.WriteString("\n")
	return b.String()
}
