package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Hadz2009/buspro-ac/internal/metrics"
	"github.com/Hadz2009/buspro-ac/internal/protocol"
	"github.com/Hadz2009/buspro-ac/internal/state"
)

func testModel(t *testing.T) (Model, *state.Store) {
	t.Helper()
	store := state.NewStore()
	names := map[protocol.DeviceAddress]string{
		{Subnet: 1, Device: 14}: "living-room",
	}
	m := NewModel(store, &metrics.Counters{}, func(addr protocol.DeviceAddress) string {
		if name, ok := names[addr]; ok {
			return name
		}
		return addr.String()
	})
	return m, store
}

func TestViewShowsDeviceRows(t *testing.T) {
	m, store := testModel(t)

	view := m.View()
	if !strings.Contains(view, "waiting for status broadcasts") {
		t.Errorf("empty view missing placeholder:\n%s", view)
	}

	store.ApplyStatus(protocol.StatusEvent{
		Address:     protocol.DeviceAddress{Subnet: 1, Device: 14},
		Mode:        protocol.ModeCool,
		Temperature: 24,
		FanSpeed:    protocol.FanHigh,
	})
	store.ApplyStatus(protocol.StatusEvent{
		Address:     protocol.DeviceAddress{Subnet: 2, Device: 7},
		Mode:        protocol.ModeOff,
		Temperature: 22,
	})

	updated, _ := m.Update(tickMsg{})
	view = updated.View()

	for _, want := range []string{"living-room", "2.7", "cool", "24°C", "high"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestUpdateQuitKeys(t *testing.T) {
	m, _ := testModel(t)

	for _, key := range []string{"q", "esc", "ctrl+c"} {
		var msg tea.KeyMsg
		switch key {
		case "q":
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "ctrl+c":
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		}
		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Errorf("key %q did not quit", key)
			continue
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("key %q produced %T, want tea.QuitMsg", key, cmd())
		}
	}
}

func TestTickReschedules(t *testing.T) {
	m, _ := testModel(t)
	_, cmd := m.Update(tickMsg{})
	if cmd == nil {
		t.Fatal("tick did not schedule the next refresh")
	}
}
