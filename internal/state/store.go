// Package state tracks the last known state of every AC panel. Two
// producers feed it: the command path records state optimistically the
// moment a command is sent, and the listener path records state decoded
// from bus broadcasts. Last write wins, with one exception: broadcasts
// arriving inside the command window are ignored, because panels echo
// stale state for a moment after accepting a command.
package state

import (
	"sort"
	"sync"
	"time"

	"github.com/Hadz2009/buspro-ac/internal/protocol"
)

// Source records which path produced a device state.
type Source string

const (
	SourceCommand   Source = "command"
	SourceBroadcast Source = "broadcast"
)

// CommandWindow is how long after an outbound command broadcast-derived
// updates for the same device are ignored.
const CommandWindow = 2500 * time.Millisecond

// DeviceState is the last known state of one panel.
type DeviceState struct {
	Address     protocol.DeviceAddress `json:"address"`
	Mode        protocol.Mode          `json:"mode"`
	Temperature int                    `json:"temperature"`
	FanSpeed    protocol.FanSpeed      `json:"fan_speed"`
	Source      Source                 `json:"source"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// Store is a concurrency-safe last-write-wins state table.
type Store struct {
	mu          sync.RWMutex
	devices     map[protocol.DeviceAddress]DeviceState
	lastCommand map[protocol.DeviceAddress]time.Time

	window time.Duration
	now    func() time.Time
}

// NewStore returns an empty store using the default command window.
func NewStore() *Store {
	return &Store{
		devices:     make(map[protocol.DeviceAddress]DeviceState),
		lastCommand: make(map[protocol.DeviceAddress]time.Time),
		window:      CommandWindow,
		now:         time.Now,
	}
}

// ApplyCommand records an outbound command optimistically and opens the
// command window for its device.
func (s *Store) ApplyCommand(cmd protocol.Command) DeviceState {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	next := DeviceState{
		Address:   cmd.Address,
		Mode:      cmd.Mode,
		FanSpeed:  cmd.FanSpeed,
		Source:    SourceCommand,
		UpdatedAt: now,
	}
	if cmd.Temperature != 0 {
		next.Temperature = cmd.Temperature
	} else if prev, ok := s.devices[cmd.Address]; ok {
		// A command without a setpoint leaves the panel's setpoint alone.
		next.Temperature = prev.Temperature
	}
	s.devices[cmd.Address] = next
	s.lastCommand[cmd.Address] = now
	return next
}

// ApplyStatus records a broadcast-derived update. It reports whether
// the update was applied: updates inside the device's command window
// and exact duplicates of the current state are dropped.
func (s *Store) ApplyStatus(event protocol.StatusEvent) (DeviceState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if sent, ok := s.lastCommand[event.Address]; ok && now.Sub(sent) < s.window {
		return s.devices[event.Address], false
	}

	if prev, ok := s.devices[event.Address]; ok &&
		prev.Mode == event.Mode &&
		prev.Temperature == event.Temperature &&
		prev.FanSpeed == event.FanSpeed {
		return prev, false
	}

	next := DeviceState{
		Address:     event.Address,
		Mode:        event.Mode,
		Temperature: event.Temperature,
		FanSpeed:    event.FanSpeed,
		Source:      SourceBroadcast,
		UpdatedAt:   now,
	}
	s.devices[event.Address] = next
	return next, true
}

// Get returns the last known state of one device.
func (s *Store) Get(addr protocol.DeviceAddress) (DeviceState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.devices[addr]
	return st, ok
}

// Snapshot returns every tracked device, ordered by address.
func (s *Store) Snapshot() []DeviceState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]DeviceState, 0, len(s.devices))
	for _, st := range s.devices {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Address, out[j].Address
		if a.Subnet != b.Subnet {
			return a.Subnet < b.Subnet
		}
		return a.Device < b.Device
	})
	return out
}
