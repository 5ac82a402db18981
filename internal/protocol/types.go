// Package protocol implements the HDL BusPro AC control protocol:
// checksum computation, template-driven layout discovery, command frame
// synthesis, and status broadcast decoding.
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Mode is an HVAC operating mode. The raw byte value each mode maps to
// is discovered from the template catalog, never hardcoded.
type Mode string

const (
	ModeOff     Mode = "off"
	ModeCool    Mode = "cool"
	ModeFanOnly Mode = "fan_only"
	ModeDry     Mode = "dry"
)

// Modes lists every supported mode in a stable order.
var Modes = []Mode{ModeOff, ModeCool, ModeFanOnly, ModeDry}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeOff, ModeCool, ModeFanOnly, ModeDry:
		return true
	}
	return false
}

// SupportsTemperature reports whether a setpoint applies in this mode.
func (m Mode) SupportsTemperature() bool {
	return m == ModeCool || m == ModeFanOnly || m == ModeDry
}

// FanSpeed is the raw fan speed byte carried by control frames.
type FanSpeed byte

const (
	FanAuto   FanSpeed = 0x00
	FanHigh   FanSpeed = 0x01
	FanMedium FanSpeed = 0x02
	FanLow    FanSpeed = 0x03
)

// String returns the configuration-facing name of a fan speed.
func (f FanSpeed) String() string {
	switch f {
	case FanAuto:
		return "auto"
	case FanHigh:
		return "high"
	case FanMedium:
		return "medium"
	case FanLow:
		return "low"
	}
	return fmt.Sprintf("0x%02X", byte(f))
}

// ParseFanSpeed parses a configuration-facing fan speed name.
func ParseFanSpeed(s string) (FanSpeed, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto":
		return FanAuto, nil
	case "high":
		return FanHigh, nil
	case "medium":
		return FanMedium, nil
	case "low":
		return FanLow, nil
	}
	return FanAuto, fmt.Errorf("unknown fan speed %q (use auto, high, medium, or low)", s)
}

// Supported temperature setpoint range in degrees Celsius.
const (
	MinTemperature = 16
	MaxTemperature = 30
)

// DeviceAddress identifies a bus endpoint by subnet and device id.
// Both components are 1..255.
type DeviceAddress struct {
	Subnet uint8
	Device uint8
}

// ParseAddress parses a "subnet.device" address string.
func ParseAddress(s string) (DeviceAddress, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 2 {
		return DeviceAddress{}, fmt.Errorf("invalid address %q: use \"subnet.device\" (e.g. \"1.14\")", s)
	}
	subnet, err := strconv.Atoi(parts[0])
	if err != nil {
		return DeviceAddress{}, fmt.Errorf("invalid subnet in address %q: %w", s, err)
	}
	device, err := strconv.Atoi(parts[1])
	if err != nil {
		return DeviceAddress{}, fmt.Errorf("invalid device in address %q: %w", s, err)
	}
	addr := DeviceAddress{Subnet: uint8(subnet), Device: uint8(device)}
	if subnet < 1 || subnet > 255 || device < 1 || device > 255 {
		return DeviceAddress{}, fmt.Errorf("address %q out of range: subnet and device must be 1..255", s)
	}
	return addr, nil
}

// Valid reports whether both address components are in 1..255.
func (a DeviceAddress) Valid() bool {
	return a.Subnet >= 1 && a.Device >= 1
}

func (a DeviceAddress) String() string {
	return fmt.Sprintf("%d.%d", a.Subnet, a.Device)
}

// StatusEvent is the decoded state carried by one valid inbound frame.
type StatusEvent struct {
	Address     DeviceAddress
	Mode        Mode
	Temperature int // degrees Celsius; 0 when the frame carries none
	FanSpeed    FanSpeed
}

// Command describes one outbound state change request.
type Command struct {
	Address DeviceAddress
	Mode    Mode
	// Temperature in degrees Celsius. Zero means "not supplied": the
	// template's setpoint byte is left untouched.
	Temperature int
	// FanSpeed to write. Ignored for ModeOff and on catalogs without a
	// fan speed template. The zero value is FanAuto, matching panel
	// behavior when no speed was ever selected.
	FanSpeed FanSpeed
}

var (
	// ErrDiscovery wraps every template-inconsistency failure from Discover.
	ErrDiscovery = errors.New("protocol discovery failed")
	// ErrEncoding wraps every invalid-command failure from Build.
	ErrEncoding = errors.New("command encoding rejected")
	// ErrUnrecognizedFrame marks valid bus traffic that is not an AC
	// status frame; callers discard these silently.
	ErrUnrecognizedFrame = errors.New("frame shape not recognized")
)
