package protocol

import (
	"errors"
	"testing"
)

func TestDecodeStatus(t *testing.T) {
	layout := discoverTestLayout(t)

	tests := []struct {
		name   string
		packet string
		want   StatusEvent
	}{
		{
			name:   "cool 1.14 at 24C with prefix",
			packet: wirePrefix + "aaaa0c010e0095193a00001864b4",
			want: StatusEvent{
				Address:     DeviceAddress{Subnet: 1, Device: 14},
				Mode:        ModeCool,
				Temperature: 24,
			},
		},
		{
			name:   "off 1.13 without prefix",
			packet: "aaaa0c010d0095193a0001167e3e",
			want: StatusEvent{
				Address:     DeviceAddress{Subnet: 1, Device: 13},
				Mode:        ModeOff,
				Temperature: 22,
			},
		},
		{
			name:   "fan only 1.13 fan low",
			packet: "aaaa0c010d0095193a030216723d",
			want: StatusEvent{
				Address:     DeviceAddress{Subnet: 1, Device: 13},
				Mode:        ModeFanOnly,
				Temperature: 22,
				FanSpeed:    FanLow,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := layout.DecodeStatus(mustHex(t, tt.packet))
			if err != nil {
				t.Fatalf("DecodeStatus: %v", err)
			}
			if event != tt.want {
				t.Errorf("DecodeStatus = %+v, want %+v", event, tt.want)
			}
		})
	}
}

func TestDecodeStatusValidationErrors(t *testing.T) {
	layout := discoverTestLayout(t)

	corrupted := mustHex(t, "aaaa0c010d0095193a0001167e3e")
	corrupted[7] ^= 0x40
	if _, err := layout.DecodeStatus(corrupted); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("corrupted frame: %v, want ErrChecksumMismatch", err)
	}

	if _, err := layout.DecodeStatus([]byte{0x01, 0x02, 0x03}); !errors.Is(err, ErrMarkerNotFound) {
		t.Errorf("markerless datagram: %v, want ErrMarkerNotFound", err)
	}
}

func TestDecodeStatusIgnoresOtherTraffic(t *testing.T) {
	layout := discoverTestLayout(t)

	tests := []struct {
		name  string
		frame []byte
	}{
		{
			// Different operation code, same envelope.
			name:  "different operation",
			frame: testFrame(t, 0x01, 0x0d, 0x00, 0x95, 0x19, 0x3b, 0x00, 0x00, 0x16),
		},
		{
			// Valid frame, wrong size for a command.
			name:  "short frame",
			frame: testFrame(t, 0x01, 0x0d, 0x00, 0x95),
		},
		{
			// Mode byte outside the discovered enumeration.
			name:  "unknown mode byte",
			frame: testFrame(t, 0x01, 0x0d, 0x00, 0x95, 0x19, 0x3a, 0x00, 0x09, 0x16),
		},
		{
			// Different device type in the fixed region.
			name:  "different device type",
			frame: testFrame(t, 0x01, 0x0d, 0x00, 0x31, 0x19, 0x3a, 0x00, 0x00, 0x16),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := layout.DecodeStatus(tt.frame); !errors.Is(err, ErrUnrecognizedFrame) {
				t.Errorf("DecodeStatus = %v, want ErrUnrecognizedFrame", err)
			}
		})
	}
}
