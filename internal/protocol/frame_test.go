package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestSplitPacket(t *testing.T) {
	withPrefix := mustHex(t, tplOff)
	prefix, frame, err := SplitPacket(withPrefix)
	if err != nil {
		t.Fatalf("SplitPacket: %v", err)
	}
	if !bytes.Equal(prefix, mustHex(t, wirePrefix)) {
		t.Errorf("prefix = %X, want %s", prefix, wirePrefix)
	}
	if frame[0] != MarkerByte || frame[1] != MarkerByte {
		t.Errorf("frame does not start at the marker: % X", frame[:2])
	}

	bare := mustHex(t, "aaaa0c010d0095193a0001167e3e")
	prefix, frame, err = SplitPacket(bare)
	if err != nil {
		t.Fatalf("SplitPacket without prefix: %v", err)
	}
	if len(prefix) != 0 {
		t.Errorf("prefix = %X, want empty", prefix)
	}
	if !bytes.Equal(frame, bare) {
		t.Errorf("frame = %X, want the whole packet", frame)
	}

	if _, _, err := SplitPacket([]byte{0x01, 0x02, 0xAA, 0x03}); !errors.Is(err, ErrMarkerNotFound) {
		t.Errorf("SplitPacket with no marker pair: %v, want ErrMarkerNotFound", err)
	}
}

func TestVerifyFrame(t *testing.T) {
	valid := testFrame(t, 0x01, 0x0d, 0x00, 0x95, 0x19, 0x3a, 0x00, 0x00, 0x16)

	tests := []struct {
		name    string
		mutate  func([]byte) []byte
		wantErr error
	}{
		{"valid", func(f []byte) []byte { return f }, nil},
		{"too short", func(f []byte) []byte { return f[:4] }, ErrFrameTooShort},
		{"bad marker", func(f []byte) []byte {
			f[1] = 0x55
			return f
		}, ErrMarkerNotFound},
		{"length overstated", func(f []byte) []byte {
			f[LengthOffset]++
			return f
		}, ErrLengthMismatch},
		{"length understated", func(f []byte) []byte {
			f[LengthOffset]--
			return f
		}, ErrLengthMismatch},
		{"corrupt data byte", func(f []byte) []byte {
			f[5] ^= 0xFF
			return f
		}, ErrChecksumMismatch},
		{"corrupt checksum byte", func(f []byte) []byte {
			f[len(f)-1] ^= 0x01
			return f
		}, ErrChecksumMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := tt.mutate(append([]byte(nil), valid...))
			err := VerifyFrame(frame)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("VerifyFrame: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("VerifyFrame = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerifyFrameAcceptsEveryFixture(t *testing.T) {
	for _, fixture := range []string{tplOff, tplCool, tplFanOnly, tplDry,
		tplFanHigh, tplTemp16, tplTemp22, tplTemp24, tplTemp30, tplStatus} {
		_, frame, err := SplitPacket(mustHex(t, fixture))
		if err != nil {
			t.Fatalf("SplitPacket(%s): %v", fixture, err)
		}
		if err := VerifyFrame(frame); err != nil {
			t.Errorf("VerifyFrame(%s): %v", fixture, err)
		}
	}
}
