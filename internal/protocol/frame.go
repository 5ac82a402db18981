package protocol

// BusPro frame structure and validation.
//
// On the wire a packet is an optional transport prefix followed by a frame:
//
//	[prefix] AA AA [length] [data area ...] [crcHi] [crcLo]
//
// The length byte counts itself, the data area, and the two checksum
// bytes. The checksum is computed from the length byte through the end
// of the data area.

import (
	"errors"
	"fmt"
)

// MarkerByte is the frame start marker; frames begin with two of them.
const MarkerByte = 0xAA

const (
	// frameHeaderLen covers the two marker bytes and the length byte.
	frameHeaderLen = 3
	checksumLen    = 2

	// minFrameLen is a marker pair, length byte, and checksum with an
	// empty data area.
	minFrameLen = frameHeaderLen + checksumLen

	// LengthOffset is the frame index of the length byte.
	LengthOffset = 2
)

var (
	// ErrMarkerNotFound indicates no AA AA marker exists in a packet.
	ErrMarkerNotFound = errors.New("frame marker 0xAA 0xAA not found")
	// ErrFrameTooShort indicates a frame smaller than the fixed envelope.
	ErrFrameTooShort = errors.New("frame too short")
	// ErrLengthMismatch indicates the length byte disagrees with the
	// actual frame size.
	ErrLengthMismatch = errors.New("frame length byte mismatch")
	// ErrChecksumMismatch indicates the trailing checksum bytes do not
	// validate against the frame contents.
	ErrChecksumMismatch = errors.New("frame checksum mismatch")
)

// SplitPacket locates the frame marker in a raw packet and returns the
// transport prefix (possibly empty) and the frame starting at AA AA.
func SplitPacket(packet []byte) (prefix, frame []byte, err error) {
	for i := 0; i+1 < len(packet); i++ {
		if packet[i] == MarkerByte && packet[i+1] == MarkerByte {
			return packet[:i], packet[i:], nil
		}
	}
	return nil, nil, ErrMarkerNotFound
}

// VerifyFrame checks the marker, the length byte, and the trailing
// checksum of a frame. A nil return means the frame is structurally
// valid and its checksum matches.
func VerifyFrame(frame []byte) error {
	if len(frame) < minFrameLen {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooShort, len(frame))
	}
	if frame[0] != MarkerByte || frame[1] != MarkerByte {
		return fmt.Errorf("%w: frame starts %02X %02X", ErrMarkerNotFound, frame[0], frame[1])
	}

	// The length byte counts itself, so the region it describes is the
	// whole frame minus the two marker bytes.
	length := int(frame[LengthOffset])
	if length != len(frame)-2 {
		return fmt.Errorf("%w: length byte %d, frame carries %d bytes after the marker",
			ErrLengthMismatch, length, len(frame)-2)
	}

	body := frame[LengthOffset:]
	hi, lo := Checksum(body[:len(body)-checksumLen])
	storedHi, storedLo := body[len(body)-2], body[len(body)-1]
	if hi != storedHi || lo != storedLo {
		return fmt.Errorf("%w: stored %02X%02X, computed %02X%02X",
			ErrChecksumMismatch, storedHi, storedLo, hi, lo)
	}
	return nil
}

// dataArea returns the variable region of a frame, between the length
// byte and the checksum. The frame must already be verified.
func dataArea(frame []byte) []byte {
	return frame[frameHeaderLen : len(frame)-checksumLen]
}

// sealFrame recomputes the checksum of a frame in place.
func sealFrame(frame []byte) {
	body := frame[LengthOffset:]
	hi, lo := Checksum(body[:len(body)-checksumLen])
	frame[len(frame)-2] = hi
	frame[len(frame)-1] = lo
}
