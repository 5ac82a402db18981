// Package metrics holds process-wide counters for the daemon paths.
// Counters are plain atomics so the receive loop never takes a lock.
package metrics

import "sync/atomic"

// Counters tracks traffic and error totals for one engine instance.
type Counters struct {
	FramesReceived     atomic.Uint64
	ChecksumFailures   atomic.Uint64
	UnrecognizedFrames atomic.Uint64
	EventsDecoded      atomic.Uint64
	CommandsSent       atomic.Uint64
	SendErrors         atomic.Uint64
}

// Snapshot is a point-in-time copy of every counter.
type Snapshot struct {
	FramesReceived     uint64 `json:"frames_received"`
	ChecksumFailures   uint64 `json:"checksum_failures"`
	UnrecognizedFrames uint64 `json:"unrecognized_frames"`
	EventsDecoded      uint64 `json:"events_decoded"`
	CommandsSent       uint64 `json:"commands_sent"`
	SendErrors         uint64 `json:"send_errors"`
}

// Snapshot reads every counter once.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		FramesReceived:     c.FramesReceived.Load(),
		ChecksumFailures:   c.ChecksumFailures.Load(),
		UnrecognizedFrames: c.UnrecognizedFrames.Load(),
		EventsDecoded:      c.EventsDecoded.Load(),
		CommandsSent:       c.CommandsSent.Load(),
		SendErrors:         c.SendErrors.Load(),
	}
}
