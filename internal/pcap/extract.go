// Package pcap recovers BusPro template candidates from packet
// captures. Catalogs are built by capturing the vendor tool's UDP
// traffic; this scans a capture for checksum-valid frames so the
// interesting payloads do not have to be picked out by hand.
package pcap

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/Hadz2009/buspro-ac/internal/protocol"
)

// Candidate is one distinct checksum-valid payload found in a capture.
type Candidate struct {
	// Packet is the full UDP payload, transport prefix included.
	Packet []byte
	// Source is the sender of the first occurrence.
	Source string
	// Count is how many times the identical payload appeared.
	Count int
}

// Hex returns the payload hex encoded, catalog-ready.
func (c Candidate) Hex() string {
	return hex.EncodeToString(c.Packet)
}

// ExtractTemplates scans a pcap file for UDP payloads that parse and
// checksum as BusPro frames. Identical payloads are collapsed into one
// candidate; candidates keep first-seen order.
func ExtractTemplates(path string) ([]Candidate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	defer f.Close()

	reader, err := pcapgo.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("read capture %s: %w", path, err)
	}

	var order []string
	byPayload := make(map[string]*Candidate)

	source := gopacket.NewPacketSource(reader, reader.LinkType())
	for {
		packet, err := source.NextPacket()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode capture %s: %w", path, err)
		}
		udpLayer := packet.Layer(layers.LayerTypeUDP)
		if udpLayer == nil {
			continue
		}
		udp := udpLayer.(*layers.UDP)
		payload := udp.Payload
		if len(payload) == 0 {
			continue
		}
		_, frame, err := protocol.SplitPacket(payload)
		if err != nil {
			continue
		}
		if err := protocol.VerifyFrame(frame); err != nil {
			continue
		}

		key := string(payload)
		if existing, ok := byPayload[key]; ok {
			existing.Count++
			continue
		}
		src := "unknown"
		if netLayer := packet.NetworkLayer(); netLayer != nil {
			src = fmt.Sprintf("%s:%d", netLayer.NetworkFlow().Src(), udp.SrcPort)
		}
		byPayload[key] = &Candidate{
			Packet: append([]byte(nil), payload...),
			Source: src,
			Count:  1,
		}
		order = append(order, key)
	}

	out := make([]Candidate, 0, len(order))
	for _, key := range order {
		out = append(out, *byPayload[key])
	}
	return out, nil
}
