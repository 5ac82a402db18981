package pcap

import (
	"encoding/hex"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func writeCapture(t *testing.T, payloads [][]byte, withTCP bool) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.pcap")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		t.Fatal(err)
	}

	writePacket := func(transport gopacket.SerializableLayer, ip *layers.IPv4, payload []byte) {
		eth := layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01},
			DstMAC:       net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02},
			EthernetType: layers.EthernetTypeIPv4,
		}
		buf := gopacket.NewSerializeBuffer()
		opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
		if err := gopacket.SerializeLayers(buf, opts, &eth, ip, transport, gopacket.Payload(payload)); err != nil {
			t.Fatal(err)
		}
		data := buf.Bytes()
		ci := gopacket.CaptureInfo{
			Timestamp:     time.Now(),
			CaptureLength: len(data),
			Length:        len(data),
		}
		if err := w.WritePacket(ci, data); err != nil {
			t.Fatal(err)
		}
	}

	for _, payload := range payloads {
		ip := layers.IPv4{
			Version:  4,
			TTL:      64,
			Protocol: layers.IPProtocolUDP,
			SrcIP:    net.IPv4(192, 168, 1, 10),
			DstIP:    net.IPv4(192, 168, 1, 255),
		}
		udp := layers.UDP{SrcPort: 6000, DstPort: 6000}
		if err := udp.SetNetworkLayerForChecksum(&ip); err != nil {
			t.Fatal(err)
		}
		writePacket(&udp, &ip, payload)
	}

	if withTCP {
		ip := layers.IPv4{
			Version:  4,
			TTL:      64,
			Protocol: layers.IPProtocolTCP,
			SrcIP:    net.IPv4(192, 168, 1, 10),
			DstIP:    net.IPv4(192, 168, 1, 20),
		}
		tcp := layers.TCP{SrcPort: 4000, DstPort: 80, SYN: true}
		if err := tcp.SetNetworkLayerForChecksum(&ip); err != nil {
			t.Fatal(err)
		}
		writePacket(&tcp, &ip, mustHex(t, "aaaa0c010d0095193a0000164d0f"))
	}
	return path
}

func TestExtractTemplates(t *testing.T) {
	coolWithPrefix := mustHex(t, "48444c4d495241434c45aaaa0c010d0095193a0000164d0f")
	statusNoPrefix := mustHex(t, "aaaa09010d0095193be20c")
	badChecksum := mustHex(t, "aaaa0c010d0095193a0000164d00")
	notBuspro := mustHex(t, "deadbeef")

	path := writeCapture(t, [][]byte{
		coolWithPrefix,
		badChecksum,
		statusNoPrefix,
		coolWithPrefix,
		notBuspro,
	}, true)

	candidates, err := ExtractTemplates(path)
	if err != nil {
		t.Fatalf("ExtractTemplates: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2: %+v", len(candidates), candidates)
	}

	if got := candidates[0].Hex(); got != hex.EncodeToString(coolWithPrefix) {
		t.Errorf("first candidate = %s", got)
	}
	if candidates[0].Count != 2 {
		t.Errorf("cool candidate Count = %d, want 2", candidates[0].Count)
	}
	if candidates[0].Source != "192.168.1.10:6000" {
		t.Errorf("Source = %q", candidates[0].Source)
	}

	if got := candidates[1].Hex(); got != hex.EncodeToString(statusNoPrefix) {
		t.Errorf("second candidate = %s", got)
	}
	if candidates[1].Count != 1 {
		t.Errorf("status candidate Count = %d, want 1", candidates[1].Count)
	}
}

func TestExtractTemplatesMissingFile(t *testing.T) {
	if _, err := ExtractTemplates(filepath.Join(t.TempDir(), "absent.pcap")); err == nil {
		t.Fatal("ExtractTemplates on a missing file succeeded")
	}
}

func TestExtractTemplatesEmptyCapture(t *testing.T) {
	path := writeCapture(t, nil, false)
	candidates, err := ExtractTemplates(path)
	if err != nil {
		t.Fatalf("ExtractTemplates: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("got %d candidates from an empty capture", len(candidates))
	}
}
