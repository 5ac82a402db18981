package listener

import (
	"context"
	"encoding/hex"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hadz2009/buspro-ac/internal/catalog"
	"github.com/Hadz2009/buspro-ac/internal/metrics"
	"github.com/Hadz2009/buspro-ac/internal/protocol"
	"github.com/Hadz2009/buspro-ac/internal/state"
)

type captureSink struct {
	events chan state.DeviceState
}

func (s *captureSink) Publish(st state.DeviceState) error {
	s.events <- st
	return nil
}

func (s *captureSink) Close() error { return nil }

func testLayout(t *testing.T) *protocol.FieldLayout {
	t.Helper()
	c, err := catalog.Load(filepath.Join("..", "..", "catalogs", "templates.yaml"))
	require.NoError(t, err)
	layout, err := c.Layout()
	require.NoError(t, err)
	return layout
}

func TestListenerDecodesAndPublishes(t *testing.T) {
	layout := testLayout(t)
	store := state.NewStore()
	sink := &captureSink{events: make(chan state.DeviceState, 16)}
	counters := &metrics.Counters{}

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		New(layout, store, sink, counters, zerolog.Nop()).Serve(ctx, conn)
	}()

	send := func(hexPacket string) {
		packet, err := hex.DecodeString(hexPacket)
		require.NoError(t, err)
		out, err := net.Dial("udp", conn.LocalAddr().String())
		require.NoError(t, err)
		defer out.Close()
		_, err = out.Write(packet)
		require.NoError(t, err)
	}

	// Valid cool broadcast for 1.14 at 24°C.
	send("aaaa0c010e0095193a00001864b4")

	select {
	case st := <-sink.events:
		assert.Equal(t, protocol.DeviceAddress{Subnet: 1, Device: 14}, st.Address)
		assert.Equal(t, protocol.ModeCool, st.Mode)
		assert.Equal(t, 24, st.Temperature)
		assert.Equal(t, state.SourceBroadcast, st.Source)
	case <-time.After(3 * time.Second):
		t.Fatal("no event published for a valid broadcast")
	}

	got, ok := store.Get(protocol.DeviceAddress{Subnet: 1, Device: 14})
	require.True(t, ok)
	assert.Equal(t, protocol.ModeCool, got.Mode)

	// Corrupted checksum: counted, logged, never published.
	send("aaaa0c010e0095193a00001864b5")
	// Unrelated but valid traffic (status request opcode): ignored silently.
	send("aaaa09010e0095193b0cde")

	require.Eventually(t, func() bool {
		s := counters.Snapshot()
		return s.FramesReceived == 3 && s.ChecksumFailures == 1 &&
			s.UnrecognizedFrames == 1 && s.EventsDecoded == 1
	}, 3*time.Second, 10*time.Millisecond, "counters: %+v", counters.Snapshot())

	select {
	case st := <-sink.events:
		t.Fatalf("unexpected event published: %+v", st)
	default:
	}

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not stop after cancellation")
	}
}

func TestListenBindFailure(t *testing.T) {
	layout := testLayout(t)

	// Occupy a port so the second bind fails.
	taken, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer taken.Close()
	takenPort := taken.LocalAddr().(*net.UDPAddr).Port

	l := New(layout, state.NewStore(), nil, &metrics.Counters{}, zerolog.Nop())
	err = l.Listen(context.Background(), []int{takenPort})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bind udp port")
}
