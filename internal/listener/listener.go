// Package listener receives status broadcasts from IP gateways. One
// goroutine runs per distinct gateway port; every datagram is validated
// and decoded, and decoded events feed the state store.
package listener

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Hadz2009/buspro-ac/internal/metrics"
	"github.com/Hadz2009/buspro-ac/internal/protocol"
	"github.com/Hadz2009/buspro-ac/internal/state"
)

// Gateways broadcast whole frames; this comfortably covers the largest.
const maxDatagram = 2048

// Listener decodes status broadcasts into the state store.
type Listener struct {
	layout   *protocol.FieldLayout
	store    *state.Store
	sink     state.Sink
	counters *metrics.Counters
	log      zerolog.Logger
}

// New wires a listener to its store and sink. A nil sink disables
// external publishing.
func New(layout *protocol.FieldLayout, store *state.Store, sink state.Sink,
	counters *metrics.Counters, log zerolog.Logger) *Listener {
	if sink == nil {
		sink = state.NopSink{}
	}
	return &Listener{
		layout:   layout,
		store:    store,
		sink:     sink,
		counters: counters,
		log:      log,
	}
}

// Listen binds one UDP socket per port and serves until ctx is done.
// Binding is all or nothing: if any port fails, every socket is closed
// and the error is returned.
func (l *Listener) Listen(ctx context.Context, ports []int) error {
	conns := make([]*net.UDPConn, 0, len(ports))
	for _, port := range ports {
		conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: port})
		if err != nil {
			for _, c := range conns {
				c.Close()
			}
			return fmt.Errorf("bind udp port %d: %w", port, err)
		}
		conns = append(conns, conn)
	}
	l.Serve(ctx, conns...)
	return nil
}

// Serve runs one receive goroutine per socket until ctx is done, then
// closes every socket and waits for the goroutines to drain. Serve
// takes ownership of the sockets.
func (l *Listener) Serve(ctx context.Context, conns ...*net.UDPConn) {
	var wg sync.WaitGroup
	for _, conn := range conns {
		wg.Add(1)
		go func(conn *net.UDPConn) {
			defer wg.Done()
			l.receiveLoop(conn)
		}(conn)
	}

	<-ctx.Done()
	for _, conn := range conns {
		conn.Close()
	}
	wg.Wait()
}

func (l *Listener) receiveLoop(conn *net.UDPConn) {
	local := conn.LocalAddr().String()
	l.log.Info().Str("local", local).Msg("status listener started")

	buf := make([]byte, maxDatagram)
	for {
		n, remote, err := conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				l.log.Info().Str("local", local).Msg("status listener stopped")
				return
			}
			l.log.Warn().Err(err).Str("local", local).Msg("receive error")
			continue
		}
		l.handle(buf[:n], remote)
	}
}

func (l *Listener) handle(datagram []byte, remote *net.UDPAddr) {
	l.counters.FramesReceived.Add(1)

	event, err := l.layout.DecodeStatus(datagram)
	switch {
	case errors.Is(err, protocol.ErrUnrecognizedFrame):
		// Other bus traffic shares the port. Not an error.
		l.counters.UnrecognizedFrames.Add(1)
		return
	case err != nil:
		l.counters.ChecksumFailures.Add(1)
		l.log.Warn().
			Err(err).
			Str("remote", remote.String()).
			Int("bytes", len(datagram)).
			Msg("malformed datagram dropped")
		return
	}

	l.counters.EventsDecoded.Add(1)
	st, applied := l.store.ApplyStatus(event)
	if !applied {
		return
	}
	l.log.Debug().
		Str("device", st.Address.String()).
		Str("mode", string(st.Mode)).
		Int("temperature", st.Temperature).
		Msg("status update")
	if err := l.sink.Publish(st); err != nil {
		l.log.Warn().Err(err).Str("device", st.Address.String()).Msg("sink publish failed")
	}
}
