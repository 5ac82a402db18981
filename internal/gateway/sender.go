package gateway

import (
	"fmt"
	"net"

	"github.com/rs/zerolog"
)

// Sender writes packets to gateway endpoints from one unconnected UDP
// socket. Delivery is best effort: UDP reports no acknowledgement, so a
// nil error only means the packet left this host.
type Sender struct {
	conn *net.UDPConn
	log  zerolog.Logger
}

// NewSender opens the shared send socket.
func NewSender(log zerolog.Logger) (*Sender, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		return nil, fmt.Errorf("open send socket: %w", err)
	}
	return &Sender{conn: conn, log: log}, nil
}

// Send writes one packet to an endpoint.
func (s *Sender) Send(packet []byte, ep Endpoint) error {
	dst, err := net.ResolveUDPAddr("udp", ep.String())
	if err != nil {
		return fmt.Errorf("resolve gateway %s: %w", ep, err)
	}
	if _, err := s.conn.WriteToUDP(packet, dst); err != nil {
		return fmt.Errorf("send to gateway %s: %w", ep, err)
	}
	s.log.Debug().
		Str("gateway", ep.String()).
		Int("bytes", len(packet)).
		Msg("packet sent")
	return nil
}

// Close releases the send socket.
func (s *Sender) Close() error {
	return s.conn.Close()
}
