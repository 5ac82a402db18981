package state

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Sink receives state changes after the store applies them.
type Sink interface {
	Publish(DeviceState) error
	Close() error
}

// Event is the envelope published to external consumers.
type Event struct {
	ID        string      `json:"id"`
	EmittedAt time.Time   `json:"emitted_at"`
	State     DeviceState `json:"state"`
}

func newEvent(st DeviceState) Event {
	return Event{
		ID:        uuid.NewString(),
		EmittedAt: time.Now().UTC(),
		State:     st,
	}
}

// statusSubject builds the per-device NATS subject.
func statusSubject(st DeviceState) string {
	return fmt.Sprintf("buspro.status.%d.%d", st.Address.Subnet, st.Address.Device)
}

// NATSSink publishes state change events to a NATS subject per device.
type NATSSink struct {
	conn *nats.Conn
	log  zerolog.Logger
}

// NewNATSSink connects to a NATS server.
func NewNATSSink(url string, log zerolog.Logger) (*NATSSink, error) {
	conn, err := nats.Connect(url,
		nats.Name("buspro-ac"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", url, err)
	}
	return &NATSSink{conn: conn, log: log}, nil
}

// Publish sends one event. Failures are returned, not retried; state
// events are superseded by the next change anyway.
func (s *NATSSink) Publish(st DeviceState) error {
	event := newEvent(st)
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal state event: %w", err)
	}
	subject := statusSubject(st)
	if err := s.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	s.log.Debug().
		Str("subject", subject).
		Str("event_id", event.ID).
		Msg("state event published")
	return nil
}

// Close flushes and drops the NATS connection.
func (s *NATSSink) Close() error {
	if err := s.conn.Flush(); err != nil {
		s.conn.Close()
		return err
	}
	s.conn.Close()
	return nil
}

// NopSink discards every event. Used when no external sink is configured.
type NopSink struct{}

func (NopSink) Publish(DeviceState) error { return nil }
func (NopSink) Close() error              { return nil }
