// Package app wires the protocol engine to routing, transport, and
// state. It owns the command path: build, route, send, record.
package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Hadz2009/buspro-ac/internal/gateway"
	"github.com/Hadz2009/buspro-ac/internal/metrics"
	"github.com/Hadz2009/buspro-ac/internal/protocol"
	"github.com/Hadz2009/buspro-ac/internal/state"
)

// PrimeSpacing is the pause between startup status requests, so a
// gateway bridging many panels is not flooded.
const PrimeSpacing = 100 * time.Millisecond

// Controller executes state changes and status polls against the bus.
type Controller struct {
	layout   *protocol.FieldLayout
	router   *gateway.Router
	sender   *gateway.Sender
	store    *state.Store
	counters *metrics.Counters
	log      zerolog.Logger
}

// NewController wires a controller.
func NewController(layout *protocol.FieldLayout, router *gateway.Router,
	sender *gateway.Sender, store *state.Store, counters *metrics.Counters,
	log zerolog.Logger) *Controller {
	return &Controller{
		layout:   layout,
		router:   router,
		sender:   sender,
		store:    store,
		counters: counters,
		log:      log,
	}
}

// SetState synthesizes and sends one command, then records it
// optimistically in the state store. Delivery is best effort; a nil
// error means the packet was handed to the network.
func (c *Controller) SetState(cmd protocol.Command) error {
	packet, err := c.layout.Build(cmd)
	if err != nil {
		return err
	}
	ep, err := c.router.Route(cmd.Address)
	if err != nil {
		return err
	}
	if err := c.sender.Send(packet, ep); err != nil {
		c.counters.SendErrors.Add(1)
		return err
	}
	c.counters.CommandsSent.Add(1)
	c.store.ApplyCommand(cmd)
	c.log.Info().
		Str("device", cmd.Address.String()).
		Str("mode", string(cmd.Mode)).
		Int("temperature", cmd.Temperature).
		Str("gateway", ep.String()).
		Msg("command sent")
	return nil
}

// RequestStatus asks one panel to broadcast its state. The reply
// arrives through the status listener, not here.
func (c *Controller) RequestStatus(addr protocol.DeviceAddress) error {
	packet, err := c.layout.BuildStatusRequest(addr)
	if err != nil {
		return err
	}
	ep, err := c.router.Route(addr)
	if err != nil {
		return err
	}
	if err := c.sender.Send(packet, ep); err != nil {
		c.counters.SendErrors.Add(1)
		return err
	}
	c.log.Debug().Str("device", addr.String()).Msg("status requested")
	return nil
}

// PrimeStatus requests status from every address, spaced apart, until
// done or ctx is cancelled. Per-device failures are logged and skipped;
// priming is opportunistic.
func (c *Controller) PrimeStatus(ctx context.Context, addrs []protocol.DeviceAddress, spacing time.Duration) {
	for i, addr := range addrs {
		if i > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(spacing):
			}
		}
		if err := c.RequestStatus(addr); err != nil {
			c.log.Warn().Err(err).Str("device", addr.String()).Msg("status prime failed")
		}
	}
}
