// Package gateway routes command packets to IP gateways and puts them
// on the wire. BusPro devices do not speak IP; every packet goes to the
// UDP gateway bridging the device's subnet.
package gateway

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"sync/atomic"

	"github.com/Hadz2009/buspro-ac/internal/protocol"
)

// ErrNoRoute indicates no gateway is configured for a device's subnet.
var ErrNoRoute = errors.New("no gateway route")

// Endpoint is a gateway's UDP address.
type Endpoint struct {
	Host string
	Port int
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Table maps bus subnets to gateway endpoints. A Default endpoint, when
// set, catches every subnet without an explicit entry.
type Table struct {
	Default  *Endpoint
	BySubnet map[uint8]Endpoint
}

// Router resolves device addresses to gateway endpoints. Lookups take
// no lock; Replace swaps the whole table atomically so concurrent
// senders see either the old table or the new one, never a mix.
type Router struct {
	table atomic.Pointer[Table]
}

// NewRouter returns a router serving the given table.
func NewRouter(t Table) *Router {
	r := &Router{}
	r.Replace(t)
	return r
}

// Replace installs a new routing table. In-flight lookups finish
// against the table they started with.
func (r *Router) Replace(t Table) {
	copied := Table{BySubnet: make(map[uint8]Endpoint, len(t.BySubnet))}
	if t.Default != nil {
		ep := *t.Default
		copied.Default = &ep
	}
	for subnet, ep := range t.BySubnet {
		copied.BySubnet[subnet] = ep
	}
	r.table.Store(&copied)
}

// Route returns the gateway endpoint for a device address.
func (r *Router) Route(addr protocol.DeviceAddress) (Endpoint, error) {
	t := r.table.Load()
	if ep, ok := t.BySubnet[addr.Subnet]; ok {
		return ep, nil
	}
	if t.Default != nil {
		return *t.Default, nil
	}
	return Endpoint{}, fmt.Errorf("%w for device %s: subnet %d has no gateway and no default is configured",
		ErrNoRoute, addr, addr.Subnet)
}

// Ports returns the distinct UDP ports across every configured
// gateway, sorted. The status listener binds one socket per port.
func (r *Router) Ports() []int {
	t := r.table.Load()
	seen := make(map[int]bool)
	if t.Default != nil {
		seen[t.Default.Port] = true
	}
	for _, ep := range t.BySubnet {
		seen[ep.Port] = true
	}
	ports := make([]int, 0, len(seen))
	for p := range seen {
		ports = append(ports, p)
	}
	sort.Ints(ports)
	return ports
}
