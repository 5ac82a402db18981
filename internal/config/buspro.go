// Package config loads the daemon and CLI configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Hadz2009/buspro-ac/internal/gateway"
	"github.com/Hadz2009/buspro-ac/internal/protocol"
)

// DefaultPort is the UDP port HDL IP gateways ship with.
const DefaultPort = 6000

// GatewayConfig is one IP gateway endpoint.
type GatewayConfig struct {
	Subnet uint8  `yaml:"subnet,omitempty"`
	IP     string `yaml:"ip"`
	Port   int    `yaml:"port"`
}

// DeviceConfig names one AC panel.
type DeviceConfig struct {
	Address string `yaml:"address"`
	Name    string `yaml:"name"`
}

// ListenerConfig controls the status listener.
type ListenerConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Config is the full configuration surface.
type Config struct {
	LogLevel string `yaml:"log_level"`
	Catalog  string `yaml:"catalog"`

	// Gateway is the default endpoint for every subnet without an
	// explicit entry in Gateways. At least one of the two must be set.
	Gateway  *GatewayConfig  `yaml:"gateway,omitempty"`
	Gateways []GatewayConfig `yaml:"gateways,omitempty"`

	Devices  []DeviceConfig `yaml:"devices,omitempty"`
	Listener ListenerConfig `yaml:"listener"`

	// PrimeStatus requests initial status from every configured device
	// when the listener starts.
	PrimeStatus bool `yaml:"prime_status"`

	// NATSURL enables the external event sink when non-empty.
	NATSURL string `yaml:"nats_url,omitempty"`
}

// Load reads, defaults, and validates a configuration file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Catalog == "" {
		c.Catalog = "catalogs/templates.yaml"
	}
	if c.Gateway != nil && c.Gateway.Port == 0 {
		c.Gateway.Port = DefaultPort
	}
	for i := range c.Gateways {
		if c.Gateways[i].Port == 0 {
			c.Gateways[i].Port = DefaultPort
		}
	}
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	if c.Gateway == nil && len(c.Gateways) == 0 {
		return fmt.Errorf("no gateway configured: set gateway or gateways")
	}
	if c.Gateway != nil {
		if c.Gateway.IP == "" {
			return fmt.Errorf("gateway: ip is required")
		}
		if c.Gateway.Subnet != 0 {
			return fmt.Errorf("gateway: subnet is not allowed on the default gateway, use gateways")
		}
	}
	seenSubnets := make(map[uint8]bool, len(c.Gateways))
	for i, gw := range c.Gateways {
		if gw.IP == "" {
			return fmt.Errorf("gateways[%d]: ip is required", i)
		}
		if gw.Subnet == 0 {
			return fmt.Errorf("gateways[%d]: subnet is required", i)
		}
		if seenSubnets[gw.Subnet] {
			return fmt.Errorf("gateways[%d]: duplicate subnet %d", i, gw.Subnet)
		}
		seenSubnets[gw.Subnet] = true
	}
	seenDevices := make(map[protocol.DeviceAddress]bool, len(c.Devices))
	for i, dev := range c.Devices {
		addr, err := protocol.ParseAddress(dev.Address)
		if err != nil {
			return fmt.Errorf("devices[%d]: %w", i, err)
		}
		if seenDevices[addr] {
			return fmt.Errorf("devices[%d]: duplicate address %s", i, addr)
		}
		seenDevices[addr] = true
	}
	return nil
}

// RoutingTable builds the gateway routing table.
func (c *Config) RoutingTable() gateway.Table {
	t := gateway.Table{BySubnet: make(map[uint8]gateway.Endpoint, len(c.Gateways))}
	if c.Gateway != nil {
		t.Default = &gateway.Endpoint{Host: c.Gateway.IP, Port: c.Gateway.Port}
	}
	for _, gw := range c.Gateways {
		t.BySubnet[gw.Subnet] = gateway.Endpoint{Host: gw.IP, Port: gw.Port}
	}
	return t
}

// DeviceAddresses returns every configured device address. The config
// must have been validated.
func (c *Config) DeviceAddresses() []protocol.DeviceAddress {
	out := make([]protocol.DeviceAddress, 0, len(c.Devices))
	for _, dev := range c.Devices {
		addr, err := protocol.ParseAddress(dev.Address)
		if err != nil {
			continue
		}
		out = append(out, addr)
	}
	return out
}

// DeviceName returns the configured name for an address, or the
// address itself when unnamed.
func (c *Config) DeviceName(addr protocol.DeviceAddress) string {
	for _, dev := range c.Devices {
		if parsed, err := protocol.ParseAddress(dev.Address); err == nil && parsed == addr && dev.Name != "" {
			return dev.Name
		}
	}
	return addr.String()
}
