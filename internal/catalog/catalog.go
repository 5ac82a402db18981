// Package catalog loads and validates BusPro template catalogs. A
// catalog is a YAML file mapping labels to hex-encoded packets captured
// from a live gateway; it is the sole source of byte-level protocol
// knowledge. Loading is fail-fast: a catalog with any malformed or
// checksum-failing entry is rejected whole.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Hadz2009/buspro-ac/internal/protocol"
)

// ErrCatalog wraps every catalog rejection.
var ErrCatalog = errors.New("catalog invalid")

// file is the on-disk YAML shape.
type file struct {
	Version          int               `yaml:"version"`
	Name             string            `yaml:"name"`
	ReferenceAddress string            `yaml:"reference_address"`
	Templates        map[string]string `yaml:"templates"`
}

// Catalog holds validated templates keyed by label. Every packet has
// been hex decoded and passed frame and checksum verification.
type Catalog struct {
	Name      string
	Reference protocol.DeviceAddress
	templates map[string][]byte
}

const supportedVersion = 1

// Labels every catalog must carry. Temperature labels follow the
// pattern temp_<celsius>; at least two are required.
var requiredLabels = []string{"off", "cool", "fan_only", "dry"}

// Optional labels a catalog may carry in addition to the required and
// temperature ones.
var optionalLabels = map[string]bool{
	"fan_high":       true,
	"status_request": true,
}

var tempLabel = regexp.MustCompile(`^temp_(\d+)$`)

func rejectf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCatalog, fmt.Sprintf(format, args...))
}

// Load reads, parses, and validates a catalog file.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(raw)
}

// Parse validates catalog YAML held in memory.
func Parse(raw []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, rejectf("parse YAML: %v", err)
	}
	if f.Version != supportedVersion {
		return nil, rejectf("version %d not supported, want %d", f.Version, supportedVersion)
	}
	ref, err := protocol.ParseAddress(f.ReferenceAddress)
	if err != nil {
		return nil, rejectf("reference_address: %v", err)
	}
	if len(f.Templates) == 0 {
		return nil, rejectf("no templates")
	}

	c := &Catalog{
		Name:      f.Name,
		Reference: ref,
		templates: make(map[string][]byte, len(f.Templates)),
	}

	tempCount := 0
	for _, label := range sortedKeys(f.Templates) {
		if !knownLabel(label) {
			return nil, rejectf("unknown template label %q", label)
		}
		packet, err := decodePacket(f.Templates[label])
		if err != nil {
			return nil, rejectf("template %q: %v", label, err)
		}
		_, frame, err := protocol.SplitPacket(packet)
		if err != nil {
			return nil, rejectf("template %q: %v", label, err)
		}
		if err := protocol.VerifyFrame(frame); err != nil {
			return nil, rejectf("template %q: %v", label, err)
		}
		if tempLabel.MatchString(label) {
			tempCount++
		}
		c.templates[label] = packet
	}

	for _, label := range requiredLabels {
		if _, ok := c.templates[label]; !ok {
			return nil, rejectf("missing required template %q", label)
		}
	}
	if tempCount < 2 {
		return nil, rejectf("need at least 2 temp_<celsius> templates, have %d", tempCount)
	}
	return c, nil
}

func knownLabel(label string) bool {
	if optionalLabels[label] || tempLabel.MatchString(label) {
		return true
	}
	for _, required := range requiredLabels {
		if label == required {
			return true
		}
	}
	return false
}

// decodePacket hex decodes a template value, tolerating the spaces and
// newlines people paste in from capture tools.
func decodePacket(s string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
	if cleaned == "" {
		return nil, errors.New("empty packet")
	}
	if len(cleaned)%2 != 0 {
		return nil, fmt.Errorf("odd hex length %d", len(cleaned))
	}
	packet := make([]byte, len(cleaned)/2)
	for i := 0; i < len(packet); i++ {
		v, err := strconv.ParseUint(cleaned[2*i:2*i+2], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("bad hex at byte %d: %q", i, cleaned[2*i:2*i+2])
		}
		packet[i] = byte(v)
	}
	return packet, nil
}

// Template returns the raw packet for a label.
func (c *Catalog) Template(label string) ([]byte, bool) {
	packet, ok := c.templates[label]
	return packet, ok
}

// Labels returns every label in the catalog, sorted.
func (c *Catalog) Labels() []string {
	return sortedKeys(c.templates)
}

// TemplateSet assembles the discovery input from the catalog.
func (c *Catalog) TemplateSet() protocol.TemplateSet {
	set := protocol.TemplateSet{
		Reference:    c.Reference,
		Modes:        make(map[protocol.Mode][]byte, 4),
		Temperatures: make(map[int][]byte),
	}
	for label, packet := range c.templates {
		if m := tempLabel.FindStringSubmatch(label); m != nil {
			celsius, _ := strconv.Atoi(m[1])
			set.Temperatures[celsius] = packet
			continue
		}
		switch label {
		case "fan_high":
			set.FanHigh = packet
		case "status_request":
			set.StatusRequest = packet
		default:
			set.Modes[protocol.Mode(label)] = packet
		}
	}
	return set
}

// Layout runs protocol discovery over the catalog's templates.
func (c *Catalog) Layout() (*protocol.FieldLayout, error) {
	return protocol.Discover(c.TemplateSet())
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
