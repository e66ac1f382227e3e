// Package config parses and validates this router's startup arguments: the
// AS number and the neighbor connection specifications of the form
// PORT-NEIGHBOR_ADDR-RELATIONSHIP.
package config

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"bgprouter/internal/policy"
)

var validate = validator.New()

// connectionSpec is the validation-facing DTO: the port as an int and the
// address and relationship as raw strings, so go-playground/validator can
// check shape before we convert to the typed Neighbor below.
type connectionSpec struct {
	Port         int    `validate:"required,gt=0,lte=65535"`
	Address      string `validate:"required,ipv4"`
	Relationship string `validate:"required,oneof=cust peer prov"`
}

// Neighbor is one fully parsed, validated connection spec.
type Neighbor struct {
	Port         int
	Address      netip.Addr
	Relationship policy.Relationship
}

// Config is this router's complete startup configuration.
type Config struct {
	ASN         int32 `validate:"required,gt=0"`
	Neighbors   []Neighbor
	PollTimeout time.Duration `default:"100ms"`
}

// relationshipFromTag maps the wire token (cust/peer/prov) to a
// policy.Relationship.
func relationshipFromTag(tag string) policy.Relationship {
	switch tag {
	case "cust":
		return policy.Customer
	case "prov":
		return policy.Provider
	default:
		return policy.Peer
	}
}

// ParseNeighbor parses and validates one PORT-NEIGHBOR_ADDR-RELATIONSHIP
// specification, e.g. "7002-192.168.0.2-cust".
func ParseNeighbor(spec string) (Neighbor, error) {
	parts := strings.SplitN(spec, "-", 3)
	if len(parts) != 3 {
		return Neighbor{}, fmt.Errorf("malformed connection spec %q: want PORT-NEIGHBOR_ADDR-RELATIONSHIP", spec)
	}

	port, err := strconv.Atoi(parts[0])
	if err != nil {
		return Neighbor{}, fmt.Errorf("malformed connection spec %q: %w", spec, err)
	}

	dto := connectionSpec{Port: port, Address: parts[1], Relationship: parts[2]}
	if err := validate.Struct(dto); err != nil {
		return Neighbor{}, fmt.Errorf("invalid connection spec %q: %w", spec, err)
	}

	addr, err := netip.ParseAddr(dto.Address)
	if err != nil {
		return Neighbor{}, fmt.Errorf("invalid neighbor address %q: %w", dto.Address, err)
	}

	return Neighbor{
		Port:         dto.Port,
		Address:      addr,
		Relationship: relationshipFromTag(dto.Relationship),
	}, nil
}

// New parses the full process invocation: an AS number followed by one or
// more connection specs.
func New(asn int32, connectionSpecs []string) (*Config, error) {
	cfg := &Config{ASN: asn}
	if err := defaults.Set(cfg); err != nil {
		return nil, err
	}

	if len(connectionSpecs) == 0 {
		return nil, fmt.Errorf("at least one neighbor connection is required")
	}
	for _, spec := range connectionSpecs {
		n, err := ParseNeighbor(spec)
		if err != nil {
			return nil, err
		}
		cfg.Neighbors = append(cfg.Neighbors, n)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Relationships builds the policy.Relationships lookup table this
// configuration describes.
func (c *Config) Relationships() policy.Relationships {
	rel := make(policy.Relationships, len(c.Neighbors))
	for _, n := range c.Neighbors {
		rel[n.Address] = n.Relationship
	}
	return rel
}

// Ports builds the neighbor-address -> port lookup the transport layer
// needs to address outbound datagrams.
func (c *Config) Ports() map[netip.Addr]int {
	ports := make(map[netip.Addr]int, len(c.Neighbors))
	for _, n := range c.Neighbors {
		ports[n.Address] = n.Port
	}
	return ports
}
