// Package interconnect assembles the hardware description of an M-master,
// S-slave shared-bus interconnect from the address map, the arbiter and the
// channel router.
package interconnect

import (
	"errors"
	"fmt"
	"math/bits"
	"regexp"
	"strconv"

	"github.com/sarchlab/axilite/addrmap"
)

// Configuration errors.
var (
	ErrTopology = errors.New("topology must look like m{masters}s{slaves}, e.g. m2s1")
	ErrConfig   = errors.New("invalid interconnect configuration")
)

// Generator defaults.
const (
	DefaultAddrWidth = 32
	DefaultDataWidth = 32

	// DefaultSlotSize is the window owned by each slave in the default map.
	DefaultSlotSize = uint64(1) << 16
)

var topologyPattern = regexp.MustCompile(`^m(\d+)s(\d+)$`)

// Config describes one interconnect.
type Config struct {
	Masters   int
	Slaves    int
	AddrWidth int
	DataWidth int

	// AddressMap assigns a window to every slave. When nil, slave j owns
	// [j<<16, j<<16 | 0xFFFF].
	AddressMap *addrmap.Map
}

// ParseTopology parses a descriptor such as "m2s1".
func ParseTopology(s string) (masters, slaves int, err error) {
	match := topologyPattern.FindStringSubmatch(s)
	if match == nil {
		return 0, 0, fmt.Errorf("%w: got %q", ErrTopology, s)
	}

	masters, err = strconv.Atoi(match[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrTopology, err)
	}

	slaves, err = strconv.Atoi(match[2])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrTopology, err)
	}

	if masters < 1 || slaves < 1 {
		return 0, 0, fmt.Errorf("%w: got %q, need at least one master and one slave",
			ErrTopology, s)
	}

	return masters, slaves, nil
}

// DefaultConfig returns the default configuration for the
// given topology: 32-bit addresses and data and 64 KiB per slave.
func DefaultConfig(masters, slaves int) Config {
	return Config{
		Masters:   masters,
		Slaves:    slaves,
		AddrWidth: DefaultAddrWidth,
		DataWidth: DefaultDataWidth,
	}
}

// DefaultMap returns the map in which slave j owns [j<<16, j<<16 | 0xFFFF].
func DefaultMap(addrWidth, slaves int) (*addrmap.Map, error) {
	return addrmap.Uniform(addrWidth, slaves, DefaultSlotSize)
}

// Topology returns the m{M}s{S} descriptor of the configuration.
func (c Config) Topology() string {
	return fmt.Sprintf("m%ds%d", c.Masters, c.Slaves)
}

// Map returns the configured map, or the default one.
func (c Config) Map() (*addrmap.Map, error) {
	if c.AddressMap != nil {
		return c.AddressMap, nil
	}

	return DefaultMap(c.AddrWidth, c.Slaves)
}

// Validate checks the configuration. It returns the address map to use.
func (c Config) Validate() (*addrmap.Map, error) {
	if c.Masters < 1 {
		return nil, fmt.Errorf("%w: need at least one master, got %d",
			ErrConfig, c.Masters)
	}

	if c.Slaves < 1 {
		return nil, fmt.Errorf("%w: need at least one slave, got %d",
			addrmap.ErrNoSlaves, c.Slaves)
	}

	if c.AddrWidth < 1 || c.AddrWidth > 64 {
		return nil, fmt.Errorf("%w: got %d", addrmap.ErrAddrWidth, c.AddrWidth)
	}

	if c.DataWidth < 8 || c.DataWidth > 1024 || bits.OnesCount(uint(c.DataWidth)) != 1 {
		return nil, fmt.Errorf("%w: data width must be a power of two between 8 and 1024, got %d",
			ErrConfig, c.DataWidth)
	}

	amap, err := c.Map()
	if err != nil {
		return nil, err
	}

	if amap.AddrWidth() != c.AddrWidth {
		return nil, fmt.Errorf("%w: address map is %d bits wide, the bus %d bits",
			ErrConfig, amap.AddrWidth(), c.AddrWidth)
	}

	if err := amap.ValidateFor(c.Slaves); err != nil {
		return nil, err
	}

	return amap, nil
}

// selWidth is the width of a selection register that holds 0..n, n being
// the "none" sentinel.
func selWidth(n int) int {
	return bits.Len(uint(n))
}
