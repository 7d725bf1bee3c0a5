// Package addrmap maintains the partition of the slave address space and
// decodes transaction addresses to slave indices.
package addrmap

import (
	"errors"
	"fmt"
	"sort"
)

// Configuration errors reported by Validate.
var (
	ErrNoSlaves      = errors.New("address map has no slaves")
	ErrInvertedRange = errors.New("range low address is above its high address")
	ErrOutOfWidth    = errors.New("range does not fit the address width")
	ErrOverlap       = errors.New("ranges overlap")
	ErrSlaveCount    = errors.New("address map does not match the slave count")
	ErrAddrWidth     = errors.New("address width must be between 1 and 64")
)

// A Range is the inclusive [Low, High] address window owned by one slave.
type Range struct {
	Low  uint64
	High uint64
}

// Contains reports whether addr falls inside the range.
func (r Range) Contains(addr uint64) bool {
	return r.Low <= addr && addr <= r.High
}

// Offset returns addr relative to the start of the range.
func (r Range) Offset(addr uint64) uint64 {
	return addr - r.Low
}

// Size returns the number of addresses in the range.
func (r Range) Size() uint64 {
	return r.High - r.Low + 1
}

func (r Range) overlaps(o Range) bool {
	return r.Low <= o.High && o.Low <= r.High
}

func (r Range) String() string {
	return fmt.Sprintf("[0x%x, 0x%x]", r.Low, r.High)
}

// Map is the ordered list of slave ranges. Slave i owns Ranges[i].
type Map struct {
	addrWidth int
	ranges    []Range
}

// New creates a validated map for the given address width.
func New(addrWidth int, ranges ...Range) (*Map, error) {
	m := &Map{
		addrWidth: addrWidth,
		ranges:    append([]Range(nil), ranges...),
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return m, nil
}

// Uniform creates a map of n consecutive windows of slotSize addresses each,
// starting at address 0. Slave j owns [j*slotSize, (j+1)*slotSize-1].
func Uniform(addrWidth, n int, slotSize uint64) (*Map, error) {
	if n <= 0 {
		return nil, ErrNoSlaves
	}

	if slotSize == 0 {
		return nil, fmt.Errorf("%w: slot size is zero", ErrInvertedRange)
	}

	ranges := make([]Range, n)
	for j := range ranges {
		low := uint64(j) * slotSize
		ranges[j] = Range{Low: low, High: low + slotSize - 1}
	}

	return New(addrWidth, ranges...)
}

// AddrWidth returns the width of the addresses decoded by the map.
func (m *Map) AddrWidth() int {
	return m.addrWidth
}

// Len returns the number of slaves. It doubles as the "no match" sentinel
// returned by Decode.
func (m *Map) Len() int {
	return len(m.ranges)
}

// None returns the "no slave" sentinel.
func (m *Map) None() int {
	return len(m.ranges)
}

// Range returns the window of slave i.
func (m *Map) Range(i int) Range {
	return m.ranges[i]
}

// Ranges returns a copy of all windows in slave order.
func (m *Map) Ranges() []Range {
	return append([]Range(nil), m.ranges...)
}

// Mask returns the all-ones value of the address width.
func (m *Map) Mask() uint64 {
	return widthMask(m.addrWidth)
}

// Decode returns the index of the first slave, in ascending order, whose
// range contains addr. It returns Len() if no range matches.
func (m *Map) Decode(addr uint64) int {
	for i, r := range m.ranges {
		if r.Contains(addr) {
			return i
		}
	}

	return len(m.ranges)
}

// Rebase translates addr into the local address space of slave i.
func (m *Map) Rebase(i int, addr uint64) uint64 {
	return (addr - m.ranges[i].Low) & m.Mask()
}

// Validate checks that the map describes at least one slave and that the
// ranges are well formed, representable and mutually disjoint.
func (m *Map) Validate() error {
	if m.addrWidth < 1 || m.addrWidth > 64 {
		return fmt.Errorf("%w: got %d", ErrAddrWidth, m.addrWidth)
	}

	if len(m.ranges) == 0 {
		return ErrNoSlaves
	}

	mask := m.Mask()
	for i, r := range m.ranges {
		if r.Low > r.High {
			return fmt.Errorf("%w: slave %d %s", ErrInvertedRange, i, r)
		}

		if r.High > mask {
			return fmt.Errorf("%w: slave %d %s exceeds %d bits",
				ErrOutOfWidth, i, r, m.addrWidth)
		}
	}

	return m.checkDisjoint()
}

// ValidateFor additionally checks that the map has one range per slave.
func (m *Map) ValidateFor(slaves int) error {
	if err := m.Validate(); err != nil {
		return err
	}

	if len(m.ranges) != slaves {
		return fmt.Errorf("%w: %d ranges for %d slaves",
			ErrSlaveCount, len(m.ranges), slaves)
	}

	return nil
}

func (m *Map) checkDisjoint() error {
	order := make([]int, len(m.ranges))
	for i := range order {
		order[i] = i
	}

	sort.Slice(order, func(a, b int) bool {
		return m.ranges[order[a]].Low < m.ranges[order[b]].Low
	})

	for k := 1; k < len(order); k++ {
		prev, cur := order[k-1], order[k]
		if m.ranges[prev].overlaps(m.ranges[cur]) {
			return fmt.Errorf("%w: slave %d %s and slave %d %s",
				ErrOverlap, prev, m.ranges[prev], cur, m.ranges[cur])
		}
	}

	return nil
}

func widthMask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}

	return (uint64(1) << width) - 1
}
