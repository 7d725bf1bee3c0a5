// Package memory provides the sparse byte storage behind simulated slaves.
package memory

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned when an access reaches beyond the capacity.
var ErrOutOfRange = errors.New("access beyond the storage capacity")

const pageSize = uint64(4096)

// A Storage is a byte-addressable memory of a fixed capacity. Pages are only
// allocated once touched, so a slave can own a large window cheaply. Words
// are little-endian.
type Storage struct {
	capacity uint64
	pages    map[uint64][]byte
}

// NewStorage creates a storage of the given capacity in bytes.
func NewStorage(capacity uint64) *Storage {
	return &Storage{
		capacity: capacity,
		pages:    make(map[uint64][]byte),
	}
}

// Capacity returns the number of addressable bytes.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

func (s *Storage) check(addr, n uint64) error {
	if n > s.capacity || addr > s.capacity-n {
		return fmt.Errorf("%w: [0x%x, +%d) in %d bytes",
			ErrOutOfRange, addr, n, s.capacity)
	}

	return nil
}

func (s *Storage) page(addr uint64) (page []byte, offset uint64) {
	base := addr - addr%pageSize

	page, found := s.pages[base]
	if !found {
		page = make([]byte, pageSize)
		s.pages[base] = page
	}

	return page, addr - base
}

// Read returns n bytes starting at addr.
func (s *Storage) Read(addr, n uint64) ([]byte, error) {
	if err := s.check(addr, n); err != nil {
		return nil, err
	}

	out := make([]byte, n)
	for done := uint64(0); done < n; {
		page, offset := s.page(addr + done)
		done += uint64(copy(out[done:], page[offset:]))
	}

	return out, nil
}

// Write stores data starting at addr.
func (s *Storage) Write(addr uint64, data []byte) error {
	n := uint64(len(data))
	if err := s.check(addr, n); err != nil {
		return err
	}

	for done := uint64(0); done < n; {
		page, offset := s.page(addr + done)
		done += uint64(copy(page[offset:], data[done:]))
	}

	return nil
}

// ReadWord reads a word of width bytes at addr.
func (s *Storage) ReadWord(addr uint64, width int) (uint64, error) {
	data, err := s.Read(addr, uint64(width))
	if err != nil {
		return 0, err
	}

	var word uint64
	for i := width - 1; i >= 0; i-- {
		word = word<<8 | uint64(data[i])
	}

	return word, nil
}

// WriteWord writes the bytes of a width-byte word whose strobe bit is set.
// Bit i of strobe enables byte i.
func (s *Storage) WriteWord(addr uint64, word uint64, strobe uint8, width int) error {
	data, err := s.Read(addr, uint64(width))
	if err != nil {
		return err
	}

	for i := 0; i < width; i++ {
		if strobe&(1<<uint(i)) != 0 {
			data[i] = byte(word >> (8 * uint(i)))
		}
	}

	return s.Write(addr, data)
}
