// Package memory models the physical devices behind the virtual memory core:
// the RAM that holds user frames, the allocator that hands those frames out,
// and the block devices used for swap.
package memory

import (
	"errors"

	"github.com/sarchlab/vmcore/mem/vm"
)

// ErrOutOfRange is returned when accessing an address beyond the capacity of
// the storage.
var ErrOutOfRange = errors.New("accessing physical address beyond the storage capacity")

// A Storage keeps the content of the physical memory.
//
// The storage manages the memory in frames. For the frames that are not
// touched, no memory will be allocated.
type Storage struct {
	capacity uint64
	data     map[uint64][]byte
}

// NewStorage creates a storage object with the specified capacity, rounded
// down to a whole number of frames.
func NewStorage(capacity uint64) *Storage {
	storage := new(Storage)

	storage.capacity = vm.PageAlign(capacity)
	storage.data = make(map[uint64][]byte)

	return storage
}

// Capacity returns the size of the storage in bytes.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

// createOrGetFrame retrieves a frame if the frame has been created before.
// Otherwise it initializes the frame.
func (s *Storage) createOrGetFrame(address uint64) ([]byte, error) {
	if address >= s.capacity {
		return nil, ErrOutOfRange
	}

	baseAddr := vm.PageAlign(address)
	unit, ok := s.data[baseAddr]
	if !ok {
		unit = make([]byte, vm.PageSize)
		s.data[baseAddr] = unit
	}

	return unit, nil
}

// Frame returns the bytes of the frame that holds pAddr.
func (s *Storage) Frame(pAddr uint64) []byte {
	unit, err := s.createOrGetFrame(pAddr)
	if err != nil {
		vm.Halt("frame 0x%x: %v", pAddr, err)
	}

	return unit
}

// Read copies length bytes starting at address.
func (s *Storage) Read(address uint64, length uint64) ([]byte, error) {
	res := make([]byte, length)
	currAddr := address
	dataOffset := uint64(0)

	for dataOffset < length {
		unit, err := s.createOrGetFrame(currAddr)
		if err != nil {
			return nil, err
		}

		inUnitAddr := vm.PageOffset(currAddr)
		n := uint64(copy(res[dataOffset:], unit[inUnitAddr:]))
		dataOffset += n
		currAddr += n
	}

	return res, nil
}

// Write copies data to the storage starting at address.
func (s *Storage) Write(address uint64, data []byte) error {
	currAddr := address
	dataOffset := uint64(0)

	for dataOffset < uint64(len(data)) {
		unit, err := s.createOrGetFrame(currAddr)
		if err != nil {
			return err
		}

		inUnitAddr := vm.PageOffset(currAddr)
		n := uint64(copy(unit[inUnitAddr:], data[dataOffset:]))
		dataOffset += n
		currAddr += n
	}

	return nil
}
