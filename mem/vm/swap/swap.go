// Package swap manages the swap device. The device is divided into slots of
// vm.SectorsPerPage consecutive sectors, each holding one evicted page.
package swap

import (
	"log/slog"
	"sync"

	"github.com/sarchlab/vmcore/mem/vm"
)

// A SlotID is the first sector of a swap slot.
type SlotID = uint64

// Manager owns the swap device.
//
// The bitmap lock only guards slot bookkeeping. The I/O lock keeps at most one
// transfer in flight on the device.
type Manager struct {
	device vm.BlockDevice
	logger *slog.Logger

	bitmapLock sync.Mutex
	used       *bitmap

	ioLock sync.Mutex
}

// NewManager creates a swap manager over the whole device.
func NewManager(device vm.BlockDevice, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		device: device,
		logger: logger,
		used:   newBitmap(device.SectorCount()),
	}
}

// AllocateSlot reserves a free slot. It returns false if the device is full.
func (m *Manager) AllocateSlot() (SlotID, bool) {
	m.bitmapLock.Lock()
	defer m.bitmapLock.Unlock()

	return m.used.scanAndFlip(vm.SectorsPerPage)
}

// FreeSlot releases a slot. Freeing a slot that is not in use is fatal.
func (m *Manager) FreeSlot(id SlotID) {
	m.bitmapLock.Lock()
	defer m.bitmapLock.Unlock()

	m.slotMustBeInUse(id)
	m.used.setMultiple(id, vm.SectorsPerPage, false)
}

// WriteOut stores a page in a newly allocated slot and returns the slot.
// Running out of swap is fatal.
func (m *Manager) WriteOut(frame []byte) SlotID {
	m.frameMustBePageSized(frame)

	id, ok := m.AllocateSlot()
	if !ok {
		vm.Halt("swap device is full")
	}

	m.ioLock.Lock()
	defer m.ioLock.Unlock()

	for i := uint64(0); i < vm.SectorsPerPage; i++ {
		sector := frame[i*vm.SectorSize : (i+1)*vm.SectorSize]

		err := m.device.WriteSector(id+i, sector)
		if err != nil {
			vm.Halt("swap write of sector %d failed: %v", id+i, err)
		}
	}

	m.logger.Debug("swapped out", "slot", id)

	return id
}

// ReadIn restores the page held by the slot into frame and frees the slot.
func (m *Manager) ReadIn(id SlotID, frame []byte) {
	m.frameMustBePageSized(frame)

	func() {
		m.bitmapLock.Lock()
		defer m.bitmapLock.Unlock()

		m.slotMustBeInUse(id)
	}()

	m.readSlot(id, frame)
	m.FreeSlot(id)

	m.logger.Debug("swapped in", "slot", id)
}

func (m *Manager) readSlot(id SlotID, frame []byte) {
	m.ioLock.Lock()
	defer m.ioLock.Unlock()

	for i := uint64(0); i < vm.SectorsPerPage; i++ {
		sector := frame[i*vm.SectorSize : (i+1)*vm.SectorSize]

		err := m.device.ReadSector(id+i, sector)
		if err != nil {
			vm.Halt("swap read of sector %d failed: %v", id+i, err)
		}
	}
}

// TotalSlots returns the number of slots the device can hold.
func (m *Manager) TotalSlots() uint64 {
	return m.device.SectorCount() / vm.SectorsPerPage
}

// UsedSlots returns the number of slots in use.
func (m *Manager) UsedSlots() uint64 {
	m.bitmapLock.Lock()
	defer m.bitmapLock.Unlock()

	return m.used.count() / vm.SectorsPerPage
}

// IsInUse tells if the slot currently holds a page.
func (m *Manager) IsInUse(id SlotID) bool {
	m.bitmapLock.Lock()
	defer m.bitmapLock.Unlock()

	return id+vm.SectorsPerPage <= m.used.size &&
		m.used.all(id, vm.SectorsPerPage, true)
}

func (m *Manager) slotMustBeInUse(id SlotID) {
	if id+vm.SectorsPerPage > m.used.size ||
		!m.used.all(id, vm.SectorsPerPage, true) {
		vm.Halt("swap slot %d is not in use", id)
	}
}

func (m *Manager) frameMustBePageSized(frame []byte) {
	if len(frame) != vm.PageSize {
		vm.Halt("swap transfer of %d bytes, want %d", len(frame), vm.PageSize)
	}
}
