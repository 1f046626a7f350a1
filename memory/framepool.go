package memory

import (
	"sync"

	"github.com/sarchlab/vmcore/mem/vm"
)

// A FramePool hands out the frames of a Storage that are reserved for user
// pages.
type FramePool struct {
	sync.Mutex

	storage  *Storage
	base     uint64
	numFrame int
	free     []uint64
	inUse    map[uint64]bool
}

// NewFramePool creates a pool of numFrame frames starting at base.
func NewFramePool(storage *Storage, base uint64, numFrame int) *FramePool {
	if !vm.IsPageAligned(base) {
		vm.Halt("frame pool base 0x%x is not page aligned", base)
	}

	if base+uint64(numFrame)*vm.PageSize > storage.Capacity() {
		vm.Halt("frame pool of %d frames at 0x%x exceeds the storage",
			numFrame, base)
	}

	p := &FramePool{
		storage:  storage,
		base:     base,
		numFrame: numFrame,
		inUse:    make(map[uint64]bool),
	}

	for i := numFrame - 1; i >= 0; i-- {
		p.free = append(p.free, base+uint64(i)*vm.PageSize)
	}

	return p
}

// AcquireZeroedFrame takes a frame out of the pool and fills it with zeros.
func (p *FramePool) AcquireZeroedFrame() (uint64, bool) {
	p.Lock()
	defer p.Unlock()

	if len(p.free) == 0 {
		return 0, false
	}

	pAddr := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	p.inUse[pAddr] = true

	clear(p.storage.Frame(pAddr))

	return pAddr, true
}

// ReleaseFrame puts a frame back into the pool.
func (p *FramePool) ReleaseFrame(pAddr uint64) {
	p.Lock()
	defer p.Unlock()

	if !p.inUse[pAddr] {
		vm.Halt("releasing frame 0x%x that is not in use", pAddr)
	}

	delete(p.inUse, pAddr)
	p.free = append(p.free, pAddr)
}

// Frame returns the content of a frame.
func (p *FramePool) Frame(pAddr uint64) []byte {
	return p.storage.Frame(pAddr)
}

// NumFrame returns the size of the pool.
func (p *FramePool) NumFrame() int {
	return p.numFrame
}

// NumFree returns the number of frames that can be acquired.
func (p *FramePool) NumFree() int {
	p.Lock()
	defer p.Unlock()

	return len(p.free)
}
