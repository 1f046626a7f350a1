package vmm

import (
	"github.com/sarchlab/vmcore/mem/vm"
	"github.com/sarchlab/vmcore/memory"
)

const (
	zeroAddr uint64 = 0x08048000
	mapAddr  uint64 = 0x10000000
	segAddr  uint64 = 0x00400000
)

type testEnv struct {
	m    *Manager
	pool *memory.FramePool
	disk *memory.MemDisk
}

// newTestEnv builds a manager over numFrame user frames starting at the
// second frame of RAM, so that no user frame is at physical address 0.
func newTestEnv(
	numFrame int,
	numSlot uint64,
	opts ...func(Builder) Builder,
) testEnv {
	storage := memory.NewStorage(uint64(numFrame+1) * vm.PageSize)
	pool := memory.NewFramePool(storage, vm.PageSize, numFrame)
	disk := memory.NewMemDisk(numSlot * vm.SectorsPerPage)

	b := MakeBuilder().
		WithFrameAllocator(pool).
		WithPhysicalMemory(pool).
		WithSwapDevice(disk)
	for _, opt := range opts {
		b = opt(b)
	}

	return testEnv{m: b.Build(), pool: pool, disk: disk}
}

func pattern(n int, seed byte) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(i%251) + seed
	}

	return buf
}

func mustFind(p *Process, vAddr uint64) *vm.Page {
	page, found := p.Pages.Find(vAddr)
	if !found {
		panic("page not found")
	}

	return page
}

func isKernelPanic(v interface{}) bool {
	_, ok := v.(*vm.KernelPanic)
	return ok
}
