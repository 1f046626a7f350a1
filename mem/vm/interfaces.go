package vm

import "io"

// A PageDirectory is the hardware page table of one process. The virtual
// memory core only consumes it.
type PageDirectory interface {
	// Translate returns the physical frame mapped at the page of vAddr.
	Translate(vAddr uint64) (pAddr uint64, present bool)

	// Access performs the walk that a memory access of the CPU performs. It
	// sets the accessed bit, and the dirty bit when write is true. It fails if
	// the page is not present, or if a write targets a read-only page.
	Access(vAddr uint64, write bool) (pAddr uint64, ok bool)

	// IsAccessed reports the accessed bit of the mapping at vAddr.
	IsAccessed(vAddr uint64) bool

	// ClearAccessed resets the accessed bit of the mapping at vAddr.
	ClearAccessed(vAddr uint64)

	// IsDirty reports the dirty bit of the mapping at vAddr.
	IsDirty(vAddr uint64) bool

	// Install maps the page at vAddr to the frame at pAddr.
	Install(vAddr, pAddr uint64, writable bool) bool

	// Clear removes the mapping at vAddr, if any.
	Clear(vAddr uint64)
}

// A FrameAllocator hands out physical frames of user memory.
type FrameAllocator interface {
	// AcquireZeroedFrame returns a zero-filled frame, or false if the pool is
	// exhausted.
	AcquireZeroedFrame() (pAddr uint64, ok bool)

	// ReleaseFrame returns a frame to the pool.
	ReleaseFrame(pAddr uint64)
}

// PhysicalMemory gives access to the content of physical frames.
type PhysicalMemory interface {
	// Frame returns the PageSize bytes of the frame at pAddr. The returned
	// slice aliases the memory.
	Frame(pAddr uint64) []byte
}

// A BlockDevice is a fixed-size-sector device, such as the swap disk.
type BlockDevice interface {
	ReadSector(sector uint64, buf []byte) error
	WriteSector(sector uint64, buf []byte) error
	SectorCount() uint64
}

// A File is the view the virtual memory core has of an open file.
type File interface {
	io.ReaderAt
	io.WriterAt

	// Length returns the size of the file in bytes.
	Length() int64
}
