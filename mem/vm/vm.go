// Package vm provides the shared vocabulary of the virtual memory core:
// process identities, page geometry, the collaborators the core consumes, and
// the supplemental page table that describes how each virtual page of a
// process can be materialized.
package vm

// PID stands for Process ID.
type PID uint32

const (
	// Log2PageSize is the number of bits of a page offset.
	Log2PageSize = 12

	// PageSize is the size of a virtual page and of a physical frame.
	PageSize = 1 << Log2PageSize

	// SectorSize is the size of a block device sector.
	SectorSize = 512

	// SectorsPerPage is the number of consecutive sectors that hold a page.
	SectorsPerPage = PageSize / SectorSize
)

const (
	// UserTop is the first address above the user address space.
	UserTop uint64 = 0xC0000000

	// MaxStackSize is the size of the region below UserTop reserved for the
	// user stack.
	MaxStackSize uint64 = 8 << 20

	// StackBottom is the lowest address of the stack region.
	StackBottom = UserTop - MaxStackSize
)

// PageAlign rounds an address down to the start of its page.
func PageAlign(addr uint64) uint64 {
	return (addr >> Log2PageSize) << Log2PageSize
}

// PageOffset returns the offset of an address within its page.
func PageOffset(addr uint64) uint64 {
	return addr & (PageSize - 1)
}

// IsPageAligned tells if the address is the first byte of a page.
func IsPageAligned(addr uint64) bool {
	return PageOffset(addr) == 0
}

// IsUserAddress tells if the address belongs to the user address space. The
// null page is never a user address.
func IsUserAddress(addr uint64) bool {
	return addr >= PageSize && addr < UserTop
}

// PageCount returns the number of pages required to hold size bytes.
func PageCount(size int64) int {
	return int((size + PageSize - 1) / PageSize)
}
