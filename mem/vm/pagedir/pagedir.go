// Package pagedir provides a software model of the hardware page table of a
// process. It keeps the present, writable, accessed and dirty flags of every
// mapping the way the MMU would.
package pagedir

import (
	"sort"

	"github.com/sarchlab/vmcore/mem/vm"
)

// PTEFlag describes a flag that can be applied to a page table entry.
type PTEFlag uint64

// Flags of a page table entry.
const (
	FlagPresent PTEFlag = 1 << iota
	FlagWritable
	FlagAccessed
	FlagDirty
)

// A PTE encodes the physical frame address of a mapping and its flags.
type PTE uint64

const frameMask = ^uint64(vm.PageSize - 1)

// HasFlags returns true if this entry has all the input flags set.
func (e PTE) HasFlags(flags PTEFlag) bool {
	return uint64(e)&uint64(flags) == uint64(flags)
}

// Frame returns the physical frame address the entry points to.
func (e PTE) Frame() uint64 {
	return uint64(e) & frameMask
}

func (e *PTE) setFlags(flags PTEFlag) {
	*e = PTE(uint64(*e) | uint64(flags))
}

func (e *PTE) clearFlags(flags PTEFlag) {
	*e = PTE(uint64(*e) &^ uint64(flags))
}

// Directory is the page table of one process.
//
// The directory does not lock; it is driven by the virtual memory core which
// serializes access.
type Directory struct {
	entries map[uint64]PTE
}

// New creates an empty Directory.
func New() *Directory {
	return &Directory{entries: make(map[uint64]PTE)}
}

func (d *Directory) entry(vAddr uint64) (PTE, bool) {
	e, found := d.entries[vm.PageAlign(vAddr)]
	if !found || !e.HasFlags(FlagPresent) {
		return 0, false
	}

	return e, true
}

// Translate returns the physical address that corresponds to the given
// virtual address.
func (d *Directory) Translate(vAddr uint64) (uint64, bool) {
	e, ok := d.entry(vAddr)
	if !ok {
		return 0, false
	}

	return e.Frame() + vm.PageOffset(vAddr), true
}

// Access marks the mapping as accessed, and dirty if write is set, and
// returns the translated address.
func (d *Directory) Access(vAddr uint64, write bool) (uint64, bool) {
	e, ok := d.entry(vAddr)
	if !ok {
		return 0, false
	}

	if write && !e.HasFlags(FlagWritable) {
		return 0, false
	}

	e.setFlags(FlagAccessed)
	if write {
		e.setFlags(FlagDirty)
	}
	d.entries[vm.PageAlign(vAddr)] = e

	return e.Frame() + vm.PageOffset(vAddr), true
}

// IsAccessed returns the accessed flag of the mapping.
func (d *Directory) IsAccessed(vAddr uint64) bool {
	e, ok := d.entry(vAddr)
	return ok && e.HasFlags(FlagAccessed)
}

// ClearAccessed resets the accessed flag of the mapping.
func (d *Directory) ClearAccessed(vAddr uint64) {
	e, ok := d.entry(vAddr)
	if !ok {
		return
	}

	e.clearFlags(FlagAccessed)
	d.entries[vm.PageAlign(vAddr)] = e
}

// IsDirty returns the dirty flag of the mapping.
func (d *Directory) IsDirty(vAddr uint64) bool {
	e, ok := d.entry(vAddr)
	return ok && e.HasFlags(FlagDirty)
}

// Install maps the page to the frame. It fails if the page is already
// mapped or the frame address is not aligned.
func (d *Directory) Install(vAddr, pAddr uint64, writable bool) bool {
	if !vm.IsPageAligned(pAddr) {
		return false
	}

	if _, ok := d.entry(vAddr); ok {
		return false
	}

	e := PTE(pAddr)
	e.setFlags(FlagPresent)
	if writable {
		e.setFlags(FlagWritable)
	}
	d.entries[vm.PageAlign(vAddr)] = e

	return true
}

// Clear removes the mapping.
func (d *Directory) Clear(vAddr uint64) {
	delete(d.entries, vm.PageAlign(vAddr))
}

// Mappings returns the mapped virtual pages in ascending order.
func (d *Directory) Mappings() []uint64 {
	pages := make([]uint64, 0, len(d.entries))
	for vAddr := range d.entries {
		pages = append(pages, vAddr)
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i] < pages[j] })

	return pages
}
