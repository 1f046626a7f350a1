package vmm

import (
	"fmt"

	"github.com/sarchlab/vmcore/filesys"
	"github.com/sarchlab/vmcore/mem/vm"
)

// Mmap maps the whole file open as fd at addr. The pages are read on demand
// and modifications are written back to the file. Nothing is mapped if the
// call fails.
func (m *Manager) Mmap(p *Process, fd int, addr uint64) (MapID, error) {
	m.acquire()
	defer m.release()

	d, numPages, err := m.checkMmap(p, fd, addr)
	if err != nil {
		return 0, fmt.Errorf("mmap fd %d at 0x%x: %w", fd, addr, err)
	}

	remaining := d.File.Length()
	for i := 0; i < numPages; i++ {
		p.Pages.Create(vm.Page{
			VAddr:    addr + uint64(i)*vm.PageSize,
			Kind:     vm.PageFile,
			Writable: true,
			File:     d.File,
			Offset:   int64(i) * vm.PageSize,
			Length:   int(min(remaining, vm.PageSize)),
		})

		remaining -= vm.PageSize
	}

	p.nextMapID++
	id := p.nextMapID

	d.Mapped = true
	d.MapID = int(id)
	d.MapAddr = addr
	d.MapSize = d.File.Length()

	m.stats.Mmaps++
	m.invoke(HookPosMmap, Event{PID: p.PID, VAddr: addr, MapID: id})
	m.logger.Debug("file mapped",
		"pid", p.PID, "fd", fd, "vaddr", hex(addr), "mapid", id)

	return id, nil
}

func (m *Manager) checkMmap(
	p *Process,
	fd int,
	addr uint64,
) (*filesys.Descriptor, int, error) {
	d, ok := p.Files.Get(fd)
	if !ok || !d.Regular {
		return nil, 0, ErrBadDescriptor
	}

	if d.Mapped {
		return nil, 0, ErrAlreadyMapped
	}

	length := d.File.Length()
	if length == 0 {
		return nil, 0, ErrEmptyFile
	}

	if addr == 0 || !vm.IsPageAligned(addr) {
		return nil, 0, ErrMisaligned
	}

	if !vm.IsUserAddress(addr) {
		return nil, 0, ErrInvalidAddress
	}

	numPages := vm.PageCount(length)
	end := addr + uint64(numPages)*vm.PageSize
	if end > vm.StackBottom || end < addr {
		return nil, 0, ErrStackCollision
	}

	for i := 0; i < numPages; i++ {
		if p.owns(addr + uint64(i)*vm.PageSize) {
			return nil, 0, ErrOverlap
		}
	}

	return d, numPages, nil
}

// Munmap removes a mapping, writing modified pages back to the file. The
// mapping must be live.
func (m *Manager) Munmap(p *Process, id MapID) {
	m.acquire()
	defer m.release()

	d, found := p.Files.FindMapping(int(id))
	if !found {
		vm.Halt("pid %d: mapping %d does not exist", p.PID, id)
	}

	m.unmap(p, d)
}

func (m *Manager) unmap(p *Process, d *filesys.Descriptor) {
	id := MapID(d.MapID)
	addr := d.MapAddr
	numPages := vm.PageCount(d.MapSize)

	for i := 0; i < numPages; i++ {
		vAddr := addr + uint64(i)*vm.PageSize

		page, found := p.Pages.Find(vAddr)
		if !found {
			vm.Halt("pid %d: page 0x%x of mapping %d does not exist",
				p.PID, vAddr, id)
		}

		switch {
		case page.Resident:
			if p.Dir.IsDirty(vAddr) {
				m.writeBack(p, p.PID, page, m.memory.Frame(page.PAddr))
			}

			p.Dir.Clear(vAddr)
			m.frames.ForceUnregister(page.PAddr)
			m.allocator.ReleaseFrame(page.PAddr)
		case page.Kind == vm.PageSwapped:
			m.swap.FreeSlot(page.Slot)
		}

		p.Pages.Delete(vAddr)
	}

	p.Files.Unmapped(d)

	m.stats.Munmaps++
	m.invoke(HookPosMunmap, Event{PID: p.PID, VAddr: addr, MapID: id})
	m.logger.Debug("file unmapped", "pid", p.PID, "mapid", id)
}
