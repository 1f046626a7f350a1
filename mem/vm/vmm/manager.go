// Package vmm implements demand paging on top of the frame table, the swap
// manager and the supplemental page tables of the processes.
package vmm

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/sarchlab/vmcore/filesys"
	"github.com/sarchlab/vmcore/mem/vm"
	"github.com/sarchlab/vmcore/mem/vm/frame"
	"github.com/sarchlab/vmcore/mem/vm/swap"
	"github.com/sarchlab/vmcore/sim"
)

// A Manager owns the frames of user memory and the address spaces of all
// processes.
//
// Every public method takes the manager lock for its whole duration,
// including the swap and file I/O it triggers. Internal helpers assume the
// lock is held.
//
// A kernel panic halts the manager for good. Every later call that changes
// state panics again with the first *vm.KernelPanic. Inspection keeps
// working on the state left behind.
type Manager struct {
	sim.HookableBase

	lock sync.Mutex

	logger       *slog.Logger
	allocator    vm.FrameAllocator
	memory       vm.PhysicalMemory
	swap         *swap.Manager
	frames       *frame.Table
	victimFinder frame.VictimFinder
	fileLock     *filesys.Lock
	newDirectory func() vm.PageDirectory

	processes map[vm.PID]*Process
	stats     Stats
	halt      *vm.KernelPanic
}

// acquire takes the manager lock, unless the manager has halted.
func (m *Manager) acquire() {
	m.lock.Lock()

	if m.halt != nil {
		m.lock.Unlock()
		panic(m.halt)
	}
}

// release records the kernel panic in flight, if any, and releases the
// lock. It must be deferred right after acquire.
func (m *Manager) release() {
	r := recover()
	if r == nil {
		m.lock.Unlock()
		return
	}

	if kp, ok := r.(*vm.KernelPanic); ok && m.halt == nil {
		m.halt = kp
	}

	m.lock.Unlock()
	panic(r)
}

// Halted returns the reason the manager halted, or nil if it is running.
func (m *Manager) Halted() *vm.KernelPanic {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.halt
}

// FileLock returns the lock that guards file I/O. The file system layer
// shares it with the manager.
func (m *Manager) FileLock() *filesys.Lock {
	return m.fileLock
}

// NewProcess creates an empty address space.
func (m *Manager) NewProcess(pid vm.PID) *Process {
	m.acquire()
	defer m.release()

	if _, found := m.processes[pid]; found {
		vm.Halt("pid %d already exists", pid)
	}

	p := &Process{
		PID:   pid,
		Dir:   m.newDirectory(),
		Pages: vm.NewPageTable(pid),
		Files: filesys.NewDescriptorTable(),
	}
	m.processes[pid] = p

	m.logger.Debug("process created", "pid", pid)

	return p
}

// Process returns a live process.
func (m *Manager) Process(pid vm.PID) (*Process, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()

	p, found := m.processes[pid]

	return p, found
}

// Open adds a regular file to the descriptor table of the process.
func (m *Manager) Open(p *Process, f vm.File) int {
	m.acquire()
	defer m.release()

	return p.Files.Open(f)
}

// Close closes a descriptor. The close of a mapped file completes when the
// file is unmapped.
func (m *Manager) Close(p *Process, fd int) error {
	m.acquire()
	defer m.release()

	closed, err := p.Files.Close(fd)
	if err != nil {
		return fmt.Errorf("close fd %d: %w", fd, err)
	}

	if !closed {
		m.logger.Debug("close deferred", "pid", p.PID, "fd", fd)
	}

	return nil
}

// MapZero adds a page that reads as zeros until it is written.
func (m *Manager) MapZero(p *Process, vAddr uint64, writable bool) error {
	m.acquire()
	defer m.release()

	if err := m.rangeMustBeFree(p, vAddr, 1); err != nil {
		return fmt.Errorf("map zero page at 0x%x: %w", vAddr, err)
	}

	p.Pages.Create(vm.Page{
		VAddr:    vAddr,
		Kind:     vm.PageZero,
		Writable: writable,
	})

	return nil
}

// LoadSegment sets up a segment of an executable to be loaded on demand. The
// first readBytes bytes of the segment come from the file at offset and the
// following zeroBytes bytes are zeros. Modifications of the segment never
// reach the file.
func (m *Manager) LoadSegment(
	p *Process,
	f vm.File,
	offset int64,
	vAddr uint64,
	readBytes, zeroBytes int64,
	writable bool,
) error {
	m.acquire()
	defer m.release()

	if (readBytes+zeroBytes)%vm.PageSize != 0 ||
		offset%vm.PageSize != 0 {
		return fmt.Errorf("load segment at 0x%x: %w", vAddr, ErrMisaligned)
	}

	numPages := vm.PageCount(readBytes + zeroBytes)
	if err := m.rangeMustBeFree(p, vAddr, numPages); err != nil {
		return fmt.Errorf("load segment at 0x%x: %w", vAddr, err)
	}

	for i := 0; i < numPages; i++ {
		page := vm.Page{
			VAddr:    vAddr + uint64(i)*vm.PageSize,
			Kind:     vm.PageZero,
			Writable: writable,
		}

		pageRead := min(readBytes, vm.PageSize)
		if pageRead > 0 {
			page.Kind = vm.PageFile
			page.File = f
			page.Offset = offset
			page.Length = int(pageRead)
			page.Private = true
		}

		p.Pages.Create(page)

		readBytes -= pageRead
		offset += vm.PageSize
	}

	return nil
}

// Share maps the frame that backs an anonymous page of src into dst at
// dstVAddr. Both pages see the same bytes until the frame is evicted, after
// which each owner keeps its own copy.
func (m *Manager) Share(
	src *Process, srcVAddr uint64,
	dst *Process, dstVAddr uint64,
) error {
	m.acquire()
	defer m.release()

	srcPage, found := src.Pages.Find(srcVAddr)
	if !found || !srcPage.Resident || srcPage.Kind != vm.PageAnonymous {
		return fmt.Errorf("share 0x%x of pid %d: %w",
			srcVAddr, src.PID, ErrNotShareable)
	}

	if err := m.rangeMustBeFree(dst, dstVAddr, 1); err != nil {
		return fmt.Errorf("share into 0x%x of pid %d: %w",
			dstVAddr, dst.PID, err)
	}

	if !dst.Dir.Install(dstVAddr, srcPage.PAddr, srcPage.Writable) {
		vm.Halt("pid %d: cannot install 0x%x", dst.PID, dstVAddr)
	}

	dst.Pages.Create(vm.Page{
		VAddr:    dstVAddr,
		Kind:     vm.PageAnonymous,
		Writable: srcPage.Writable,
		Resident: true,
		PAddr:    srcPage.PAddr,
	})

	m.frames.Register(srcPage.PAddr, frame.Owner{
		PID:   dst.PID,
		VAddr: dstVAddr,
		Dir:   dst.Dir,
	})

	return nil
}

// TeardownProcess releases everything the process owns: its mappings, its
// frames, its swap slots and its descriptors. Frames shared with other
// processes stay resident for them.
func (m *Manager) TeardownProcess(p *Process) {
	m.acquire()
	defer m.release()

	if p.exited {
		vm.Halt("pid %d is torn down twice", p.PID)
	}

	for _, d := range p.Files.Descriptors() {
		if d.Mapped {
			m.unmap(p, d)
		}
	}

	for _, page := range p.Pages.Pages() {
		m.releasePage(p, page)
		p.Pages.Delete(page.VAddr)
	}

	for _, d := range p.Files.Descriptors() {
		if _, err := p.Files.Close(d.FD); err != nil {
			vm.Halt("pid %d: close fd %d: %v", p.PID, d.FD, err)
		}
	}

	p.exited = true
	delete(m.processes, p.PID)

	m.invoke(HookPosTeardown, Event{PID: p.PID})
	m.logger.Debug("process torn down", "pid", p.PID)
}

func (m *Manager) releasePage(p *Process, page *vm.Page) {
	switch {
	case page.Resident:
		p.Dir.Clear(page.VAddr)

		owner := frame.Owner{PID: p.PID, VAddr: page.VAddr}
		if m.frames.Unregister(page.PAddr, owner) {
			m.allocator.ReleaseFrame(page.PAddr)
		}
	case page.Kind == vm.PageSwapped:
		m.swap.FreeSlot(page.Slot)
	}
}

func (m *Manager) rangeMustBeFree(
	p *Process,
	vAddr uint64,
	numPages int,
) error {
	if !vm.IsPageAligned(vAddr) {
		return ErrMisaligned
	}

	end := vAddr + uint64(numPages)*vm.PageSize
	if !vm.IsUserAddress(vAddr) || end > vm.UserTop || end < vAddr {
		return ErrInvalidAddress
	}

	for i := 0; i < numPages; i++ {
		if p.owns(vAddr + uint64(i)*vm.PageSize) {
			return ErrOverlap
		}
	}

	return nil
}

func (m *Manager) holdsFileBackedPage(f *frame.Frame) bool {
	for _, o := range f.Owners {
		if m.pageMustExist(o.PID, o.VAddr).IsFileBacked() {
			return true
		}
	}

	return false
}

func (m *Manager) pageMustExist(pid vm.PID, vAddr uint64) *vm.Page {
	p, found := m.processes[pid]
	if !found {
		vm.Halt("frame owner pid %d does not exist", pid)
	}

	page, found := p.Pages.Find(vAddr)
	if !found {
		vm.Halt("pid %d: frame owner page 0x%x does not exist", pid, vAddr)
	}

	return page
}
