package vmm

import (
	"errors"
	"fmt"
	"io"

	"github.com/sarchlab/vmcore/mem/vm"
	"github.com/sarchlab/vmcore/mem/vm/frame"
	"github.com/sarchlab/vmcore/sim"
)

// Outcome is the result of a page fault.
type Outcome int

// Outcomes of a page fault.
const (
	// Resolved means the page is now mapped and the access can be retried.
	Resolved Outcome = iota

	// Kill means the access is invalid and the process must be terminated.
	Kill
)

func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case Kill:
		return "kill"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// ResolveFault handles a page fault of the process at vAddr.
func (m *Manager) ResolveFault(p *Process, vAddr uint64) Outcome {
	m.acquire()
	defer m.release()

	return m.resolveFault(p, vAddr)
}

func (m *Manager) resolveFault(p *Process, vAddr uint64) Outcome {
	evt := Event{
		ID:    sim.GetIDGenerator().Generate(),
		PID:   p.PID,
		VAddr: vm.PageAlign(vAddr),
	}

	m.stats.Faults++
	m.invoke(HookPosFaultStart, evt)

	evt.PAddr, evt.Outcome = m.doResolveFault(p, vAddr)
	if evt.Outcome == Kill {
		m.stats.Kills++
		m.logger.Info("unresolvable fault",
			"pid", p.PID, "vaddr", hex(vAddr))
	}

	m.invoke(HookPosFaultEnd, evt)

	return evt.Outcome
}

func (m *Manager) doResolveFault(p *Process, vAddr uint64) (uint64, Outcome) {
	if p.exited || !vm.IsUserAddress(vAddr) {
		return 0, Kill
	}

	page, found := p.Pages.Find(vAddr)
	if !found {
		return 0, Kill
	}

	if page.Resident {
		// The page is mapped, so the access violated its protection.
		return page.PAddr, Kill
	}

	pAddr := m.acquireFrame(p)

	m.frames.Register(pAddr, frame.Owner{
		PID:   p.PID,
		VAddr: page.VAddr,
		Dir:   p.Dir,
	})
	m.frames.Pin(pAddr)

	m.populate(p, page, pAddr)

	if !p.Dir.Install(page.VAddr, pAddr, page.Writable) {
		vm.Halt("pid %d: cannot install 0x%x", p.PID, page.VAddr)
	}

	page.Resident = true
	page.PAddr = pAddr
	m.frames.Unpin(pAddr)

	m.logger.Debug("fault resolved",
		"pid", p.PID, "vaddr", hex(page.VAddr), "paddr", hex(pAddr))

	return pAddr, Resolved
}

func (m *Manager) acquireFrame(actor *Process) uint64 {
	pAddr, ok := m.allocator.AcquireZeroedFrame()
	if ok {
		return pAddr
	}

	return m.evict(actor)
}

// evict reclaims a frame chosen by the victim finder. The returned frame is
// zeroed and belongs to no one.
func (m *Manager) evict(actor *Process) uint64 {
	victim, found := m.victimFinder.FindVictim(m.frames)
	if !found {
		vm.Halt("out of memory: no frame can be evicted")
	}

	m.stats.Evictions++
	m.invoke(HookPosEvict, Event{PID: actor.PID, PAddr: victim.PAddr})

	data := m.memory.Frame(victim.PAddr)
	owners := append([]frame.Owner(nil), victim.Owners...)
	for _, o := range owners {
		m.evictOwner(actor, o, victim.PAddr, data)
	}

	m.frames.ForceUnregister(victim.PAddr)
	clear(data)

	return victim.PAddr
}

func (m *Manager) evictOwner(
	actor *Process,
	o frame.Owner,
	pAddr uint64,
	data []byte,
) {
	page := m.pageMustExist(o.PID, o.VAddr)
	dirty := o.Dir.IsDirty(o.VAddr)

	o.Dir.Clear(o.VAddr)
	page.Resident = false
	page.PAddr = 0

	switch {
	case page.IsFileBacked() && dirty && page.Writable && !page.Private:
		m.writeBack(actor, o.PID, page, data)
	case page.IsFileBacked() && !dirty:
		m.stats.Drops++
	default:
		slot := m.swap.WriteOut(data)

		page.Kind = vm.PageSwapped
		page.Slot = slot
		page.File = nil

		m.stats.SwapOuts++
		m.invoke(HookPosSwapOut, Event{
			PID:   o.PID,
			VAddr: o.VAddr,
			PAddr: pAddr,
			Slot:  page.Slot,
		})
	}

	m.logger.Debug("page evicted",
		"pid", o.PID, "vaddr", hex(o.VAddr), "paddr", hex(pAddr),
		"kind", page.Kind.String())
}

func (m *Manager) populate(actor *Process, page *vm.Page, pAddr uint64) {
	data := m.memory.Frame(pAddr)

	switch page.Kind {
	case vm.PageZero:
		clear(data)
		page.Kind = vm.PageAnonymous
		m.stats.ZeroFills++
	case vm.PageSwapped:
		m.swap.ReadIn(page.Slot, data)
		m.stats.SwapIns++
		m.invoke(HookPosSwapIn, Event{
			PID:   actor.PID,
			VAddr: page.VAddr,
			PAddr: pAddr,
			Slot:  page.Slot,
		})

		page.Kind = vm.PageAnonymous
		page.Slot = 0
	case vm.PageFile:
		m.readPage(actor, page, data)
		m.stats.FileReads++
	default:
		vm.Halt("pid %d: %s page 0x%x is not resident",
			actor.PID, page.Kind, page.VAddr)
	}
}

// readPage fills the frame from the file. Bytes the file does not provide
// are zeros.
func (m *Manager) readPage(actor *Process, page *vm.Page, data []byte) {
	m.fileLock.Acquire(actor.PID)
	defer m.fileLock.Release(actor.PID)

	n, err := page.File.ReadAt(data[:page.Length], page.Offset)
	if err != nil && !errors.Is(err, io.EOF) {
		vm.Halt("read page 0x%x at offset %d: %v",
			page.VAddr, page.Offset, err)
	}

	clear(data[n:])
}

func (m *Manager) writeBack(
	actor *Process,
	owner vm.PID,
	page *vm.Page,
	data []byte,
) {
	m.fileLock.Acquire(actor.PID)
	defer m.fileLock.Release(actor.PID)

	_, err := page.File.WriteAt(data[:page.Length], page.Offset)
	if err != nil {
		vm.Halt("write back page 0x%x at offset %d: %v",
			page.VAddr, page.Offset, err)
	}

	m.stats.WriteBacks++
	m.invoke(HookPosWriteBack, Event{PID: owner, VAddr: page.VAddr})
}

func hex(v uint64) string {
	return fmt.Sprintf("0x%x", v)
}
