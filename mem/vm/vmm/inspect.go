package vmm

import (
	"sort"

	"github.com/sarchlab/vmcore/mem/vm"
)

// OwnerInfo is one virtual page mapped to a frame.
type OwnerInfo struct {
	PID   vm.PID `json:"pid"`
	VAddr uint64 `json:"vaddr"`
}

// FrameInfo describes a frame in the frame table.
type FrameInfo struct {
	PAddr    uint64      `json:"paddr"`
	Owners   []OwnerInfo `json:"owners"`
	Pinned   bool        `json:"pinned"`
	Accessed bool        `json:"accessed"`
}

// PageInfo describes a supplemental page table entry.
type PageInfo struct {
	VAddr    uint64 `json:"vaddr"`
	Kind     string `json:"kind"`
	Writable bool   `json:"writable"`
	Resident bool   `json:"resident"`
	PAddr    uint64 `json:"paddr"`
	Slot     uint64 `json:"slot"`
	Offset   int64  `json:"offset"`
	Length   int    `json:"length"`
	Private  bool   `json:"private"`
}

// ProcessInfo summarizes the address space of a process.
type ProcessInfo struct {
	PID         vm.PID `json:"pid"`
	NumPages    int    `json:"num_pages"`
	NumResident int    `json:"num_resident"`
	NumMappings int    `json:"num_mappings"`
}

// SwapInfo reports the occupation of the swap device.
type SwapInfo struct {
	TotalSlots uint64 `json:"total_slots"`
	UsedSlots  uint64 `json:"used_slots"`
}

// Frames lists the frames in clock order. Inspecting a frame does not change
// its accessed bits.
func (m *Manager) Frames() []FrameInfo {
	m.lock.Lock()
	defer m.lock.Unlock()

	frames := m.frames.Frames()
	infos := make([]FrameInfo, 0, len(frames))

	for _, f := range frames {
		info := FrameInfo{
			PAddr:    f.PAddr,
			Pinned:   f.IsPinned(),
			Accessed: m.frames.IsAccessed(f),
		}

		for _, o := range f.Owners {
			info.Owners = append(info.Owners,
				OwnerInfo{PID: o.PID, VAddr: o.VAddr})
		}

		infos = append(infos, info)
	}

	return infos
}

// Processes lists the live processes ordered by PID.
func (m *Manager) Processes() []ProcessInfo {
	m.lock.Lock()
	defer m.lock.Unlock()

	infos := make([]ProcessInfo, 0, len(m.processes))
	for _, p := range m.processes {
		info := ProcessInfo{
			PID:      p.PID,
			NumPages: p.Pages.Len(),
		}

		for _, page := range p.Pages.Pages() {
			if page.Resident {
				info.NumResident++
			}
		}

		for _, d := range p.Files.Descriptors() {
			if d.Mapped {
				info.NumMappings++
			}
		}

		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].PID < infos[j].PID })

	return infos
}

// Pages lists the supplemental page table of a live process in creation
// order.
func (m *Manager) Pages(pid vm.PID) ([]PageInfo, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()

	p, found := m.processes[pid]
	if !found {
		return nil, false
	}

	pages := p.Pages.Pages()
	infos := make([]PageInfo, 0, len(pages))

	for _, page := range pages {
		infos = append(infos, PageInfo{
			VAddr:    page.VAddr,
			Kind:     page.Kind.String(),
			Writable: page.Writable,
			Resident: page.Resident,
			PAddr:    page.PAddr,
			Slot:     page.Slot,
			Offset:   page.Offset,
			Length:   page.Length,
			Private:  page.Private,
		})
	}

	return infos, true
}

// Swap reports the occupation of the swap device.
func (m *Manager) Swap() SwapInfo {
	return SwapInfo{
		TotalSlots: m.swap.TotalSlots(),
		UsedSlots:  m.swap.UsedSlots(),
	}
}
