package vmm

import (
	"github.com/sarchlab/vmcore/filesys"
	"github.com/sarchlab/vmcore/mem/vm"
)

// A MapID identifies a memory-mapped file within a process.
type MapID int

// A Process is the virtual memory state of one user process.
type Process struct {
	PID   vm.PID
	Dir   vm.PageDirectory
	Pages *vm.PageTable
	Files *filesys.DescriptorTable

	nextMapID MapID
	exited    bool
}

// HasExited tells if the process has been torn down.
func (p *Process) HasExited() bool {
	return p.exited
}

func (p *Process) owns(vAddr uint64) bool {
	if _, found := p.Pages.Find(vAddr); found {
		return true
	}

	_, present := p.Dir.Translate(vAddr)

	return present
}
