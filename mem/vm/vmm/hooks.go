package vmm

import (
	"github.com/sarchlab/vmcore/mem/vm"
	"github.com/sarchlab/vmcore/sim"
)

// Hook positions of the manager. The item of every invocation is an Event.
var (
	HookPosFaultStart = &sim.HookPos{Name: "FaultStart"}
	HookPosFaultEnd   = &sim.HookPos{Name: "FaultEnd"}
	HookPosEvict      = &sim.HookPos{Name: "Evict"}
	HookPosSwapOut    = &sim.HookPos{Name: "SwapOut"}
	HookPosSwapIn     = &sim.HookPos{Name: "SwapIn"}
	HookPosWriteBack  = &sim.HookPos{Name: "WriteBack"}
	HookPosMmap       = &sim.HookPos{Name: "Mmap"}
	HookPosMunmap     = &sim.HookPos{Name: "Munmap"}
	HookPosTeardown   = &sim.HookPos{Name: "Teardown"}
)

// An Event describes what the manager did at a hook position. Fields that do
// not apply to the position are zero.
type Event struct {
	// ID is shared by the start and the end of a fault.
	ID      string
	PID     vm.PID
	VAddr   uint64
	PAddr   uint64
	Slot    uint64
	MapID   MapID
	Outcome Outcome
}

func (m *Manager) invoke(pos *sim.HookPos, evt Event) {
	if m.NumHooks() == 0 {
		return
	}

	m.InvokeHook(sim.HookCtx{
		Domain: m,
		Pos:    pos,
		Item:   evt,
	})
}
