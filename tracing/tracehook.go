package tracing

import (
	"fmt"
	"reflect"

	"github.com/sarchlab/vmcore/mem/vm/vmm"
	"github.com/sarchlab/vmcore/sim"
)

// Task kinds produced from the virtual memory manager.
const (
	KindFault = "fault"
	KindVM    = "vm"
)

// CollectTrace lets the tracer collect the tasks of a virtual memory
// manager.
func CollectTrace(domain sim.Hookable, tracer Tracer) {
	for _, hook := range domain.Hooks() {
		hook, ok := hook.(*vmTraceHook)
		if ok && hook.t == tracer {
			panic(fmt.Sprintf("domain already has tracer %s",
				reflect.TypeOf(tracer)))
		}
	}

	domain.AcceptHook(&vmTraceHook{t: tracer})
}

// A vmTraceHook turns every fault into a task. The other events of the
// manager become instantaneous tasks whose parent is the fault that caused
// them, if any.
type vmTraceHook struct {
	t            Tracer
	currentFault string
}

// Func calls the tracer interfaces when the hook is triggered
func (h *vmTraceHook) Func(ctx sim.HookCtx) {
	evt, ok := ctx.Item.(vmm.Event)
	if !ok {
		return
	}

	switch ctx.Pos {
	case vmm.HookPosFaultStart:
		h.currentFault = evt.ID
		h.t.StartTask(Task{
			ID:       evt.ID,
			Kind:     KindFault,
			What:     "fault",
			Location: location(evt),
			Detail:   evt,
		})
	case vmm.HookPosFaultEnd:
		h.t.EndTask(Task{
			ID:       evt.ID,
			Kind:     KindFault,
			What:     evt.Outcome.String(),
			Location: location(evt),
			Detail:   evt,
		})
		h.currentFault = ""
	default:
		task := Task{
			ID:       sim.GetIDGenerator().Generate(),
			ParentID: h.currentFault,
			Kind:     KindVM,
			What:     ctx.Pos.Name,
			Location: location(evt),
			Detail:   evt,
		}
		h.t.StartTask(task)
		h.t.EndTask(task)
	}
}

func location(evt vmm.Event) string {
	return fmt.Sprintf("pid%d", evt.PID)
}
