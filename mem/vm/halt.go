package vm

import (
	"fmt"
	"log/slog"
)

// A KernelPanic is the value the core panics with when it reaches a state it
// cannot recover from, such as exhausted swap or a broken invariant.
type KernelPanic struct {
	Reason string
}

func (p *KernelPanic) Error() string {
	return "kernel panic: " + p.Reason
}

// Halt stops the kernel.
func Halt(format string, args ...any) {
	reason := fmt.Sprintf(format, args...)
	slog.Error("kernel panic", "reason", reason)

	panic(&KernelPanic{Reason: reason})
}
