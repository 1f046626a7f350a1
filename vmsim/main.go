// Command vmsim runs synthetic workloads against the virtual memory manager.
package main

import (
	"fmt"
	"os"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/vmcore/mem/vm"
	"github.com/sarchlab/vmcore/vmsim/cmd"
)

func main() {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		kp, ok := r.(*vm.KernelPanic)
		if !ok {
			panic(r)
		}

		fmt.Fprintln(os.Stderr, kp)
		atexit.Exit(1)
	}()

	err := cmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
