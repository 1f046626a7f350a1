// Package simulation assembles a virtual memory manager with the devices,
// recorders, and monitor that a run needs.
package simulation

import (
	"io"
	"log/slog"

	"github.com/sarchlab/vmcore/datarecording"
	"github.com/sarchlab/vmcore/mem/vm"
	"github.com/sarchlab/vmcore/mem/vm/vmm"
	"github.com/sarchlab/vmcore/memory"
	"github.com/sarchlab/vmcore/monitoring"
	"github.com/sarchlab/vmcore/tracing"
)

const statsTableName = "vm_stats"

// A Simulation provides the services a run of the virtual memory manager
// requires.
type Simulation struct {
	id         string
	logger     *slog.Logger
	outputPath string

	manager    *vmm.Manager
	pool       *memory.FramePool
	swapDevice vm.BlockDevice
	closers    []io.Closer

	dataRecorder datarecording.DataRecorder
	execRecorder *datarecording.ExecRecorder
	visTracer    *tracing.DBTracer
	faultTimer   *tracing.AverageTimeTracer
	faultSteps   *tracing.StepCountTracer

	monitor    *monitoring.Monitor
	monitorURL string

	terminated bool
}

// ID returns the unique ID of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// OutputPath returns the file the data recorder writes to.
func (s *Simulation) OutputPath() string {
	return s.outputPath
}

// Manager returns the virtual memory manager.
func (s *Simulation) Manager() *vmm.Manager {
	return s.manager
}

// FramePool returns the pool of user frames.
func (s *Simulation) FramePool() *memory.FramePool {
	return s.pool
}

// GetDataRecorder returns the data recorder used in the simulation.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetExecRecorder returns the recorder of the execution properties.
func (s *Simulation) GetExecRecorder() *datarecording.ExecRecorder {
	return s.execRecorder
}

// GetVisTracer returns the tracer used in the simulation.
func (s *Simulation) GetVisTracer() *tracing.DBTracer {
	return s.visTracer
}

// FaultTimer returns the tracer that measures page fault latency.
func (s *Simulation) FaultTimer() *tracing.AverageTimeTracer {
	return s.faultTimer
}

// FaultSteps returns the tracer that counts what page faults had to do, such
// as evictions and swap-ins.
func (s *Simulation) FaultSteps() *tracing.StepCountTracer {
	return s.faultSteps
}

// GetMonitor returns the monitor used in the simulation. It is nil if
// monitoring is disabled.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// MonitorURL returns the address of the monitoring server, if any.
func (s *Simulation) MonitorURL() string {
	return s.monitorURL
}

// Terminate records the final counters and closes the recorders and devices.
// Calling it more than once has no effect.
func (s *Simulation) Terminate() {
	if s.terminated {
		return
	}
	s.terminated = true

	stats := s.manager.Stats()
	s.dataRecorder.InsertData(statsTableName, stats)

	s.logger.Info("simulation terminated",
		"faults", stats.Faults,
		"evictions", stats.Evictions,
		"swap_outs", stats.SwapOuts,
		"swap_ins", stats.SwapIns,
		"write_backs", stats.WriteBacks,
		"kills", stats.Kills)

	s.visTracer.Terminate()
	s.execRecorder.End()
	s.dataRecorder.Close()

	for _, c := range s.closers {
		err := c.Close()
		if err != nil {
			s.logger.Warn("device not closed", "error", err)
		}
	}
}
