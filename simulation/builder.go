package simulation

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/rs/xid"

	"github.com/sarchlab/vmcore/datarecording"
	"github.com/sarchlab/vmcore/mem/vm"
	"github.com/sarchlab/vmcore/mem/vm/vmm"
	"github.com/sarchlab/vmcore/memory"
	"github.com/sarchlab/vmcore/monitoring"
	"github.com/sarchlab/vmcore/sim"
	"github.com/sarchlab/vmcore/tracing"
)

// Builder can be used to build a simulation.
type Builder struct {
	logger             *slog.Logger
	numFrame           int
	numSwapSlot        uint64
	swapFile           string
	fileBackedEviction bool
	stepClock          bool
	monitorOn          bool
	monitorPort        int
	outputFileName     string
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		numFrame:           64,
		numSwapSlot:        1024,
		fileBackedEviction: true,
		monitorOn:          true,
	}
}

// WithLogger sets the logger shared by the simulated components.
func (b Builder) WithLogger(logger *slog.Logger) Builder {
	b.logger = logger
	return b
}

// WithNumFrame sets the number of user frames.
func (b Builder) WithNumFrame(n int) Builder {
	b.numFrame = n
	return b
}

// WithNumSwapSlot sets the number of page-sized slots of the swap device.
func (b Builder) WithNumSwapSlot(n uint64) Builder {
	b.numSwapSlot = n
	return b
}

// WithSwapFile backs the swap device with a file on the host instead of
// memory.
func (b Builder) WithSwapFile(path string) Builder {
	b.swapFile = path
	return b
}

// WithFileBackedEviction sets whether frames holding file pages can be
// evicted.
func (b Builder) WithFileBackedEviction(enabled bool) Builder {
	b.fileBackedEviction = enabled
	return b
}

// WithStepClock timestamps the trace with a counter rather than the wall
// clock, so that traces of the same workload are identical.
func (b Builder) WithStepClock() Builder {
	b.stepClock = true
	return b
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithOutputFileName sets the custom output file name for the data recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}

	if b.numFrame <= 0 {
		panic(fmt.Sprintf("invalid number of frames %d", b.numFrame))
	}

	if b.numSwapSlot == 0 {
		panic("swap device must have at least one slot")
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{
		id:     xid.New().String(),
		logger: b.logger,
	}

	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	outputPath := b.outputFileName
	if outputPath == "" {
		outputPath = "vmsim_" + s.id
	}
	s.outputPath = outputPath + ".sqlite3"
	s.dataRecorder = datarecording.New(outputPath)
	s.dataRecorder.CreateTable(statsTableName, vmm.Stats{})

	s.execRecorder = datarecording.NewExecRecorder(s.dataRecorder)
	s.execRecorder.Start()
	s.recordConfig(b)

	b.buildMemory(s)
	b.buildManager(s)
	b.buildTracers(s)

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor().WithLogger(s.logger)
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}
		s.monitor.RegisterManager(s.manager)
		s.monitorURL = s.monitor.StartServer()
	}

	return s
}

func (b Builder) buildMemory(s *Simulation) {
	// Frame 0 stays out of the pool so that no user page sits at physical
	// address 0.
	storage := memory.NewStorage(uint64(b.numFrame+1) * vm.PageSize)
	s.pool = memory.NewFramePool(storage, vm.PageSize, b.numFrame)

	numSector := b.numSwapSlot * vm.SectorsPerPage
	if b.swapFile == "" {
		s.swapDevice = memory.NewMemDisk(numSector)
		return
	}

	disk, err := memory.OpenFileDisk(b.swapFile, numSector)
	if err != nil {
		panic(err)
	}

	s.swapDevice = disk
	s.closers = append(s.closers, disk)
}

func (b Builder) buildManager(s *Simulation) {
	s.manager = vmm.MakeBuilder().
		WithLogger(s.logger).
		WithFrameAllocator(s.pool).
		WithPhysicalMemory(s.pool).
		WithSwapDevice(s.swapDevice).
		WithFileBackedEviction(b.fileBackedEviction).
		Build()
}

func (b Builder) buildTracers(s *Simulation) {
	s.manager.AcceptHook(sim.NewLogHook(s.logger))

	var timeTeller sim.TimeTeller = sim.NewWallClock()
	if b.stepClock {
		timeTeller = &sim.StepClock{}
	}

	s.visTracer = tracing.NewDBTracer(timeTeller, s.dataRecorder)
	tracing.CollectTrace(s.manager, s.visTracer)

	s.faultTimer = tracing.NewAverageTimeTracer(
		timeTeller, tracing.KindFilter(tracing.KindFault))
	tracing.CollectTrace(s.manager, s.faultTimer)

	s.faultSteps = tracing.NewStepCountTracer(
		tracing.KindFilter(tracing.KindFault))
	tracing.CollectTrace(s.manager, s.faultSteps)
}

func (s *Simulation) recordConfig(b Builder) {
	s.execRecorder.Set("Simulation ID", s.id)
	s.execRecorder.Set("Frames", fmt.Sprint(b.numFrame))
	s.execRecorder.Set("Swap Slots", fmt.Sprint(b.numSwapSlot))
	s.execRecorder.Set("Swap File", b.swapFile)
	s.execRecorder.Set("File Backed Eviction", fmt.Sprint(b.fileBackedEviction))
}
