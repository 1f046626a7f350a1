package vmm

import (
	"io"
	"log/slog"

	"github.com/sarchlab/vmcore/filesys"
	"github.com/sarchlab/vmcore/mem/vm"
	"github.com/sarchlab/vmcore/mem/vm/frame"
	"github.com/sarchlab/vmcore/mem/vm/pagedir"
	"github.com/sarchlab/vmcore/mem/vm/swap"
)

// A Builder can build virtual memory managers.
type Builder struct {
	logger          *slog.Logger
	allocator       vm.FrameAllocator
	memory          vm.PhysicalMemory
	swapDevice      vm.BlockDevice
	fileLock        *filesys.Lock
	victimFinder    frame.VictimFinder
	evictFileBacked bool
	newDirectory    func() vm.PageDirectory
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		evictFileBacked: true,
	}
}

// WithLogger sets the logger of the manager.
func (b Builder) WithLogger(logger *slog.Logger) Builder {
	b.logger = logger
	return b
}

// WithFrameAllocator sets the pool that user frames are taken from.
func (b Builder) WithFrameAllocator(allocator vm.FrameAllocator) Builder {
	b.allocator = allocator
	return b
}

// WithPhysicalMemory sets the memory that holds the content of the frames.
func (b Builder) WithPhysicalMemory(memory vm.PhysicalMemory) Builder {
	b.memory = memory
	return b
}

// WithSwapDevice sets the block device that evicted pages are written to.
func (b Builder) WithSwapDevice(device vm.BlockDevice) Builder {
	b.swapDevice = device
	return b
}

// WithFileLock sets the lock shared with the file system layer. If not set,
// the manager uses a lock of its own.
func (b Builder) WithFileLock(lock *filesys.Lock) Builder {
	b.fileLock = lock
	return b
}

// WithVictimFinder replaces the clock victim finder.
func (b Builder) WithVictimFinder(finder frame.VictimFinder) Builder {
	b.victimFinder = finder
	return b
}

// WithFileBackedEviction sets if the default victim finder may select frames
// that hold file-backed pages. When disabled, such frames are only reclaimed
// by munmap and process teardown.
func (b Builder) WithFileBackedEviction(enabled bool) Builder {
	b.evictFileBacked = enabled
	return b
}

// WithDirectoryFactory sets how the page directory of a new process is
// created.
func (b Builder) WithDirectoryFactory(f func() vm.PageDirectory) Builder {
	b.newDirectory = f
	return b
}

// Build creates a new manager.
func (b Builder) Build() *Manager {
	b.mustHaveCollaborators()

	m := &Manager{
		logger:       b.logger,
		allocator:    b.allocator,
		memory:       b.memory,
		fileLock:     b.fileLock,
		victimFinder: b.victimFinder,
		newDirectory: b.newDirectory,
		frames:       frame.NewTable(),
		processes:    make(map[vm.PID]*Process),
	}

	if m.logger == nil {
		m.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if m.fileLock == nil {
		m.fileLock = filesys.NewLock()
	}

	if m.newDirectory == nil {
		m.newDirectory = func() vm.PageDirectory { return pagedir.New() }
	}

	if m.victimFinder == nil {
		clock := frame.NewClockVictimFinder()
		if !b.evictFileBacked {
			clock.Exempt = m.holdsFileBackedPage
		}

		m.victimFinder = clock
	}

	m.swap = swap.NewManager(b.swapDevice, m.logger)

	return m
}

func (b Builder) mustHaveCollaborators() {
	if b.allocator == nil {
		panic("frame allocator is not set")
	}

	if b.memory == nil {
		panic("physical memory is not set")
	}

	if b.swapDevice == nil {
		panic("swap device is not set")
	}
}
