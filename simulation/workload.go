package simulation

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/sarchlab/vmcore/filesys"
	"github.com/sarchlab/vmcore/mem/vm"
	"github.com/sarchlab/vmcore/mem/vm/vmm"
	"github.com/sarchlab/vmcore/monitoring"
)

// Where the workload places the regions of each process.
const (
	CodeBase uint64 = 0x00400000
	HeapBase uint64 = 0x08048000
	MapBase  uint64 = 0x10000000
)

const wordSize = 8

// A Workload drives synthetic processes against the manager of a simulation.
// Each process loads a read-only code segment, owns a zero-filled heap, and
// maps a file. It then issues random word-sized loads and stores and checks
// every load against a private copy of what memory should hold.
type Workload struct {
	NumProcess  int
	NumCodePage int
	NumHeapPage int
	NumFilePage int
	NumAccess   int
	WriteRatio  float64
	Seed        uint64
}

// DefaultWorkload returns a workload that overcommits the default frame pool.
func DefaultWorkload() Workload {
	return Workload{
		NumProcess:  4,
		NumCodePage: 4,
		NumHeapPage: 32,
		NumFilePage: 16,
		NumAccess:   10000,
		WriteRatio:  0.3,
		Seed:        1,
	}
}

// A Summary sums up what the processes of a workload observed.
type Summary struct {
	Accesses   uint64
	Writes     uint64
	Mismatches uint64
	Kills      uint64
}

func (r *Summary) add(o Summary) {
	r.Accesses += o.Accesses
	r.Writes += o.Writes
	r.Mismatches += o.Mismatches
	r.Kills += o.Kills
}

// Validate checks that the processes of the workload fit in the address
// space.
func (w Workload) Validate() error {
	switch {
	case w.NumProcess <= 0:
		return fmt.Errorf("invalid number of processes %d", w.NumProcess)
	case w.NumCodePage < 0 || w.NumHeapPage < 0 || w.NumFilePage < 0:
		return errors.New("region sizes cannot be negative")
	case w.NumCodePage+w.NumHeapPage+w.NumFilePage == 0:
		return errors.New("workload touches no memory")
	case w.NumAccess < 0:
		return fmt.Errorf("invalid number of accesses %d", w.NumAccess)
	case w.WriteRatio < 0 || w.WriteRatio > 1:
		return fmt.Errorf("write ratio %g is not in [0, 1]", w.WriteRatio)
	case CodeBase+uint64(w.NumCodePage)*vm.PageSize > HeapBase:
		return errors.New("code segment overlaps the heap")
	case HeapBase+uint64(w.NumHeapPage)*vm.PageSize > MapBase:
		return errors.New("heap overlaps the mapped file")
	case MapBase+uint64(w.NumFilePage)*vm.PageSize > vm.StackBottom:
		return errors.New("mapped file overlaps the stack")
	}

	return nil
}

// Run runs one goroutine per process and waits for all of them. Processes
// are numbered from 1. A process killed by the manager stops early and is
// counted in the summary. If the kernel panics, every process stops at its
// next call into the manager and Run returns the first *vm.KernelPanic.
func (w Workload) Run(s *Simulation) (Summary, error) {
	err := w.Validate()
	if err != nil {
		return Summary{}, err
	}

	var bar *monitoring.ProgressBar
	if s.monitor != nil {
		bar = s.monitor.CreateProgressBar(
			"Accesses", uint64(w.NumProcess*w.NumAccess))
		defer s.monitor.CompleteProgressBar(bar)
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		summary Summary
		errs    []error
	)

	for i := 0; i < w.NumProcess; i++ {
		wg.Add(1)

		go func(pid vm.PID) {
			defer wg.Done()

			r, err := w.runProcess(s, pid, bar)

			mu.Lock()
			defer mu.Unlock()

			summary.add(r)
			if err != nil {
				errs = append(errs, fmt.Errorf("pid %d: %w", pid, err))
			}
		}(vm.PID(i + 1))
	}

	wg.Wait()

	if kp := s.manager.Halted(); kp != nil {
		s.logger.Error("workload halted", "reason", kp.Reason)
		return summary, kp
	}

	s.logger.Info("workload finished",
		"accesses", summary.Accesses,
		"writes", summary.Writes,
		"mismatches", summary.Mismatches,
		"kills", summary.Kills)

	return summary, errors.Join(errs...)
}

// A region is a range of user memory along with the content it should hold.
type region struct {
	base     uint64
	expected []byte
	readOnly bool
}

func (w Workload) runProcess(
	s *Simulation,
	pid vm.PID,
	bar *monitoring.ProgressBar,
) (report Summary, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		kp, ok := r.(*vm.KernelPanic)
		if !ok {
			panic(r)
		}

		err = kp
	}()

	m := s.manager
	p := m.NewProcess(pid)
	defer func() {
		// A halted manager holds no consistent state to tear down.
		if m.Halted() == nil {
			m.TeardownProcess(p)
		}
	}()

	regions, err := w.buildRegions(m, p)
	if err != nil {
		return report, err
	}

	var file *filesys.MemFile
	mapID := vmm.MapID(0)
	if w.NumFilePage > 0 {
		file, mapID, err = w.mapFile(m, p, &regions)
		if err != nil {
			return report, err
		}
	}

	rng := rand.New(rand.NewPCG(w.Seed, uint64(pid)))
	for i := 0; i < w.NumAccess; i++ {
		r := regions[rng.IntN(len(regions))]
		offset := rng.IntN(len(r.expected)/wordSize) * wordSize
		addr := r.base + uint64(offset)
		word := r.expected[offset : offset+wordSize]

		if !r.readOnly && rng.Float64() < w.WriteRatio {
			data := binary.LittleEndian.AppendUint64(nil, rng.Uint64())

			err = m.Store(p, addr, data)
			if errors.Is(err, vmm.ErrKilled) {
				report.Kills++
				return report, nil
			}
			if err != nil {
				return report, err
			}

			copy(word, data)
			report.Writes++
		} else {
			data, err := m.Load(p, addr, wordSize)
			if errors.Is(err, vmm.ErrKilled) {
				report.Kills++
				return report, nil
			}
			if err != nil {
				return report, err
			}

			if !bytes.Equal(data, word) {
				s.logger.Warn("memory content mismatch",
					"pid", pid, "vaddr", fmt.Sprintf("0x%x", addr))
				report.Mismatches++
			}
		}

		report.Accesses++
		if bar != nil {
			bar.IncrementFinished(1)
		}
	}

	if file != nil {
		m.Munmap(p, mapID)

		if !bytes.Equal(file.Bytes(), regions[len(regions)-1].expected) {
			s.logger.Warn("mapped file not written back", "pid", pid)
			report.Mismatches++
		}
	}

	return report, nil
}

func (w Workload) buildRegions(m *vmm.Manager, p *vmm.Process) ([]*region, error) {
	var regions []*region

	if w.NumCodePage > 0 {
		code := fill(w.NumCodePage*vm.PageSize, uint64(p.PID))
		exe := filesys.NewMemFile(fmt.Sprintf("prog%d", p.PID), code)

		err := m.LoadSegment(p, exe, 0, CodeBase, int64(len(code)), 0, false)
		if err != nil {
			return nil, err
		}

		regions = append(regions,
			&region{base: CodeBase, expected: code, readOnly: true})
	}

	if w.NumHeapPage > 0 {
		for i := 0; i < w.NumHeapPage; i++ {
			err := m.MapZero(p, HeapBase+uint64(i)*vm.PageSize, true)
			if err != nil {
				return nil, err
			}
		}

		regions = append(regions, &region{
			base:     HeapBase,
			expected: make([]byte, w.NumHeapPage*vm.PageSize),
		})
	}

	return regions, nil
}

func (w Workload) mapFile(
	m *vmm.Manager,
	p *vmm.Process,
	regions *[]*region,
) (*filesys.MemFile, vmm.MapID, error) {
	content := fill(w.NumFilePage*vm.PageSize, uint64(p.PID)<<32)
	file := filesys.NewMemFile(fmt.Sprintf("data%d", p.PID), content)
	fd := m.Open(p, file)

	id, err := m.Mmap(p, fd, MapBase)
	if err != nil {
		return nil, 0, err
	}

	err = m.Close(p, fd)
	if err != nil {
		return nil, 0, err
	}

	*regions = append(*regions, &region{base: MapBase, expected: content})

	return file, id, nil
}

// fill returns n bytes of deterministic, non-zero content.
func fill(n int, seed uint64) []byte {
	buf := make([]byte, 0, n)
	rng := rand.New(rand.NewPCG(seed, 0x5eed))

	for len(buf) < n {
		buf = binary.LittleEndian.AppendUint64(buf, rng.Uint64()|1)
	}

	return buf[:n]
}
