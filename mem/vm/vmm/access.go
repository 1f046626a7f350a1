package vmm

import (
	"fmt"

	"github.com/sarchlab/vmcore/mem/vm"
)

// Load reads n bytes of user memory at vAddr the way the CPU would, faulting
// pages in as needed.
func (m *Manager) Load(p *Process, vAddr uint64, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("pid %d load %d bytes at 0x%x: %w",
			p.PID, n, vAddr, ErrInvalidLength)
	}

	m.acquire()
	defer m.release()

	buf := make([]byte, n)
	err := m.walk(p, vAddr, n, false, func(frame []byte, done int) {
		copy(buf[done:], frame)
	})
	if err != nil {
		return nil, err
	}

	return buf, nil
}

// Store writes data to user memory at vAddr the way the CPU would, faulting
// pages in as needed.
func (m *Manager) Store(p *Process, vAddr uint64, data []byte) error {
	m.acquire()
	defer m.release()

	return m.walk(p, vAddr, len(data), true, func(frame []byte, done int) {
		copy(frame, data[done:])
	})
}

// walk visits the bytes of [vAddr, vAddr+n) page by page. The visitor
// receives the part of the frame that backs the current page and how many
// bytes have been visited before.
func (m *Manager) walk(
	p *Process,
	vAddr uint64,
	n int,
	write bool,
	visit func(frame []byte, done int),
) error {
	done := 0
	for done < n {
		addr := vAddr + uint64(done)

		pAddr, err := m.access(p, addr, write)
		if err != nil {
			return err
		}

		offset := vm.PageOffset(pAddr)
		chunk := min(n-done, int(vm.PageSize-offset))
		frame := m.memory.Frame(vm.PageAlign(pAddr))

		visit(frame[offset:offset+uint64(chunk)], done)
		done += chunk
	}

	return nil
}

func (m *Manager) access(p *Process, vAddr uint64, write bool) (uint64, error) {
	pAddr, ok := p.Dir.Access(vAddr, write)
	if ok {
		return pAddr, nil
	}

	if m.resolveFault(p, vAddr) == Kill {
		return 0, fmt.Errorf("pid %d access 0x%x: %w", p.PID, vAddr, ErrKilled)
	}

	// A write to a read-only page faults again once the page is present.
	pAddr, ok = p.Dir.Access(vAddr, write)
	if !ok {
		m.stats.Kills++
		return 0, fmt.Errorf("pid %d write 0x%x: %w", p.PID, vAddr, ErrKilled)
	}

	return pAddr, nil
}
