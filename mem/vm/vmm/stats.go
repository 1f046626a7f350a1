package vmm

// Stats counts the work done by the manager.
type Stats struct {
	Faults     uint64
	Kills      uint64
	Evictions  uint64
	SwapOuts   uint64
	SwapIns    uint64
	WriteBacks uint64
	Drops      uint64
	ZeroFills  uint64
	FileReads  uint64
	Mmaps      uint64
	Munmaps    uint64
}

// Stats returns a copy of the counters.
func (m *Manager) Stats() Stats {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.stats
}
