package frame

// A VictimFinder decides which frame should be evicted.
type VictimFinder interface {
	FindVictim(t *Table) (*Frame, bool)
}

// ClockVictimFinder gives every accessed frame a second chance. It inspects
// frames from the head of the table's circular queue, moving each inspected
// frame to the back.
type ClockVictimFinder struct {
	// Exempt, if set, marks frames that must never be evicted, in addition to
	// pinned frames.
	Exempt func(f *Frame) bool
}

// NewClockVictimFinder returns a newly constructed clock victim finder.
func NewClockVictimFinder() *ClockVictimFinder {
	return new(ClockVictimFinder)
}

// FindVictim returns the first frame that is neither accessed nor protected.
// Accessed frames have their accessed bits cleared on the way. It fails when
// two full rotations find nothing to evict.
func (e *ClockVictimFinder) FindVictim(t *Table) (*Frame, bool) {
	inspections := 2 * t.Len()

	for i := 0; i < inspections; i++ {
		f := t.hand()
		t.requeue(f)

		if f.pinned || (e.Exempt != nil && e.Exempt(f)) {
			continue
		}

		if t.IsAccessed(f) {
			t.ResetAccessed(f)
			continue
		}

		return f, true
	}

	return nil, false
}
