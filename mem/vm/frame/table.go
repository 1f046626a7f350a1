// Package frame keeps track of the physical frames that back user pages and
// of the virtual pages mapped to each of them.
package frame

import (
	"container/list"

	"github.com/sarchlab/vmcore/mem/vm"
)

// An Owner is one virtual page mapped to a frame.
type Owner struct {
	PID   vm.PID
	VAddr uint64

	// Dir is the page directory that holds the mapping. The frame table reads
	// and clears the accessed bits through it.
	Dir vm.PageDirectory
}

func (o Owner) is(other Owner) bool {
	return o.PID == other.PID && o.VAddr == other.VAddr
}

// A Frame is a physical page in use and the virtual pages mapped to it.
type Frame struct {
	PAddr  uint64
	Owners []Owner

	pinned bool
}

// IsPinned tells if the frame is being populated and must not be evicted.
func (f *Frame) IsPinned() bool {
	return f.pinned
}

// A Table records every frame that has at least one owner. It also keeps the
// frames in a circular order for the clock victim finder.
//
// The table does not lock. Callers serialize all access to it.
type Table struct {
	frames map[uint64]*list.Element
	clock  *list.List
}

// NewTable creates an empty frame table.
func NewTable() *Table {
	return &Table{
		frames: make(map[uint64]*list.Element),
		clock:  list.New(),
	}
}

// Register adds an owner to the frame at pAddr, creating the frame record if
// the frame is not in the table yet.
func (t *Table) Register(pAddr uint64, owner Owner) *Frame {
	owner.VAddr = vm.PageAlign(owner.VAddr)

	elem, found := t.frames[pAddr]
	if found {
		f := elem.Value.(*Frame)
		f.Owners = append(f.Owners, owner)

		return f
	}

	f := &Frame{
		PAddr:  pAddr,
		Owners: []Owner{owner},
	}
	t.frames[pAddr] = t.clock.PushBack(f)

	return f
}

// Find returns the frame at pAddr.
func (t *Table) Find(pAddr uint64) (*Frame, bool) {
	elem, found := t.frames[pAddr]
	if !found {
		return nil, false
	}

	return elem.Value.(*Frame), true
}

// Unregister removes the owner from the frame at pAddr. The frame record is
// destroyed when its last owner is removed, in which case Unregister returns
// true.
func (t *Table) Unregister(pAddr uint64, owner Owner) bool {
	f := t.frameMustExist(pAddr)
	owner.VAddr = vm.PageAlign(owner.VAddr)

	for i, o := range f.Owners {
		if !o.is(owner) {
			continue
		}

		f.Owners = append(f.Owners[:i], f.Owners[i+1:]...)
		if len(f.Owners) == 0 {
			t.remove(pAddr)
			return true
		}

		return false
	}

	vm.Halt("frame 0x%x is not owned by pid %d at 0x%x",
		pAddr, owner.PID, owner.VAddr)

	return false
}

// ForceUnregister destroys the frame record regardless of its owners.
func (t *Table) ForceUnregister(pAddr uint64) {
	f := t.frameMustExist(pAddr)
	f.Owners = nil
	t.remove(pAddr)
}

// IsAccessed tells if any owner accessed the frame since its bit was last
// reset.
func (t *Table) IsAccessed(f *Frame) bool {
	accessed := false
	for _, o := range f.Owners {
		if o.Dir.IsAccessed(o.VAddr) {
			accessed = true
		}
	}

	return accessed
}

// ResetAccessed clears the accessed bit of every owner's mapping.
func (t *Table) ResetAccessed(f *Frame) {
	for _, o := range f.Owners {
		o.Dir.ClearAccessed(o.VAddr)
	}
}

// Pin protects the frame at pAddr from eviction.
func (t *Table) Pin(pAddr uint64) {
	t.frameMustExist(pAddr).pinned = true
}

// Unpin makes the frame at pAddr evictable again.
func (t *Table) Unpin(pAddr uint64) {
	t.frameMustExist(pAddr).pinned = false
}

// Len returns the number of frames in the table.
func (t *Table) Len() int {
	return t.clock.Len()
}

// Frames returns the frames in clock order.
func (t *Table) Frames() []*Frame {
	frames := make([]*Frame, 0, t.clock.Len())
	for e := t.clock.Front(); e != nil; e = e.Next() {
		frames = append(frames, e.Value.(*Frame))
	}

	return frames
}

func (t *Table) hand() *Frame {
	elem := t.clock.Front()
	if elem == nil {
		return nil
	}

	return elem.Value.(*Frame)
}

func (t *Table) requeue(f *Frame) {
	t.clock.MoveToBack(t.frames[f.PAddr])
}

func (t *Table) remove(pAddr uint64) {
	t.clock.Remove(t.frames[pAddr])
	delete(t.frames, pAddr)
}

func (t *Table) frameMustExist(pAddr uint64) *Frame {
	f, found := t.Find(pAddr)
	if !found {
		vm.Halt("frame 0x%x is not in the frame table", pAddr)
	}

	return f
}
