package filesys

import (
	"errors"
	"io"
	"sort"

	"github.com/sarchlab/vmcore/mem/vm"
)

// ErrBadDescriptor is returned for descriptors that are not open.
var ErrBadDescriptor = errors.New("bad file descriptor")

// The first descriptors are reserved for the console.
const firstFD = 2

// A Descriptor is an open file of a process. While the file is mapped into
// memory, the descriptor records the mapping.
type Descriptor struct {
	FD      int
	File    vm.File
	Regular bool

	Mapped  bool
	MapID   int
	MapAddr uint64
	MapSize int64

	// ClosePending is set when the descriptor was closed while mapped. The
	// close completes when the mapping is removed.
	ClosePending bool
}

// A DescriptorTable holds the open files of one process.
type DescriptorTable struct {
	descriptors map[int]*Descriptor
	nextFD      int
}

// NewDescriptorTable creates an empty table.
func NewDescriptorTable() *DescriptorTable {
	return &DescriptorTable{
		descriptors: make(map[int]*Descriptor),
		nextFD:      firstFD,
	}
}

// Open adds a regular file to the table and returns its descriptor number.
func (t *DescriptorTable) Open(f vm.File) int {
	return t.add(f, true)
}

// OpenSpecial adds a file that is not a regular file, such as a directory.
func (t *DescriptorTable) OpenSpecial(f vm.File) int {
	return t.add(f, false)
}

func (t *DescriptorTable) add(f vm.File, regular bool) int {
	fd := t.nextFD
	t.nextFD++

	t.descriptors[fd] = &Descriptor{FD: fd, File: f, Regular: regular}

	return fd
}

// Get returns an open descriptor. Descriptors whose close is pending are not
// open anymore.
func (t *DescriptorTable) Get(fd int) (*Descriptor, bool) {
	d, found := t.descriptors[fd]
	if !found || d.ClosePending {
		return nil, false
	}

	return d, true
}

// FindMapping returns the descriptor that holds the given mapping.
func (t *DescriptorTable) FindMapping(mapID int) (*Descriptor, bool) {
	for _, d := range t.descriptors {
		if d.Mapped && d.MapID == mapID {
			return d, true
		}
	}

	return nil, false
}

// Close closes the descriptor. If the file is mapped, the close is deferred
// until the mapping is removed and Close returns false.
func (t *DescriptorTable) Close(fd int) (bool, error) {
	d, ok := t.Get(fd)
	if !ok {
		return false, ErrBadDescriptor
	}

	if d.Mapped {
		d.ClosePending = true
		return false, nil
	}

	t.release(d)

	return true, nil
}

// Unmapped clears the mapping of the descriptor and completes a pending
// close.
func (t *DescriptorTable) Unmapped(d *Descriptor) {
	d.Mapped = false
	d.MapID = 0
	d.MapAddr = 0
	d.MapSize = 0

	if d.ClosePending {
		t.release(d)
	}
}

// Descriptors returns all descriptors, including those with a pending close,
// ordered by number.
func (t *DescriptorTable) Descriptors() []*Descriptor {
	list := make([]*Descriptor, 0, len(t.descriptors))
	for _, d := range t.descriptors {
		list = append(list, d)
	}

	sort.Slice(list, func(i, j int) bool { return list[i].FD < list[j].FD })

	return list
}

func (t *DescriptorTable) release(d *Descriptor) {
	delete(t.descriptors, d.FD)

	if c, ok := d.File.(io.Closer); ok {
		c.Close()
	}
}
