package vm

import (
	"container/list"
	"fmt"
)

// PageKind tells where the content of a page comes from.
type PageKind int

// Kinds of pages.
const (
	// PageZero pages are filled with zeros on the first access.
	PageZero PageKind = iota

	// PageAnonymous pages hold content that only lives in their frame.
	PageAnonymous

	// PageSwapped pages have their content stored in a swap slot.
	PageSwapped

	// PageFile pages are read from a file.
	PageFile
)

func (k PageKind) String() string {
	switch k {
	case PageZero:
		return "zero"
	case PageAnonymous:
		return "anonymous"
	case PageSwapped:
		return "swapped"
	case PageFile:
		return "file"
	default:
		return fmt.Sprintf("PageKind(%d)", int(k))
	}
}

// A Page is an entry in the supplemental page table. It records how to
// rebuild the content of a virtual page and whether the page is currently
// backed by a frame.
type Page struct {
	VAddr    uint64
	Kind     PageKind
	Writable bool

	// Slot is the first sector of the swap slot of a PageSwapped page.
	Slot uint64

	// File, Offset and Length locate the bytes of a PageFile page. Bytes
	// after Length are zeros.
	File   File
	Offset int64
	Length int

	// Private file pages never write their modifications back to the file.
	// Their dirty content is swapped out instead.
	Private bool

	Resident bool
	PAddr    uint64
}

// IsFileBacked tells if the file holds the authoritative copy of the page.
func (p *Page) IsFileBacked() bool {
	return p.Kind == PageFile
}

// A PageTable holds the supplemental pages of one process.
//
// The table does not lock. Callers serialize all access to it.
type PageTable struct {
	pid          PID
	entries      *list.List
	entriesTable map[uint64]*list.Element
}

// NewPageTable creates an empty PageTable for a process.
func NewPageTable(pid PID) *PageTable {
	return &PageTable{
		pid:          pid,
		entries:      list.New(),
		entriesTable: make(map[uint64]*list.Element),
	}
}

// PID returns the owner of the table.
func (t *PageTable) PID() PID {
	return t.pid
}

// Create inserts a new page. The page must not exist yet.
func (t *PageTable) Create(page Page) *Page {
	page.VAddr = PageAlign(page.VAddr)
	t.pageMustNotExist(page.VAddr)

	p := &page
	elem := t.entries.PushBack(p)
	t.entriesTable[page.VAddr] = elem

	return p
}

// Find returns the page that contains the given virtual address. The bool
// return value indicates if the page is found or not.
func (t *PageTable) Find(vAddr uint64) (*Page, bool) {
	elem, found := t.entriesTable[PageAlign(vAddr)]
	if !found {
		return nil, false
	}

	return elem.Value.(*Page), true
}

// Delete removes the page that contains the given address. The page must
// exist.
func (t *PageTable) Delete(vAddr uint64) {
	vAddr = PageAlign(vAddr)
	t.pageMustExist(vAddr)

	elem := t.entriesTable[vAddr]
	t.entries.Remove(elem)
	delete(t.entriesTable, vAddr)
}

// Pages returns the pages in creation order.
func (t *PageTable) Pages() []*Page {
	pages := make([]*Page, 0, t.entries.Len())
	for e := t.entries.Front(); e != nil; e = e.Next() {
		pages = append(pages, e.Value.(*Page))
	}

	return pages
}

// Len returns the number of pages in the table.
func (t *PageTable) Len() int {
	return t.entries.Len()
}

func (t *PageTable) pageMustExist(vAddr uint64) {
	_, found := t.entriesTable[vAddr]
	if !found {
		Halt("pid %d: page 0x%x does not exist", t.pid, vAddr)
	}
}

func (t *PageTable) pageMustNotExist(vAddr uint64) {
	_, found := t.entriesTable[vAddr]
	if found {
		Halt("pid %d: page 0x%x already exists", t.pid, vAddr)
	}
}
