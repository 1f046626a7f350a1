// Package filesys provides the parts of the file system that the virtual
// memory core talks to: files that can be read and written at an offset, the
// lock shared with the file system layer, and per-process descriptor tables.
package filesys

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// MemFile is a regular file held in memory.
type MemFile struct {
	sync.Mutex
	name string
	data []byte
}

// NewMemFile creates a file with the given content.
func NewMemFile(name string, content []byte) *MemFile {
	data := make([]byte, len(content))
	copy(data, content)

	return &MemFile{name: name, data: data}
}

// Name returns the name of the file.
func (f *MemFile) Name() string {
	return f.name
}

// ReadAt reads from the file at the given offset. Reading at or past the end
// returns io.EOF.
func (f *MemFile) ReadAt(p []byte, off int64) (int, error) {
	f.Lock()
	defer f.Unlock()

	if off < 0 {
		return 0, fmt.Errorf("%s: negative offset %d", f.name, off)
	}

	if off >= int64(len(f.data)) {
		return 0, io.EOF
	}

	n := copy(p, f.data[off:])
	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

// WriteAt writes to the file at the given offset. Files do not grow; bytes
// past the end are dropped.
func (f *MemFile) WriteAt(p []byte, off int64) (int, error) {
	f.Lock()
	defer f.Unlock()

	if off < 0 {
		return 0, fmt.Errorf("%s: negative offset %d", f.name, off)
	}

	if off >= int64(len(f.data)) {
		return 0, nil
	}

	return copy(f.data[off:], p), nil
}

// Length returns the size of the file.
func (f *MemFile) Length() int64 {
	f.Lock()
	defer f.Unlock()

	return int64(len(f.data))
}

// Bytes returns a copy of the content of the file.
func (f *MemFile) Bytes() []byte {
	f.Lock()
	defer f.Unlock()

	data := make([]byte, len(f.data))
	copy(data, f.data)

	return data
}

// OSFile is a file of the host file system.
type OSFile struct {
	*os.File
}

// OpenOSFile opens a host file for reading and writing.
func OpenOSFile(path string) (*OSFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	return &OSFile{File: f}, nil
}

// Length returns the size of the file, or 0 if it cannot be determined.
func (f *OSFile) Length() int64 {
	info, err := f.Stat()
	if err != nil {
		return 0
	}

	return info.Size()
}
