package vmm

import (
	"errors"

	"github.com/sarchlab/vmcore/filesys"
)

// Errors reported to the caller. None of them leaves partial state behind.
var (
	ErrBadDescriptor  = filesys.ErrBadDescriptor
	ErrAlreadyMapped  = errors.New("file is already mapped")
	ErrEmptyFile      = errors.New("cannot map an empty file")
	ErrMisaligned     = errors.New("address is not page aligned")
	ErrInvalidAddress = errors.New("address is not in user space")
	ErrStackCollision = errors.New("range reaches the stack region")
	ErrOverlap        = errors.New("range overlaps existing pages")
	ErrNotShareable   = errors.New("page cannot be shared")
	ErrInvalidLength  = errors.New("length is negative")
)

// ErrKilled is returned by user accesses that raise a fault the kernel cannot
// resolve. The process must be terminated.
var ErrKilled = errors.New("process killed by unresolvable page fault")
