package filesys

import "sync"

// A Lock serializes file system operations. It is reentrant for its holder,
// so that a holder that already owns the lock for a file operation can fault
// in or write back file pages without deadlocking.
//
// Holders identify themselves explicitly. Any comparable value works; the
// virtual memory core uses the process ID.
type Lock struct {
	mu     sync.Mutex
	cond   *sync.Cond
	holder any
	depth  int
}

// NewLock creates an unlocked Lock.
func NewLock() *Lock {
	l := &Lock{}
	l.cond = sync.NewCond(&l.mu)

	return l
}

// Acquire takes the lock for holder, waiting if another holder owns it.
func (l *Lock) Acquire(holder any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for l.depth > 0 && l.holder != holder {
		l.cond.Wait()
	}

	l.holder = holder
	l.depth++
}

// Release gives back one level of the lock. Releasing a lock the holder does
// not own panics.
func (l *Lock) Release(holder any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.depth == 0 || l.holder != holder {
		panic("filesys: releasing a lock that is not held")
	}

	l.depth--
	if l.depth == 0 {
		l.holder = nil
		l.cond.Broadcast()
	}
}

// HeldBy tells if holder owns the lock.
func (l *Lock) HeldBy(holder any) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.depth > 0 && l.holder == holder
}
