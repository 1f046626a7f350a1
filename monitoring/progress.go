package monitoring

import (
	"sync"
	"time"
)

// A ProgressBar counts the memory accesses a workload has issued against the
// manager. The dashboard polls the bars through /api/progress. Total is the
// number of accesses all processes will issue. An access is in progress
// while it may still fault, and finished once the load or store returns.
type ProgressBar struct {
	sync.Mutex
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

// IncrementInProgress marks accesses as issued but not yet returned.
func (b *ProgressBar) IncrementInProgress(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress += amount
}

// IncrementFinished counts accesses that returned without being tracked as
// in progress.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

// MoveInProgressToFinished counts in-progress accesses as returned.
func (b *ProgressBar) MoveInProgressToFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress -= amount
	b.Finished += amount
}
