package sim

import (
	"sync/atomic"
	"time"
)

// VTimeInSec is a time in seconds since a reference point.
type VTimeInSec float64

// TimeTeller can tell the current time.
type TimeTeller interface {
	CurrentTime() VTimeInSec
}

// A WallClock tells the wall-clock time elapsed since it was created.
type WallClock struct {
	start time.Time
}

// NewWallClock creates a WallClock that starts now.
func NewWallClock() *WallClock {
	return &WallClock{start: time.Now()}
}

// CurrentTime returns the seconds elapsed since the clock was created.
func (c *WallClock) CurrentTime() VTimeInSec {
	return VTimeInSec(time.Since(c.start).Seconds())
}

// A StepClock advances by one unit every time it is read. It gives traces
// that do not depend on the speed of the host.
type StepClock struct {
	steps atomic.Uint64
}

// CurrentTime returns the number of times the clock has been read before.
func (c *StepClock) CurrentTime() VTimeInSec {
	return VTimeInSec(c.steps.Add(1) - 1)
}
