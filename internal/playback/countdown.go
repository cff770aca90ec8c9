package playback

import (
	"sync"
	"time"
)

// Timer is the handle of a scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. The default uses time.AfterFunc; tests
// substitute a manual scheduler.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Countdown owns at most one live timer. Arm replaces whatever was running
// and Cancel stops it; a callback that was already in flight when it got
// replaced is dropped.
type Countdown struct {
	mu        sync.Mutex
	scheduler Scheduler
	timer     Timer
	seq       uint64
}

func NewCountdown(scheduler Scheduler) *Countdown {
	if scheduler == nil {
		scheduler = realScheduler{}
	}
	return &Countdown{scheduler: scheduler}
}

func (c *Countdown) Arm(d time.Duration, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.seq++
	seq := c.seq
	c.timer = c.scheduler.AfterFunc(d, func() {
		c.mu.Lock()
		if c.seq != seq || c.timer == nil {
			c.mu.Unlock()
			return
		}
		c.timer = nil
		c.mu.Unlock()
		fn()
	})
}

func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.seq++
}

func (c *Countdown) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer != nil
}

func (c *Countdown) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
