package services

import (
	"sync"
	"time"
)

// publishThrottle paces the expensive sort-and-publish pass under bursty
// streaming. Small result sets sort immediately; past the threshold each
// batch schedules the pass after a delay growing linearly with the number
// of batches seen, capped at a maximum. A newly scheduled pass replaces
// any outstanding one, so only the latest schedule fires.
type publishThrottle struct {
	immediateBelow int
	step           time.Duration
	maxDelay       time.Duration

	mu      sync.Mutex
	batches int
	timer   *time.Timer
}

func newPublishThrottle(immediateBelow int, step, maxDelay time.Duration) *publishThrottle {
	return &publishThrottle{
		immediateBelow: immediateBelow,
		step:           step,
		maxDelay:       maxDelay,
	}
}

// schedule arranges for fire to run after the current batch. resultCount
// is the visible list size including the batch. For small result sets no
// timer is armed and the caller runs the pass itself: schedule returns
// true. Otherwise fire runs on a timer goroutine and must do its own
// locking.
func (t *publishThrottle) schedule(resultCount int, fire func()) (runNow bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.batches++
	t.stopLocked()

	if resultCount < t.immediateBelow {
		return true
	}

	delay := time.Duration(t.batches) * t.step
	if delay > t.maxDelay {
		delay = t.maxDelay
	}
	t.timer = time.AfterFunc(delay, fire)
	return false
}

// cancel drops any outstanding scheduled pass without firing it.
func (t *publishThrottle) cancel() {
	t.mu.Lock()
	t.stopLocked()
	t.mu.Unlock()
}

// batchesSeen returns how many batches have been scheduled.
func (t *publishThrottle) batchesSeen() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.batches
}

func (t *publishThrottle) stopLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
