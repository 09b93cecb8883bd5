package autosave

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of signals into a single callback after a
// quiet period. Each Schedule call supplies its own delay, so one
// debouncer serves both the idle window and backoff retries.
//
// All methods are safe for concurrent use. The callback never runs
// concurrently with itself from the debouncer.
type Debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	seq   uint64 // invalidates stale timer callbacks
	fn    func()
}

// NewDebouncer creates a debouncer that invokes fn when a scheduled
// quiet period elapses without another Schedule call.
func NewDebouncer(fn func()) *Debouncer {
	return &Debouncer{fn: fn}
}

// Schedule arms the callback to fire after delay. A pending schedule is
// replaced, so only the last call's timing counts.
func (d *Debouncer) Schedule(delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	current := d.seq

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(delay, func() {
		d.mu.Lock()
		if d.seq != current {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		d.fn()
	})
}

// Cancel drops any pending schedule.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
}

// Pending reports whether a schedule is armed.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
