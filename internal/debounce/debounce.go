// Package debounce provides a cancellable delayed-callback primitive used to
// coalesce bursts of input events into a single propagation.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs the most recently scheduled function once the interval has
// elapsed without another call to Debounce.
//
// Rearming stops the previous timer before the new one is created, so at most
// one timer per Debouncer is ever live. A generation counter guards against
// the runtime race where a timer fires while Stop is being requested: once
// Cancel or Debounce returns, the superseded callback never runs.
type Debouncer struct {
	mu        sync.Mutex
	scheduler Scheduler
	interval  time.Duration
	timer     Timer
	gen       uint64
}

// New creates a debouncer. A nil scheduler uses the system clock.
func New(interval time.Duration, scheduler Scheduler) *Debouncer {
	if scheduler == nil {
		scheduler = SystemScheduler{}
	}
	return &Debouncer{
		scheduler: scheduler,
		interval:  interval,
	}
}

// Interval reports the configured quiet period.
func (d *Debouncer) Interval() time.Duration {
	return d.interval
}

// Debounce cancels any pending call and schedules fn after the interval.
func (d *Debouncer) Debounce(fn func()) {
	if fn == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.gen++
	gen := d.gen
	d.timer = d.scheduler.AfterFunc(d.interval, func() {
		d.mu.Lock()
		if d.gen != gen || d.timer == nil {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()

		fn()
	})
}

// Cancel drops the pending call, if any. It reports whether a call was
// pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	pending := d.timer != nil
	d.stopLocked()
	d.gen++
	return pending
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Flush cancels the pending call and runs fn immediately.
func (d *Debouncer) Flush(fn func()) {
	d.Cancel()
	if fn != nil {
		fn()
	}
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
