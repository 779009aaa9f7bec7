// Package debounce delays a call until its input has been quiet for a fixed
// window.
package debounce

import (
	"sync"
	"time"
)

// Timer is a pending scheduled call.
type Timer interface {
	// Stop prevents the call from running. It reports whether the call was
	// still pending.
	Stop() bool
}

// Scheduler runs fn once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Real schedules with time.AfterFunc.
var Real Scheduler = realScheduler{}

// Debouncer holds at most one outstanding timer. Each Debounce call cancels
// and replaces the previous one, so only the last call in a burst runs.
type Debouncer struct {
	mu       sync.Mutex
	sched    Scheduler
	timer    Timer
	gen      uint64
	duration time.Duration
}

// New creates a debouncer with the given quiet window. A nil scheduler uses
// Real.
func New(duration time.Duration, sched Scheduler) *Debouncer {
	if sched == nil {
		sched = Real
	}
	return &Debouncer{sched: sched, duration: duration}
}

// Debounce runs fn after the quiet window unless Debounce or Cancel is
// called again first.
func (d *Debouncer) Debounce(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.sched.AfterFunc(d.duration, func() {
		// A timer that fired while being replaced must not run.
		d.mu.Lock()
		if d.gen != gen {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		fn()
	})
}

// Cancel drops any pending call.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Pending reports whether a call is waiting to run.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
