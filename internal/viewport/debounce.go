package viewport

import (
	"sync"
	"time"
)

// Debouncer coalesces a burst of camera changes into one trailing call. Only
// the latest state is delivered.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func(State)
	timer   *time.Timer
	pending *State
	stopped bool
}

// NewDebouncer creates a debouncer that calls fn delay after the last Trigger.
func NewDebouncer(delay time.Duration, fn func(State)) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger records s and restarts the trailing window.
func (d *Debouncer) Trigger(s State) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending = &s
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

// SetDelay changes the trailing window for later triggers.
func (d *Debouncer) SetDelay(delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delay = delay
}

// Delay returns the trailing window.
func (d *Debouncer) Delay() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.delay
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Flush delivers a pending state immediately.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	d.fire()
}

// Stop cancels any pending call and ignores later triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	s := d.pending
	d.pending = nil
	d.mu.Unlock()
	if s != nil {
		d.fn(*s)
	}
}
