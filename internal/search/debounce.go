package search

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period before a typed query is issued.
const DefaultDebounce = 300 * time.Millisecond

// State is the debouncer state.
type State int

const (
	StateIdle State = iota
	StatePending
)

func (s State) String() string {
	if s == StatePending {
		return "pending"
	}
	return "idle"
}

// Debouncer coalesces bursts of input into one call of fire after a quiet period.
//
//	idle    --input-->  pending(timer, text)
//	pending --input-->  pending(new timer, new text)   old timer cancelled
//	pending --fire--->  idle                           fire(text)
//	any     --commit->  idle                           fire(text) now, pending dropped
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	fire    func(string)
	timer   *time.Timer
	latest  string
	gen     uint64
	stopped bool
}

// NewDebouncer creates a debouncer calling fire after delay of inactivity.
func NewDebouncer(delay time.Duration, fire func(string)) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay, fire: fire}
}

// Input records text as the latest pending query and restarts the quiet period.
func (d *Debouncer) Input(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.cancelLocked()
	d.latest = text
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.onTimer(gen) })
}

// Commit drops any pending query and fires text immediately.
func (d *Debouncer) Commit(text string) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.cancelLocked()
	d.mu.Unlock()
	d.fire(text)
}

// State reports whether a query is waiting for its quiet period.
func (d *Debouncer) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		return StatePending
	}
	return StateIdle
}

// Stop cancels the pending query; later input is ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.stopped = true
}

func (d *Debouncer) cancelLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	// a timer that already fired but has not taken the lock yet sees a newer gen
	d.gen++
}

func (d *Debouncer) onTimer(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	text := d.latest
	d.timer = nil
	d.mu.Unlock()
	d.fire(text)
}
