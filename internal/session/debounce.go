package session

import (
	"sync"
	"time"
)

// DefaultDebounceInterval is the quiet period used when none is configured.
const DefaultDebounceInterval = 150 * time.Millisecond

// Debouncer coalesces bursts of values into a single callback.
//
// Each Notify restarts the quiet interval and replaces the pending value,
// so when the interval elapses the callback receives only the most recent
// one. At most one value is pending at a time.
//
// The callback runs on a timer goroutine, or on the goroutine calling
// Flush. It must not call back into the Debouncer while holding locks the
// caller of Notify might need.
type Debouncer[T any] struct {
	mu       sync.Mutex
	interval time.Duration
	fire     func(T)

	timer   *time.Timer
	value   T
	pending bool

	// seq identifies the current schedule. A timer that fired while Notify
	// or Cancel was replacing it sees a different seq and does nothing.
	seq uint64
}

// NewDebouncer returns a Debouncer calling fire after interval of quiet.
// A non-positive interval selects DefaultDebounceInterval.
func NewDebouncer[T any](interval time.Duration, fire func(T)) *Debouncer[T] {
	if interval <= 0 {
		interval = DefaultDebounceInterval
	}
	return &Debouncer[T]{interval: interval, fire: fire}
}

// Interval returns the quiet period.
func (d *Debouncer[T]) Interval() time.Duration {
	return d.interval
}

// Notify schedules v, replacing any pending value and restarting the
// quiet interval.
func (d *Debouncer[T]) Notify(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.value = v
	d.pending = true
	d.timer = time.AfterFunc(d.interval, func() {
		d.expire(seq)
	})
}

func (d *Debouncer[T]) expire(seq uint64) {
	v, ok := d.take(seq)
	if ok {
		d.fire(v)
	}
}

// take removes the pending value if seq is still current.
func (d *Debouncer[T]) take(seq uint64) (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var zero T
	if !d.pending || seq != d.seq {
		return zero, false
	}
	v := d.value
	d.value = zero
	d.pending = false
	d.timer = nil
	return v, true
}

// Cancel drops the pending value, if any. It reports whether one was dropped.
func (d *Debouncer[T]) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	was := d.pending
	var zero T
	d.value = zero
	d.pending = false
	return was
}

// Flush fires the pending value immediately on the calling goroutine.
// It reports whether there was a value to fire.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	v := d.value
	var zero T
	d.value = zero
	d.pending = false
	d.mu.Unlock()

	d.fire(v)
	return true
}

// Pending reports whether a value is waiting for the interval to elapse.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}
