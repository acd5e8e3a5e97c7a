package filter

import (
	"sync"
	"time"

	"github.com/corvidsec/eventsleuth/record"
)

// Debouncer delays calling fn until Trigger has been idle for
// DebounceInterval. It is a coordinator-side helper for text-input
// filter fields (spec.md §4.4); checkboxes, buttons, and numeric
// inputs should call fn directly instead of going through a Debouncer.
type Debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	fn    func()
}

// NewDebouncer returns a Debouncer that invokes fn after each Trigger
// call has gone unrepeated for record.DebounceInterval.
func NewDebouncer(fn func()) *Debouncer {
	return &Debouncer{fn: fn}
}

// Trigger (re)starts the idle timer. Safe for concurrent use.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(record.DebounceInterval, d.fn)
}

// Stop cancels any pending invocation.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
