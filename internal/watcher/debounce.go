package watcher

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid-fire events for the same path into a single
// emission once the path has been quiet for window (spec §4.F: "each path
// has a pending timer; new events reset the timer"). The event captured by
// the most recent Add call is the one that fires, giving last-write-wins
// semantics per path ahead of the stored-key dedup a Queue applies downstream.
type Debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	timers  map[string]*time.Timer
	out     chan FileEvent
	stopped bool
}

// NewDebouncer builds a Debouncer with the given settle window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window: window,
		timers: make(map[string]*time.Timer),
		out:    make(chan FileEvent, 256),
	}
}

// Add resets evt.Path's pending timer, replacing whatever event was
// previously scheduled to fire for that path.
func (d *Debouncer) Add(evt FileEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if t, ok := d.timers[evt.Path]; ok {
		t.Stop()
	}
	d.timers[evt.Path] = time.AfterFunc(d.window, func() { d.fire(evt) })
}

func (d *Debouncer) fire(evt FileEvent) {
	d.mu.Lock()
	delete(d.timers, evt.Path)
	stopped := d.stopped
	d.mu.Unlock()
	if stopped {
		return
	}
	d.out <- evt
}

// Output returns the channel of debounced events. Closed after Stop.
func (d *Debouncer) Output() <-chan FileEvent { return d.out }

// Stop cancels every pending timer and closes Output.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.stopped = true
	for _, t := range d.timers {
		t.Stop()
	}
	close(d.out)
}
