package watcher

import (
	"sort"
	"sync"
	"time"
)

// Debouncer collapses bursts of events per path and hands them over in one
// batch once the window passes quietly or the batch is full.
type Debouncer struct {
	window   time.Duration
	maxBatch int
	onFlush  func([]FileEvent)

	mu      sync.Mutex
	pending map[string]FileEvent
	timer   *time.Timer
	// gen invalidates timers that fired after a newer event rearmed them.
	gen     uint64
	stopped bool
}

func NewDebouncer(window time.Duration, maxBatch int, onFlush func([]FileEvent)) *Debouncer {
	return &Debouncer{
		window:   window,
		maxBatch: maxBatch,
		onFlush:  onFlush,
		pending:  make(map[string]FileEvent),
	}
}

func (d *Debouncer) Add(event FileEvent) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}

	if prev, ok := d.pending[event.Path]; ok {
		event = merge(prev, event)
	}
	d.pending[event.Path] = event

	if len(d.pending) >= d.maxBatch {
		batch := d.takeLocked()
		d.mu.Unlock()
		d.emit(batch)
		return
	}

	d.rearmLocked()
	d.mu.Unlock()
}

func (d *Debouncer) rearmLocked() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		if d.stopped || gen != d.gen {
			d.mu.Unlock()
			return
		}
		batch := d.takeLocked()
		d.mu.Unlock()
		d.emit(batch)
	})
}

// takeLocked empties the buffer and returns its events in path order.
func (d *Debouncer) takeLocked() []FileEvent {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++

	batch := make([]FileEvent, 0, len(d.pending))
	for _, event := range d.pending {
		batch = append(batch, event)
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })

	d.pending = make(map[string]FileEvent)
	return batch
}

func (d *Debouncer) emit(batch []FileEvent) {
	if len(batch) > 0 && d.onFlush != nil {
		d.onFlush(batch)
	}
}

// Pending returns the number of buffered paths.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Stop flushes what is buffered and drops later events.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	batch := d.takeLocked()
	d.stopped = true
	d.mu.Unlock()

	d.emit(batch)
}
