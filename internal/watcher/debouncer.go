package watcher

import (
	"context"
	"time"
)

// Debouncer groups rapid file changes together. Every event re-arms the
// timer; a batch is flushed only once no event has arrived for the whole
// delay. Flushes run on the Run goroutine, so events that arrive while a
// flush is in progress wait for it and then start a new window.
type Debouncer struct {
	delay  time.Duration
	events chan ChangeEvent
}

// NewDebouncer creates a debouncer with the given quiet window and queue size.
func NewDebouncer(delay time.Duration, buffer int) *Debouncer {
	if buffer <= 0 {
		buffer = 1
	}
	return &Debouncer{
		delay:  delay,
		events: make(chan ChangeEvent, buffer),
	}
}

// Delay returns the quiet window.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Add queues an event without blocking. It reports false when the queue is
// full; a batch is already pending in that case, so the change is still
// picked up by the next flush.
func (d *Debouncer) Add(event ChangeEvent) bool {
	select {
	case d.events <- event:
		return true
	default:
		return false
	}
}

// Run consumes events until ctx is done, calling flush with each debounced
// batch. Pending events are discarded on shutdown.
func (d *Debouncer) Run(ctx context.Context, flush func([]ChangeEvent)) {
	timer := time.NewTimer(d.delay)
	timer.Stop()
	defer timer.Stop()

	var pending []ChangeEvent

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-d.events:
			pending = append(pending, event)
			timer.Reset(d.delay)
		case <-timer.C:
			if ctx.Err() != nil {
				return
			}
			batch := dedupe(pending)
			pending = nil
			if len(batch) > 0 {
				flush(batch)
			}
		}
	}
}

// dedupe keeps the latest event per path, in order of first appearance.
func dedupe(events []ChangeEvent) []ChangeEvent {
	index := make(map[string]int, len(events))
	out := make([]ChangeEvent, 0, len(events))
	for _, event := range events {
		if i, ok := index[event.Path]; ok {
			out[i] = event
			continue
		}
		index[event.Path] = len(out)
		out = append(out, event)
	}
	return out
}
