package storage

import (
	"sync"

	"launchpad/internal/model"
)

// EventSink receives registry events in sequence order.
type EventSink interface {
	PutEventBatch(events []model.EventRecord) error
}

// EventSource replays previously stored events.
type EventSource interface {
	ReadEvents(fromSeq uint64) ([]model.EventRecord, error)
}

// EventBuffer holds events until Flush hands them to the wrapped sink, so
// events reach the log only once the state that produced them is saved.
type EventBuffer struct {
	mu     sync.Mutex
	next   EventSink
	events []model.EventRecord
}

// NewEventBuffer holds events until Flush hands them to next.
func NewEventBuffer(next EventSink) *EventBuffer {
	return &EventBuffer{next: next}
}

// PutEventBatch queues events without writing them.
func (b *EventBuffer) PutEventBatch(events []model.EventRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, events...)
	return nil
}

// Pending returns how many events are waiting to be flushed.
func (b *EventBuffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

// Flush writes buffered events to the wrapped sink as one batch. On error the
// events stay buffered.
func (b *EventBuffer) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) == 0 {
		return nil
	}
	if err := b.next.PutEventBatch(b.events); err != nil {
		return err
	}
	b.events = nil
	return nil
}

// Discard drops buffered events.
func (b *EventBuffer) Discard() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}
