package events

import (
	"context"
	"sync"
)

const defaultBuffer = 16

// Hub delivers events to in-process subscribers. A subscriber whose buffer
// is full misses the event instead of blocking the publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*subscription]struct{}
	buffer int
	drops  func()
}

type subscription struct {
	ch chan Event
}

// NewHub builds a hub whose subscriber channels hold buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{subs: map[*subscription]struct{}{}, buffer: buffer}
}

// OnDrop registers a callback invoked whenever a slow subscriber misses an event.
func (h *Hub) OnDrop(fn func()) {
	h.mu.Lock()
	h.drops = fn
	h.mu.Unlock()
}

// Subscribe returns the event channel and a cancel func that must be called
// when the consumer goes away.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	sub := &subscription{ch: make(chan Event, h.buffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, sub)
			h.mu.Unlock()
			close(sub.ch)
		})
	}
}

// Publish implements Publisher for local delivery.
func (h *Hub) Publish(_ context.Context, event Event) error {
	h.Deliver(event)
	return nil
}

// Deliver hands the event to every current subscriber without blocking.
func (h *Hub) Deliver(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		select {
		case sub.ch <- event:
		default:
			if h.drops != nil {
				h.drops()
			}
		}
	}
}

// Subscribers reports the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
