package events

import (
	"sync"
	"sync/atomic"
)

const subscriberBuffer = 16

// Hub fans events out to admin stream subscribers. A subscriber whose buffer
// is full misses the event; Dropped counts those misses.
type Hub struct {
	seq     atomic.Uint64
	dropped atomic.Uint64

	mu      sync.Mutex
	clients map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan Event]struct{})}
}

func (h *Hub) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe closes the subscription. Calling it twice is harmless.
func (h *Hub) Unsubscribe(sub <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		if (<-chan Event)(ch) == sub {
			delete(h.clients, ch)
			close(ch)
			return
		}
	}
}

// Publish stamps e with the next sequence number and delivers it.
// It returns the stamped event.
func (h *Hub) Publish(e Event) Event {
	e.Seq = h.seq.Add(1)

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- e:
		default:
			h.dropped.Add(1)
		}
	}
	return e
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Dropped() uint64 { return h.dropped.Load() }
