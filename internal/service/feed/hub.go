package feed

import (
	"log"
	"sync"

	"github.com/researchloop/outreach/backend/internal/model/engagement"
)

const subscriberBuffer = 32

// Hub fans engagement notifications out to live subscribers. Publish never
// blocks; a subscriber whose buffer is full is disconnected.
type Hub struct {
	mu   sync.Mutex
	subs map[chan engagement.Notification]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan engagement.Notification]struct{})}
}

// Subscribe registers a subscriber. The returned cancel func is idempotent.
func (h *Hub) Subscribe() (<-chan engagement.Notification, func()) {
	ch := make(chan engagement.Notification, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
	}
}

// Publish implements engagement.Publisher.
func (h *Hub) Publish(n engagement.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- n:
		default:
			log.Printf("[feed] dropping slow subscriber")
			delete(h.subs, ch)
			close(ch)
		}
	}
}

// Subscribers reports the number of live subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
