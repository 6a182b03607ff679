// Package broadcast fans committed records out to live subscribers.
//
// Delivery is at-most-once without replay: a subscriber only sees records
// published while it is subscribed, and a subscriber whose buffer is full
// misses the record instead of stalling the publisher.
package broadcast

import (
	"sync"

	"github.com/rzbill/calclog/internal/logstore"
	"github.com/rzbill/calclog/internal/metrics"
)

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 64

// Hub holds the current subscriber set.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
	closed bool

	metrics *metrics.Metrics
}

// NewHub creates a Hub. A non-positive buffer selects DefaultBuffer. m may be nil.
func NewHub(buffer int, m *metrics.Metrics) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{subs: make(map[*Subscription]struct{}), buffer: buffer, metrics: m}
}

// Subscription is one observer's feed.
type Subscription struct {
	hub  *Hub
	ch   chan logstore.Record
	once sync.Once
}

// C yields published records. It is closed when the subscription ends.
func (s *Subscription) C() <-chan logstore.Record { return s.ch }

// Close unsubscribes. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		if _, ok := h.subs[s]; ok {
			delete(h.subs, s)
			close(s.ch)
			h.metrics.ObserverAdded(-1)
		}
		h.mu.Unlock()
	})
}

// Subscribe registers a new subscriber. After Close the returned
// subscription's channel is already closed.
func (h *Hub) Subscribe() *Subscription {
	s := &Subscription{hub: h, ch: make(chan logstore.Record, h.buffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(s.ch)
		s.once.Do(func() {})
		return s
	}
	h.subs[s] = struct{}{}
	h.metrics.ObserverAdded(1)
	return s
}

// Publish offers rec to every current subscriber without blocking.
func (h *Hub) Publish(rec logstore.Record) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		select {
		case s.ch <- rec:
			h.metrics.DeliverySent()
		default:
			h.metrics.DeliveryDropped()
		}
	}
}

// Len returns the number of current subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for s := range h.subs {
		delete(h.subs, s)
		close(s.ch)
		h.metrics.ObserverAdded(-1)
	}
}
