package event

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

const subscriberBuffer = 100

// InMemoryBus fans events out to every subscriber without blocking the
// publisher. A subscriber whose buffer is full misses the event.
type InMemoryBus struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event
	dropped     func(Event)
	closed      bool
}

func NewBus() *InMemoryBus {
	return &InMemoryBus{
		subscribers: make(map[string]chan Event),
	}
}

// OnDrop installs a hook called for every event a full subscriber missed.
func (b *InMemoryBus) OnDrop(hook func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dropped = hook
}

func (b *InMemoryBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
			slog.Warn("event dropped", "type", e.Type, "session_id", e.SessionID)
			if b.dropped != nil {
				b.dropped(e)
			}
		}
	}
}

// Subscribe returns a channel of future events and a func that detaches it.
// After Close the channel comes back already closed.
func (b *InMemoryBus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := uuid.NewString()
	b.subscribers[id] = ch

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.subscribers[id]; ok {
			close(existing)
			delete(b.subscribers, id)
		}
	}

	return ch, unsubscribe
}

// Close detaches every subscriber, closing its channel. Later publishes are
// discarded.
func (b *InMemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
