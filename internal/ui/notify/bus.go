package notify

import (
	"maps"
	"slices"
	"sync"
)

// Topic names the entity whose lists should refresh.
type Topic string

const (
	TopicUsers  Topic = "users"
	TopicOrders Topic = "orders"
)

// Bus broadcasts refresh events to subscribed list views. Handlers run
// synchronously in subscription order.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[Topic]map[int]func()
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Topic]map[int]func())}
}

// Subscribe registers fn for topic and returns a function that removes it.
func (b *Bus) Subscribe(topic Topic, fn func()) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]func())
	}
	id := b.nextID
	b.nextID++
	b.subs[topic][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[topic], id)
		})
	}
}

// Publish calls every handler subscribed to topic. A nil Bus is a no-op.
func (b *Bus) Publish(topic Topic) {
	if b == nil {
		return
	}

	b.mu.RLock()
	ids := slices.Sorted(maps.Keys(b.subs[topic]))
	handlers := make([]func(), 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, b.subs[topic][id])
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn()
	}
}
