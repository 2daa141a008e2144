package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"wildcafe-pos/internal/logger"
)

const subscriberBuffer = 16

type subscriber struct {
	id     string
	topics map[Topic]struct{}
	ch     chan Event
}

// Bus is the in-process publish/subscribe hub every UI surface listens on.
type Bus struct {
	mu      sync.RWMutex
	clients map[string]*subscriber
	log     *logger.Logger
}

func NewBus(log *logger.Logger) *Bus {
	return &Bus{clients: make(map[string]*subscriber), log: log}
}

// Subscribe registers for the given topics (all topics when none are given).
// The channel is closed once ctx is done.
func (b *Bus) Subscribe(ctx context.Context, topics ...Topic) <-chan Event {
	if len(topics) == 0 {
		topics = AllTopics
	}
	sub := &subscriber{
		id:     uuid.NewString(),
		topics: make(map[Topic]struct{}, len(topics)),
		ch:     make(chan Event, subscriberBuffer),
	}
	for _, t := range topics {
		sub.topics[t] = struct{}{}
	}

	b.mu.Lock()
	b.clients[sub.id] = sub
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.remove(sub.id)
	}()
	return sub.ch
}

// Publish delivers ev to every matching subscriber without blocking.
// A subscriber whose buffer is full misses the event.
func (b *Bus) Publish(_ context.Context, ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for _, sub := range b.clients {
		if _, ok := sub.topics[ev.Topic]; !ok {
			continue
		}
		select {
		case sub.ch <- ev:
			delivered++
		default:
			b.log.Warn("EVENTS", fmt.Sprintf("subscriber %s is slow, dropped %s", sub.id, ev.Topic))
		}
	}
	b.log.LogEvent("publish", string(ev.Topic), fmt.Sprintf("delivered to %d subscribers", delivered))
}

func (b *Bus) remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.clients[id]; ok {
		delete(b.clients, id)
		close(sub.ch)
	}
}

// ClientCount returns the number of live subscribers.
func (b *Bus) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
