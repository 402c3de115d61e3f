// Package event carries storefront change notifications between components
// and records which external payment events have already been handled.
package event

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Topic names a broadcast channel.
type Topic string

const (
	TopicCartUpdated          Topic = "cartUpdated"
	TopicWishlistUpdated      Topic = "wishlistUpdated"
	TopicNotificationsUpdated Topic = "notificationsUpdated"
)

// Change tells subscribers that the collection stored under Key was rewritten.
// Subscribers re-read storage; the change carries no payload.
type Change struct {
	Topic  Topic
	Key    string
	Origin string
	At     time.Time
}

type Handler func(ctx context.Context, change Change)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is an in-process fire-and-forget broadcaster. Handlers run on the
// publishing goroutine in subscription order.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[Topic][]subscription
	logger *zap.Logger
}

func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		subs:   make(map[Topic][]subscription),
		logger: logger,
	}
}

// Subscribe registers handler for topic and returns a func that removes it.
// Calling the returned func more than once is harmless.
func (b *Bus) Subscribe(topic Topic, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs := b.subs[topic]
		for i, s := range subs {
			if s.id == id {
				b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers change to every current subscriber of change.Topic.
func (b *Bus) Publish(ctx context.Context, change Change) {
	if change.At.IsZero() {
		change.At = time.Now()
	}

	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[change.Topic]...)
	b.mu.RUnlock()

	for _, s := range subs {
		b.dispatch(ctx, s, change)
	}
}

// Subscribers reports how many handlers are registered for topic.
func (b *Bus) Subscribers(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

func (b *Bus) dispatch(ctx context.Context, s subscription, change Change) {
	defer func() {
		if p := recover(); p != nil {
			b.logger.Error("Change handler panicked",
				zap.String("topic", string(change.Topic)),
				zap.String("key", change.Key),
				zap.Any("panic", p),
			)
		}
	}()
	s.handler(ctx, change)
}
