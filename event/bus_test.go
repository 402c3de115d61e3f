package event

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
		goleak.IgnoreTopFunction("github.com/golang/glog.(*fileSink).flushDaemon"),
	)
}

func TestBusDeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var got []string
	bus.Subscribe(TopicCartUpdated, func(_ context.Context, c Change) { got = append(got, "first:"+c.Key) })
	bus.Subscribe(TopicCartUpdated, func(_ context.Context, c Change) { got = append(got, "second:"+c.Key) })
	bus.Subscribe(TopicWishlistUpdated, func(_ context.Context, c Change) { got = append(got, "wishlist") })

	bus.Publish(context.Background(), Change{Topic: TopicCartUpdated, Key: "cart"})

	assert.Equal(t, []string{"first:cart", "second:cart"}, got)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus(zap.NewNop())

	calls := 0
	unsubscribe := bus.Subscribe(TopicCartUpdated, func(context.Context, Change) { calls++ })
	bus.Publish(context.Background(), Change{Topic: TopicCartUpdated})
	unsubscribe()
	unsubscribe()
	bus.Publish(context.Background(), Change{Topic: TopicCartUpdated})

	assert.Equal(t, 1, calls)
	assert.Zero(t, bus.Subscribers(TopicCartUpdated))
}

func TestBusRecoversPanickingHandler(t *testing.T) {
	bus := NewBus(zap.NewNop())

	reached := false
	bus.Subscribe(TopicCartUpdated, func(context.Context, Change) { panic("boom") })
	bus.Subscribe(TopicCartUpdated, func(context.Context, Change) { reached = true })

	require.NotPanics(t, func() {
		bus.Publish(context.Background(), Change{Topic: TopicCartUpdated})
	})
	assert.True(t, reached)
}

func TestBusPublishWithoutSubscribers(t *testing.T) {
	bus := NewBus(zap.NewNop())
	require.NotPanics(t, func() {
		bus.Publish(context.Background(), Change{Topic: TopicNotificationsUpdated})
	})
}

func TestBusConcurrentPublish(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var mu sync.Mutex
	count := 0
	bus.Subscribe(TopicCartUpdated, func(context.Context, Change) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish(context.Background(), Change{Topic: TopicCartUpdated})
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, count)
}
