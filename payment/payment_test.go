package payment

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"goflare.io/storefront/driver"
	"goflare.io/storefront/event"
	"goflare.io/storefront/models"
	"goflare.io/storefront/models/enum"
	"goflare.io/storefront/notification"
	"goflare.io/storefront/order"
	"goflare.io/storefront/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
		goleak.IgnoreTopFunction("github.com/golang/glog.(*fileSink).flushDaemon"),
	)
}

type fixture struct {
	orders        order.Service
	notifications notification.Service
	processor     *Processor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := driver.ConnectClover(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := zap.NewNop()
	bus := event.NewBus(logger)
	f := &fixture{
		orders:        order.NewService(order.NewRepository(store, logger), logger),
		notifications: notification.NewService(notification.NewRepository(storage.NewMemory(), logger), bus, logger),
	}
	f.processor = NewProcessor(f.orders, event.NewRepository(store, logger), f.notifications, logger)
	return f
}

func (f *fixture) placeOrder(t *testing.T, paymentIntentID string) *models.Order {
	t.Helper()
	ctx := context.Background()

	o, err := f.orders.Place(ctx, &models.Order{
		UserID: "u1",
		Items:  []models.LineItem{{ProductID: "A", Name: "Lamp", UnitPrice: 10, Quantity: 1}},
		Total:  10.8,
	})
	require.NoError(t, err)
	require.NoError(t, f.orders.AttachPayment(ctx, o.ID, paymentIntentID))
	return o
}

func stripeEvent(id string, typ stripe.EventType, object string) *stripe.Event {
	return &stripe.Event{
		ID:   id,
		Type: typ,
		Data: &stripe.EventData{Raw: json.RawMessage(object)},
	}
}

func TestPaymentSucceededMarksOrderPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.placeOrder(t, "pi_1")

	evt := stripeEvent("evt_1", stripe.EventTypePaymentIntentSucceeded, `{"id":"pi_1","object":"payment_intent"}`)
	require.NoError(t, f.processor.ProcessEvent(ctx, evt))

	got, err := f.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusPaid, got.Status)

	notifications, err := f.notifications.List(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Payment Received", notifications[0].Title)
	assert.Contains(t, notifications[0].Message, o.OrderNumber)
}

func TestRedeliveredEventIsIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.placeOrder(t, "pi_1")

	evt := stripeEvent("evt_1", stripe.EventTypePaymentIntentSucceeded, `{"id":"pi_1"}`)
	require.NoError(t, f.processor.ProcessEvent(ctx, evt))

	// an admin moves the order on; a replay must not drag it back
	require.NoError(t, f.orders.UpdateStatus(ctx, o.ID, enum.OrderStatusShipped))
	require.NoError(t, f.processor.ProcessEvent(ctx, evt))

	got, err := f.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusShipped, got.Status)

	notifications, err := f.notifications.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, notifications, 6)
}

func TestPaymentFailedAndCanceled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	failed := f.placeOrder(t, "pi_f")
	canceled := f.placeOrder(t, "pi_c")

	require.NoError(t, f.processor.ProcessEvent(ctx,
		stripeEvent("evt_f", stripe.EventTypePaymentIntentPaymentFailed, `{"id":"pi_f"}`)))
	require.NoError(t, f.processor.ProcessEvent(ctx,
		stripeEvent("evt_c", stripe.EventTypePaymentIntentCanceled, `{"id":"pi_c"}`)))

	got, err := f.orders.Get(ctx, failed.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusFailed, got.Status)

	got, err = f.orders.Get(ctx, canceled.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusCancelled, got.Status)
}

func TestChargeRefunded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.placeOrder(t, "pi_r")

	require.NoError(t, f.processor.ProcessEvent(ctx,
		stripeEvent("evt_paid", stripe.EventTypePaymentIntentSucceeded, `{"id":"pi_r"}`)))

	// partial refunds leave the order alone
	require.NoError(t, f.processor.ProcessEvent(ctx,
		stripeEvent("evt_partial", stripe.EventTypeChargeRefunded, `{"id":"ch_1","payment_intent":"pi_r","refunded":false,"amount_refunded":100}`)))
	got, err := f.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusPaid, got.Status)

	require.NoError(t, f.processor.ProcessEvent(ctx,
		stripeEvent("evt_full", stripe.EventTypeChargeRefunded, `{"id":"ch_1","payment_intent":"pi_r","refunded":true,"amount_refunded":1080}`)))
	got, err = f.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusRefunded, got.Status)
}

func TestUnknownEventType(t *testing.T) {
	f := newFixture(t)
	err := f.processor.ProcessEvent(context.Background(),
		stripeEvent("evt_x", stripe.EventTypeCustomerCreated, `{}`))
	require.ErrorIs(t, err, ErrUnhandledEvent)
}

func TestSimulatedCharger(t *testing.T) {
	c := NewSimulatedCharger(time.Millisecond, zap.NewNop())

	charge, err := c.Charge(context.Background(), ChargeRequest{OrderID: "o1", Amount: 27})
	require.NoError(t, err)
	assert.Regexp(t, `^pi_sim_`, charge.PaymentIntentID)
	assert.Equal(t, stripe.PaymentIntentStatusSucceeded, charge.Status)

	c.Decline = true
	_, err = c.Charge(context.Background(), ChargeRequest{OrderID: "o1", Amount: 27})
	require.ErrorIs(t, err, ErrChargeDeclined)

	slow := NewSimulatedCharger(time.Hour, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = slow.Charge(ctx, ChargeRequest{OrderID: "o1"})
	require.ErrorIs(t, err, context.Canceled)
}

type recordingProcessor struct {
	mu  sync.Mutex
	ids []string
}

func (p *recordingProcessor) ProcessEvent(_ context.Context, evt *stripe.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(p.ids, evt.ID)
	return nil
}

func TestWorkerPoolDrainsOnShutdown(t *testing.T) {
	processor := &recordingProcessor{}
	wp := NewWorkerPool(context.Background(), 3, 16, processor, zap.NewNop())

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		wp.Submit(&stripe.Event{ID: id})
	}
	wp.Shutdown()
	wp.Shutdown()

	assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e"}, processor.ids)
}

func TestWorkerPoolDropsEventsAfterShutdown(t *testing.T) {
	processor := &recordingProcessor{}
	wp := NewWorkerPool(context.Background(), 2, 4, processor, zap.NewNop())

	assert.True(t, wp.Submit(&stripe.Event{ID: "before"}))
	wp.Shutdown()

	assert.NotPanics(t, func() {
		assert.False(t, wp.Submit(&stripe.Event{ID: "after"}))
	})
	assert.Equal(t, []string{"before"}, processor.ids)
}

func TestEventManagerAfterPoolShutdown(t *testing.T) {
	processor := &recordingProcessor{}
	wp := NewWorkerPool(context.Background(), 1, 4, processor, zap.NewNop())

	sub := &captureSubscriber{}
	_, err := NewEventManager(sub, zap.NewNop()).SubscribeToEvents(wp)
	require.NoError(t, err)
	wp.Shutdown()

	// a message delivered while the subscription is still draining
	assert.NotPanics(t, func() {
		sub.handler(&nats.Msg{Data: []byte(`{"id":"evt_late","type":"payment_intent.succeeded"}`)})
	})
	assert.Empty(t, processor.ids)
}

type captureSubscriber struct {
	subject string
	handler nats.MsgHandler
}

func (s *captureSubscriber) Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error) {
	s.subject = subj
	s.handler = cb
	return nil, nil
}

func TestEventManagerDecodesAndSubmits(t *testing.T) {
	processor := &recordingProcessor{}
	wp := NewWorkerPool(context.Background(), 1, 4, processor, zap.NewNop())

	sub := &captureSubscriber{}
	_, err := NewEventManager(sub, zap.NewNop()).SubscribeToEvents(wp)
	require.NoError(t, err)
	assert.Equal(t, EventSubject, sub.subject)

	sub.handler(&nats.Msg{Data: []byte(`{"id":"evt_9","type":"payment_intent.succeeded","data":{"object":{"id":"pi_9"}}}`)})
	sub.handler(&nats.Msg{Data: []byte(`not json`)})
	wp.Shutdown()

	assert.Equal(t, []string{"evt_9"}, processor.ids)
}
