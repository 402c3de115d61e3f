package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"goflare.io/storefront/event"
	"goflare.io/storefront/models"
	"goflare.io/storefront/models/enum"
	"goflare.io/storefront/notification"
	"goflare.io/storefront/order"
)

var ErrUnhandledEvent = errors.New("no handler registered for event type")

type EventHandler func(context.Context, *stripe.Event) error

var _ EventProcessor = (*Processor)(nil)

// Processor applies provider events to orders exactly once per event id.
type Processor struct {
	orders        order.Service
	events        event.Repository
	notifications notification.Service
	handlers      map[stripe.EventType]EventHandler
	logger        *zap.Logger
}

func NewProcessor(orders order.Service, events event.Repository, notifications notification.Service, logger *zap.Logger) *Processor {
	p := &Processor{
		orders:        orders,
		events:        events,
		notifications: notifications,
		handlers:      make(map[stripe.EventType]EventHandler),
		logger:        logger,
	}
	p.registerEventHandlers()
	return p
}

func (p *Processor) RegisterHandler(eventType stripe.EventType, handler EventHandler) {
	p.handlers[eventType] = handler
}

func (p *Processor) registerEventHandlers() {
	eventHandlers := map[stripe.EventType]EventHandler{
		stripe.EventTypePaymentIntentSucceeded:     p.handlePaymentIntentSucceeded,
		stripe.EventTypePaymentIntentPaymentFailed: p.handlePaymentIntentPaymentFailed,
		stripe.EventTypePaymentIntentCanceled:      p.handlePaymentIntentCanceled,
		stripe.EventTypeChargeRefunded:             p.handleChargeRefunded,
	}

	for eventType, handler := range eventHandlers {
		p.RegisterHandler(eventType, handler)
	}
}

func (p *Processor) ProcessEvent(ctx context.Context, evt *stripe.Event) error {
	recorded, err := p.events.GetByID(ctx, evt.ID)
	if err == nil && recorded.Processed {
		p.logger.Info("Event already processed", zap.String("event_id", evt.ID))
		return nil
	}
	if err != nil && !errors.Is(err, event.ErrEventNotFound) {
		return err
	}

	handler, exists := p.handlers[evt.Type]
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnhandledEvent, evt.Type)
	}

	if recorded == nil {
		now := time.Now()
		if err = p.events.Create(ctx, &models.Event{
			ID:        evt.ID,
			Type:      evt.Type,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return err
		}
	}

	if err = handler(ctx, evt); err != nil {
		p.logger.Error("Failed to handle event",
			zap.String("event_id", evt.ID),
			zap.String("event_type", string(evt.Type)),
			zap.Error(err),
		)
		return err
	}

	if err = p.events.MarkAsProcessed(ctx, evt.ID); err != nil {
		return err
	}

	p.logger.Info("Stripe event processed", zap.String("event_id", evt.ID))
	return nil
}

func (p *Processor) handlePaymentIntentSucceeded(ctx context.Context, evt *stripe.Event) error {
	return p.applyToIntent(ctx, evt, enum.OrderStatusPaid, "Payment Received",
		"Payment for order %s was received. We are preparing your items.")
}

func (p *Processor) handlePaymentIntentPaymentFailed(ctx context.Context, evt *stripe.Event) error {
	return p.applyToIntent(ctx, evt, enum.OrderStatusFailed, "Payment Failed",
		"Payment for order %s did not go through. Please try again.")
}

func (p *Processor) handlePaymentIntentCanceled(ctx context.Context, evt *stripe.Event) error {
	return p.applyToIntent(ctx, evt, enum.OrderStatusCancelled, "Order Cancelled",
		"Order %s was cancelled.")
}

func (p *Processor) handleChargeRefunded(ctx context.Context, evt *stripe.Event) error {
	var charge stripe.Charge
	if err := sonic.Unmarshal(evt.Data.Raw, &charge); err != nil {
		p.logger.Error("Failed to unmarshal Charge", zap.Error(err))
		return err
	}
	if charge.PaymentIntent == nil || charge.PaymentIntent.ID == "" {
		return fmt.Errorf("charge %s has no payment intent", charge.ID)
	}

	// 部分退款不改變訂單狀態
	if !charge.Refunded {
		p.logger.Info("Partial refund recorded",
			zap.String("charge_id", charge.ID),
			zap.Int64("amount_refunded", charge.AmountRefunded))
		return nil
	}

	return p.transition(ctx, charge.PaymentIntent.ID, enum.OrderStatusRefunded, "Refund Issued",
		"Order %s has been refunded.")
}

func (p *Processor) applyToIntent(ctx context.Context, evt *stripe.Event, status enum.OrderStatus, title, format string) error {
	var intent stripe.PaymentIntent
	if err := sonic.Unmarshal(evt.Data.Raw, &intent); err != nil {
		p.logger.Error("Failed to unmarshal PaymentIntent", zap.Error(err))
		return err
	}

	return p.transition(ctx, intent.ID, status, title, format)
}

func (p *Processor) transition(ctx context.Context, paymentIntentID string, status enum.OrderStatus, title, format string) error {
	// 根據 PaymentIntent ID 獲取訂單
	o, err := p.orders.GetByPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		p.logger.Error("Order not found for PaymentIntent", zap.String("payment_intent_id", paymentIntentID), zap.Error(err))
		return err
	}
	if o.Status == status {
		return nil
	}

	if _, err = p.orders.Transition(ctx, o.ID, status); err != nil {
		if errors.Is(err, order.ErrInvalidTransition) {
			p.logger.Warn("Ignoring out-of-order payment event",
				zap.String("order_id", o.ID),
				zap.String("current", string(o.Status)),
				zap.String("requested", string(status)))
			return nil
		}
		return err
	}

	if _, err = p.notifications.Push(ctx, o.UserID, models.Notification{
		Title:   title,
		Message: fmt.Sprintf(format, o.OrderNumber),
		Type:    enum.NotificationTypeOrder,
	}); err != nil {
		p.logger.Warn("Failed to notify customer", zap.String("order_id", o.ID), zap.Error(err))
	}

	return nil
}
