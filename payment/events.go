package payment

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/nats-io/nats.go"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"
)

// EventSubject is where the payment gateway republishes provider webhooks.
const EventSubject = "payment.service.event.>"

// Subscriber is the part of *nats.Conn the manager needs.
type Subscriber interface {
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// EventManager feeds provider events from NATS into a WorkerPool.
type EventManager struct {
	conn   Subscriber
	logger *zap.Logger
}

func NewEventManager(conn Subscriber, logger *zap.Logger) *EventManager {
	return &EventManager{
		conn:   conn,
		logger: logger,
	}
}

func (em *EventManager) SubscribeToEvents(wp *WorkerPool) (*nats.Subscription, error) {
	sub, err := em.conn.Subscribe(EventSubject, em.handler(wp))
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", EventSubject, err)
	}

	em.logger.Info("Subscribed to payment events", zap.String("subject", EventSubject))
	return sub, nil
}

func (em *EventManager) handler(wp *WorkerPool) nats.MsgHandler {
	return func(msg *nats.Msg) {
		var event stripe.Event
		if err := sonic.Unmarshal(msg.Data, &event); err != nil {
			em.logger.Error("Failed to unmarshal event", zap.String("subject", msg.Subject), zap.Error(err))
			return
		}

		wp.Submit(&event)
	}
}
