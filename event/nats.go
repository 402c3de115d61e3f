package event

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Conn is the part of *nats.Conn the bridge needs.
type Conn interface {
	Publish(subj string, data []byte) error
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
}

var bridgedTopics = []Topic{TopicCartUpdated, TopicWishlistUpdated, TopicNotificationsUpdated}

// NATSBridge mirrors local changes onto NATS and replays changes made by
// other processes onto the local bus.
type NATSBridge struct {
	conn   Conn
	bus    *Bus
	prefix string
	origin string
	logger *zap.Logger

	unsubscribe []func()
	subs        []*nats.Subscription
}

func NewNATSBridge(conn Conn, bus *Bus, prefix string, logger *zap.Logger) *NATSBridge {
	return &NATSBridge{
		conn:   conn,
		bus:    bus,
		prefix: prefix,
		origin: uuid.NewString(),
		logger: logger,
	}
}

// Origin identifies this process on the wire.
func (nb *NATSBridge) Origin() string {
	return nb.origin
}

func (nb *NATSBridge) Start() error {
	for _, topic := range bridgedTopics {
		nb.unsubscribe = append(nb.unsubscribe, nb.bus.Subscribe(topic, nb.forward))

		sub, err := nb.conn.Subscribe(nb.subject(topic), nb.receive)
		if err != nil {
			nb.Stop()
			return fmt.Errorf("failed to subscribe to %s: %w", nb.subject(topic), err)
		}
		if sub != nil {
			nb.subs = append(nb.subs, sub)
		}
	}

	nb.logger.Info("Change bridge started", zap.String("prefix", nb.prefix), zap.String("origin", nb.origin))
	return nil
}

func (nb *NATSBridge) Stop() {
	for _, unsubscribe := range nb.unsubscribe {
		unsubscribe()
	}
	nb.unsubscribe = nil

	for _, sub := range nb.subs {
		if err := sub.Unsubscribe(); err != nil {
			nb.logger.Warn("Failed to unsubscribe from NATS", zap.String("subject", sub.Subject), zap.Error(err))
		}
	}
	nb.subs = nil
}

func (nb *NATSBridge) forward(_ context.Context, change Change) {
	// remote changes are replayed with their own origin; don't send them back
	if change.Origin != "" && change.Origin != nb.origin {
		return
	}
	change.Origin = nb.origin

	data, err := sonic.Marshal(change)
	if err != nil {
		nb.logger.Error("Failed to marshal change", zap.Error(err))
		return
	}
	if err = nb.conn.Publish(nb.subject(change.Topic), data); err != nil {
		nb.logger.Warn("Failed to relay change", zap.String("topic", string(change.Topic)), zap.Error(err))
	}
}

func (nb *NATSBridge) receive(msg *nats.Msg) {
	var change Change
	if err := sonic.Unmarshal(msg.Data, &change); err != nil {
		nb.logger.Error("Failed to unmarshal change", zap.Error(err))
		return
	}
	if change.Origin == nb.origin {
		return
	}

	nb.bus.Publish(context.Background(), change)
}

func (nb *NATSBridge) subject(topic Topic) string {
	return nb.prefix + "." + string(topic)
}
