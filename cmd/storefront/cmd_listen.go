package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"goflare.io/storefront/event"
	"goflare.io/storefront/payment"
)

const paymentQueueSize = 100

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Apply payment events from NATS and report changes from other devices",
	Long: `Subscribe to payment provider events on NATS and move orders through their
lifecycle as events arrive. Cart, wishlist and notification changes published by
other storefront processes are printed as they are relayed. Runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if app.nats == nil {
			return errors.New("listen requires nats.url to be configured")
		}
		ctx := cmd.Context()

		processor := payment.NewProcessor(app.orders, event.NewRepository(app.documents, app.logger), app.notifications, app.logger)
		// queued events still finish after the command context is cancelled
		pool := payment.NewWorkerPool(context.WithoutCancel(ctx), app.cfg.Payment.Workers, paymentQueueSize, processor, app.logger)
		defer pool.Shutdown()

		sub, err := payment.NewEventManager(app.nats, app.logger).SubscribeToEvents(pool)
		if err != nil {
			return err
		}
		defer func() {
			if err := sub.Drain(); err != nil {
				app.logger.Warn("Failed to drain payment subscription", zap.Error(err))
			}
		}()

		origin := app.bridge.Origin()
		for _, topic := range []event.Topic{event.TopicCartUpdated, event.TopicWishlistUpdated, event.TopicNotificationsUpdated} {
			unsubscribe := app.bus.Subscribe(topic, func(_ context.Context, change event.Change) {
				if change.Origin != "" && change.Origin != origin {
					fmt.Printf("%s  %s updated elsewhere\n", change.At.Format("15:04:05"), change.Key)
				}
			})
			defer unsubscribe()
		}

		app.logger.Info("Listening for payment events", zap.String("subject", payment.EventSubject))
		<-ctx.Done()
		app.logger.Info("Listener stopping")
		return nil
	},
}
