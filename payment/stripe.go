package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"
	"go.uber.org/zap"

	"goflare.io/storefront/models"
)

var _ Charger = (*StripeCharger)(nil)

// StripeCharger creates one PaymentIntent per order. The order id doubles as
// the idempotency key so a retried checkout never charges twice.
type StripeCharger struct {
	client paymentintent.Client
	logger *zap.Logger
}

func NewStripeCharger(secretKey string, logger *zap.Logger) *StripeCharger {
	return &StripeCharger{
		client: paymentintent.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey},
		logger: logger,
	}
}

func (c *StripeCharger) Charge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(models.MinorUnits(req.Amount)),
		Currency: stripe.String(string(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Description: stripe.String("Order " + req.OrderNumber),
	}
	if req.Email != "" {
		params.ReceiptEmail = stripe.String(req.Email)
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.OrderID)
	params.AddMetadata("order_id", req.OrderID)
	params.AddMetadata("order_number", req.OrderNumber)

	intent, err := c.client.New(params)
	if err != nil {
		c.logger.Error("Failed to create PaymentIntent", zap.String("order_id", req.OrderID), zap.Error(err))
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	c.logger.Info("PaymentIntent created",
		zap.String("order_id", req.OrderID),
		zap.String("payment_intent_id", intent.ID),
		zap.String("status", string(intent.Status)),
	)
	return &Charge{PaymentIntentID: intent.ID, Status: intent.Status}, nil
}
