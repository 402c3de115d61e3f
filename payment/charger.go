// Package payment charges checkouts and applies asynchronous payment
// provider events to orders.
package payment

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v79"
)

var ErrChargeDeclined = errors.New("charge declined")

type ChargeRequest struct {
	OrderID     string
	OrderNumber string
	Amount      float64
	Currency    stripe.Currency
	Email       string
}

type Charge struct {
	PaymentIntentID string
	Status          stripe.PaymentIntentStatus
}

// Charger starts payment for an order. Final settlement may arrive later as
// a provider event.
type Charger interface {
	Charge(ctx context.Context, req ChargeRequest) (*Charge, error)
}
