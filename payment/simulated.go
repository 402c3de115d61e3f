package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"
)

var _ Charger = (*SimulatedCharger)(nil)

// SimulatedCharger approves every charge after Delay. Decline makes it
// refuse instead.
type SimulatedCharger struct {
	Delay   time.Duration
	Decline bool
	logger  *zap.Logger
}

func NewSimulatedCharger(delay time.Duration, logger *zap.Logger) *SimulatedCharger {
	return &SimulatedCharger{
		Delay:  delay,
		logger: logger,
	}
}

func (c *SimulatedCharger) Charge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	timer := time.NewTimer(c.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	if c.Decline {
		return nil, fmt.Errorf("%w: order %s", ErrChargeDeclined, req.OrderID)
	}

	charge := &Charge{
		PaymentIntentID: "pi_sim_" + uuid.NewString(),
		Status:          stripe.PaymentIntentStatusSucceeded,
	}
	c.logger.Info("Simulated payment approved",
		zap.String("order_id", req.OrderID),
		zap.String("payment_intent_id", charge.PaymentIntentID),
	)
	return charge, nil
}
