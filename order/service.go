// Package order stores placed orders and moves them through their status
// lifecycle.
package order

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"goflare.io/storefront/models"
	"goflare.io/storefront/models/enum"
)

var _ Service = (*service)(nil)

type Service interface {
	// Place saves order as pending and returns it with id and number set.
	Place(ctx context.Context, order *models.Order) (*models.Order, error)
	Get(ctx context.Context, id string) (*models.Order, error)
	GetByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Order, error)
	ListByUser(ctx context.Context, uid string) ([]*models.Order, error)
	ListAll(ctx context.Context) ([]*models.Order, error)
	// UpdateStatus is the admin override: any known status is accepted.
	UpdateStatus(ctx context.Context, id string, status enum.OrderStatus) error
	// Transition only applies lifecycle-valid status changes.
	Transition(ctx context.Context, id string, status enum.OrderStatus) (*models.Order, error)
	AttachPayment(ctx context.Context, id, paymentIntentID string) error
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		logger: logger,
	}
}

func (s *service) Place(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Float64("total", order.Total),
	)
	return order, nil
}

func (s *service) Get(ctx context.Context, id string) (*models.Order, error) {
	return s.repo.Get(ctx, id)
}

func (s *service) GetByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Order, error) {
	return s.repo.GetByPaymentIntent(ctx, paymentIntentID)
}

func (s *service) ListByUser(ctx context.Context, uid string) ([]*models.Order, error) {
	return s.repo.ListByUser(ctx, uid)
}

func (s *service) ListAll(ctx context.Context) ([]*models.Order, error) {
	return s.repo.ListAll(ctx)
}

func (s *service) UpdateStatus(ctx context.Context, id string, status enum.OrderStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

func (s *service) Transition(ctx context.Context, id string, status enum.OrderStatus) (*models.Order, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.AllowChangeStatus(status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, status)
	}
	if order.Status == status {
		return order, nil
	}

	if err = s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	s.logger.Info("Order status updated",
		zap.String("order_id", id),
		zap.String("from", string(order.Status)),
		zap.String("to", string(status)),
	)

	order.Status = status
	return order, nil
}

func (s *service) AttachPayment(ctx context.Context, id, paymentIntentID string) error {
	return s.repo.SetPaymentIntent(ctx, id, paymentIntentID)
}
