package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"goflare.io/storefront/driver"
	"goflare.io/storefront/models"
)

var _ Repository = (*repository)(nil)

const collection = "payment_events"

var ErrEventNotFound = errors.New("event not found")

// Repository records external payment events so redelivered events are
// recognised.
type Repository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	MarkAsProcessed(ctx context.Context, id string) error
}

type repository struct {
	store  driver.DocumentStore
	logger *zap.Logger
}

func NewRepository(store driver.DocumentStore, logger *zap.Logger) Repository {
	return &repository{
		store:  store,
		logger: logger,
	}
}

func (r *repository) Create(ctx context.Context, event *models.Event) error {
	if _, err := r.store.Insert(ctx, collection, map[string]any{
		"eventId":   event.ID,
		"type":      string(event.Type),
		"processed": event.Processed,
		"createdAt": event.CreatedAt,
		"updatedAt": event.UpdatedAt,
	}); err != nil {
		r.logger.Error("Failed to record payment event", zap.String("event_id", event.ID), zap.Error(err))
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	doc, err := r.find(ctx, id)
	if err != nil {
		return nil, err
	}

	event := &models.Event{ID: id}
	if t, ok := doc.Data["type"].(string); ok {
		event.Type = stripe.EventType(t)
	}
	event.Processed, _ = doc.Data["processed"].(bool)
	event.CreatedAt, _ = models.ToTime(doc.Data["createdAt"])
	event.UpdatedAt, _ = models.ToTime(doc.Data["updatedAt"])

	return event, nil
}

func (r *repository) MarkAsProcessed(ctx context.Context, id string) error {
	doc, err := r.find(ctx, id)
	if err != nil {
		return err
	}

	if err = r.store.Update(ctx, collection, doc.ID, map[string]any{
		"processed": true,
		"updatedAt": time.Now(),
	}); err != nil {
		return fmt.Errorf("failed to mark event %s as processed: %w", id, err)
	}
	return nil
}

func (r *repository) find(ctx context.Context, id string) (*driver.Document, error) {
	docs, err := r.store.Query(ctx, collection, driver.Query{
		Filters: []driver.Filter{driver.Where("eventId", driver.OpEqual, id)},
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get event %s: %w", id, err)
	}
	if len(docs) == 0 {
		return nil, ErrEventNotFound
	}
	return &docs[0], nil
}
