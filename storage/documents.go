package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"goflare.io/storefront/driver"
)

var _ Storage = (*Documents)(nil)

const storageCollection = "client_storage"

// Documents keeps each key as one document in a DocumentStore collection.
// Used with the embedded clover store it gives the CLI durable state without
// any external service.
type Documents struct {
	store  driver.DocumentStore
	logger *zap.Logger
}

func NewDocuments(store driver.DocumentStore, logger *zap.Logger) *Documents {
	return &Documents{
		store:  store,
		logger: logger,
	}
}

func (d *Documents) Get(ctx context.Context, key string) (string, bool, error) {
	doc, err := d.find(ctx, key)
	if err != nil {
		return "", false, err
	}
	if doc == nil {
		return "", false, nil
	}

	value, ok := doc.Data["value"].(string)
	if !ok {
		d.logger.Warn("Storage document has no string value", zap.String("key", key))
		return "", false, nil
	}
	return value, true, nil
}

func (d *Documents) Set(ctx context.Context, key, value string) error {
	doc, err := d.find(ctx, key)
	if err != nil {
		return err
	}

	now := time.Now()
	if doc == nil {
		_, err = d.store.Insert(ctx, storageCollection, map[string]any{
			"key":       key,
			"value":     value,
			"updatedAt": now,
		})
	} else {
		err = d.store.Update(ctx, storageCollection, doc.ID, map[string]any{
			"value":     value,
			"updatedAt": now,
		})
	}
	if err != nil {
		d.logger.Error("Failed to write storage key", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (d *Documents) Remove(ctx context.Context, key string) error {
	doc, err := d.find(ctx, key)
	if err != nil || doc == nil {
		return err
	}

	if err = d.store.Delete(ctx, storageCollection, doc.ID); err != nil {
		d.logger.Error("Failed to remove storage key", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

func (d *Documents) find(ctx context.Context, key string) (*driver.Document, error) {
	docs, err := d.store.Query(ctx, storageCollection, driver.Query{
		Filters: []driver.Filter{driver.Where("key", driver.OpEqual, key)},
		Limit:   1,
	})
	if err != nil {
		d.logger.Error("Failed to read storage key", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return &docs[0], nil
}
