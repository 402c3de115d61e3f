package notification

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"goflare.io/storefront/models"
	"goflare.io/storefront/storage"
)

var _ Repository = (*repository)(nil)

type Repository interface {
	Load(ctx context.Context, uid string) ([]models.Notification, bool)
	Save(ctx context.Context, uid string, notifications []models.Notification) error
}

type repository struct {
	storage storage.Storage
	logger  *zap.Logger
}

func NewRepository(storage storage.Storage, logger *zap.Logger) Repository {
	return &repository{
		storage: storage,
		logger:  logger,
	}
}

// Key is the storage key holding uid's notifications.
func Key(uid string) string {
	return "notifications_" + uid
}

// Load reports found=false when nothing usable is stored for uid.
func (r *repository) Load(ctx context.Context, uid string) ([]models.Notification, bool) {
	raw, found, err := r.storage.Get(ctx, Key(uid))
	if err != nil {
		r.logger.Warn("Failed to read notifications", zap.String("uid", uid), zap.Error(err))
		return nil, false
	}
	if !found {
		return nil, false
	}

	var notifications []models.Notification
	if err = sonic.UnmarshalString(raw, &notifications); err != nil {
		r.logger.Warn("Failed to decode notifications", zap.String("uid", uid), zap.Error(err))
		return nil, false
	}
	return notifications, true
}

func (r *repository) Save(ctx context.Context, uid string, notifications []models.Notification) error {
	if notifications == nil {
		notifications = []models.Notification{}
	}

	raw, err := sonic.MarshalString(notifications)
	if err != nil {
		return fmt.Errorf("failed to encode notifications: %w", err)
	}
	if err = r.storage.Set(ctx, Key(uid), raw); err != nil {
		r.logger.Error("Failed to persist notifications", zap.String("uid", uid), zap.Error(err))
		return fmt.Errorf("failed to save notifications: %w", err)
	}
	return nil
}
