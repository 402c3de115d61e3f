// Package notification manages each user's in-app notification feed.
package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"goflare.io/storefront/event"
	"goflare.io/storefront/models"
)

var _ Service = (*service)(nil)

var ErrNotificationNotFound = errors.New("notification not found")

type Service interface {
	// List returns uid's notifications newest first, seeding the welcome set
	// the first time.
	List(ctx context.Context, uid string) ([]models.Notification, error)
	UnreadCount(ctx context.Context, uid string) (int, error)
	MarkRead(ctx context.Context, uid string, id int64) error
	MarkAllRead(ctx context.Context, uid string) error
	Delete(ctx context.Context, uid string, id int64) error
	Push(ctx context.Context, uid string, n models.Notification) (models.Notification, error)
}

type service struct {
	repo   Repository
	bus    *event.Bus
	now    func() time.Time
	logger *zap.Logger

	// serializes load-change-save so concurrent pushes don't drop entries
	mu sync.Mutex
}

func NewService(repo Repository, bus *event.Bus, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		bus:    bus,
		now:    time.Now,
		logger: logger,
	}
}

func (s *service) List(ctx context.Context, uid string) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx, uid)
}

// load must be called with mu held.
func (s *service) load(ctx context.Context, uid string) ([]models.Notification, error) {
	notifications, found := s.repo.Load(ctx, uid)
	if found && len(notifications) > 0 {
		return notifications, nil
	}

	notifications = Welcome(s.now())
	if err := s.repo.Save(ctx, uid, notifications); err != nil {
		return nil, err
	}
	s.logger.Info("Seeded welcome notifications", zap.String("uid", uid))
	return notifications, nil
}

func (s *service) UnreadCount(ctx context.Context, uid string) (int, error) {
	notifications, err := s.List(ctx, uid)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, n := range notifications {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *service) MarkRead(ctx context.Context, uid string, id int64) error {
	return s.update(ctx, uid, func(notifications []models.Notification) ([]models.Notification, error) {
		for i := range notifications {
			if notifications[i].ID == id {
				notifications[i].Read = true
				return notifications, nil
			}
		}
		return nil, ErrNotificationNotFound
	})
}

func (s *service) MarkAllRead(ctx context.Context, uid string) error {
	return s.update(ctx, uid, func(notifications []models.Notification) ([]models.Notification, error) {
		for i := range notifications {
			notifications[i].Read = true
		}
		return notifications, nil
	})
}

func (s *service) Delete(ctx context.Context, uid string, id int64) error {
	return s.update(ctx, uid, func(notifications []models.Notification) ([]models.Notification, error) {
		for i := range notifications {
			if notifications[i].ID == id {
				return append(notifications[:i], notifications[i+1:]...), nil
			}
		}
		return nil, ErrNotificationNotFound
	})
}

// Push prepends n, assigning the next id and a timestamp when unset.
func (s *service) Push(ctx context.Context, uid string, n models.Notification) (models.Notification, error) {
	err := s.update(ctx, uid, func(notifications []models.Notification) ([]models.Notification, error) {
		var maxID int64
		for _, existing := range notifications {
			if existing.ID > maxID {
				maxID = existing.ID
			}
		}
		n.ID = maxID + 1
		if n.Timestamp.IsZero() {
			n.Timestamp = s.now()
		}
		if n.Icon == "" {
			n.Icon = n.Type.Icon()
		}
		return append([]models.Notification{n}, notifications...), nil
	})
	if err != nil {
		return models.Notification{}, err
	}
	return n, nil
}

func (s *service) update(ctx context.Context, uid string, fn func([]models.Notification) ([]models.Notification, error)) error {
	if err := s.apply(ctx, uid, fn); err != nil {
		return err
	}

	// published outside the lock so handlers may read the feed
	s.bus.Publish(ctx, event.Change{Topic: event.TopicNotificationsUpdated, Key: Key(uid)})
	return nil
}

func (s *service) apply(ctx context.Context, uid string, fn func([]models.Notification) ([]models.Notification, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notifications, err := s.load(ctx, uid)
	if err != nil {
		return err
	}

	notifications, err = fn(notifications)
	if err != nil {
		return err
	}
	return s.repo.Save(ctx, uid, notifications)
}
