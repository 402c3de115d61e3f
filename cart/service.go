// Package cart keeps the shopping cart and per-user wishlists in durable
// client storage and announces every rewrite on the change bus.
package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"goflare.io/storefront/event"
	"goflare.io/storefront/models"
	"goflare.io/storefront/models/enum"
)

var _ Service = (*service)(nil)

type Service interface {
	// Add increments the quantity of an existing cart entry or appends item.
	// Wishlist entries carry no quantity and re-adding one is a no-op.
	Add(ctx context.Context, key Key, item models.LineItem, quantity int) error
	Remove(ctx context.Context, key Key, productID string) error
	// SetQuantity overwrites a cart entry's quantity; <= 0 removes it.
	SetQuantity(ctx context.Context, key Key, productID string, quantity int) error
	Clear(ctx context.Context, key Key) error
	// Toggle adds item when absent and removes it when present. It reports
	// whether item is in the collection afterwards.
	Toggle(ctx context.Context, key Key, item models.LineItem) (bool, error)
	List(ctx context.Context, key Key) []models.LineItem
	Contains(ctx context.Context, key Key, productID string) bool
	// Count is the quantity sum for the cart and the entry count for a wishlist.
	Count(ctx context.Context, key Key) int
}

type service struct {
	repo   Repository
	bus    *event.Bus
	logger *zap.Logger

	// serializes read-modify-write within the process; other processes
	// sharing the storage still win by writing last
	mu sync.Mutex
}

func NewService(repo Repository, bus *event.Bus, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		bus:    bus,
		logger: logger,
	}
}

func (s *service) Add(ctx context.Context, key Key, item models.LineItem, quantity int) error {
	if strings.TrimSpace(item.ProductID) == "" {
		return fmt.Errorf("%w: missing product id", ErrInvalidItem)
	}
	if item.UnitPrice < 0 {
		return fmt.Errorf("%w: negative price for %s", ErrInvalidItem, item.ProductID)
	}

	return s.mutate(ctx, key, func(items []models.LineItem) ([]models.LineItem, bool) {
		i := indexOf(items, item.ProductID)

		if key.Kind == enum.CollectionKindWishlist {
			if i >= 0 {
				return items, false
			}
			item.Quantity = 0
			return append(items, item), true
		}

		if quantity < 1 {
			quantity = 1
		}
		if i >= 0 {
			items[i].Quantity += quantity
			return items, true
		}
		item.Quantity = quantity
		return append(items, item), true
	})
}

func (s *service) Remove(ctx context.Context, key Key, productID string) error {
	return s.mutate(ctx, key, func(items []models.LineItem) ([]models.LineItem, bool) {
		i := indexOf(items, productID)
		if i < 0 {
			return items, false
		}
		return append(items[:i], items[i+1:]...), true
	})
}

func (s *service) SetQuantity(ctx context.Context, key Key, productID string, quantity int) error {
	if key.Kind != enum.CollectionKindCart {
		return ErrNotCartKey
	}
	if quantity <= 0 {
		return s.Remove(ctx, key, productID)
	}

	return s.mutate(ctx, key, func(items []models.LineItem) ([]models.LineItem, bool) {
		i := indexOf(items, productID)
		if i < 0 || items[i].Quantity == quantity {
			return items, false
		}
		items[i].Quantity = quantity
		return items, true
	})
}

func (s *service) Clear(ctx context.Context, key Key) error {
	return s.mutate(ctx, key, func([]models.LineItem) ([]models.LineItem, bool) {
		return []models.LineItem{}, true
	})
}

func (s *service) Toggle(ctx context.Context, key Key, item models.LineItem) (bool, error) {
	present := false
	err := s.mutate(ctx, key, func(items []models.LineItem) ([]models.LineItem, bool) {
		if i := indexOf(items, item.ProductID); i >= 0 {
			return append(items[:i], items[i+1:]...), true
		}
		if key.Kind == enum.CollectionKindWishlist {
			item.Quantity = 0
		} else if item.Quantity < 1 {
			item.Quantity = 1
		}
		present = true
		return append(items, item), true
	})
	if err != nil {
		return false, err
	}
	return present, nil
}

func (s *service) List(ctx context.Context, key Key) []models.LineItem {
	return s.repo.Load(ctx, key)
}

func (s *service) Contains(ctx context.Context, key Key, productID string) bool {
	return indexOf(s.repo.Load(ctx, key), productID) >= 0
}

func (s *service) Count(ctx context.Context, key Key) int {
	items := s.repo.Load(ctx, key)
	if key.Kind == enum.CollectionKindWishlist {
		return len(items)
	}

	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return count
}

// mutate loads key, applies fn and, when fn reports a change, persists the
// result and publishes it. Unchanged collections are left untouched.
func (s *service) mutate(ctx context.Context, key Key, fn func([]models.LineItem) ([]models.LineItem, bool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, changed := fn(s.repo.Load(ctx, key))
	if !changed {
		return nil
	}

	if err := s.repo.Save(ctx, key, items); err != nil {
		return err
	}

	s.logger.Debug("Collection updated", zap.String("key", key.Name), zap.Int("entries", len(items)))
	s.bus.Publish(ctx, event.Change{Topic: key.Topic(), Key: key.Name})
	return nil
}

func indexOf(items []models.LineItem, productID string) int {
	for i := range items {
		if items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
