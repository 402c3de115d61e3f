package cart

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"goflare.io/storefront/models"
	"goflare.io/storefront/models/enum"
	"goflare.io/storefront/storage"
)

var _ Repository = (*repository)(nil)

// Repository reads and rewrites whole collections.
type Repository interface {
	Load(ctx context.Context, key Key) []models.LineItem
	Save(ctx context.Context, key Key, items []models.LineItem) error
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

// Load never fails: a missing, unreadable or corrupt value reads as empty.
func (r *repository) Load(ctx context.Context, key Key) []models.LineItem {
	raw, found, err := r.storage.Get(ctx, key.Name)
	if err != nil {
		r.logger.Warn("Failed to read collection, treating as empty", zap.String("key", key.Name), zap.Error(err))
		return []models.LineItem{}
	}
	if !found || raw == "" {
		return []models.LineItem{}
	}

	var items []models.LineItem
	if err = sonic.UnmarshalString(raw, &items); err != nil {
		r.logger.Warn("Failed to decode collection, treating as empty", zap.String("key", key.Name), zap.Error(err))
		return []models.LineItem{}
	}

	return r.sanitize(key, items)
}

// sanitize drops entries without a product id, and cart entries with no
// quantity. Repeated ids collapse into the first entry; cart quantities add up.
func (r *repository) sanitize(key Key, items []models.LineItem) []models.LineItem {
	clean := make([]models.LineItem, 0, len(items))
	index := make(map[string]int, len(items))
	dropped := 0

	for _, item := range items {
		if item.ProductID == "" || (key.Kind == enum.CollectionKindCart && item.Quantity < 1) {
			dropped++
			continue
		}
		if i, ok := index[item.ProductID]; ok {
			if key.Kind == enum.CollectionKindCart {
				clean[i].Quantity += item.Quantity
			}
			dropped++
			continue
		}
		index[item.ProductID] = len(clean)
		clean = append(clean, item)
	}

	if dropped > 0 {
		r.logger.Warn("Repaired stored collection", zap.String("key", key.Name), zap.Int("dropped", dropped))
	}
	return clean
}

func (r *repository) Save(ctx context.Context, key Key, items []models.LineItem) error {
	if items == nil {
		items = []models.LineItem{}
	}

	raw, err := sonic.MarshalString(items)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key.Name, err)
	}

	if err = r.storage.Set(ctx, key.Name, raw); err != nil {
		r.logger.Error("Failed to persist collection", zap.String("key", key.Name), zap.Error(err))
		return fmt.Errorf("failed to save %s: %w", key.Name, err)
	}

	return nil
}
