package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"goflare.io/storefront/driver"
	"goflare.io/storefront/models"
)

var _ Repository = (*repository)(nil)

const collection = "products"

var ErrProductNotFound = errors.New("product not found")

type Repository interface {
	Get(ctx context.Context, id string) (*models.Product, error)
	List(ctx context.Context) ([]*models.Product, error)
	Featured(ctx context.Context, limit int) ([]*models.Product, error)
	NewArrivals(ctx context.Context, since time.Time, limit int) ([]*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
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

func (r *repository) Get(ctx context.Context, id string) (*models.Product, error) {
	doc, err := r.store.Get(ctx, collection, id)
	if errors.Is(err, driver.ErrDocumentNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get product", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}

	return new(models.Product).ConvertFromDocument(doc.ID, doc.Data)
}

// List returns every product ordered by name.
func (r *repository) List(ctx context.Context) ([]*models.Product, error) {
	return r.query(ctx, driver.Query{OrderBy: "name"})
}

func (r *repository) Featured(ctx context.Context, limit int) ([]*models.Product, error) {
	return r.query(ctx, driver.Query{
		Filters: []driver.Filter{driver.Where("featured", driver.OpEqual, true)},
		Limit:   limit,
	})
}

// NewArrivals returns products created at or after since, newest first.
func (r *repository) NewArrivals(ctx context.Context, since time.Time, limit int) ([]*models.Product, error) {
	return r.query(ctx, driver.Query{
		Filters: []driver.Filter{driver.Where("createdAt", driver.OpGreaterOrEqual, since)},
		OrderBy: "createdAt",
		Desc:    true,
		Limit:   limit,
	})
}

func (r *repository) Create(ctx context.Context, product *models.Product) error {
	now := time.Now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	if err := product.Validate(); err != nil {
		return err
	}

	id, err := r.store.Insert(ctx, collection, product.Document())
	if err != nil {
		r.logger.Error("Failed to create product", zap.String("name", product.Name), zap.Error(err))
		return fmt.Errorf("failed to create product: %w", err)
	}
	product.ID = id

	return nil
}

func (r *repository) Update(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = time.Now()
	if err := product.Validate(); err != nil {
		return err
	}

	patch := product.Document()
	// creation time is owned by Create
	delete(patch, "createdAt")

	err := r.store.Update(ctx, collection, product.ID, patch)
	if errors.Is(err, driver.ErrDocumentNotFound) {
		return fmt.Errorf("%w: %s", ErrProductNotFound, product.ID)
	}
	if err != nil {
		r.logger.Error("Failed to update product", zap.String("id", product.ID), zap.Error(err))
		return fmt.Errorf("failed to update product %s: %w", product.ID, err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, collection, id); err != nil {
		r.logger.Error("Failed to delete product", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	return nil
}

// query decodes matching documents, skipping the ones that fail validation.
func (r *repository) query(ctx context.Context, q driver.Query) ([]*models.Product, error) {
	docs, err := r.store.Query(ctx, collection, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	products := make([]*models.Product, 0, len(docs))
	for _, doc := range docs {
		product, err := new(models.Product).ConvertFromDocument(doc.ID, doc.Data)
		if err != nil {
			r.logger.Warn("Skipping malformed product", zap.String("id", doc.ID), zap.Error(err))
			continue
		}
		products = append(products, product)
	}

	return products, nil
}
