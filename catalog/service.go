// Package catalog serves product listings through cached, retrying fetch
// controllers and applies admin edits to the product collection.
package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"goflare.io/storefront/fetch"
	"goflare.io/storefront/models"
)

const (
	FeaturedLimit    = 8
	HeroLimit        = 2
	NewArrivalsLimit = 8
	NewArrivalsSpan  = 30 * 24 * time.Hour

	// AllCategories is the pseudo-category that matches every product.
	AllCategories = "all"
)

// Home is everything the landing page shows.
type Home struct {
	Featured    []*models.Product `json:"featured"`
	Hero        []*models.Product `json:"hero"`
	NewArrivals []*models.Product `json:"newArrivals"`
}

var _ Service = (*service)(nil)

type Service interface {
	Home(ctx context.Context) (*Home, error)
	Products(ctx context.Context) ([]*models.Product, error)
	Search(ctx context.Context, query string) ([]*models.Product, error)
	Categories(ctx context.Context) ([]string, error)
	ByCategory(ctx context.Context, category string) ([]*models.Product, error)
	Product(ctx context.Context, id string) (*models.Product, error)

	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id string) error
	// InvalidateAll makes every controller refetch on its next request.
	InvalidateAll()
}

type service struct {
	repo   Repository
	opts   fetch.Options
	now    func() time.Time
	logger *zap.Logger

	home     *fetch.Controller[*Home]
	products *fetch.Controller[[]*models.Product]

	mu      sync.Mutex
	details map[string]*fetch.Controller[*models.Product]
}

// NewService builds one controller per view from opts, which supplies the
// cache and retry settings plus the metrics observer.
func NewService(repo Repository, opts fetch.Options, logger *zap.Logger) Service {
	return &service{
		repo:     repo,
		opts:     opts,
		now:      time.Now,
		logger:   logger,
		home:     fetch.New[*Home](named(opts, "home")),
		products: fetch.New[[]*models.Product](named(opts, "products")),
		details:  make(map[string]*fetch.Controller[*models.Product]),
	}
}

func (s *service) Home(ctx context.Context) (*Home, error) {
	return requestOrStale(ctx, s.home, s.loadHome, s.logger)
}

func (s *service) loadHome(ctx context.Context) (*Home, error) {
	home := new(Home)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		home.Featured, err = s.repo.Featured(gctx, FeaturedLimit)
		return err
	})
	g.Go(func() (err error) {
		home.Hero, err = s.repo.Featured(gctx, HeroLimit)
		return err
	})
	g.Go(func() (err error) {
		home.NewArrivals, err = s.repo.NewArrivals(gctx, s.now().Add(-NewArrivalsSpan), NewArrivalsLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return home, nil
}

func (s *service) Products(ctx context.Context) ([]*models.Product, error) {
	return requestOrStale(ctx, s.products, s.repo.List, s.logger)
}

// Search matches query case-insensitively against name, description and
// category. An empty query matches nothing.
func (s *service) Search(ctx context.Context, query string) ([]*models.Product, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []*models.Product{}, nil
	}

	products, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]*models.Product, 0)
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), query) ||
			strings.Contains(strings.ToLower(p.Description), query) ||
			strings.Contains(strings.ToLower(p.Category), query) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// Categories lists AllCategories followed by each distinct category in the
// order it first appears in the name-sorted listing.
func (s *service) Categories(ctx context.Context) ([]string, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	categories := []string{AllCategories}
	for _, p := range products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	return categories, nil
}

func (s *service) ByCategory(ctx context.Context, category string) ([]*models.Product, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}
	if category == "" || category == AllCategories {
		return products, nil
	}

	filtered := make([]*models.Product, 0)
	for _, p := range products {
		if p.Category == category {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (s *service) Product(ctx context.Context, id string) (*models.Product, error) {
	c := s.detail(id)
	product, err := requestOrStale(ctx, c, func(ctx context.Context) (*models.Product, error) {
		product, err := s.repo.Get(ctx, id)
		if errors.Is(err, ErrProductNotFound) {
			return nil, fetch.Permanent(err)
		}
		return product, err
	}, s.logger)
	if errors.Is(err, ErrProductNotFound) {
		s.forget(id, c)
	}
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *service) CreateProduct(ctx context.Context, product *models.Product) error {
	if err := s.repo.Create(ctx, product); err != nil {
		return err
	}
	s.InvalidateAll()
	return nil
}

func (s *service) UpdateProduct(ctx context.Context, product *models.Product) error {
	if err := s.repo.Update(ctx, product); err != nil {
		return err
	}
	s.InvalidateAll()
	return nil
}

func (s *service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.InvalidateAll()

	s.mu.Lock()
	if c, ok := s.details[id]; ok {
		c.Reset()
		delete(s.details, id)
	}
	s.mu.Unlock()
	return nil
}

func (s *service) InvalidateAll() {
	s.home.Invalidate()
	s.products.Invalidate()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.details {
		c.Invalidate()
	}
}

func (s *service) detail(id string) *fetch.Controller[*models.Product] {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.details[id]
	if !ok {
		c = fetch.New[*models.Product](named(s.opts, "product"))
		s.details[id] = c
	}
	return c
}

// forget drops the detail controller for id unless it was replaced meanwhile.
func (s *service) forget(id string, c *fetch.Controller[*models.Product]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.details[id] == c {
		delete(s.details, id)
	}
}

func named(opts fetch.Options, name string) fetch.Options {
	opts.Name = name
	return opts
}

// requestOrStale serves the last good value when a fetch fails after its
// retries. Cancellation is passed through untouched.
func requestOrStale[T any](ctx context.Context, c *fetch.Controller[T], produce fetch.Producer[T], logger *zap.Logger) (T, error) {
	value, err := c.Request(ctx, produce)
	if err == nil || fetch.IsCanceled(err) {
		return value, err
	}

	if stale, ok := c.Cached(); ok {
		logger.Warn("Serving stale catalog data", zap.Error(err))
		return stale, nil
	}
	return value, err
}
