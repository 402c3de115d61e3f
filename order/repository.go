package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"goflare.io/storefront/driver"
	"goflare.io/storefront/models"
	"goflare.io/storefront/models/enum"
)

var _ Repository = (*repository)(nil)

const collection = "orders"

type Repository interface {
	Create(ctx context.Context, order *models.Order) error
	Get(ctx context.Context, id string) (*models.Order, error)
	GetByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Order, error)
	ListByUser(ctx context.Context, uid string) ([]*models.Order, error)
	ListAll(ctx context.Context) ([]*models.Order, error)
	UpdateStatus(ctx context.Context, id string, status enum.OrderStatus) error
	SetPaymentIntent(ctx context.Context, id, paymentIntentID string) error
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

// Create stores order as pending, stamping its number and timestamps.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	now := time.Now()
	order.Status = enum.OrderStatusPending
	order.CreatedAt = now
	order.UpdatedAt = now
	if order.OrderNumber == "" {
		order.OrderNumber = NewOrderNumber(now)
	}

	if err := order.Validate(); err != nil {
		return err
	}

	id, err := r.store.Insert(ctx, collection, order.Document())
	if err != nil {
		r.logger.Error("Failed to create order", zap.String("order_number", order.OrderNumber), zap.Error(err))
		return fmt.Errorf("failed to create order: %w", err)
	}
	order.ID = id

	return nil
}

func (r *repository) Get(ctx context.Context, id string) (*models.Order, error) {
	doc, err := r.store.Get(ctx, collection, id)
	if errors.Is(err, driver.ErrDocumentNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get order", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}

	return new(models.Order).ConvertFromDocument(doc.ID, doc.Data)
}

func (r *repository) GetByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Order, error) {
	orders, err := r.query(ctx, driver.Query{
		Filters: []driver.Filter{driver.Where("paymentIntentId", driver.OpEqual, paymentIntentID)},
		Limit:   1,
	})
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("%w: payment intent %s", ErrOrderNotFound, paymentIntentID)
	}
	return orders[0], nil
}

// ListByUser returns uid's orders newest first. Backends that cannot order an
// equality query without an index get the unordered query sorted here.
func (r *repository) ListByUser(ctx context.Context, uid string) ([]*models.Order, error) {
	byUser := driver.Where("userId", driver.OpEqual, uid)

	orders, err := r.query(ctx, driver.Query{
		Filters: []driver.Filter{byUser},
		OrderBy: "createdAt",
		Desc:    true,
	})
	if err == nil {
		return orders, nil
	}

	r.logger.Warn("Ordered order query failed, sorting in memory", zap.String("uid", uid), zap.Error(err))

	orders, err = r.query(ctx, driver.Query{Filters: []driver.Filter{byUser}})
	if err != nil {
		return nil, err
	}
	sortNewestFirst(orders)
	return orders, nil
}

func (r *repository) ListAll(ctx context.Context) ([]*models.Order, error) {
	return r.query(ctx, driver.Query{OrderBy: "createdAt", Desc: true})
}

func (r *repository) UpdateStatus(ctx context.Context, id string, status enum.OrderStatus) error {
	return r.update(ctx, id, map[string]any{"status": string(status)})
}

func (r *repository) SetPaymentIntent(ctx context.Context, id, paymentIntentID string) error {
	return r.update(ctx, id, map[string]any{"paymentIntentId": paymentIntentID})
}

func (r *repository) update(ctx context.Context, id string, patch map[string]any) error {
	patch["updatedAt"] = time.Now()

	err := r.store.Update(ctx, collection, id, patch)
	if errors.Is(err, driver.ErrDocumentNotFound) {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to update order", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to update order %s: %w", id, err)
	}
	return nil
}

func (r *repository) query(ctx context.Context, q driver.Query) ([]*models.Order, error) {
	docs, err := r.store.Query(ctx, collection, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}

	orders := make([]*models.Order, 0, len(docs))
	for _, doc := range docs {
		order, err := new(models.Order).ConvertFromDocument(doc.ID, doc.Data)
		if err != nil {
			r.logger.Warn("Skipping malformed order", zap.String("id", doc.ID), zap.Error(err))
			continue
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func sortNewestFirst(orders []*models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

// NewOrderNumber formats ORD-<last six digits of the unix ms>-<five random
// base36 characters>.
func NewOrderNumber(now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}

	id := uuid.New()
	var n uint64
	for _, b := range id[:8] {
		n = n<<8 | uint64(b)
	}
	suffix := strconv.FormatUint(n%60466176, 36) // 36^5
	suffix = strings.Repeat("0", 5-len(suffix)) + suffix

	return "ORD-" + ms + "-" + strings.ToUpper(suffix)
}
