// Package shop is the storefront facade the CLI drives: cart and wishlist
// on this device, checkout, order history and product administration.
package shop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"goflare.io/storefront/cart"
	"goflare.io/storefront/catalog"
	"goflare.io/storefront/identity"
	"goflare.io/storefront/models"
	"goflare.io/storefront/models/enum"
	"goflare.io/storefront/notification"
	"goflare.io/storefront/order"
	"goflare.io/storefront/payment"
	"goflare.io/storefront/storage"
)

const lastOrderKey = "lastOrder"

var (
	ErrSignInRequired = errors.New("sign in required")
	ErrEmptyCart      = errors.New("cart is empty")
	ErrCheckoutFailed = errors.New("checkout failed")

	// ErrInsufficientStock is returned when a product has fewer units in
	// stock than requested.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// CartView is the cart with display-rounded totals.
type CartView struct {
	Items  []models.LineItem `json:"items"`
	Totals models.Totals     `json:"totals"`
	Count  int               `json:"count"`
}

// CheckoutDetails is what the customer fills in at checkout.
type CheckoutDetails struct {
	FirstName       string                 `validate:"required"`
	LastName        string                 `validate:"required"`
	Phone           string                 `validate:"required"`
	ShippingAddress models.ShippingAddress `validate:"required"`
}

// CheckoutObserver is told the outcome of every checkout attempt.
type CheckoutObserver interface {
	Checkout(outcome string)
}

type Settings struct {
	TaxRate  float64
	Currency stripe.Currency
	Observer CheckoutObserver
}

var _ Service = (*service)(nil)

type Service interface {
	AddToCart(ctx context.Context, productID string, quantity int) error
	UpdateCartQuantity(ctx context.Context, productID string, quantity int) error
	RemoveFromCart(ctx context.Context, productID string) error
	Cart(ctx context.Context) CartView

	ToggleWishlist(ctx context.Context, productID string) (bool, error)
	Wishlist(ctx context.Context) ([]models.LineItem, error)
	ClearWishlist(ctx context.Context) error

	Checkout(ctx context.Context, details CheckoutDetails) (*models.Receipt, error)
	LastOrder(ctx context.Context) (*models.Receipt, bool)
	MyOrders(ctx context.Context) ([]*models.Order, error)

	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id string) error
	AllOrders(ctx context.Context) ([]*models.Order, error)
	SalesSummary(ctx context.Context) (*order.Summary, error)
	UpdateOrderStatus(ctx context.Context, id string, status enum.OrderStatus) error
	// SeedSampleProducts fills an empty catalog with the sample products and
	// reports how many were created.
	SeedSampleProducts(ctx context.Context) (int, error)
}

type service struct {
	carts         cart.Service
	catalog       catalog.Service
	orders        order.Service
	notifications notification.Service
	session       *identity.Session
	charger       payment.Charger
	storage       storage.Storage

	settings Settings
	validate *validator.Validate
	logger   *zap.Logger

	// makes the stock check and the cart write one step
	stockMu sync.Mutex
}

func NewService(
	carts cart.Service, catalog catalog.Service, orders order.Service, notifications notification.Service,
	session *identity.Session, charger payment.Charger, storage storage.Storage,
	settings Settings,
	logger *zap.Logger) Service {
	if settings.Currency == "" {
		settings.Currency = stripe.CurrencyUSD
	}

	return &service{
		carts:         carts,
		catalog:       catalog,
		orders:        orders,
		notifications: notifications,
		session:       session,
		charger:       charger,
		storage:       storage,
		settings:      settings,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		logger:        logger,
	}
}

func (s *service) AddToCart(ctx context.Context, productID string, quantity int) error {
	product, err := s.catalog.Product(ctx, productID)
	if err != nil {
		return err
	}

	if quantity < 1 {
		quantity = 1
	}

	s.stockMu.Lock()
	defer s.stockMu.Unlock()

	if err = checkStock(product, s.inCart(ctx, productID)+quantity); err != nil {
		return err
	}
	return s.carts.Add(ctx, cart.CartKey(), product.LineItem(quantity), quantity)
}

func (s *service) UpdateCartQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity > 0 {
		product, err := s.catalog.Product(ctx, productID)
		if err != nil {
			return err
		}
		if err = checkStock(product, quantity); err != nil {
			return err
		}
	}

	s.stockMu.Lock()
	defer s.stockMu.Unlock()

	return s.carts.SetQuantity(ctx, cart.CartKey(), productID, quantity)
}

func (s *service) RemoveFromCart(ctx context.Context, productID string) error {
	return s.carts.Remove(ctx, cart.CartKey(), productID)
}

func (s *service) Cart(ctx context.Context) CartView {
	items := s.carts.List(ctx, cart.CartKey())

	count := 0
	for _, item := range items {
		count += item.Quantity
	}

	return CartView{
		Items:  items,
		Totals: cart.ComputeTotals(items, s.settings.TaxRate).Rounded(),
		Count:  count,
	}
}

func (s *service) ToggleWishlist(ctx context.Context, productID string) (bool, error) {
	key, err := s.wishlistKey()
	if err != nil {
		return false, err
	}

	product, err := s.catalog.Product(ctx, productID)
	if err != nil {
		return false, err
	}
	return s.carts.Toggle(ctx, key, product.WishlistItem())
}

func (s *service) Wishlist(ctx context.Context) ([]models.LineItem, error) {
	key, err := s.wishlistKey()
	if err != nil {
		return nil, err
	}
	return s.carts.List(ctx, key), nil
}

func (s *service) ClearWishlist(ctx context.Context) error {
	key, err := s.wishlistKey()
	if err != nil {
		return err
	}
	return s.carts.Clear(ctx, key)
}

// Checkout places the cart as an order and charges it. The cart is only
// cleared once the order is saved and the charge accepted; any earlier
// failure leaves it intact and wraps ErrCheckoutFailed.
func (s *service) Checkout(ctx context.Context, details CheckoutDetails) (*models.Receipt, error) {
	user := s.session.Current()
	if user == nil {
		return nil, ErrSignInRequired
	}

	items := s.carts.List(ctx, cart.CartKey())
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	if err := s.validate.Struct(details); err != nil {
		s.observe("invalid")
		return nil, fmt.Errorf("%w: %v", ErrCheckoutFailed, err)
	}

	totals := cart.ComputeTotals(items, s.settings.TaxRate).Rounded()
	placed, err := s.orders.Place(ctx, &models.Order{
		UserID:          user.UID,
		CustomerEmail:   user.Email,
		CustomerName:    strings.TrimSpace(details.FirstName + " " + details.LastName),
		CustomerPhone:   details.Phone,
		ShippingAddress: details.ShippingAddress,
		Items:           items,
		Subtotal:        totals.Subtotal,
		Tax:             totals.Tax,
		Total:           totals.Total,
		Currency:        s.settings.Currency,
		PaymentMethod:   "credit_card",
	})
	if err != nil {
		s.observe("failed")
		return nil, fmt.Errorf("%w: failed to save order: %w", ErrCheckoutFailed, err)
	}

	charge, err := s.charger.Charge(ctx, payment.ChargeRequest{
		OrderID:     placed.ID,
		OrderNumber: placed.OrderNumber,
		Amount:      placed.Total,
		Currency:    placed.Currency,
		Email:       placed.CustomerEmail,
	})
	if err != nil {
		// 付款失敗，訂單標記為 failed
		if uerr := s.orders.UpdateStatus(context.WithoutCancel(ctx), placed.ID, enum.OrderStatusFailed); uerr != nil {
			s.logger.Error("Failed to mark order as failed", zap.String("order_id", placed.ID), zap.Error(uerr))
		}
		s.observe("declined")
		return nil, fmt.Errorf("%w: failed to charge order %s: %w", ErrCheckoutFailed, placed.OrderNumber, err)
	}

	if err = s.orders.AttachPayment(ctx, placed.ID, charge.PaymentIntentID); err != nil {
		s.observe("failed")
		return nil, fmt.Errorf("%w: failed to record payment: %w", ErrCheckoutFailed, err)
	}

	if charge.Status == stripe.PaymentIntentStatusSucceeded {
		if _, err = s.orders.Transition(ctx, placed.ID, enum.OrderStatusPaid); err != nil {
			s.logger.Warn("Failed to mark order as paid; awaiting payment event",
				zap.String("order_id", placed.ID), zap.Error(err))
		}
	}

	if err = s.carts.Clear(ctx, cart.CartKey()); err != nil {
		s.logger.Error("Failed to clear cart after checkout", zap.String("order_id", placed.ID), zap.Error(err))
	}

	receipt := &models.Receipt{
		OrderID:     placed.ID,
		OrderNumber: placed.OrderNumber,
		Total:       placed.Total,
	}
	s.saveReceipt(ctx, receipt)

	if _, err = s.notifications.Push(ctx, user.UID, models.Notification{
		Title:   "Order Placed",
		Message: fmt.Sprintf("Your order %s has been placed successfully.", placed.OrderNumber),
		Type:    enum.NotificationTypeOrder,
	}); err != nil {
		s.logger.Warn("Failed to notify customer", zap.String("order_id", placed.ID), zap.Error(err))
	}

	s.observe("succeeded")
	s.logger.Info("Checkout completed",
		zap.String("order_id", placed.ID),
		zap.String("order_number", placed.OrderNumber),
		zap.String("payment_intent_id", charge.PaymentIntentID),
	)
	return receipt, nil
}

func (s *service) LastOrder(ctx context.Context) (*models.Receipt, bool) {
	raw, found, err := s.storage.Get(ctx, lastOrderKey)
	if err != nil {
		s.logger.Warn("Failed to read last order", zap.Error(err))
		return nil, false
	}
	if !found {
		return nil, false
	}

	var receipt models.Receipt
	if err = sonic.UnmarshalString(raw, &receipt); err != nil || receipt.OrderID == "" {
		s.logger.Warn("Discarding unreadable last order", zap.Error(err))
		return nil, false
	}
	return &receipt, true
}

func (s *service) MyOrders(ctx context.Context) ([]*models.Order, error) {
	user := s.session.Current()
	if user == nil {
		return nil, ErrSignInRequired
	}
	return s.orders.ListByUser(ctx, user.UID)
}

func (s *service) CreateProduct(ctx context.Context, product *models.Product) error {
	return s.catalog.CreateProduct(ctx, product)
}

func (s *service) UpdateProduct(ctx context.Context, product *models.Product) error {
	return s.catalog.UpdateProduct(ctx, product)
}

func (s *service) DeleteProduct(ctx context.Context, id string) error {
	return s.catalog.DeleteProduct(ctx, id)
}

func (s *service) AllOrders(ctx context.Context) ([]*models.Order, error) {
	return s.orders.ListAll(ctx)
}

func (s *service) SalesSummary(ctx context.Context) (*order.Summary, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return order.Summarize(orders), nil
}

func (s *service) UpdateOrderStatus(ctx context.Context, id string, status enum.OrderStatus) error {
	return s.orders.UpdateStatus(ctx, id, status)
}

func (s *service) SeedSampleProducts(ctx context.Context) (int, error) {
	existing, err := s.catalog.Products(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list products: %w", err)
	}
	if len(existing) > 0 {
		s.logger.Info("Catalog already seeded", zap.Int("products", len(existing)))
		return 0, nil
	}

	created := 0
	for _, product := range catalog.SampleProducts() {
		if err = s.catalog.CreateProduct(ctx, product); err != nil {
			return created, fmt.Errorf("failed to create product %q: %w", product.Name, err)
		}
		created++
	}

	s.logger.Info("Sample products seeded", zap.Int("products", created))
	return created, nil
}

// inCart is the quantity of productID already in the cart.
func (s *service) inCart(ctx context.Context, productID string) int {
	for _, item := range s.carts.List(ctx, cart.CartKey()) {
		if item.ProductID == productID {
			return item.Quantity
		}
	}
	return 0
}

func checkStock(product *models.Product, wanted int) error {
	if product.Stock < wanted {
		return fmt.Errorf("%w for %s: %d left", ErrInsufficientStock, product.Name, product.Stock)
	}
	return nil
}

func (s *service) wishlistKey() (cart.Key, error) {
	user := s.session.Current()
	if user == nil {
		return cart.Key{}, ErrSignInRequired
	}
	return cart.WishlistKey(user.UID), nil
}

func (s *service) saveReceipt(ctx context.Context, receipt *models.Receipt) {
	raw, err := sonic.MarshalString(receipt)
	if err == nil {
		err = s.storage.Set(ctx, lastOrderKey, raw)
	}
	if err != nil {
		s.logger.Warn("Failed to save last order", zap.String("order_id", receipt.OrderID), zap.Error(err))
	}
}

func (s *service) observe(outcome string) {
	if s.settings.Observer != nil {
		s.settings.Observer.Checkout(outcome)
	}
}
