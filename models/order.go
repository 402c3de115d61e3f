package models

import (
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"

	"goflare.io/storefront/models/enum"
)

// Order 代表訂單
type Order struct {
	ID              string           `json:"id"`
	OrderNumber     string           `json:"orderNumber"`
	UserID          string           `json:"userId" validate:"required"`
	CustomerEmail   string           `json:"customerEmail" validate:"omitempty,email"`
	CustomerName    string           `json:"customerName"`
	CustomerPhone   string           `json:"customerPhone"`
	ShippingAddress ShippingAddress  `json:"shippingAddress"`
	Items           []LineItem       `json:"items" validate:"required,min=1"`
	Subtotal        float64          `json:"subtotal" validate:"gte=0"`
	Tax             float64          `json:"tax" validate:"gte=0"`
	Total           float64          `json:"total" validate:"gte=0"`
	Currency        stripe.Currency  `json:"currency"`
	PaymentMethod   string           `json:"paymentMethod"`
	PaymentIntentID string           `json:"paymentIntentId,omitempty"`
	Status          enum.OrderStatus `json:"status"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// ShippingAddress 代表收件地址
type ShippingAddress struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
}

// Receipt is what the order-success page shows after checkout.
type Receipt struct {
	OrderID     string  `json:"orderId"`
	OrderNumber string  `json:"orderNumber"`
	Total       float64 `json:"total"`
}

func (o *Order) Validate() error {
	if err := validatorInstance().Struct(o); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOrder, err)
	}
	return nil
}

// CanCancel 判斷訂單是否仍可取消
func (o *Order) CanCancel() bool {
	switch o.Status {
	case enum.OrderStatusPending, enum.OrderStatusProcessing, enum.OrderStatusPaid:
		return true
	default:
		return false
	}
}

var orderTransitions = map[enum.OrderStatus][]enum.OrderStatus{
	enum.OrderStatusPending:    {enum.OrderStatusProcessing, enum.OrderStatusPaid, enum.OrderStatusCancelled, enum.OrderStatusFailed},
	enum.OrderStatusProcessing: {enum.OrderStatusPaid, enum.OrderStatusShipped, enum.OrderStatusCancelled, enum.OrderStatusFailed},
	enum.OrderStatusPaid:       {enum.OrderStatusProcessing, enum.OrderStatusShipped, enum.OrderStatusCancelled, enum.OrderStatusRefunded},
	enum.OrderStatusShipped:    {enum.OrderStatusDelivered, enum.OrderStatusRefunded},
	enum.OrderStatusDelivered:  {enum.OrderStatusRefunded},
	enum.OrderStatusFailed:     {enum.OrderStatusPending, enum.OrderStatusCancelled},
}

// AllowChangeStatus 檢查狀態轉換是否有效
func (o *Order) AllowChangeStatus(next enum.OrderStatus) bool {
	if o.Status == next {
		return true
	}
	for _, allowed := range orderTransitions[o.Status] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Document returns the stored representation of o, without its id.
func (o *Order) Document() map[string]any {
	items := make([]any, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, map[string]any{
			"id":       item.ProductID,
			"name":     item.Name,
			"price":    item.UnitPrice,
			"imageUrl": item.ImageRef,
			"quantity": int64(item.Quantity),
		})
	}

	return map[string]any{
		"orderNumber":   o.OrderNumber,
		"userId":        o.UserID,
		"customerEmail": o.CustomerEmail,
		"customerName":  o.CustomerName,
		"customerPhone": o.CustomerPhone,
		"shippingAddress": map[string]any{
			"address": o.ShippingAddress.Address,
			"city":    o.ShippingAddress.City,
			"state":   o.ShippingAddress.State,
			"zipCode": o.ShippingAddress.ZipCode,
		},
		"items":           items,
		"subtotal":        o.Subtotal,
		"tax":             o.Tax,
		"total":           o.Total,
		"currency":        string(o.Currency),
		"paymentMethod":   o.PaymentMethod,
		"paymentIntentId": o.PaymentIntentID,
		"status":          string(o.Status),
		"createdAt":       o.CreatedAt,
		"updatedAt":       o.UpdatedAt,
	}
}

// ConvertFromDocument fills o from an untyped document record.
func (o *Order) ConvertFromDocument(id string, data map[string]any) (*Order, error) {
	r := newDocumentReader(data)

	o.ID = id
	o.OrderNumber = r.string("orderNumber")
	o.UserID = r.string("userId")
	o.CustomerEmail = r.string("customerEmail")
	o.CustomerName = r.string("customerName")
	o.CustomerPhone = r.string("customerPhone")
	o.Subtotal = r.float("subtotal")
	o.Tax = r.float("tax")
	o.Total = r.float("total")
	o.Currency = stripe.Currency(r.string("currency"))
	o.PaymentMethod = r.string("paymentMethod")
	o.PaymentIntentID = r.string("paymentIntentId")
	o.Status = enum.OrderStatus(r.string("status"))
	o.CreatedAt = r.time("createdAt")
	o.UpdatedAt = r.time("updatedAt")

	if addr, ok := data["shippingAddress"].(map[string]any); ok {
		ar := newDocumentReader(addr)
		o.ShippingAddress = ShippingAddress{
			Address: ar.string("address"),
			City:    ar.string("city"),
			State:   ar.string("state"),
			ZipCode: ar.string("zipCode"),
		}
	}

	o.Items = o.Items[:0]
	if raw, ok := data["items"].([]any); ok {
		for i, entry := range raw {
			m, ok := entry.(map[string]any)
			if !ok {
				r.errs = append(r.errs, fmt.Sprintf("items[%d]: not an object", i))
				continue
			}
			ir := newDocumentReader(m)
			o.Items = append(o.Items, LineItem{
				ProductID: ir.string("id"),
				Name:      ir.string("name"),
				UnitPrice: ir.float("price"),
				ImageRef:  ir.string("imageUrl"),
				Quantity:  ir.int("quantity"),
			})
			r.errs = append(r.errs, ir.errs...)
		}
	}

	if err := r.err(); err != nil {
		return nil, fmt.Errorf("order %s: %w", id, err)
	}
	if o.Status != "" && !o.Status.Valid() {
		return nil, fmt.Errorf("order %s: %w: unknown status %q", id, ErrMalformedDocument, o.Status)
	}

	return o, nil
}
