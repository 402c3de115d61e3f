package models

import (
	"fmt"
	"strings"
	"time"
)

// Product 代表商品目錄中的單一商品
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description"`
	Price       float64   `json:"price" validate:"gte=0"`
	Category    string    `json:"category"`
	Stock       int       `json:"stock" validate:"gte=0"`
	ImageURL    string    `json:"imageUrl"`
	Featured    bool      `json:"featured"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewProduct() *Product {
	return new(Product)
}

// Validate checks the fields a storefront relies on.
func (p *Product) Validate() error {
	if err := validatorInstance().Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProduct, err)
	}
	return nil
}

// ConvertFromDocument fills p from an untyped document record, rejecting
// documents whose fields have the wrong shape.
func (p *Product) ConvertFromDocument(id string, data map[string]any) (*Product, error) {
	r := newDocumentReader(data)

	p.ID = id
	p.Name = strings.TrimSpace(r.string("name"))
	p.Description = r.string("description")
	p.Price = r.float("price")
	p.Category = r.string("category")
	p.Stock = r.int("stock")
	p.ImageURL = r.string("imageUrl")
	p.Featured = r.bool("featured")
	p.CreatedAt = r.time("createdAt")
	p.UpdatedAt = r.time("updatedAt")

	if err := r.err(); err != nil {
		return nil, fmt.Errorf("product %s: %w", id, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("product %s: %w", id, err)
	}

	return p, nil
}

// Document returns the stored representation of p, without its id.
func (p *Product) Document() map[string]any {
	return map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"category":    p.Category,
		"stock":       int64(p.Stock),
		"imageUrl":    p.ImageURL,
		"featured":    p.Featured,
		"createdAt":   p.CreatedAt,
		"updatedAt":   p.UpdatedAt,
	}
}

// LineItem returns the cart entry snapshot for p.
func (p *Product) LineItem(quantity int) LineItem {
	return LineItem{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		ImageRef:  p.ImageURL,
		Quantity:  quantity,
	}
}

// WishlistItem returns the presence-only wishlist snapshot for p.
func (p *Product) WishlistItem() LineItem {
	stock := p.Stock
	featured := p.Featured
	return LineItem{
		ProductID:   p.ID,
		Name:        p.Name,
		UnitPrice:   p.Price,
		ImageRef:    p.ImageURL,
		Category:    p.Category,
		Description: p.Description,
		Stock:       &stock,
		Featured:    &featured,
	}
}
