package models

import "math"

// LineItem 代表購物車或願望清單中的單個商品項目
//
// Wishlist entries are presence-only and leave Quantity at zero, which keeps
// the field out of the persisted form.
type LineItem struct {
	ProductID   string  `json:"id"`
	Name        string  `json:"name"`
	UnitPrice   float64 `json:"price"`
	ImageRef    string  `json:"imageUrl"`
	Quantity    int     `json:"quantity,omitempty"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
	Stock       *int    `json:"stock,omitempty"`
	Featured    *bool   `json:"featured,omitempty"`
}

// Subtotal is UnitPrice × Quantity, unrounded.
func (li LineItem) Subtotal() float64 {
	return li.UnitPrice * float64(li.Quantity)
}

// Totals 代表購物車金額彙總，未經四捨五入
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// Rounded returns t with every amount rounded to cents, for display only.
func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal: RoundMoney(t.Subtotal),
		Tax:      RoundMoney(t.Tax),
		Total:    RoundMoney(t.Total),
	}
}

// RoundMoney rounds v to two decimal places.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// MinorUnits converts an amount to integer cents.
func MinorUnits(v float64) int64 {
	return int64(math.Round(v * 100))
}
