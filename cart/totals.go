package cart

import "goflare.io/storefront/models"

// DefaultTaxRate is applied at checkout.
const DefaultTaxRate = 0.08

// ComputeTotals sums unitPrice × quantity over items without intermediate
// rounding. Use Totals.Rounded for display.
func ComputeTotals(items []models.LineItem, taxRate float64) models.Totals {
	var subtotal float64
	for _, item := range items {
		subtotal += item.Subtotal()
	}

	tax := subtotal * taxRate
	return models.Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal + tax,
	}
}
