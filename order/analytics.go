package order

import (
	"sort"

	"goflare.io/storefront/models"
	"goflare.io/storefront/models/enum"
)

const topProductsLimit = 5

// Summary is the store-wide sales overview shown on the admin dashboard.
type Summary struct {
	Revenue           float64                  `json:"revenue"`
	OrderCount        int                      `json:"orderCount"`
	AverageOrderValue float64                  `json:"averageOrderValue"`
	TopProducts       []ProductSales           `json:"topProducts"`
	MonthlyRevenue    []MonthlyRevenue         `json:"monthlyRevenue"`
	StatusCounts      map[enum.OrderStatus]int `json:"statusCounts"`
}

type ProductSales struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type MonthlyRevenue struct {
	// Month is formatted as 2006-01.
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

// Summarize aggregates orders. Products are grouped by name; orders without
// a status count as pending.
func Summarize(orders []*models.Order) *Summary {
	summary := &Summary{
		OrderCount:     len(orders),
		TopProducts:    []ProductSales{},
		MonthlyRevenue: []MonthlyRevenue{},
		StatusCounts:   make(map[enum.OrderStatus]int),
	}

	sold := make(map[string]int)
	monthly := make(map[string]float64)
	for _, o := range orders {
		summary.Revenue += o.Total

		for _, item := range o.Items {
			sold[item.Name] += item.Quantity
		}

		month := o.CreatedAt.UTC().Format("2006-01")
		monthly[month] += o.Total

		status := o.Status
		if status == "" {
			status = enum.OrderStatusPending
		}
		summary.StatusCounts[status]++
	}

	if summary.OrderCount > 0 {
		summary.AverageOrderValue = models.RoundMoney(summary.Revenue / float64(summary.OrderCount))
	}
	summary.Revenue = models.RoundMoney(summary.Revenue)

	for name, quantity := range sold {
		summary.TopProducts = append(summary.TopProducts, ProductSales{Name: name, Quantity: quantity})
	}
	sort.Slice(summary.TopProducts, func(i, j int) bool {
		a, b := summary.TopProducts[i], summary.TopProducts[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		return a.Name < b.Name
	})
	if len(summary.TopProducts) > topProductsLimit {
		summary.TopProducts = summary.TopProducts[:topProductsLimit]
	}

	for month, revenue := range monthly {
		summary.MonthlyRevenue = append(summary.MonthlyRevenue, MonthlyRevenue{Month: month, Revenue: models.RoundMoney(revenue)})
	}
	sort.Slice(summary.MonthlyRevenue, func(i, j int) bool {
		return summary.MonthlyRevenue[i].Month < summary.MonthlyRevenue[j].Month
	})

	return summary
}
