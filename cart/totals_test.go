package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goflare.io/storefront/models"
)

func TestComputeTotalsScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Add(ctx, CartKey(), item("A", 10), 1))
	require.NoError(t, f.svc.Add(ctx, CartKey(), item("A", 10), 1))
	require.NoError(t, f.svc.Add(ctx, CartKey(), item("B", 5), 1))

	items := f.svc.List(ctx, CartKey())
	require.Len(t, items, 2)
	assert.Equal(t, "A", items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "B", items[1].ProductID)
	assert.Equal(t, 1, items[1].Quantity)

	totals := ComputeTotals(items, DefaultTaxRate).Rounded()
	assert.Equal(t, models.Totals{Subtotal: 25.00, Tax: 2.00, Total: 27.00}, totals)
}

func TestComputeTotalsEmpty(t *testing.T) {
	assert.Equal(t, models.Totals{}, ComputeTotals(nil, DefaultTaxRate))
}

func TestComputeTotalsIsLinear(t *testing.T) {
	a := []models.LineItem{{ProductID: "a", UnitPrice: 19.99, Quantity: 3}}
	b := []models.LineItem{{ProductID: "b", UnitPrice: 0.1, Quantity: 7}, {ProductID: "c", UnitPrice: 4.25, Quantity: 2}}

	sa := ComputeTotals(a, DefaultTaxRate).Subtotal
	sb := ComputeTotals(b, DefaultTaxRate).Subtotal
	sab := ComputeTotals(append(append([]models.LineItem{}, a...), b...), DefaultTaxRate).Subtotal

	assert.InDelta(t, sa+sb, sab, 1e-9)
}

func TestComputeTotalsDoesNotRoundIntermediates(t *testing.T) {
	items := []models.LineItem{
		{ProductID: "a", UnitPrice: 0.005, Quantity: 1},
		{ProductID: "b", UnitPrice: 0.005, Quantity: 1},
	}

	totals := ComputeTotals(items, 0)
	assert.InDelta(t, 0.01, totals.Subtotal, 1e-12)
	assert.Equal(t, 0.01, models.RoundMoney(totals.Total))
}
