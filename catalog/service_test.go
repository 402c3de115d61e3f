package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"goflare.io/storefront/driver"
	"goflare.io/storefront/fetch"
	"goflare.io/storefront/models"
)

func testOptions() fetch.Options {
	opts := fetch.DefaultOptions("")
	opts.RetryDelay = time.Millisecond
	return opts
}

func newSeededService(t *testing.T) (Service, Repository) {
	t.Helper()

	store, err := driver.ConnectClover(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	repo := NewRepository(store, zap.NewNop())
	svc := NewService(repo, testOptions(), zap.NewNop())
	for _, p := range SampleProducts() {
		require.NoError(t, svc.CreateProduct(context.Background(), p))
	}
	return svc, repo
}

func names(products []*models.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name)
	}
	return out
}

func TestProductsOrderedByName(t *testing.T) {
	svc, _ := newSeededService(t)

	products, err := svc.Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, len(SampleProducts()))
	assert.IsIncreasing(t, names(products))
}

func TestSearch(t *testing.T) {
	svc, _ := newSeededService(t)
	ctx := context.Background()

	found, err := svc.Search(ctx, "WIRELESS")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Wireless Bluetooth Headphones", "Wireless Charging Pad"}, names(found))

	found, err = svc.Search(ctx, "sports")
	require.NoError(t, err)
	assert.Equal(t, []string{"Yoga Mat Premium"}, names(found))

	found, err = svc.Search(ctx, "   ")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestCategories(t *testing.T) {
	svc, _ := newSeededService(t)
	ctx := context.Background()

	categories, err := svc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{AllCategories, "Clothing", "Electronics", "Sports"}, categories)

	clothing, err := svc.ByCategory(ctx, "Clothing")
	require.NoError(t, err)
	assert.Equal(t, []string{"Designer Sunglasses", "Organic Cotton T-Shirt"}, names(clothing))

	all, err := svc.ByCategory(ctx, AllCategories)
	require.NoError(t, err)
	assert.Len(t, all, len(SampleProducts()))
}

func TestHome(t *testing.T) {
	svc, _ := newSeededService(t)

	home, err := svc.Home(context.Background())
	require.NoError(t, err)
	assert.Len(t, home.Featured, 5)
	assert.Len(t, home.Hero, HeroLimit)
	assert.Len(t, home.NewArrivals, NewArrivalsLimit)
	for _, p := range home.Featured {
		assert.True(t, p.Featured)
	}
	for i := 1; i < len(home.NewArrivals); i++ {
		assert.False(t, home.NewArrivals[i].CreatedAt.After(home.NewArrivals[i-1].CreatedAt))
	}
}

func TestNewArrivalsExcludesOldProducts(t *testing.T) {
	_, repo := newSeededService(t)
	ctx := context.Background()

	old := &models.Product{Name: "Vintage Radio", Price: 10, CreatedAt: time.Now().Add(-60 * 24 * time.Hour)}
	require.NoError(t, repo.Create(ctx, old))

	arrivals, err := repo.NewArrivals(ctx, time.Now().Add(-NewArrivalsSpan), 100)
	require.NoError(t, err)
	assert.NotContains(t, names(arrivals), "Vintage Radio")
	assert.Len(t, arrivals, len(SampleProducts()))
}

func TestProductDetailAndAdminEdits(t *testing.T) {
	svc, _ := newSeededService(t)
	ctx := context.Background()

	products, err := svc.Products(ctx)
	require.NoError(t, err)
	target := products[0]

	got, err := svc.Product(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, target.Name, got.Name)

	updated := *got
	updated.Price = 1.5
	require.NoError(t, svc.UpdateProduct(ctx, &updated))

	got, err = svc.Product(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.5, got.Price)

	require.NoError(t, svc.DeleteProduct(ctx, target.ID))
	_, err = svc.Product(ctx, target.ID)
	require.ErrorIs(t, err, ErrProductNotFound)

	products, err = svc.Products(ctx)
	require.NoError(t, err)
	assert.Len(t, products, len(SampleProducts())-1)
}

func TestMissingProductLookupsAreNotCached(t *testing.T) {
	svc, _ := newSeededService(t)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		_, err := svc.Product(ctx, fmt.Sprintf("missing-%d", i))
		require.ErrorIs(t, err, ErrProductNotFound)
	}

	impl := svc.(*service)
	impl.mu.Lock()
	defer impl.mu.Unlock()
	assert.Empty(t, impl.details)
}

func TestCreateRejectsInvalidProduct(t *testing.T) {
	svc, _ := newSeededService(t)
	err := svc.CreateProduct(context.Background(), &models.Product{Name: "", Price: 3})
	require.ErrorIs(t, err, models.ErrInvalidProduct)

	err = svc.CreateProduct(context.Background(), &models.Product{Name: "Broken", Price: -1})
	require.ErrorIs(t, err, models.ErrInvalidProduct)
}

type flakyRepository struct {
	Repository
	lists atomic.Int32
	fail  atomic.Bool
}

func (r *flakyRepository) List(ctx context.Context) ([]*models.Product, error) {
	r.lists.Add(1)
	if r.fail.Load() {
		return nil, errors.New("backend unavailable")
	}
	return []*models.Product{{ID: "p1", Name: "Lamp", Price: 20}}, nil
}

func TestProductsAreCached(t *testing.T) {
	repo := &flakyRepository{}
	svc := NewService(repo, testOptions(), zap.NewNop())
	ctx := context.Background()

	_, err := svc.Products(ctx)
	require.NoError(t, err)
	_, err = svc.Search(ctx, "lamp")
	require.NoError(t, err)
	assert.EqualValues(t, 1, repo.lists.Load())

	svc.InvalidateAll()
	_, err = svc.Products(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, repo.lists.Load())
}

func TestStaleValueServedAfterFailure(t *testing.T) {
	repo := &flakyRepository{}
	svc := NewService(repo, testOptions(), zap.NewNop())
	ctx := context.Background()

	_, err := svc.Products(ctx)
	require.NoError(t, err)

	repo.fail.Store(true)
	svc.InvalidateAll()

	products, err := svc.Products(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Lamp"}, names(products))
	assert.EqualValues(t, 1+fetch.DefaultRetryAttempts+1, repo.lists.Load())
}

func TestFailureWithoutStaleValue(t *testing.T) {
	repo := &flakyRepository{}
	repo.fail.Store(true)
	svc := NewService(repo, testOptions(), zap.NewNop())

	_, err := svc.Products(context.Background())
	require.ErrorIs(t, err, fetch.ErrFetchFailed)
}
