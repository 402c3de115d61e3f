package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"goflare.io/storefront/event"
	"goflare.io/storefront/models"
	"goflare.io/storefront/storage"
)

type fixture struct {
	storage *storage.Memory
	bus     *event.Bus
	svc     Service
	changes []event.Change
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		storage: storage.NewMemory(),
		bus:     event.NewBus(zap.NewNop()),
	}
	f.svc = NewService(NewRepository(f.storage, zap.NewNop()), f.bus, zap.NewNop())

	record := func(_ context.Context, c event.Change) { f.changes = append(f.changes, c) }
	f.bus.Subscribe(event.TopicCartUpdated, record)
	f.bus.Subscribe(event.TopicWishlistUpdated, record)
	return f
}

func item(id string, price float64) models.LineItem {
	return models.LineItem{ProductID: id, Name: "Product " + id, UnitPrice: price, ImageRef: "/img/" + id + ".png"}
}

func TestAddTwiceIncrementsQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Add(ctx, CartKey(), item("p1", 10), 1))
	require.NoError(t, f.svc.Add(ctx, CartKey(), item("p1", 10), 1))

	items := f.svc.List(ctx, CartKey())
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Len(t, f.changes, 2)
}

func TestAddPreservesInsertionOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, f.svc.Add(ctx, CartKey(), item(id, 1), 1))
	}
	require.NoError(t, f.svc.Add(ctx, CartKey(), item("a", 1), 3))

	var ids []string
	for _, it := range f.svc.List(ctx, CartKey()) {
		ids = append(ids, it.ProductID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
	assert.Equal(t, 6, f.svc.Count(ctx, CartKey()))
}

func TestAddRejectsInvalidItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.ErrorIs(t, f.svc.Add(ctx, CartKey(), item("", 1), 1), ErrInvalidItem)
	require.ErrorIs(t, f.svc.Add(ctx, CartKey(), item("p1", -1), 1), ErrInvalidItem)
	assert.Empty(t, f.changes)
}

func TestSetQuantityZeroRemoves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Add(ctx, CartKey(), item("p1", 10), 1))
	require.NoError(t, f.svc.Add(ctx, CartKey(), item("p2", 5), 1))
	require.NoError(t, f.svc.SetQuantity(ctx, CartKey(), "p1", 0))

	items := f.svc.List(ctx, CartKey())
	require.Len(t, items, 1)
	assert.Equal(t, "p2", items[0].ProductID)
}

func TestSetQuantityOverwrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Add(ctx, CartKey(), item("p1", 10), 1))
	require.NoError(t, f.svc.SetQuantity(ctx, CartKey(), "p1", 4))

	items := f.svc.List(ctx, CartKey())
	require.Len(t, items, 1)
	assert.Equal(t, 4, items[0].Quantity)
}

func TestSetQuantityOnWishlist(t *testing.T) {
	f := newFixture(t)
	err := f.svc.SetQuantity(context.Background(), WishlistKey("u1"), "p1", 2)
	require.ErrorIs(t, err, ErrNotCartKey)
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Add(ctx, CartKey(), item("p1", 10), 1))
	require.NoError(t, f.svc.Remove(ctx, CartKey(), "missing"))

	assert.Len(t, f.svc.List(ctx, CartKey()), 1)
	assert.Len(t, f.changes, 1)
}

func TestClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Add(ctx, CartKey(), item("p1", 10), 2))
	require.NoError(t, f.svc.Clear(ctx, CartKey()))

	assert.Empty(t, f.svc.List(ctx, CartKey()))
	assert.Zero(t, f.svc.Count(ctx, CartKey()))

	raw, found, err := f.storage.Get(ctx, "cart")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "[]", raw)
}

func TestPersistedStateSurvivesNewService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Add(ctx, CartKey(), item("p1", 12.5), 2))
	require.NoError(t, f.svc.Add(ctx, CartKey(), item("p2", 3), 1))

	reopened := NewService(NewRepository(f.storage, zap.NewNop()), event.NewBus(zap.NewNop()), zap.NewNop())
	assert.Equal(t, f.svc.List(ctx, CartKey()), reopened.List(ctx, CartKey()))
}

func TestStoredFormUsesCartFieldNames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Add(ctx, CartKey(), item("p1", 10), 1))

	raw, _, err := f.storage.Get(ctx, "cart")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"p1","name":"Product p1","price":10,"imageUrl":"/img/p1.png","quantity":1}]`, raw)
}

func TestCorruptStorageReadsAsEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.storage.Set(ctx, "cart", "{not json"))
	assert.Empty(t, f.svc.List(ctx, CartKey()))

	require.NoError(t, f.svc.Add(ctx, CartKey(), item("p1", 1), 1))
	assert.Len(t, f.svc.List(ctx, CartKey()), 1)
}

func TestLoadRepairsStoredEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.storage.Set(ctx, "cart", `[
		{"id":"p1","name":"A","price":10,"quantity":2},
		{"id":"p2","name":"B","price":5,"quantity":0},
		{"id":"p3","name":"C","price":5,"quantity":-4},
		{"id":"","name":"D","price":5,"quantity":1},
		{"id":"p1","name":"A","price":10,"quantity":3}
	]`))

	items := f.svc.List(ctx, CartKey())
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, 5, f.svc.Count(ctx, CartKey()))

	key := WishlistKey("u1")
	require.NoError(t, f.storage.Set(ctx, key.Name, `[{"id":"p1","name":"A"},{"id":"p1","name":"A again"},{"id":"p2","name":"B"}]`))

	wishlist := f.svc.List(ctx, key)
	require.Len(t, wishlist, 2)
	assert.Equal(t, "A", wishlist[0].Name)
	assert.Equal(t, "p2", wishlist[1].ProductID)
}

type failingStorage struct {
	*storage.Memory
}

func (failingStorage) Set(context.Context, string, string) error {
	return errors.New("quota exceeded")
}

func TestWriteFailureIsReturnedWithoutEvent(t *testing.T) {
	bus := event.NewBus(zap.NewNop())
	published := 0
	bus.Subscribe(event.TopicCartUpdated, func(context.Context, event.Change) { published++ })

	svc := NewService(NewRepository(&failingStorage{Memory: storage.NewMemory()}, zap.NewNop()), bus, zap.NewNop())

	err := svc.Add(context.Background(), CartKey(), item("p1", 1), 1)
	require.Error(t, err)
	assert.Zero(t, published)
}

func TestWishlistIsPresenceOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := WishlistKey("u1")

	require.NoError(t, f.svc.Add(ctx, key, item("p1", 10), 3))
	require.NoError(t, f.svc.Add(ctx, key, item("p1", 10), 1))

	items := f.svc.List(ctx, key)
	require.Len(t, items, 1)
	assert.Zero(t, items[0].Quantity)
	assert.Equal(t, 1, f.svc.Count(ctx, key))
	require.Len(t, f.changes, 1)
	assert.Equal(t, event.TopicWishlistUpdated, f.changes[0].Topic)
	assert.Equal(t, "wishlist_u1", f.changes[0].Key)
}

func TestWishlistsAreScopedPerUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Add(ctx, WishlistKey("u1"), item("p1", 10), 0))

	assert.True(t, f.svc.Contains(ctx, WishlistKey("u1"), "p1"))
	assert.False(t, f.svc.Contains(ctx, WishlistKey("u2"), "p1"))
	assert.Empty(t, f.svc.List(ctx, CartKey()))
}

func TestToggle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := WishlistKey("u1")

	present, err := f.svc.Toggle(ctx, key, item("p1", 10))
	require.NoError(t, err)
	assert.True(t, present)
	assert.True(t, f.svc.Contains(ctx, key, "p1"))

	present, err = f.svc.Toggle(ctx, key, item("p1", 10))
	require.NoError(t, err)
	assert.False(t, present)
	assert.False(t, f.svc.Contains(ctx, key, "p1"))
}
