package storage

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"goflare.io/storefront/driver"
)

func exerciseStorage(t *testing.T, s Storage) {
	t.Helper()
	ctx := context.Background()

	_, found, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "cart", `[{"id":"p1"}]`))
	value, found, err := s.Get(ctx, "cart")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"id":"p1"}]`, value)

	require.NoError(t, s.Set(ctx, "cart", `[]`))
	value, found, err = s.Get(ctx, "cart")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[]`, value)

	require.NoError(t, s.Remove(ctx, "cart"))
	_, found, err = s.Get(ctx, "cart")
	require.NoError(t, err)
	assert.False(t, found)

	// removing twice is fine
	require.NoError(t, s.Remove(ctx, "cart"))
}

func TestMemory(t *testing.T) {
	exerciseStorage(t, NewMemory())
}

func TestDocumentsOnClover(t *testing.T) {
	store, err := driver.ConnectClover(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	exerciseStorage(t, NewDocuments(store, zap.NewNop()))
}

func TestDocumentsKeysAreIndependent(t *testing.T) {
	store, err := driver.ConnectClover(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	s := NewDocuments(store, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "wishlist_u1", "a"))
	require.NoError(t, s.Set(ctx, "wishlist_u2", "b"))

	v1, _, err := s.Get(ctx, "wishlist_u1")
	require.NoError(t, err)
	v2, _, err := s.Get(ctx, "wishlist_u2")
	require.NoError(t, err)
	assert.Equal(t, "a", v1)
	assert.Equal(t, "b", v2)
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("STOREFRONT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STOREFRONT_TEST_REDIS_ADDR not set")
	}

	client, err := driver.ConnectRedis(addr, "", 0, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	exerciseStorage(t, NewRedis(client, "storefront-test:", zap.NewNop()))
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("STOREFRONT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("STOREFRONT_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	db, err := driver.ConnectSQL(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Pool.Close)

	s := NewPostgres(db.Pool, driver.NewTransactionManager(db.Pool, zap.NewNop()), zap.NewNop())
	require.NoError(t, s.EnsureSchema(ctx))

	exerciseStorage(t, s)
}
