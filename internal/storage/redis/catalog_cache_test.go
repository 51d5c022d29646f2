package redis

import (
	"context"
	"os"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/orchidcommerce/orchidbe/internal/domain"
)

// fakeCatalog считает обращения к источнику каталога.
type fakeCatalog struct {
	products map[string]domain.ProductRef
	calls    int
}

func (f *fakeCatalog) ResolveProduct(_ context.Context, orchidID string) (domain.ProductRef, error) {
	f.calls++
	ref, ok := f.products[orchidID]
	if !ok {
		return domain.ProductRef{}, domain.ErrOrchidNotFound
	}
	return ref, nil
}

func testRedisAddr() string {
	if addr := os.Getenv("ORCHID_REDIS_TEST_ADDR"); addr != "" {
		return addr
	}
	if addr := os.Getenv("ORCHID_REDIS_ADDR"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

func newCacheForIntegrationTest(t *testing.T, next domain.CatalogGateway) *CatalogCache {
	t.Helper()

	cache, err := NewCatalogCache(context.Background(), testRedisAddr(), next, log.StandardLogger())
	if err != nil {
		t.Skipf("redis is not available, skipping integration test: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestResolveProductReadThrough(t *testing.T) {
	source := &fakeCatalog{products: map[string]domain.ProductRef{
		"orchid-1": {ID: "orchid-1", PriceMinor: 150000, Available: true},
	}}
	cache := newCacheForIntegrationTest(t, source)

	ctx := context.Background()
	cache.Invalidate(ctx, "orchid-1")

	// Первый запрос идёт в источник, второй — из кэша.
	ref, err := cache.ResolveProduct(ctx, "orchid-1")
	require.NoError(t, err)
	require.Equal(t, int64(150000), ref.PriceMinor)
	require.Equal(t, 1, source.calls)

	ref, err = cache.ResolveProduct(ctx, "orchid-1")
	require.NoError(t, err)
	require.True(t, ref.Available)
	require.Equal(t, 1, source.calls)
}

func TestInvalidateForcesSourceHit(t *testing.T) {
	source := &fakeCatalog{products: map[string]domain.ProductRef{
		"orchid-2": {ID: "orchid-2", PriceMinor: 120000, Available: true},
	}}
	cache := newCacheForIntegrationTest(t, source)

	ctx := context.Background()
	cache.Invalidate(ctx, "orchid-2")

	_, err := cache.ResolveProduct(ctx, "orchid-2")
	require.NoError(t, err)
	require.Equal(t, 1, source.calls)

	cache.Invalidate(ctx, "orchid-2")

	_, err = cache.ResolveProduct(ctx, "orchid-2")
	require.NoError(t, err)
	require.Equal(t, 2, source.calls)
}

func TestResolveProductUnknownIsNotCached(t *testing.T) {
	source := &fakeCatalog{products: map[string]domain.ProductRef{}}
	cache := newCacheForIntegrationTest(t, source)

	ctx := context.Background()
	cache.Invalidate(ctx, "missing")

	_, err := cache.ResolveProduct(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrOrchidNotFound)

	_, err = cache.ResolveProduct(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrOrchidNotFound)
	require.Equal(t, 2, source.calls)
}
