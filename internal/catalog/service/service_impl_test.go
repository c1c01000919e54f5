package service

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/tillpoint/internal/catalog/domain"
	"github.com/smallbiznis/tillpoint/internal/catalog/repository"
	"github.com/smallbiznis/tillpoint/internal/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupCatalogTest(t *testing.T) (*gorm.DB, domain.Service) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, migration.Bootstrap(conn))

	require.NoError(t, conn.Exec(
		`INSERT INTO item_master (location_code, item_code, item_name, retail_price, manufacturer_id)
		 VALUES ('LOC001', 'SKU-1', 'Soap', 12.50, '8901234567890'),
		        ('LOC001', 'SKU-2', 'Towel', 45.00, '8909876543210')`,
	).Error)

	svc := New(Params{DB: conn, Log: zap.NewNop(), Repo: repository.Provide()})
	return conn, svc
}

func TestListProducts(t *testing.T) {
	_, svc := setupCatalogTest(t)

	items, err := svc.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestLookupByItemCode(t *testing.T) {
	_, svc := setupCatalogTest(t)

	item, err := svc.Lookup(context.Background(), "sku-1")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "Soap", item.ItemName)
}

func TestLookupByBarcode(t *testing.T) {
	_, svc := setupCatalogTest(t)

	item, err := svc.Lookup(context.Background(), "8909876543210")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "SKU-2", item.ItemCode)
}

func TestLookupUnknownCode(t *testing.T) {
	_, svc := setupCatalogTest(t)

	item, err := svc.Lookup(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestLookupRequiresCode(t *testing.T) {
	_, svc := setupCatalogTest(t)

	_, err := svc.Lookup(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrCodeRequired)
}

func TestResolveSkipsUnknownCodes(t *testing.T) {
	_, svc := setupCatalogTest(t)

	resolved, err := svc.Resolve(context.Background(), []string{"SKU-1", "GHOST"})
	require.NoError(t, err)
	require.Contains(t, resolved, "SKU-1")
	assert.Equal(t, "Soap", resolved["SKU-1"].Name)
	assert.NotContains(t, resolved, "GHOST")
}

func TestResolveServesFromCacheWhenStoreDown(t *testing.T) {
	conn, svc := setupCatalogTest(t)

	// Warm the cache.
	_, err := svc.Resolve(context.Background(), []string{"SKU-1"})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	resolved, err := svc.Resolve(context.Background(), []string{"SKU-1"})
	require.NoError(t, err)
	assert.Equal(t, "Soap", resolved["SKU-1"].Name)

	// A cold code surfaces the error but keeps the cached hits.
	resolved, err = svc.Resolve(context.Background(), []string{"SKU-1", "SKU-2"})
	require.Error(t, err)
	assert.Contains(t, resolved, "SKU-1")
}
