// Package testutil builds throwaway sqlite databases and fixtures for package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tesotunes/storefront/internal/models"
	"github.com/tesotunes/storefront/pkg/db"
	"gorm.io/gorm"
)

func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(context.Background(), db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(models.All()...))

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}

func Money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func IntPtr(v int) *int {
	return &v
}

func SeedUser(t testing.TB, gdb *gorm.DB, balance string) *models.User {
	t.Helper()
	u := &models.User{
		Name:          "Test User",
		Email:         uuid.NewString() + "@example.test",
		CreditBalance: Money(balance),
	}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

func SeedStore(t testing.TB, gdb *gorm.DB, ownerID uuid.UUID) *models.Store {
	t.Helper()
	s := &models.Store{OwnerID: ownerID, Name: "Test Store", Status: models.StoreActive}
	require.NoError(t, gdb.Create(s).Error)
	return s
}

// SeedProduct creates an active product. A nil stock means untracked.
func SeedProduct(t testing.TB, gdb *gorm.DB, storeID uuid.UUID, price string, stock *int) *models.Product {
	t.Helper()
	p := &models.Product{
		StoreID:        storeID,
		Name:           "Product " + uuid.NewString()[:8],
		Price:          Money(price),
		StockQuantity:  stock,
		TrackInventory: stock != nil,
		Status:         models.ProductActive,
	}
	require.NoError(t, gdb.Create(p).Error)
	return p
}

func ReloadProduct(t testing.TB, gdb *gorm.DB, id uuid.UUID) *models.Product {
	t.Helper()
	var p models.Product
	require.NoError(t, gdb.First(&p, "id = ?", id).Error)
	return &p
}

func ReloadUser(t testing.TB, gdb *gorm.DB, id uuid.UUID) *models.User {
	t.Helper()
	var u models.User
	require.NoError(t, gdb.First(&u, "id = ?", id).Error)
	return &u
}
