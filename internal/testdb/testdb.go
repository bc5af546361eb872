// Package testdb opens throwaway sqlite databases with the service schema.
package testdb

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PostgresEnv names the DSN used by tests that need transactions to really
// interleave.
const PostgresEnv = "STOREFRONT_TEST_DATABASE_URL"

// Open returns a migrated database backed by a file in t.TempDir. sqlite has a
// single writer, so the pool is capped at one connection and concurrent
// transactions run one after another. Use OpenPostgres to exercise row locks.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "storefront.db") + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

// OpenPostgres connects to the database named by STOREFRONT_TEST_DATABASE_URL
// and skips the test when it is unset. Seeded rows use fresh ids, so tests can
// share the database without truncating it.
func OpenPostgres(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv(PostgresEnv)
	if dsn == "" {
		t.Skip(PostgresEnv + " is required for postgres tests")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open postgres: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(32)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

// Variant builds an iPhone variant with the given price and stock; InStock
// follows the stock count.
func Variant(price string, stock int) models.Variant {
	return models.Variant{
		Price:      decimal.RequireFromString(price),
		StockCount: stock,
		InStock:    stock > 0,
		SKU:        "SKU-" + uuid.NewString()[:8],
		Attributes: models.Attributes{VariantAttributes: models.IPhoneAttributes{Color: "Black", Memory: "128GB"}},
	}
}

// SeedProduct inserts a product with the variants in the given order.
func SeedProduct(t *testing.T, db *gorm.DB, basePrice string, variants ...models.Variant) models.Product {
	t.Helper()

	for i := range variants {
		variants[i].Position = i
	}
	id := uuid.New()
	p := models.Product{
		ID:        id,
		Name:      "Product " + id.String()[:8],
		Slug:      fmt.Sprintf("product-%s", id),
		BasePrice: decimal.RequireFromString(basePrice),
		Variants:  variants,
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return p
}

// StockOf reads the current ledger values of a variant.
func StockOf(t *testing.T, db *gorm.DB, variantID uuid.UUID) (int, bool) {
	t.Helper()

	var v models.Variant
	if err := db.Select("stock_count", "in_stock").Where("id = ?", variantID).First(&v).Error; err != nil {
		t.Fatalf("failed to read variant: %v", err)
	}
	return v.StockCount, v.InStock
}
