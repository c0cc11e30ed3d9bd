package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sales-service/internal/models"
)

// setupTestDB opens an isolated in-memory SQLite database with the sales tables
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.SalesModels()...))
	return db
}

func saleDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// newRecord builds a valid sales record with sensible defaults
func newRecord(line int, orderID, productID, customerID string) models.SalesRecord {
	return models.SalesRecord{
		Line:            line,
		OrderID:         orderID,
		ProductID:       productID,
		ProductName:     "Product " + productID,
		Category:        "Shoes",
		Region:          "North",
		DateOfSale:      saleDate("2024-01-15"),
		QuantitySold:    1,
		UnitPrice:       decimal.NewFromInt(100),
		Discount:        decimal.Zero,
		ShippingCost:    decimal.NewFromInt(5),
		PaymentMethod:   "Card",
		CustomerID:      customerID,
		CustomerName:    "Customer " + customerID,
		CustomerEmail:   customerID + "@example.com",
		CustomerAddress: "1 Main St",
	}
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}
