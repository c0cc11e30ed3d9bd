package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-service/internal/models"
)

func TestSalesRepository_UpsertBatch_PersistsAllEntities(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSalesRepository(db, 0)
	ctx := context.Background()

	a := newRecord(2, "O1", "P1", "C1")
	b := newRecord(3, "O2", "P2", "C2")
	b.Region = "South"
	b.Category = "Books"

	stats, err := repo.UpsertBatch(ctx, []models.SalesRecord{a, b})
	require.NoError(t, err)
	assert.Equal(t, models.BatchStats{Regions: 2, Categories: 2, Customers: 2, Products: 2, Orders: 2, OrderItems: 2}, stats)

	var south models.Region
	require.NoError(t, db.First(&south, "region_name = ?", "South").Error)
	var books models.Category
	require.NoError(t, db.First(&books, "category_name = ?", "Books").Error)

	var product models.Product
	require.NoError(t, db.First(&product, "product_id = ?", "P2").Error)
	assert.Equal(t, books.ID, product.CategoryID)

	var order models.Order
	require.NoError(t, db.First(&order, "order_id = ?", "O2").Error)
	assert.Equal(t, south.ID, order.RegionID)
	assert.Equal(t, "C2", order.CustomerID)
	assert.True(t, decimal.NewFromInt(5).Equal(order.ShippingCost))

	var item models.OrderItem
	require.NoError(t, db.First(&item, "order_id = ? AND product_id = ?", "O2", "P2").Error)
	assert.Equal(t, 1, item.QuantitySold)
	assert.True(t, decimal.NewFromInt(100).Equal(item.UnitPrice))
}

func TestSalesRepository_UpsertBatch_IsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSalesRepository(db, 0)
	ctx := context.Background()

	batch := []models.SalesRecord{
		newRecord(2, "O1", "P1", "C1"),
		newRecord(3, "O1", "P2", "C1"),
		newRecord(4, "O2", "P1", "C2"),
	}

	_, err := repo.UpsertBatch(ctx, batch)
	require.NoError(t, err)
	_, err = repo.UpsertBatch(ctx, batch)
	require.NoError(t, err)

	assert.Equal(t, int64(1), countRows(t, db, &models.Region{}))
	assert.Equal(t, int64(1), countRows(t, db, &models.Category{}))
	assert.Equal(t, int64(2), countRows(t, db, &models.Customer{}))
	assert.Equal(t, int64(2), countRows(t, db, &models.Product{}))
	assert.Equal(t, int64(2), countRows(t, db, &models.Order{}))
	assert.Equal(t, int64(3), countRows(t, db, &models.OrderItem{}))
}

func TestSalesRepository_UpsertBatch_CustomerLastWriteWins(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSalesRepository(db, 0)

	first := newRecord(2, "O1", "P1", "C1")
	first.CustomerEmail = "old@example.com"
	second := newRecord(3, "O2", "P1", "C1")
	second.CustomerEmail = "new@example.com"
	second.CustomerName = "Renamed"

	_, err := repo.UpsertBatch(context.Background(), []models.SalesRecord{first, second})
	require.NoError(t, err)

	var customer models.Customer
	require.NoError(t, db.First(&customer, "customer_id = ?", "C1").Error)
	assert.Equal(t, "new@example.com", customer.Email)
	assert.Equal(t, "Renamed", customer.Name)
}

func TestSalesRepository_UpsertBatch_OrderFieldsFromFirstLine(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSalesRepository(db, 0)

	first := newRecord(2, "O1", "P1", "C1")
	first.PaymentMethod = "Card"
	first.ShippingCost = decimal.NewFromInt(7)
	second := newRecord(3, "O1", "P2", "C1")
	second.PaymentMethod = "Cash"
	second.ShippingCost = decimal.NewFromInt(99)
	third := newRecord(4, "O1", "P3", "C1")

	stats, err := repo.UpsertBatch(context.Background(), []models.SalesRecord{first, second, third})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Orders)
	assert.Equal(t, 3, stats.OrderItems)

	var order models.Order
	require.NoError(t, db.First(&order, "order_id = ?", "O1").Error)
	assert.Equal(t, "Card", order.PaymentMethod)
	assert.True(t, decimal.NewFromInt(7).Equal(order.ShippingCost))

	assert.Equal(t, int64(3), countRows(t, db, &models.OrderItem{}))
}

func TestSalesRepository_UpsertBatch_DuplicateItemLastLineWins(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSalesRepository(db, 0)

	first := newRecord(2, "O1", "P1", "C1")
	first.QuantitySold = 1
	second := newRecord(3, "O1", "P1", "C1")
	second.QuantitySold = 4

	stats, err := repo.UpsertBatch(context.Background(), []models.SalesRecord{first, second})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.OrderItems)

	var item models.OrderItem
	require.NoError(t, db.First(&item, "order_id = ? AND product_id = ?", "O1", "P1").Error)
	assert.Equal(t, 4, item.QuantitySold)
}

func TestSalesRepository_UpsertBatch_LaterBatchUpdatesOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSalesRepository(db, 0)
	ctx := context.Background()

	_, err := repo.UpsertBatch(ctx, []models.SalesRecord{newRecord(2, "O1", "P1", "C1")})
	require.NoError(t, err)

	moved := newRecord(3, "O1", "P1", "C1")
	moved.Region = "West"
	moved.DateOfSale = saleDate("2024-02-01")
	_, err = repo.UpsertBatch(ctx, []models.SalesRecord{moved})
	require.NoError(t, err)

	var west models.Region
	require.NoError(t, db.First(&west, "region_name = ?", "West").Error)
	var order models.Order
	require.NoError(t, db.First(&order, "order_id = ?", "O1").Error)
	assert.Equal(t, west.ID, order.RegionID)
	assert.Equal(t, int64(2), countRows(t, db, &models.Region{}))
}

func TestSalesRepository_UpsertBatch_Chunked(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSalesRepository(db, 2)

	var batch []models.SalesRecord
	for i, id := range []string{"A", "B", "C", "D", "E"} {
		rec := newRecord(i+2, "O"+id, "P"+id, "C"+id)
		rec.Region = "Region " + id
		rec.Category = "Category " + id
		batch = append(batch, rec)
	}

	stats, err := repo.UpsertBatch(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Regions)
	assert.Equal(t, int64(5), countRows(t, db, &models.Order{}))
	assert.Equal(t, int64(5), countRows(t, db, &models.Product{}))

	var product models.Product
	require.NoError(t, db.Preload("Category").First(&product, "product_id = ?", "PE").Error)
	require.NotNil(t, product.Category)
	assert.Equal(t, "Category E", product.Category.Name)
}

func TestSalesRepository_UpsertBatch_Empty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSalesRepository(db, 0)

	stats, err := repo.UpsertBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, models.BatchStats{}, stats)
	assert.Equal(t, int64(0), countRows(t, db, &models.Order{}))
}

func TestSalesRepository_UpsertBatch_RollsBackOnFailure(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSalesRepository(db, 0)

	require.NoError(t, db.Migrator().DropTable(&models.OrderItem{}))

	_, err := repo.UpsertBatch(context.Background(), []models.SalesRecord{newRecord(2, "O1", "P1", "C1")})
	require.Error(t, err)

	assert.Equal(t, int64(0), countRows(t, db, &models.Region{}))
	assert.Equal(t, int64(0), countRows(t, db, &models.Customer{}))
	assert.Equal(t, int64(0), countRows(t, db, &models.Order{}))
}

func TestLastWins(t *testing.T) {
	records := []models.SalesRecord{
		{CustomerID: "C1", CustomerName: "first"},
		{CustomerID: "C2", CustomerName: "other"},
		{CustomerID: "C1", CustomerName: "last"},
	}

	got := lastWins(records,
		func(r models.SalesRecord) string { return r.CustomerID },
		func(r models.SalesRecord) string { return r.CustomerName })

	assert.Equal(t, []string{"last", "other"}, got)
}
