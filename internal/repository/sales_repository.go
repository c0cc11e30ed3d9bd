package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sales-service/internal/models"
)

// DefaultUpsertChunkSize bounds the rows per INSERT statement
const DefaultUpsertChunkSize = 500

var ErrUnresolvedReference = errors.New("unresolved reference")

// SalesRepositoryInterface persists batches of typed sales records
type SalesRepositoryInterface interface {
	UpsertBatch(ctx context.Context, records []models.SalesRecord) (models.BatchStats, error)
}

// SalesRepository handles the normalized sales tables
type SalesRepository struct {
	db        *gorm.DB
	chunkSize int
}

// NewSalesRepository creates a new SalesRepository
func NewSalesRepository(db *gorm.DB, chunkSize int) *SalesRepository {
	if chunkSize <= 0 {
		chunkSize = DefaultUpsertChunkSize
	}
	return &SalesRepository{db: db, chunkSize: chunkSize}
}

// UpsertBatch writes one batch in a single transaction. Lookup tables
// (regions, categories, customers, products) are written first, then orders
// and order items referencing them. Any error rolls the whole batch back.
func (r *SalesRepository) UpsertBatch(ctx context.Context, records []models.SalesRecord) (models.BatchStats, error) {
	var stats models.BatchStats
	if len(records) == 0 {
		return stats, nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lookupStats, err := r.upsertLookups(tx, records)
		if err != nil {
			return fmt.Errorf("lookup phase: %w", err)
		}
		factStats, err := r.upsertFacts(tx, records)
		if err != nil {
			return fmt.Errorf("fact phase: %w", err)
		}
		stats = lookupStats
		stats.Orders = factStats.Orders
		stats.OrderItems = factStats.OrderItems
		return nil
	})
	if err != nil {
		return models.BatchStats{}, err
	}
	return stats, nil
}

// --- Lookup phase ---

func (r *SalesRepository) upsertLookups(tx *gorm.DB, records []models.SalesRecord) (models.BatchStats, error) {
	var stats models.BatchStats

	regionNames := distinct(records, func(rec models.SalesRecord) string { return rec.Region })
	regions := make([]models.Region, len(regionNames))
	for i, name := range regionNames {
		regions[i] = models.Region{Name: name}
	}
	if err := createChunked(tx, regions, r.chunkSize, clause.OnConflict{
		Columns:   []clause.Column{{Name: "region_name"}},
		DoNothing: true,
	}); err != nil {
		return stats, fmt.Errorf("insert regions: %w", err)
	}
	stats.Regions = len(regions)

	categoryNames := distinct(records, func(rec models.SalesRecord) string { return rec.Category })
	categories := make([]models.Category, len(categoryNames))
	for i, name := range categoryNames {
		categories[i] = models.Category{Name: name}
	}
	if err := createChunked(tx, categories, r.chunkSize, clause.OnConflict{
		Columns:   []clause.Column{{Name: "category_name"}},
		DoNothing: true,
	}); err != nil {
		return stats, fmt.Errorf("insert categories: %w", err)
	}
	stats.Categories = len(categories)

	customers := lastWins(records,
		func(rec models.SalesRecord) string { return rec.CustomerID },
		func(rec models.SalesRecord) models.Customer {
			return models.Customer{
				ID:      rec.CustomerID,
				Name:    rec.CustomerName,
				Email:   rec.CustomerEmail,
				Address: rec.CustomerAddress,
			}
		})
	if err := createChunked(tx, customers, r.chunkSize, clause.OnConflict{
		Columns:   []clause.Column{{Name: "customer_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"customer_name", "customer_email", "customer_address"}),
	}); err != nil {
		return stats, fmt.Errorf("upsert customers: %w", err)
	}
	stats.Customers = len(customers)

	categoryIDs, err := r.categoryIDs(tx, categoryNames)
	if err != nil {
		return stats, err
	}

	var resolveErr error
	products := lastWins(records,
		func(rec models.SalesRecord) string { return rec.ProductID },
		func(rec models.SalesRecord) models.Product {
			id, ok := categoryIDs[rec.Category]
			if !ok && resolveErr == nil {
				resolveErr = fmt.Errorf("%w: category %q for product %q", ErrUnresolvedReference, rec.Category, rec.ProductID)
			}
			return models.Product{ID: rec.ProductID, Name: rec.ProductName, CategoryID: id}
		})
	if resolveErr != nil {
		return stats, resolveErr
	}
	if err := createChunked(tx, products, r.chunkSize, clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"product_name", "category_id"}),
	}); err != nil {
		return stats, fmt.Errorf("upsert products: %w", err)
	}
	stats.Products = len(products)

	return stats, nil
}

// --- Fact phase ---

func (r *SalesRepository) upsertFacts(tx *gorm.DB, records []models.SalesRecord) (models.BatchStats, error) {
	var stats models.BatchStats

	regionNames := distinct(records, func(rec models.SalesRecord) string { return rec.Region })
	regionIDs, err := r.regionIDs(tx, regionNames)
	if err != nil {
		return stats, err
	}

	// Order-level fields come from the first line of each order
	seen := make(map[string]struct{})
	var orders []models.Order
	for _, rec := range records {
		if _, ok := seen[rec.OrderID]; ok {
			continue
		}
		seen[rec.OrderID] = struct{}{}

		regionID, ok := regionIDs[rec.Region]
		if !ok {
			return stats, fmt.Errorf("%w: region %q for order %q", ErrUnresolvedReference, rec.Region, rec.OrderID)
		}
		orders = append(orders, models.Order{
			ID:            rec.OrderID,
			CustomerID:    rec.CustomerID,
			RegionID:      regionID,
			DateOfSell:    rec.DateOfSale,
			ShippingCost:  rec.ShippingCost,
			PaymentMethod: rec.PaymentMethod,
		})
	}
	if err := createChunked(tx, orders, r.chunkSize, clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"customer_id", "region_id", "date_of_sell", "shipping_cost", "payment_method"}),
	}); err != nil {
		return stats, fmt.Errorf("upsert orders: %w", err)
	}
	stats.Orders = len(orders)

	items := lastWins(records,
		func(rec models.SalesRecord) string { return rec.OrderID + "\x00" + rec.ProductID },
		func(rec models.SalesRecord) models.OrderItem {
			return models.OrderItem{
				OrderID:      rec.OrderID,
				ProductID:    rec.ProductID,
				QuantitySold: rec.QuantitySold,
				UnitPrice:    rec.UnitPrice,
				Discount:     rec.Discount,
			}
		})
	if err := createChunked(tx, items, r.chunkSize, clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity_sold", "unit_price", "discount"}),
	}); err != nil {
		return stats, fmt.Errorf("upsert order items: %w", err)
	}
	stats.OrderItems = len(items)

	return stats, nil
}

// regionIDs re-reads surrogate ids for the given region names
func (r *SalesRepository) regionIDs(tx *gorm.DB, names []string) (map[string]uint, error) {
	ids := make(map[string]uint, len(names))
	for _, chunk := range chunkStrings(names, r.chunkSize) {
		var regions []models.Region
		if err := tx.Where("region_name IN ?", chunk).Find(&regions).Error; err != nil {
			return nil, fmt.Errorf("resolve regions: %w", err)
		}
		for _, region := range regions {
			ids[region.Name] = region.ID
		}
	}
	return ids, nil
}

// categoryIDs re-reads surrogate ids for the given category names
func (r *SalesRepository) categoryIDs(tx *gorm.DB, names []string) (map[string]uint, error) {
	ids := make(map[string]uint, len(names))
	for _, chunk := range chunkStrings(names, r.chunkSize) {
		var categories []models.Category
		if err := tx.Where("category_name IN ?", chunk).Find(&categories).Error; err != nil {
			return nil, fmt.Errorf("resolve categories: %w", err)
		}
		for _, category := range categories {
			ids[category.Name] = category.ID
		}
	}
	return ids, nil
}

// createChunked inserts rows in statements of at most size rows each
func createChunked[T any](tx *gorm.DB, rows []T, size int, onConflict clause.OnConflict) error {
	for start := 0; start < len(rows); start += size {
		chunk := rows[start:min(start+size, len(rows))]
		if err := tx.Clauses(onConflict).Create(&chunk).Error; err != nil {
			return err
		}
	}
	return nil
}

// distinct returns the distinct keys in first-occurrence order
func distinct(records []models.SalesRecord, key func(models.SalesRecord) string) []string {
	seen := make(map[string]struct{}, len(records))
	var out []string
	for _, rec := range records {
		k := key(rec)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// lastWins builds one row per key from the last record carrying it, keeping
// first-occurrence order. A single statement cannot touch a row twice.
func lastWins[T any](records []models.SalesRecord, key func(models.SalesRecord) string, build func(models.SalesRecord) T) []T {
	pos := make(map[string]int, len(records))
	var out []T
	for _, rec := range records {
		k := key(rec)
		if i, ok := pos[k]; ok {
			out[i] = build(rec)
			continue
		}
		pos[k] = len(out)
		out = append(out, build(rec))
	}
	return out
}

func chunkStrings(values []string, size int) [][]string {
	var chunks [][]string
	for start := 0; start < len(values); start += size {
		chunks = append(chunks, values[start:min(start+size, len(values))])
	}
	return chunks
}
