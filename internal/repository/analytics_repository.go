package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"sales-service/internal/models"
)

const (
	// DefaultAnalyticsCacheTTL applies when no TTL is configured
	DefaultAnalyticsCacheTTL = 5 * time.Minute

	analyticsCachePrefix   = "sales:analytics:"
	// Bumped on every invalidation; outside analyticsCachePrefix so the SCAN never deletes it
	analyticsGenerationKey = "sales:analytics-generation"
	cacheDateLayout        = "2006-01-02"
)

// AnalyticsRepositoryInterface aggregates order data over sale-date ranges
type AnalyticsRepositoryInterface interface {
	GetTotals(ctx context.Context, r models.AnalyticsRange) (*models.AnalyticsTotals, error)
	InvalidateCache(ctx context.Context) error
}

// AnalyticsRepository runs the analytics aggregates, cached in Redis when available
type AnalyticsRepository struct {
	db    *gorm.DB
	redis *redis.Client
	ttl   time.Duration
}

// NewAnalyticsRepository creates a new analytics repository. redisClient may be nil.
func NewAnalyticsRepository(db *gorm.DB, redisClient *redis.Client, ttl time.Duration) *AnalyticsRepository {
	if ttl <= 0 {
		ttl = DefaultAnalyticsCacheTTL
	}
	return &AnalyticsRepository{db: db, redis: redisClient, ttl: ttl}
}

func analyticsCacheKey(r models.AnalyticsRange) string {
	return fmt.Sprintf("%s%s:%s", analyticsCachePrefix, r.From.Format(cacheDateLayout), r.To.Format(cacheDateLayout))
}

// GetTotals returns distinct order count, distinct customer count and total
// revenue for orders sold within the inclusive range.
func (r *AnalyticsRepository) GetTotals(ctx context.Context, rng models.AnalyticsRange) (*models.AnalyticsTotals, error) {
	cacheKey := analyticsCacheKey(rng)
	generation := r.cacheGeneration(ctx)

	// Try to get from cache first
	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var totals models.AnalyticsTotals
			if err := json.Unmarshal([]byte(val), &totals); err == nil {
				return &totals, nil
			}
		}
	}

	from := rng.From
	toExclusive := rng.To.AddDate(0, 0, 1)
	db := r.db.WithContext(ctx)

	var totals models.AnalyticsTotals
	if err := db.Model(&models.Order{}).
		Where("date_of_sell >= ? AND date_of_sell < ?", from, toExclusive).
		Select("COUNT(DISTINCT order_id)").
		Scan(&totals.TotalOrders).Error; err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	if err := db.Model(&models.Order{}).
		Where("date_of_sell >= ? AND date_of_sell < ?", from, toExclusive).
		Select("COUNT(DISTINCT customer_id)").
		Scan(&totals.TotalCustomers).Error; err != nil {
		return nil, fmt.Errorf("count customers: %w", err)
	}

	var revenue struct {
		Revenue decimal.NullDecimal
	}
	if err := db.Table("order_items AS oi").
		Joins("JOIN orders AS o ON o.order_id = oi.order_id").
		Where("o.date_of_sell >= ? AND o.date_of_sell < ?", from, toExclusive).
		Select("SUM(oi.quantity_sold * oi.unit_price - oi.discount) AS revenue").
		Scan(&revenue).Error; err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}
	totals.TotalRevenue = decimal.Zero
	if revenue.Revenue.Valid {
		totals.TotalRevenue = revenue.Revenue.Decimal
	}

	r.storeTotals(ctx, cacheKey, generation, &totals)
	return &totals, nil
}

// cacheGeneration reads the invalidation counter; a missing key is generation 0
func (r *AnalyticsRepository) cacheGeneration(ctx context.Context) int64 {
	if r.redis == nil {
		return 0
	}
	gen, err := r.redis.Get(ctx, analyticsGenerationKey).Int64()
	if err != nil {
		return 0
	}
	return gen
}

// storeTotals caches totals computed under generation. The write is dropped
// when an invalidation happened since, so a query that raced an import never
// outlives it in the cache.
func (r *AnalyticsRepository) storeTotals(ctx context.Context, cacheKey string, generation int64, totals *models.AnalyticsTotals) {
	if r.redis == nil {
		return
	}
	data, err := json.Marshal(totals)
	if err != nil {
		return
	}

	// TxFailedErr means an invalidation won the race; nothing to cache then
	r.redis.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, analyticsGenerationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, cacheKey, data, r.ttl)
			return nil
		})
		return err
	}, analyticsGenerationKey)
}

// InvalidateCache drops every cached analytics range and bumps the
// generation so in-flight queries do not cache what they read before.
func (r *AnalyticsRepository) InvalidateCache(ctx context.Context) error {
	if r.redis == nil {
		return nil
	}

	if err := r.redis.Incr(ctx, analyticsGenerationKey).Err(); err != nil {
		return fmt.Errorf("bump analytics cache generation: %w", err)
	}

	var cursor uint64
	for {
		keys, next, err := r.redis.Scan(ctx, cursor, analyticsCachePrefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("scan analytics cache: %w", err)
		}
		if len(keys) > 0 {
			if err := r.redis.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete analytics cache: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
