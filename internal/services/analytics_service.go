package services

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"sales-service/internal/models"
	"sales-service/internal/repository"
)

// AnalyticsService computes customer analytics over sale-date ranges
type AnalyticsService struct {
	repo   repository.AnalyticsRepositoryInterface
	logger *logrus.Entry
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(repo repository.AnalyticsRepositoryInterface, logger *logrus.Logger) *AnalyticsService {
	if logger == nil {
		logger = logrus.New()
	}
	return &AnalyticsService{
		repo:   repo,
		logger: logger.WithField("component", "analytics-service"),
	}
}

// ParseRange validates the raw from/to parameters into an inclusive range
func ParseRange(from, to string) (models.AnalyticsRange, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" {
		return models.AnalyticsRange{}, models.MissingParameterError("from")
	}
	if to == "" {
		return models.AnalyticsRange{}, models.MissingParameterError("to")
	}

	fromDate, ok := ParseSaleDate(from)
	if !ok {
		return models.AnalyticsRange{}, &models.InputError{Field: "from", Message: "invalid date, expected YYYY-MM-DD"}
	}
	toDate, ok := ParseSaleDate(to)
	if !ok {
		return models.AnalyticsRange{}, &models.InputError{Field: "to", Message: "invalid date, expected YYYY-MM-DD"}
	}
	if fromDate.After(toDate) {
		return models.AnalyticsRange{}, &models.InputError{Field: "from", Message: "'from' must not be after 'to'"}
	}
	return models.AnalyticsRange{From: fromDate, To: toDate}, nil
}

// GetCustomerAnalytics returns order and customer counts and the average
// order value, rounded to two places. Store failures come back as QueryError.
func (s *AnalyticsService) GetCustomerAnalytics(ctx context.Context, rng models.AnalyticsRange) (*models.CustomerAnalytics, error) {
	totals, err := s.repo.GetTotals(ctx, rng)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"from": rng.From.Format("2006-01-02"),
			"to":   rng.To.Format("2006-01-02"),
		}).WithError(err).Error("Analytics query failed")
		return nil, &models.QueryError{Op: "customer analytics", Err: err}
	}

	return &models.CustomerAnalytics{
		TotalCustomers:    totals.TotalCustomers,
		TotalOrders:       totals.TotalOrders,
		AverageOrderValue: AverageOrderValue(totals.TotalRevenue, totals.TotalOrders),
	}, nil
}

// AverageOrderValue is revenue / orders, 0 without orders
func AverageOrderValue(revenue decimal.Decimal, orders int64) float64 {
	if orders <= 0 {
		return 0
	}
	return revenue.Div(decimal.NewFromInt(orders)).InexactFloat64()
}
