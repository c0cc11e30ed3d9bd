package models

import "github.com/shopspring/decimal"

// AnalyticsTotals holds the raw aggregates over a sale-date range
type AnalyticsTotals struct {
	TotalOrders    int64           `json:"totalOrders"`
	TotalCustomers int64           `json:"totalCustomers"`
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
}
