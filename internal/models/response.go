package models

import "time"

type ErrorResponse struct {
	Success bool          `json:"success"`
	Error   Error         `json:"error"`
	Report  *ImportReport `json:"report,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// UploadResponse is returned by the bulk upload endpoint
type UploadResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"msg"`
	Data    *ImportReport `json:"data"`
}

// ImportJobResponse wraps a persisted import job
type ImportJobResponse struct {
	Success bool       `json:"success"`
	Data    *ImportJob `json:"data"`
}

// AnalyticsRange is a closed [From, To] interval of sale dates
type AnalyticsRange struct {
	From time.Time
	To   time.Time
}

// CustomerAnalytics is the flat analytics payload. Field names follow the
// public API contract.
type CustomerAnalytics struct {
	TotalCustomers    int64   `json:"total_customers"`
	TotalOrders       int64   `json:"total_orders"`
	AverageOrderValue float64 `json:"average_order_value"`
}
