package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source column names of the sales export
const (
	ColumnOrderID         = "Order ID"
	ColumnProductID       = "Product ID"
	ColumnProductName     = "Product Name"
	ColumnCategory        = "Category"
	ColumnRegion          = "Region"
	ColumnDateOfSale      = "Date of Sale"
	ColumnQuantitySold    = "Quantity Sold"
	ColumnUnitPrice       = "Unit Price"
	ColumnDiscount        = "Discount"
	ColumnShippingCost    = "Shipping Cost"
	ColumnPaymentMethod   = "Payment Method"
	ColumnCustomerID      = "Customer ID"
	ColumnCustomerName    = "Customer Name"
	ColumnCustomerEmail   = "Customer Email"
	ColumnCustomerAddress = "Customer Address"
)

// SourceColumns returns the columns every upload must carry, in template order
func SourceColumns() []string {
	return []string{
		ColumnOrderID,
		ColumnProductID,
		ColumnProductName,
		ColumnCategory,
		ColumnRegion,
		ColumnDateOfSale,
		ColumnQuantitySold,
		ColumnUnitPrice,
		ColumnDiscount,
		ColumnShippingCost,
		ColumnPaymentMethod,
		ColumnCustomerID,
		ColumnCustomerName,
		ColumnCustomerEmail,
		ColumnCustomerAddress,
	}
}

// ColumnAliases maps alternative header spellings found in older exports
// to their canonical column.
var ColumnAliases = map[string]string{
	"Payment Mathod": ColumnPaymentMethod,
}

// RawRecord is one parsed source line before type conversion
type RawRecord struct {
	Line   int
	Values map[string]string
}

// Get returns the value for a canonical column, or "" if absent
func (r RawRecord) Get(column string) string {
	return r.Values[column]
}

// SalesRecord is a validated, typed source line
type SalesRecord struct {
	Line            int
	OrderID         string
	ProductID       string
	ProductName     string
	Category        string
	Region          string
	DateOfSale      time.Time
	QuantitySold    int
	UnitPrice       decimal.Decimal
	Discount        decimal.Decimal
	ShippingCost    decimal.Decimal
	PaymentMethod   string
	CustomerID      string
	CustomerName    string
	CustomerEmail   string
	CustomerAddress string
}

// Batch is a group of typed records persisted in one transaction
type Batch struct {
	Number    int
	StartLine int
	EndLine   int
	Records   []SalesRecord
	RowErrors []RowValidationError
}

// BatchStats counts the distinct rows a batch upsert touched
type BatchStats struct {
	Regions    int `json:"regions"`
	Categories int `json:"categories"`
	Customers  int `json:"customers"`
	Products   int `json:"products"`
	Orders     int `json:"orders"`
	OrderItems int `json:"orderItems"`
}

// Add accumulates another batch's stats
func (s *BatchStats) Add(other BatchStats) {
	s.Regions += other.Regions
	s.Categories += other.Categories
	s.Customers += other.Customers
	s.Products += other.Products
	s.Orders += other.Orders
	s.OrderItems += other.OrderItems
}
