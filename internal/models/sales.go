package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Region is a lookup row keyed by its unique name
type Region struct {
	ID        uint      `json:"regionId" gorm:"column:region_id;primaryKey;autoIncrement"`
	Name      string    `json:"regionName" gorm:"column:region_name;type:varchar(255);uniqueIndex;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"column:created_at"`
}

func (Region) TableName() string { return "regions" }

// Category is a lookup row keyed by its unique name
type Category struct {
	ID        uint      `json:"categoryId" gorm:"column:category_id;primaryKey;autoIncrement"`
	Name      string    `json:"categoryName" gorm:"column:category_name;type:varchar(255);uniqueIndex;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"column:created_at"`
}

func (Category) TableName() string { return "categories" }

// Customer is keyed by the external customer id from the source file
type Customer struct {
	ID      string `json:"customerId" gorm:"column:customer_id;type:varchar(64);primaryKey"`
	Name    string `json:"customerName" gorm:"column:customer_name;type:varchar(255);not null"`
	Email   string `json:"customerEmail" gorm:"column:customer_email;type:varchar(255)"`
	Address string `json:"customerAddress" gorm:"column:customer_address;type:text"`
}

func (Customer) TableName() string { return "customers" }

// Product is keyed by the external product id and references a Category
type Product struct {
	ID         string    `json:"productId" gorm:"column:product_id;type:varchar(64);primaryKey"`
	Name       string    `json:"productName" gorm:"column:product_name;type:varchar(255);not null"`
	CategoryID uint      `json:"categoryId" gorm:"column:category_id;not null;index"`
	Category   *Category `json:"-" gorm:"foreignKey:CategoryID;references:ID"`
}

func (Product) TableName() string { return "products" }

// Order holds the order-level fields of a sale. One order spans one or more
// source lines, one per OrderItem.
type Order struct {
	ID            string          `json:"orderId" gorm:"column:order_id;type:varchar(64);primaryKey"`
	CustomerID    string          `json:"customerId" gorm:"column:customer_id;type:varchar(64);not null;index"`
	RegionID      uint            `json:"regionId" gorm:"column:region_id;not null;index"`
	DateOfSell    time.Time       `json:"dateOfSell" gorm:"column:date_of_sell;type:date;not null;index"`
	ShippingCost  decimal.Decimal `json:"shippingCost" gorm:"column:shipping_cost;type:decimal(12,2);not null;default:0"`
	PaymentMethod string          `json:"paymentMethod" gorm:"column:payment_method;type:varchar(64)"`
	Customer      *Customer       `json:"-" gorm:"foreignKey:CustomerID;references:ID"`
	Region        *Region         `json:"-" gorm:"foreignKey:RegionID;references:ID"`
}

func (Order) TableName() string { return "orders" }

// OrderItem is one product line of an order, keyed by (order id, product id)
type OrderItem struct {
	OrderID      string          `json:"orderId" gorm:"column:order_id;type:varchar(64);primaryKey"`
	ProductID    string          `json:"productId" gorm:"column:product_id;type:varchar(64);primaryKey"`
	QuantitySold int             `json:"quantitySold" gorm:"column:quantity_sold;not null"`
	UnitPrice    decimal.Decimal `json:"unitPrice" gorm:"column:unit_price;type:decimal(12,2);not null"`
	Discount     decimal.Decimal `json:"discount" gorm:"column:discount;type:decimal(12,2);not null;default:0"`
	Order        *Order          `json:"-" gorm:"foreignKey:OrderID;references:ID"`
	Product      *Product        `json:"-" gorm:"foreignKey:ProductID;references:ID"`
}

func (OrderItem) TableName() string { return "order_items" }

// SalesModels lists the normalized sales tables, parents first
func SalesModels() []interface{} {
	return []interface{}{
		&Region{},
		&Category{},
		&Customer{},
		&Product{},
		&Order{},
		&OrderItem{},
	}
}

// AllModels lists every model managed by AutoMigrate
func AllModels() []interface{} {
	return append(SalesModels(), &ImportJob{})
}
