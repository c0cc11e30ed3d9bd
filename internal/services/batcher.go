package services

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sales-service/internal/models"
	"sales-service/internal/parser"
)

const (
	// DefaultBatchSize is the number of source rows per transaction
	DefaultBatchSize = 2000
)

// saleDateLayouts are tried in order when parsing the Date of Sale column.
// Slash and dash forms with the year last are all month first.
var saleDateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"2006/01/02",
	"1-2-2006",
	"1-2-06",
	time.RFC3339,
}

// Batcher pulls raw rows from a RecordReader and groups them into typed
// batches. At most one batch is held in memory.
type Batcher struct {
	reader   parser.RecordReader
	size     int
	number   int
	rowsRead int
	done     bool
}

// NewBatcher creates a batcher emitting batches of up to size rows
func NewBatcher(reader parser.RecordReader, size int) *Batcher {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return &Batcher{reader: reader, size: size}
}

// RowsRead returns the number of data rows consumed so far
func (b *Batcher) RowsRead() int {
	return b.rowsRead
}

// Next returns the next batch, or io.EOF once the input is exhausted.
// Rows failing conversion are kept out of Records and listed in RowErrors;
// they still count toward the batch size. A reader error is returned as-is
// and the rows buffered for the current batch are discarded.
func (b *Batcher) Next(ctx context.Context) (*models.Batch, error) {
	if b.done {
		return nil, io.EOF
	}

	batch := &models.Batch{Number: b.number + 1}
	rows := 0
	for rows < b.size {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := b.reader.Next()
		if errors.Is(err, io.EOF) {
			b.done = true
			break
		}
		if err != nil {
			b.done = true
			return nil, err
		}

		rows++
		b.rowsRead++
		if batch.StartLine == 0 {
			batch.StartLine = raw.Line
		}
		batch.EndLine = raw.Line

		record, rowErrs := ToSalesRecord(raw)
		if len(rowErrs) > 0 {
			batch.RowErrors = append(batch.RowErrors, rowErrs...)
			continue
		}
		batch.Records = append(batch.Records, record)
	}

	if rows == 0 {
		return nil, io.EOF
	}
	b.number++
	return batch, nil
}

// ToSalesRecord converts a raw row into a typed record, collecting one
// validation error per bad field.
func ToSalesRecord(raw models.RawRecord) (models.SalesRecord, []models.RowValidationError) {
	c := rowConverter{raw: raw}
	rec := models.SalesRecord{
		Line:            raw.Line,
		OrderID:         c.required(models.ColumnOrderID),
		ProductID:       c.required(models.ColumnProductID),
		ProductName:     c.required(models.ColumnProductName),
		Category:        c.required(models.ColumnCategory),
		Region:          c.required(models.ColumnRegion),
		DateOfSale:      c.date(models.ColumnDateOfSale),
		QuantitySold:    c.quantity(models.ColumnQuantitySold),
		UnitPrice:       c.decimal(models.ColumnUnitPrice, true),
		Discount:        c.decimal(models.ColumnDiscount, false),
		ShippingCost:    c.decimal(models.ColumnShippingCost, false),
		PaymentMethod:   raw.Get(models.ColumnPaymentMethod),
		CustomerID:      c.required(models.ColumnCustomerID),
		CustomerName:    c.required(models.ColumnCustomerName),
		CustomerEmail:   raw.Get(models.ColumnCustomerEmail),
		CustomerAddress: raw.Get(models.ColumnCustomerAddress),
	}
	return rec, c.errs
}

type rowConverter struct {
	raw  models.RawRecord
	errs []models.RowValidationError
}

func (c *rowConverter) fail(column, value, reason string) {
	c.errs = append(c.errs, models.RowValidationError{
		Line:   c.raw.Line,
		Field:  column,
		Value:  value,
		Reason: reason,
	})
}

func (c *rowConverter) required(column string) string {
	v := c.raw.Get(column)
	if v == "" {
		c.fail(column, v, "value is required")
	}
	return v
}

func (c *rowConverter) quantity(column string) int {
	v := c.raw.Get(column)
	if v == "" {
		c.fail(column, v, "value is required")
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		c.fail(column, v, "not an integer")
		return 0
	}
	if n < 0 {
		c.fail(column, v, "must not be negative")
		return 0
	}
	return n
}

func (c *rowConverter) decimal(column string, required bool) decimal.Decimal {
	v := c.raw.Get(column)
	if v == "" {
		if required {
			c.fail(column, v, "value is required")
		}
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(v, ",", ""))
	if err != nil {
		c.fail(column, v, "not a decimal number")
		return decimal.Zero
	}
	if d.IsNegative() {
		c.fail(column, v, "must not be negative")
		return decimal.Zero
	}
	return d
}

func (c *rowConverter) date(column string) time.Time {
	v := c.raw.Get(column)
	if v == "" {
		c.fail(column, v, "value is required")
		return time.Time{}
	}
	t, ok := ParseSaleDate(v)
	if !ok {
		c.fail(column, v, "unrecognized date format")
	}
	return t
}

// ParseSaleDate parses a sale date and truncates it to a UTC calendar date
func ParseSaleDate(v string) (time.Time, bool) {
	for _, layout := range saleDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
