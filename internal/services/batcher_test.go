package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-service/internal/models"
)

// sliceReader is an in-memory RecordReader
type sliceReader struct {
	records []models.RawRecord
	err     error // returned after records are exhausted instead of io.EOF
	pos     int
}

func (r *sliceReader) Next() (models.RawRecord, error) {
	if r.pos >= len(r.records) {
		if r.err != nil {
			return models.RawRecord{}, r.err
		}
		return models.RawRecord{}, io.EOF
	}
	rec := r.records[r.pos]
	r.pos++
	return rec, nil
}

func (r *sliceReader) Close() error { return nil }

func rawRow(line int, orderID, productID, customerID string) models.RawRecord {
	return models.RawRecord{Line: line, Values: map[string]string{
		models.ColumnOrderID:         orderID,
		models.ColumnProductID:       productID,
		models.ColumnProductName:     "Product " + productID,
		models.ColumnCategory:        "Shoes",
		models.ColumnRegion:          "North",
		models.ColumnDateOfSale:      "2024-01-15",
		models.ColumnQuantitySold:    "2",
		models.ColumnUnitPrice:       "50.00",
		models.ColumnDiscount:        "",
		models.ColumnShippingCost:    "5",
		models.ColumnPaymentMethod:   "Card",
		models.ColumnCustomerID:      customerID,
		models.ColumnCustomerName:    "Customer " + customerID,
		models.ColumnCustomerEmail:   customerID + "@example.com",
		models.ColumnCustomerAddress: "1 Main St",
	}}
}

func rawRows(n int) []models.RawRecord {
	rows := make([]models.RawRecord, n)
	for i := range rows {
		rows[i] = rawRow(i+2, fmt.Sprintf("O%d", i), "P1", "C1")
	}
	return rows
}

func TestBatcher_SplitsIntoBatches(t *testing.T) {
	b := NewBatcher(&sliceReader{records: rawRows(5)}, 2)
	ctx := context.Background()

	var sizes []int
	var numbers []int
	for {
		batch, err := b.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		sizes = append(sizes, len(batch.Records))
		numbers = append(numbers, batch.Number)
	}

	assert.Equal(t, []int{2, 2, 1}, sizes)
	assert.Equal(t, []int{1, 2, 3}, numbers)
	assert.Equal(t, 5, b.RowsRead())

	_, err := b.Next(ctx)
	assert.Equal(t, io.EOF, err)
}

func TestBatcher_ExactMultipleEmitsNoEmptyBatch(t *testing.T) {
	b := NewBatcher(&sliceReader{records: rawRows(4)}, 2)
	ctx := context.Background()

	count := 0
	for {
		_, err := b.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 2, count)
}

func TestBatcher_EmptyInput(t *testing.T) {
	b := NewBatcher(&sliceReader{}, 10)
	_, err := b.Next(context.Background())
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 0, b.RowsRead())
}

func TestBatcher_LineRangeAndRowErrors(t *testing.T) {
	rows := rawRows(3)
	rows[1].Values[models.ColumnQuantitySold] = "two"

	b := NewBatcher(&sliceReader{records: rows}, 10)
	batch, err := b.Next(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, batch.StartLine)
	assert.Equal(t, 4, batch.EndLine)
	assert.Len(t, batch.Records, 2)
	require.Len(t, batch.RowErrors, 1)
	assert.Equal(t, 3, batch.RowErrors[0].Line)
	assert.Equal(t, models.ColumnQuantitySold, batch.RowErrors[0].Field)
}

func TestBatcher_ReaderErrorIsReturned(t *testing.T) {
	malformed := &models.MalformedInputError{Line: 4, Err: errors.New("wrong number of fields")}
	b := NewBatcher(&sliceReader{records: rawRows(2), err: malformed}, 10)

	_, err := b.Next(context.Background())
	var target *models.MalformedInputError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, 4, target.Line)

	_, err = b.Next(context.Background())
	assert.Equal(t, io.EOF, err)
}

func TestBatcher_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBatcher(&sliceReader{records: rawRows(2)}, 10)
	_, err := b.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestToSalesRecord(t *testing.T) {
	t.Run("converts typed fields", func(t *testing.T) {
		raw := rawRow(7, "1001", "P9", "C3")
		raw.Values[models.ColumnDiscount] = "2.50"
		raw.Values[models.ColumnUnitPrice] = "1,180.00"

		rec, errs := ToSalesRecord(raw)
		require.Empty(t, errs)
		assert.Equal(t, 7, rec.Line)
		assert.Equal(t, "1001", rec.OrderID)
		assert.Equal(t, 2, rec.QuantitySold)
		assert.True(t, decimal.RequireFromString("1180").Equal(rec.UnitPrice))
		assert.True(t, decimal.RequireFromString("2.5").Equal(rec.Discount))
		assert.True(t, decimal.RequireFromString("5").Equal(rec.ShippingCost))
		assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), rec.DateOfSale)
	})

	t.Run("empty optional decimals are zero", func(t *testing.T) {
		raw := rawRow(2, "1", "P1", "C1")
		raw.Values[models.ColumnShippingCost] = ""

		rec, errs := ToSalesRecord(raw)
		require.Empty(t, errs)
		assert.True(t, rec.Discount.IsZero())
		assert.True(t, rec.ShippingCost.IsZero())
	})

	t.Run("collects every bad field", func(t *testing.T) {
		raw := rawRow(9, "", "P1", "C1")
		raw.Values[models.ColumnUnitPrice] = "-3"
		raw.Values[models.ColumnDateOfSale] = "yesterday"

		_, errs := ToSalesRecord(raw)
		require.Len(t, errs, 3)
		fields := []string{errs[0].Field, errs[1].Field, errs[2].Field}
		assert.ElementsMatch(t, []string{models.ColumnOrderID, models.ColumnUnitPrice, models.ColumnDateOfSale}, fields)
		for _, e := range errs {
			assert.Equal(t, 9, e.Line)
		}
	})
}

func TestParseSaleDate(t *testing.T) {
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	for _, v := range []string{"2024-03-05", "3/5/2024", "2024/03/05", "03-05-2024", "3-5-2024", "03-05-24", "2024-03-05T10:30:00+02:00"} {
		got, ok := ParseSaleDate(v)
		assert.True(t, ok, v)
		assert.Equal(t, want, got, v)
	}

	_, ok := ParseSaleDate("March 5th")
	assert.False(t, ok)
}

func TestParseSaleDate_MonthFirstForEverySeparator(t *testing.T) {
	want := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	for _, v := range []string{"03/04/2024", "03-04-2024", "03-04-24", "2024-03-04", "2024/03/04"} {
		got, ok := ParseSaleDate(v)
		require.True(t, ok, v)
		assert.Equal(t, want, got, v)
	}

	// Day 13 cannot be a month
	_, ok := ParseSaleDate("13-04-2024")
	assert.False(t, ok)
}
