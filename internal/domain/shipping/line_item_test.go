package shipping

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineItem_UnitWeight(t *testing.T) {
	tests := []struct {
		name     string
		item     LineItem
		expected float64
	}{
		{"grams preferred", LineItem{Grams: 250, Weight: 900}, 250},
		{"weight when grams absent", LineItem{Weight: 900}, 900},
		{"default when absent", LineItem{}, DefaultItemWeightGrams},
		{"zero grams uses default", LineItem{Grams: 0}, DefaultItemWeightGrams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.item.UnitWeight())
		})
	}
}

func TestTotalWeight(t *testing.T) {
	items := []LineItem{
		{Grams: 500, Quantity: 2},
		{Quantity: 1},
	}

	assert.Equal(t, 1100.0, TotalWeight(items))
	assert.Equal(t, 0.0, TotalWeight(nil))
}

func TestPackageDimensions(t *testing.T) {
	t.Run("single unit hits length floor", func(t *testing.T) {
		dims := PackageDimensions([]LineItem{{Quantity: 1}})

		// side = ceil(cbrt(1000)) = 10
		assert.Equal(t, 15.0, dims.Length)
		assert.Equal(t, 10.0, dims.Width)
		assert.Equal(t, 6.0, dims.Height)
	})

	t.Run("empty list uses every floor", func(t *testing.T) {
		dims := PackageDimensions(nil)

		assert.Equal(t, Dimensions{Length: 15, Width: 10, Height: 5}, dims)
	})

	t.Run("large volume exceeds floors", func(t *testing.T) {
		dims := PackageDimensions([]LineItem{{Quantity: 27}})

		// side = ceil(cbrt(27000)) = 30
		assert.Equal(t, 30.0, dims.Length)
		assert.Equal(t, 24.0, dims.Width)
		assert.Equal(t, 18.0, dims.Height)
	})

	t.Run("never below floors", func(t *testing.T) {
		for qty := 0; qty <= 50; qty++ {
			dims := PackageDimensions([]LineItem{{Quantity: qty}})
			assert.GreaterOrEqual(t, dims.Length, 15.0)
			assert.GreaterOrEqual(t, dims.Width, 10.0)
			assert.GreaterOrEqual(t, dims.Height, 5.0)
		}
	})
}

func TestTotalValue(t *testing.T) {
	tests := []struct {
		name     string
		items    []LineItem
		expected string
	}{
		{
			name:     "price only",
			items:    []LineItem{{Price: AmountFromString("199.90"), Quantity: 2}},
			expected: "399.8",
		},
		{
			name: "unit price wins over price",
			items: []LineItem{{
				Price:     AmountFromString("10"),
				UnitPrice: AmountFromString("7.5"),
				Quantity:  2,
			}},
			expected: "15",
		},
		{
			name:     "missing price counts as zero",
			items:    []LineItem{{Quantity: 3}},
			expected: "0",
		},
		{
			name:     "unparseable price counts as zero",
			items:    []LineItem{{Price: AmountFromString("abc"), Quantity: 3}},
			expected: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, decimal.RequireFromString(tt.expected).Equal(TotalValue(tt.items)),
				"got %s", TotalValue(tt.items))
		})
	}
}

func TestLineItem_DecodeMixedPriceTypes(t *testing.T) {
	body := `[
		{"title":"Mug","quantity":2,"grams":300,"price":"1299.50"},
		{"name":"Poster","quantity":1,"price":4500},
		{"title":"Sticker","quantity":4,"price":null,"unit_price":""}
	]`

	var items []LineItem
	require.NoError(t, json.Unmarshal([]byte(body), &items))
	require.Len(t, items, 3)

	assert.True(t, decimal.RequireFromString("1299.50").Equal(items[0].UnitPriceValue()))
	assert.True(t, decimal.NewFromInt(4500).Equal(items[1].UnitPriceValue()))
	assert.True(t, items[2].UnitPriceValue().IsZero())
	assert.Equal(t, "Mug, Poster, Sticker", ContentsSummary(items))
	assert.Equal(t, "Mug x2,  x1, Sticker x4", ContentsWithQuantities(items))
}
