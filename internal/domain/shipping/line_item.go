package shipping

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// DefaultItemWeightGrams is used for lines that report no weight.
	DefaultItemWeightGrams = 100

	// unitVolume is the volume assumed for one unit of any line item.
	unitVolume = 1000

	minPackageLength = 15
	minPackageWidth  = 10
	minPackageHeight = 5
)

// LineItem is one checkout or order line. Both rate callbacks and order
// webhooks decode into it; the alternative field names cover both payloads.
type LineItem struct {
	Title     string  `json:"title,omitempty"`
	Name      string  `json:"name,omitempty"`
	SKU       string  `json:"sku,omitempty"`
	Quantity  int     `json:"quantity"`
	Grams     float64 `json:"grams,omitempty"`
	Weight    float64 `json:"weight,omitempty"`
	Price     Amount  `json:"price"`
	UnitPrice Amount  `json:"unit_price"`
}

// UnitWeight returns the weight of one unit in grams.
func (li LineItem) UnitWeight() float64 {
	if li.Grams > 0 {
		return li.Grams
	}
	if li.Weight > 0 {
		return li.Weight
	}
	return DefaultItemWeightGrams
}

// UnitPriceValue returns the unit price, preferring unit_price over price.
func (li LineItem) UnitPriceValue() decimal.Decimal {
	if li.UnitPrice.Valid {
		return li.UnitPrice.Value
	}
	return li.Price.Or(decimal.Zero)
}

// DisplayName returns the line's name, falling back to its title.
func (li LineItem) DisplayName() string {
	if li.Name != "" {
		return li.Name
	}
	return li.Title
}

// Dimensions of a parcel in centimetres.
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// TotalWeight returns Σ(unit weight × quantity) in grams.
func TotalWeight(items []LineItem) float64 {
	var total float64
	for _, item := range items {
		total += item.UnitWeight() * float64(item.Quantity)
	}
	return total
}

// PackageDimensions sizes a cube holding all units and applies the floors.
// The width and height floors compare against the scaled, unfloored side.
func PackageDimensions(items []LineItem) Dimensions {
	var volume float64
	for _, item := range items {
		volume += float64(item.Quantity) * unitVolume
	}

	side := 0.0
	if volume > 0 {
		side = math.Ceil(math.Cbrt(volume))
	}

	return Dimensions{
		Length: math.Max(side, minPackageLength),
		Width:  math.Max(side*0.8, minPackageWidth),
		Height: math.Max(side*0.6, minPackageHeight),
	}
}

// TotalValue returns Σ(unit price × quantity).
func TotalValue(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.UnitPriceValue().Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// ContentsSummary lists item names joined by ", ".
func ContentsSummary(items []LineItem) string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.DisplayName())
	}
	return strings.Join(names, ", ")
}

// ContentsWithQuantities lists items as "title xQty" joined by ", ".
func ContentsWithQuantities(items []LineItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, item.Title+" x"+strconv.Itoa(item.Quantity))
	}
	return strings.Join(parts, ", ")
}
