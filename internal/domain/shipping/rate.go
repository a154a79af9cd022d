package shipping

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

const (
	// DefaultOriginPostalCode is used when the checkout origin has no postal code.
	DefaultOriginPostalCode = "1011"
	// DefaultCountryCode is used when the checkout origin has no country.
	DefaultCountryCode = "HU"
	// DefaultCurrency is applied to carrier rates that omit a currency.
	DefaultCurrency = "HUF"

	FallbackServiceName = "Kvikk Standard"
	FallbackServiceCode = "kvikk_standard"
	fallbackMinDays     = 2
	fallbackMaxDays     = 5
)

// FallbackPrice is the static rate quoted when the carrier cannot be reached.
var FallbackPrice = decimal.NewFromInt(1500)

var minorUnitFactor = decimal.NewFromInt(100)

// Address is the part of a checkout address the carrier prices on.
type Address struct {
	PostalCode  string `json:"postal_code"`
	CountryCode string `json:"country_code"`
	City        string `json:"city"`
}

// RateRequest is a checkout asking for shipping options.
type RateRequest struct {
	Origin      Address
	Destination Address
	Items       []LineItem
	Currency    string
}

// CarrierPackage is the single parcel described in a rate request.
type CarrierPackage struct {
	Weight     float64    `json:"weight"`
	Dimensions Dimensions `json:"dimensions"`
	Value      float64    `json:"value"`
	Contents   string     `json:"contents"`
}

// CarrierRateRequest is the body of POST /v1/rates.
type CarrierRateRequest struct {
	Origin       Address          `json:"origin"`
	Destination  Address          `json:"destination"`
	Packages     []CarrierPackage `json:"packages"`
	ServiceTypes []ServiceType    `json:"service_types"`
}

// NewCarrierRateRequest builds the carrier request for a checkout, filling
// origin defaults field by field.
func NewCarrierRateRequest(req RateRequest) CarrierRateRequest {
	origin := req.Origin
	if origin.PostalCode == "" {
		origin.PostalCode = DefaultOriginPostalCode
	}
	if origin.CountryCode == "" {
		origin.CountryCode = DefaultCountryCode
	}

	return CarrierRateRequest{
		Origin:      origin,
		Destination: req.Destination,
		Packages: []CarrierPackage{{
			Weight:     TotalWeight(req.Items),
			Dimensions: PackageDimensions(req.Items),
			Value:      TotalValue(req.Items).InexactFloat64(),
			Contents:   ContentsSummary(req.Items),
		}},
		ServiceTypes: RequestedServiceTypes(),
	}
}

// CarrierRate is one option returned by the carrier, priced in major units.
type CarrierRate struct {
	ServiceName     string          `json:"service_name"`
	ServiceCode     string          `json:"service_code"`
	Price           decimal.Decimal `json:"price"`
	Currency        string          `json:"currency"`
	MinDeliveryDate string          `json:"min_delivery_date"`
	MaxDeliveryDate string          `json:"max_delivery_date"`
	PhoneRequired   bool            `json:"phone_required"`
	Description     string          `json:"description"`
}

// RateOffer is a rate in the storefront's carrier-service response shape.
type RateOffer struct {
	ServiceName     string `json:"service_name"`
	ServiceCode     string `json:"service_code"`
	TotalPrice      int64  `json:"total_price"`
	Currency        string `json:"currency"`
	MinDeliveryDate string `json:"min_delivery_date"`
	MaxDeliveryDate string `json:"max_delivery_date"`
	PhoneRequired   bool   `json:"phone_required"`
	Description     string `json:"description"`
}

// ToMinorUnits converts a major-unit price to integer minor units, rounding
// half away from zero.
func ToMinorUnits(price decimal.Decimal) int64 {
	return price.Mul(minorUnitFactor).Round(0).IntPart()
}

// NormalizeCurrency returns the upper-case ISO 4217 code, or DefaultCurrency
// when code is empty or not a currency.
func NormalizeCurrency(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return DefaultCurrency
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return DefaultCurrency
	}
	return unit.String()
}

// ToOffer maps a carrier rate one to one onto a storefront rate.
func (r CarrierRate) ToOffer() RateOffer {
	return RateOffer{
		ServiceName:     r.ServiceName,
		ServiceCode:     r.ServiceCode,
		TotalPrice:      ToMinorUnits(r.Price),
		Currency:        NormalizeCurrency(r.Currency),
		MinDeliveryDate: r.MinDeliveryDate,
		MaxDeliveryDate: r.MaxDeliveryDate,
		PhoneRequired:   r.PhoneRequired,
		Description:     r.Description,
	}
}

// MapRates maps carrier rates in order.
func MapRates(rates []CarrierRate) []RateOffer {
	offers := make([]RateOffer, 0, len(rates))
	for _, r := range rates {
		offers = append(offers, r.ToOffer())
	}
	return offers
}

// FallbackRates is the single static rate used when the carrier fails.
func FallbackRates(now time.Time) []CarrierRate {
	return []CarrierRate{{
		ServiceName:     FallbackServiceName,
		ServiceCode:     FallbackServiceCode,
		Price:           FallbackPrice,
		Currency:        DefaultCurrency,
		MinDeliveryDate: now.AddDate(0, 0, fallbackMinDays).UTC().Format(time.RFC3339),
		MaxDeliveryDate: now.AddDate(0, 0, fallbackMaxDays).UTC().Format(time.RFC3339),
	}}
}
