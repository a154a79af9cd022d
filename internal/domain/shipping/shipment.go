package shipping

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// CarrierDisplayName is the carrier service name registered with the
	// storefront. Order shipping lines created by our rates carry it as source.
	CarrierDisplayName = "Kvikk Shipping"
	// TrackingCompany is the carrier name written onto fulfillments.
	TrackingCompany = "Kvikk"
)

var (
	// InsuranceThreshold: orders valued above it ship insured.
	InsuranceThreshold = decimal.NewFromInt(50000)
	// SignatureThreshold: orders valued above it require a signature.
	SignatureThreshold = decimal.NewFromInt(100000)
)

// Order is the subset of an order webhook payload used to build a shipment.
type Order struct {
	ID              int64          `json:"id"`
	OrderNumber     int64          `json:"order_number"`
	Name            string         `json:"name"`
	Email           string         `json:"email"`
	Phone           string         `json:"phone"`
	Currency        string         `json:"currency"`
	SubtotalPrice   Amount         `json:"subtotal_price"`
	ShippingAddress *OrderAddress  `json:"shipping_address"`
	LineItems       []LineItem     `json:"line_items"`
	ShippingLines   []ShippingLine `json:"shipping_lines"`
}

// OrderAddress is an order's shipping address.
type OrderAddress struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Company     string `json:"company"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2"`
	City        string `json:"city"`
	Zip         string `json:"zip"`
	CountryCode string `json:"country_code"`
	Phone       string `json:"phone"`
}

// ShippingLine is the shipping method chosen at checkout.
type ShippingLine struct {
	Code        string `json:"code"`
	ServiceCode string `json:"service_code"`
	Source      string `json:"source"`
	Title       string `json:"title"`
	Price       Amount `json:"price"`
}

// DecodeOrder parses an order webhook body.
func DecodeOrder(body []byte) (*Order, error) {
	var order Order
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderInvalidPayload, err)
	}
	return &order, nil
}

// CarrierShippingLine returns the first shipping line whose source is
// exactly CarrierDisplayName.
func (o *Order) CarrierShippingLine() (ShippingLine, bool) {
	for _, line := range o.ShippingLines {
		if line.Source == CarrierDisplayName {
			return line, true
		}
	}
	return ShippingLine{}, false
}

// ServiceType resolves the carrier service chosen by this line. The code
// wins; service_code is read when the code is empty.
func (l ShippingLine) ServiceType() ServiceType {
	if l.Code == "" {
		return ServiceTypeForCode(l.ServiceCode)
	}
	return ServiceTypeForCode(l.Code)
}

// Sender is the party shipping the parcel.
type Sender struct {
	Name         string `json:"name"`
	AddressLine1 string `json:"address_line_1"`
	City         string `json:"city"`
	PostalCode   string `json:"postal_code"`
	CountryCode  string `json:"country_code"`
	Phone        string `json:"phone"`
}

// DefaultSender is the sender profile new installs start with.
func DefaultSender() Sender {
	return Sender{
		Name:         "Webshop",
		AddressLine1: "Fő utca 1.",
		City:         "Budapest",
		PostalCode:   "1011",
		CountryCode:  DefaultCountryCode,
		Phone:        "+36301234567",
	}
}

// Recipient is the party receiving the parcel.
type Recipient struct {
	Name         string `json:"name"`
	Company      string `json:"company"`
	AddressLine1 string `json:"address_line_1"`
	AddressLine2 string `json:"address_line_2"`
	City         string `json:"city"`
	PostalCode   string `json:"postal_code"`
	CountryCode  string `json:"country_code"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
}

// ShipmentPackage is the single parcel of a shipment.
type ShipmentPackage struct {
	Weight     float64    `json:"weight"`
	Dimensions Dimensions `json:"dimensions"`
	Value      float64    `json:"value"`
	Currency   string     `json:"currency"`
	Contents   string     `json:"contents"`
}

// ShipmentRequest is the body of POST /v1/shipments.
type ShipmentRequest struct {
	Reference         int64             `json:"reference"`
	Recipient         Recipient         `json:"recipient"`
	Sender            Sender            `json:"sender"`
	Packages          []ShipmentPackage `json:"packages"`
	ServiceType       ServiceType       `json:"service_type"`
	Insurance         bool              `json:"insurance"`
	SignatureRequired bool              `json:"signature_required"`
}

// NewShipmentRequest builds the carrier payload for order using the service
// chosen on line.
func NewShipmentRequest(order *Order, line ShippingLine, sender Sender) (*ShipmentRequest, error) {
	if order == nil {
		return nil, ErrOrderInvalidPayload
	}
	addr := order.ShippingAddress
	if addr == nil {
		return nil, ErrOrderMissingShippingAddress
	}

	phone := addr.Phone
	if phone == "" {
		phone = order.Phone
	}

	value := order.SubtotalPrice.Or(decimal.Zero)

	return &ShipmentRequest{
		Reference: order.OrderNumber,
		Recipient: Recipient{
			Name:         strings.TrimSpace(addr.FirstName + " " + addr.LastName),
			Company:      addr.Company,
			AddressLine1: addr.Address1,
			AddressLine2: addr.Address2,
			City:         addr.City,
			PostalCode:   addr.Zip,
			CountryCode:  addr.CountryCode,
			Phone:        phone,
			Email:        order.Email,
		},
		Sender: sender,
		Packages: []ShipmentPackage{{
			Weight:     TotalWeight(order.LineItems),
			Dimensions: PackageDimensions(order.LineItems),
			Value:      value.InexactFloat64(),
			Currency:   order.Currency,
			Contents:   ContentsWithQuantities(order.LineItems),
		}},
		ServiceType:       line.ServiceType(),
		Insurance:         value.GreaterThan(InsuranceThreshold),
		SignatureRequired: value.GreaterThan(SignatureThreshold),
	}, nil
}

// ShipmentConfirmation is the carrier's answer to a created shipment.
type ShipmentConfirmation struct {
	ID             string `json:"id"`
	TrackingNumber string `json:"tracking_number"`
	Status         string `json:"status"`
	LabelURL       string `json:"label_url,omitempty"`
}

// TrackingInfo is written back onto the storefront order.
type TrackingInfo struct {
	Number  string
	Company string
	URL     string
}
