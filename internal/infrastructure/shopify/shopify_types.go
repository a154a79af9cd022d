package shopify

import "strings"

// OAuth token exchange grant identifiers
const (
	tokenExchangeGrantType   = "urn:ietf:params:oauth:grant-type:token-exchange"
	idTokenType              = "urn:ietf:params:oauth:token-type:id_token"
	offlineAccessTokenType   = "urn:shopify:params:oauth:token-type:offline-access-token"
	accessTokenHeader        = "X-Shopify-Access-Token"
	carrierServiceFormatJSON = "json"
)

// TokenExchangeRequest is the body of POST /admin/oauth/access_token
type TokenExchangeRequest struct {
	ClientID           string `json:"client_id"`
	ClientSecret       string `json:"client_secret"`
	GrantType          string `json:"grant_type"`
	SubjectToken       string `json:"subject_token"`
	SubjectTokenType   string `json:"subject_token_type"`
	RequestedTokenType string `json:"requested_token_type"`
}

// TokenExchangeResponse carries the offline access token
type TokenExchangeResponse struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}

// CarrierService is the rate callback registration
type CarrierService struct {
	ID               int64  `json:"id,omitempty"`
	Name             string `json:"name"`
	CallbackURL      string `json:"callback_url"`
	ServiceDiscovery bool   `json:"service_discovery"`
	Format           string `json:"format,omitempty"`
	Active           bool   `json:"active,omitempty"`
}

// CarrierServiceEnvelope wraps a single carrier service
type CarrierServiceEnvelope struct {
	CarrierService CarrierService `json:"carrier_service"`
}

// CarrierServicesResponse lists the shop's carrier services
type CarrierServicesResponse struct {
	CarrierServices []CarrierService `json:"carrier_services"`
}

// FulfillmentOrder is the part of a fulfillment order this app needs
type FulfillmentOrder struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

// fulfillable reports whether a fulfillment can still be created against it
func (o FulfillmentOrder) fulfillable() bool {
	switch strings.ToLower(o.Status) {
	case "open", "in_progress", "scheduled":
		return true
	default:
		return false
	}
}

// FulfillmentOrdersResponse lists an order's fulfillment orders
type FulfillmentOrdersResponse struct {
	FulfillmentOrders []FulfillmentOrder `json:"fulfillment_orders"`
}

// Fulfillment is an existing fulfillment on an order
type Fulfillment struct {
	ID              int64    `json:"id"`
	Status          string   `json:"status"`
	TrackingCompany string   `json:"tracking_company"`
	TrackingNumber  string   `json:"tracking_number"`
	TrackingNumbers []string `json:"tracking_numbers"`
}

// hasTrackingNumber reports whether the fulfillment already carries number
func (f Fulfillment) hasTrackingNumber(number string) bool {
	if f.TrackingNumber == number {
		return true
	}
	for _, n := range f.TrackingNumbers {
		if n == number {
			return true
		}
	}
	return false
}

// FulfillmentsResponse lists an order's fulfillments
type FulfillmentsResponse struct {
	Fulfillments []Fulfillment `json:"fulfillments"`
}

// FulfillmentTrackingInfo is the tracking block of a new fulfillment
type FulfillmentTrackingInfo struct {
	Number  string `json:"number"`
	Company string `json:"company"`
	URL     string `json:"url,omitempty"`
}

// FulfillmentOrderLineItems selects a fulfillment order to fulfil in full
type FulfillmentOrderLineItems struct {
	FulfillmentOrderID int64 `json:"fulfillment_order_id"`
}

// FulfillmentCreate is the body of POST fulfillments.json
type FulfillmentCreate struct {
	LineItemsByFulfillmentOrder []FulfillmentOrderLineItems `json:"line_items_by_fulfillment_order"`
	TrackingInfo                FulfillmentTrackingInfo     `json:"tracking_info"`
	NotifyCustomer              bool                        `json:"notify_customer"`
}

// FulfillmentCreateEnvelope wraps FulfillmentCreate
type FulfillmentCreateEnvelope struct {
	Fulfillment FulfillmentCreate `json:"fulfillment"`
}

// ErrorResponse is the Admin API error body. errors is either a string or
// an object of field messages.
type ErrorResponse struct {
	Errors any `json:"errors"`
}
