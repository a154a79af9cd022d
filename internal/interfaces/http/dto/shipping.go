package dto

import (
	"time"

	"github.com/kvikk/backend/internal/domain/shipping"
)

// RatesResponse is the carrier-service callback answer.
type RatesResponse struct {
	Rates  []shipping.RateOffer `json:"rates"`
	Errors []RateError          `json:"errors,omitempty"`
}

// RateError is a checkout-facing failure message.
type RateError struct {
	Message string `json:"message"`
}

// NewRatesResponse wraps rate offers. A nil slice is sent as [].
func NewRatesResponse(offers []shipping.RateOffer) RatesResponse {
	if offers == nil {
		offers = []shipping.RateOffer{}
	}
	return RatesResponse{Rates: offers}
}

// NewRatesErrorResponse is sent when no rate can be produced.
func NewRatesErrorResponse(message string) RatesResponse {
	return RatesResponse{Rates: []shipping.RateOffer{}, Errors: []RateError{{Message: message}}}
}

// WebhookAck acknowledges a webhook delivery.
type WebhookAck struct {
	Received bool   `json:"received"`
	Action   string `json:"action,omitempty"`
}

// ShipmentRecordResponse is one locally recorded shipment attempt.
type ShipmentRecordResponse struct {
	OrderID        int64     `json:"order_id"`
	OrderNumber    int64     `json:"order_number"`
	ServiceType    string    `json:"service_type"`
	Status         string    `json:"status"`
	TrackingNumber string    `json:"tracking_number,omitempty"`
	TrackingSynced bool      `json:"tracking_synced"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	Attempts       int       `json:"attempts"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RecentShipmentsResponse is the dashboard payload.
type RecentShipmentsResponse struct {
	Recent  []shipping.CarrierShipment `json:"recent"`
	Today   int                        `json:"today"`
	Records []ShipmentRecordResponse   `json:"records"`
}

// NewRecentShipmentsResponse builds the dashboard payload.
func NewRecentShipmentsResponse(overview shipping.ShipmentOverview, records []shipping.ShipmentRecord) RecentShipmentsResponse {
	resp := RecentShipmentsResponse{
		Recent:  overview.Recent,
		Today:   overview.Today,
		Records: make([]ShipmentRecordResponse, 0, len(records)),
	}
	if resp.Recent == nil {
		resp.Recent = []shipping.CarrierShipment{}
	}
	for _, r := range records {
		resp.Records = append(resp.Records, ShipmentRecordResponse{
			OrderID:        r.OrderID,
			OrderNumber:    r.OrderNumber,
			ServiceType:    r.ServiceType.String(),
			Status:         string(r.Status),
			TrackingNumber: r.TrackingNumber,
			TrackingSynced: r.TrackingSynced,
			ErrorMessage:   r.ErrorMessage,
			Attempts:       r.Attempts,
			UpdatedAt:      r.UpdatedAt,
		})
	}
	return resp
}

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Version  string `json:"version,omitempty"`
}
