package carrier

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/kvikk/backend/internal/domain/shipping"
)

// KvikkRatesResponse is the body of POST /v1/rates
type KvikkRatesResponse struct {
	Rates []shipping.CarrierRate `json:"rates"`
}

// KvikkShipmentResponse is the body of POST /v1/shipments. Some API
// versions wrap the shipment in a "shipment" envelope.
type KvikkShipmentResponse struct {
	shipping.ShipmentConfirmation
	Shipment *shipping.ShipmentConfirmation `json:"shipment,omitempty"`
}

// Confirmation returns the shipment regardless of envelope
func (r *KvikkShipmentResponse) Confirmation() *shipping.ShipmentConfirmation {
	if r.Shipment != nil {
		return r.Shipment
	}
	conf := r.ShipmentConfirmation
	return &conf
}

// KvikkShipmentsResponse is the body of GET /v1/shipments
type KvikkShipmentsResponse struct {
	Shipments []KvikkShipment `json:"shipments"`
}

// KvikkShipment is one entry of the shipment listing
type KvikkShipment struct {
	ID             flexString `json:"id"`
	OrderNumber    flexString `json:"order_number"`
	RecipientName  string     `json:"recipient_name"`
	ServiceType    string     `json:"service_type"`
	Status         string     `json:"status"`
	TrackingNumber string     `json:"tracking_number"`
	CreatedAt      string     `json:"created_at"`
}

// KvikkErrorResponse is returned with non-2xx statuses
type KvikkErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e KvikkErrorResponse) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// toDomain converts a listing entry. Unparseable timestamps become zero.
func (s KvikkShipment) toDomain() shipping.CarrierShipment {
	return shipping.CarrierShipment{
		ID:             string(s.ID),
		OrderNumber:    string(s.OrderNumber),
		RecipientName:  s.RecipientName,
		ServiceType:    s.ServiceType,
		Status:         s.Status,
		TrackingNumber: s.TrackingNumber,
		CreatedAt:      parseTimestamp(s.CreatedAt),
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(data)
	return nil
}
