package shipping

import (
	"time"

	"github.com/kvikk/backend/internal/domain/shared"
)

// RecordStatus is the state of a shipment attempt.
type RecordStatus string

const (
	RecordStatusPending RecordStatus = "pending"
	RecordStatusCreated RecordStatus = "created"
	RecordStatusFailed  RecordStatus = "failed"
)

// ShipmentRecord is the persisted outcome of one shipment attempt for an order.
type ShipmentRecord struct {
	shared.BaseEntity
	ShopDomain        string
	OrderID           int64
	OrderNumber       int64
	ServiceType       ServiceType
	Status            RecordStatus
	CarrierShipmentID string
	TrackingNumber    string
	TrackingSynced    bool
	ErrorMessage      string
	Attempts          int
}

// NewShipmentRecord starts a pending record for an order.
func NewShipmentRecord(shop string, order *Order, service ServiceType) *ShipmentRecord {
	return &ShipmentRecord{
		BaseEntity:  shared.NewBaseEntity(),
		ShopDomain:  shop,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		ServiceType: service,
		Status:      RecordStatusPending,
	}
}

// IsCreated reports whether the carrier accepted the shipment.
func (r *ShipmentRecord) IsCreated() bool {
	return r.Status == RecordStatusCreated
}

// BeginAttempt moves a record back to pending for another try.
func (r *ShipmentRecord) BeginAttempt(service ServiceType) error {
	if r.IsCreated() {
		return ErrShipmentAlreadyCreated
	}
	r.Status = RecordStatusPending
	r.ServiceType = service
	r.ErrorMessage = ""
	r.Touch()
	return nil
}

// MarkCreated stores the carrier confirmation.
func (r *ShipmentRecord) MarkCreated(conf *ShipmentConfirmation) {
	r.Status = RecordStatusCreated
	r.Attempts++
	r.ErrorMessage = ""
	if conf != nil {
		r.CarrierShipmentID = conf.ID
		r.TrackingNumber = conf.TrackingNumber
	}
	r.Touch()
}

// MarkFailed stores the failure reason.
func (r *ShipmentRecord) MarkFailed(err error) {
	r.Status = RecordStatusFailed
	r.Attempts++
	if err != nil {
		r.ErrorMessage = err.Error()
	}
	r.Touch()
}

// MarkTrackingSynced notes that tracking was written back to the order.
func (r *ShipmentRecord) MarkTrackingSynced() {
	r.TrackingSynced = true
	r.Touch()
}

// CarrierShipment is one entry of the carrier's shipment listing.
type CarrierShipment struct {
	ID             string    `json:"id"`
	OrderNumber    string    `json:"order_number"`
	RecipientName  string    `json:"recipient_name"`
	ServiceType    string    `json:"service_type"`
	Status         string    `json:"status"`
	TrackingNumber string    `json:"tracking_number"`
	CreatedAt      time.Time `json:"created_at"`
}

const recentShipmentsLimit = 10

// ShipmentOverview is the dashboard summary of carrier shipments.
type ShipmentOverview struct {
	Recent []CarrierShipment `json:"recent"`
	Today  int               `json:"today"`
}

// EmptyOverview is shown when the carrier listing is unavailable.
func EmptyOverview() ShipmentOverview {
	return ShipmentOverview{Recent: []CarrierShipment{}, Today: 0}
}

// SummarizeShipments keeps the first ten shipments and counts those created
// on now's calendar day in now's location.
func SummarizeShipments(shipments []CarrierShipment, now time.Time) ShipmentOverview {
	overview := EmptyOverview()

	n := len(shipments)
	if n > recentShipmentsLimit {
		n = recentShipmentsLimit
	}
	overview.Recent = append(overview.Recent, shipments[:n]...)

	y, m, d := now.Date()
	for _, s := range shipments {
		sy, sm, sd := s.CreatedAt.In(now.Location()).Date()
		if sy == y && sm == m && sd == d {
			overview.Today++
		}
	}
	return overview
}
