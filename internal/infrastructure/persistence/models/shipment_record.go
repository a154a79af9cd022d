package models

import (
	"github.com/kvikk/backend/internal/domain/shipping"
)

// ShipmentRecordModel persists one order's shipment attempts
type ShipmentRecordModel struct {
	BaseModel
	ShopDomain        string `gorm:"type:varchar(255);not null;uniqueIndex:idx_shipment_records_shop_order,priority:1;index:idx_shipment_records_shop_created,priority:1"`
	OrderID           int64  `gorm:"not null;uniqueIndex:idx_shipment_records_shop_order,priority:2"`
	OrderNumber       int64  `gorm:"not null"`
	ServiceType       string `gorm:"type:varchar(20);not null"`
	Status            string `gorm:"type:varchar(20);not null"`
	CarrierShipmentID string `gorm:"type:varchar(100)"`
	TrackingNumber    string `gorm:"type:varchar(100)"`
	TrackingSynced    bool   `gorm:"not null;default:false"`
	ErrorMessage      string `gorm:"type:text"`
	Attempts          int    `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ShipmentRecordModel) TableName() string {
	return "shipment_records"
}

// ToDomain converts the model to a domain record
func (m *ShipmentRecordModel) ToDomain() *shipping.ShipmentRecord {
	return &shipping.ShipmentRecord{
		BaseEntity:        m.BaseModel.ToDomain(),
		ShopDomain:        m.ShopDomain,
		OrderID:           m.OrderID,
		OrderNumber:       m.OrderNumber,
		ServiceType:       shipping.ServiceType(m.ServiceType),
		Status:            shipping.RecordStatus(m.Status),
		CarrierShipmentID: m.CarrierShipmentID,
		TrackingNumber:    m.TrackingNumber,
		TrackingSynced:    m.TrackingSynced,
		ErrorMessage:      m.ErrorMessage,
		Attempts:          m.Attempts,
	}
}

// ShipmentRecordModelFromDomain converts a domain record to a model
func ShipmentRecordModelFromDomain(r *shipping.ShipmentRecord) *ShipmentRecordModel {
	m := &ShipmentRecordModel{
		ShopDomain:        r.ShopDomain,
		OrderID:           r.OrderID,
		OrderNumber:       r.OrderNumber,
		ServiceType:       string(r.ServiceType),
		Status:            string(r.Status),
		CarrierShipmentID: r.CarrierShipmentID,
		TrackingNumber:    r.TrackingNumber,
		TrackingSynced:    r.TrackingSynced,
		ErrorMessage:      r.ErrorMessage,
		Attempts:          r.Attempts,
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m
}
