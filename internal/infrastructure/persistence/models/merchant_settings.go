package models

import (
	"time"

	"github.com/kvikk/backend/internal/domain/settings"
	"github.com/kvikk/backend/internal/domain/shipping"
)

// MerchantSettingsModel is the row of one installed shop
type MerchantSettingsModel struct {
	BaseModel
	ShopDomain          string `gorm:"type:varchar(255);not null;uniqueIndex"`
	CarrierAPIKeySealed string `gorm:"column:carrier_api_key;type:text"`
	AccessTokenSealed   string `gorm:"column:access_token;type:text"`
	DefaultService      string `gorm:"type:varchar(20);not null;default:'standard'"`
	AutoCreateShipments bool   `gorm:"not null;default:true"`
	SenderName          string `gorm:"type:varchar(255)"`
	SenderAddress       string `gorm:"type:varchar(255)"`
	SenderCity          string `gorm:"type:varchar(100)"`
	SenderPostalCode    string `gorm:"type:varchar(20)"`
	SenderCountryCode   string `gorm:"type:varchar(2)"`
	SenderPhone         string `gorm:"type:varchar(50)"`
	CarrierServiceID    int64
	InstalledAt         *time.Time
}

// TableName returns the table name for GORM
func (MerchantSettingsModel) TableName() string {
	return "merchant_settings"
}

// ToDomain converts the model to settings; sealed credentials are copied
// as-is and must be opened by the caller.
func (m *MerchantSettingsModel) ToDomain() *settings.MerchantSettings {
	return &settings.MerchantSettings{
		BaseEntity:          m.BaseModel.ToDomain(),
		ShopDomain:          m.ShopDomain,
		CarrierAPIKey:       m.CarrierAPIKeySealed,
		AccessToken:         m.AccessTokenSealed,
		DefaultService:      shipping.ServiceType(m.DefaultService),
		AutoCreateShipments: m.AutoCreateShipments,
		Sender: settings.SenderProfile{
			Name:        m.SenderName,
			Address:     m.SenderAddress,
			City:        m.SenderCity,
			PostalCode:  m.SenderPostalCode,
			CountryCode: m.SenderCountryCode,
			Phone:       m.SenderPhone,
		},
		CarrierServiceID: m.CarrierServiceID,
		InstalledAt:      m.InstalledAt,
	}
}

// MerchantSettingsModelFromDomain builds a model with the given sealed credentials
func MerchantSettingsModelFromDomain(s *settings.MerchantSettings, sealedAPIKey, sealedToken string) *MerchantSettingsModel {
	m := &MerchantSettingsModel{
		ShopDomain:          s.ShopDomain,
		CarrierAPIKeySealed: sealedAPIKey,
		AccessTokenSealed:   sealedToken,
		DefaultService:      string(s.DefaultService),
		AutoCreateShipments: s.AutoCreateShipments,
		SenderName:          s.Sender.Name,
		SenderAddress:       s.Sender.Address,
		SenderCity:          s.Sender.City,
		SenderPostalCode:    s.Sender.PostalCode,
		SenderCountryCode:   s.Sender.CountryCode,
		SenderPhone:         s.Sender.Phone,
		CarrierServiceID:    s.CarrierServiceID,
		InstalledAt:         s.InstalledAt,
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}
