package dto

import (
	"strings"

	"github.com/kvikk/backend/internal/domain/settings"
)

// SettingsRequest is the JSON body of POST /api/settings. Absent fields
// keep their stored values.
type SettingsRequest struct {
	KvikkAPIKey         *string `json:"kvikk_api_key"`
	DefaultService      *string `json:"default_service" binding:"omitempty,servicetype"`
	AutoCreateShipments *bool   `json:"auto_create_shipments"`
	SenderName          *string `json:"sender_name" binding:"omitempty,max=255"`
	SenderAddress       *string `json:"sender_address" binding:"omitempty,max=255"`
	SenderCity          *string `json:"sender_city" binding:"omitempty,max=100"`
	SenderPostalCode    *string `json:"sender_postal_code" binding:"omitempty,max=16"`
	SenderPhone         *string `json:"sender_phone" binding:"omitempty,max=32"`
	SenderCountryCode   *string `json:"sender_country_code" binding:"omitempty,countrycode"`
}

// ToUpdate converts the request to a settings update.
func (r SettingsRequest) ToUpdate() settings.Update {
	return settings.Update{
		CarrierAPIKey:       r.KvikkAPIKey,
		DefaultService:      r.DefaultService,
		AutoCreateShipments: r.AutoCreateShipments,
		SenderName:          r.SenderName,
		SenderAddress:       r.SenderAddress,
		SenderCity:          r.SenderCity,
		SenderPostalCode:    r.SenderPostalCode,
		SenderPhone:         r.SenderPhone,
		SenderCountryCode:   r.SenderCountryCode,
	}
}

// Admin form actions posted to /app.
const (
	ActionSaveSettings   = "save_settings"
	ActionTestConnection = "test_connection"
)

// AdminFormRequest is the form-encoded body posted by the embedded admin page.
// A checkbox posts "on" when ticked and nothing otherwise.
type AdminFormRequest struct {
	Action              string `form:"_action" binding:"required,oneof=save_settings test_connection"`
	KvikkAPIKey         string `form:"kvikk_api_key"`
	DefaultService      string `form:"default_service" binding:"omitempty,servicetype"`
	AutoCreateShipments string `form:"auto_create_shipments"`
	SenderName          string `form:"sender_name" binding:"max=255"`
	SenderAddress       string `form:"sender_address" binding:"max=255"`
	SenderCity          string `form:"sender_city" binding:"max=100"`
	SenderPostalCode    string `form:"sender_postal_code" binding:"max=16"`
	SenderPhone         string `form:"sender_phone" binding:"max=32"`
}

// ToUpdate converts a save_settings submission. Every field of the form is
// always posted, so each one overwrites the stored value.
func (r AdminFormRequest) ToUpdate() settings.Update {
	autoCreate := strings.EqualFold(r.AutoCreateShipments, "on")
	u := settings.Update{
		CarrierAPIKey:       &r.KvikkAPIKey,
		AutoCreateShipments: &autoCreate,
		SenderName:          &r.SenderName,
		SenderAddress:       &r.SenderAddress,
		SenderCity:          &r.SenderCity,
		SenderPostalCode:    &r.SenderPostalCode,
		SenderPhone:         &r.SenderPhone,
	}
	if r.DefaultService != "" {
		u.DefaultService = &r.DefaultService
	}
	return u
}

// SaveSettingsResponse answers a settings save.
type SaveSettingsResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// TestConnectionResponse answers a connection test from the admin form.
type TestConnectionResponse struct {
	TestResult ConnectionResult `json:"testResult"`
}

// ConnectionResult reports whether the carrier accepted the API key.
type ConnectionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// TestConnectionRequest is the JSON body of POST /api/settings/test.
type TestConnectionRequest struct {
	KvikkAPIKey string `json:"kvikk_api_key"`
}

// InstallResponse answers a successful install.
type InstallResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	CarrierServiceID int64  `json:"carrier_service_id,omitempty"`
}
