// Package settings contains the per-shop merchant configuration for the
// Kvikk integration: carrier credentials, default service, auto-create flag
// and sender profile.
package settings

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/kvikk/backend/internal/domain/shared"
	"github.com/kvikk/backend/internal/domain/shipping"
)

// MaskedKeyMarker replaces a stored API key in every read view.
const MaskedKeyMarker = "***"

var (
	ErrSettingsNotFound      = shared.NewDomainError("SETTINGS_NOT_FOUND", "Settings not found for shop")
	ErrInvalidShopDomain     = errors.New("settings: invalid shop domain")
	ErrInvalidDefaultService = errors.New("settings: invalid default service")
	ErrInvalidCountryCode    = errors.New("settings: invalid sender country code")
)

var shopDomainPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-]*\.myshopify\.com$`)

// ValidateShopDomain checks for a canonical myshopify.com domain.
func ValidateShopDomain(shop string) error {
	if !shopDomainPattern.MatchString(shop) {
		return ErrInvalidShopDomain
	}
	return nil
}

// SenderProfile is the merchant's pickup address.
type SenderProfile struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	City        string `json:"city"`
	PostalCode  string `json:"postal_code"`
	CountryCode string `json:"country_code"`
	Phone       string `json:"phone"`
}

// DefaultSenderProfile mirrors shipping.DefaultSender.
func DefaultSenderProfile() SenderProfile {
	s := shipping.DefaultSender()
	return SenderProfile{
		Name:        s.Name,
		Address:     s.AddressLine1,
		City:        s.City,
		PostalCode:  s.PostalCode,
		CountryCode: s.CountryCode,
		Phone:       s.Phone,
	}
}

// ToSender converts the profile to the carrier payload shape.
func (p SenderProfile) ToSender() shipping.Sender {
	country := p.CountryCode
	if country == "" {
		country = shipping.DefaultCountryCode
	}
	return shipping.Sender{
		Name:         p.Name,
		AddressLine1: p.Address,
		City:         p.City,
		PostalCode:   p.PostalCode,
		CountryCode:  country,
		Phone:        p.Phone,
	}
}

// MerchantSettings is the configuration of one shop.
type MerchantSettings struct {
	shared.BaseEntity
	ShopDomain          string
	CarrierAPIKey       string
	AccessToken         string
	DefaultService      shipping.ServiceType
	AutoCreateShipments bool
	Sender              SenderProfile
	CarrierServiceID    int64
	InstalledAt         *time.Time
}

// NewMerchantSettings creates settings with install defaults.
func NewMerchantSettings(shop string) (*MerchantSettings, error) {
	if err := ValidateShopDomain(shop); err != nil {
		return nil, err
	}
	return &MerchantSettings{
		BaseEntity:          shared.NewBaseEntity(),
		ShopDomain:          shop,
		DefaultService:      shipping.ServiceTypeStandard,
		AutoCreateShipments: true,
		Sender:              DefaultSenderProfile(),
	}, nil
}

// HasCarrierAPIKey reports whether the merchant stored a key.
func (s *MerchantSettings) HasCarrierAPIKey() bool {
	return s.CarrierAPIKey != ""
}

// CarrierKey returns the merchant's key, or fallback when none is stored.
func (s *MerchantSettings) CarrierKey(fallback string) string {
	if s != nil && s.HasCarrierAPIKey() {
		return s.CarrierAPIKey
	}
	return fallback
}

// MarkInstalled stores the access token and registered carrier service.
func (s *MerchantSettings) MarkInstalled(accessToken string, carrierServiceID int64, at time.Time) {
	s.AccessToken = accessToken
	s.CarrierServiceID = carrierServiceID
	s.InstalledAt = &at
	s.Touch()
}

// Update carries a settings form submission. Nil fields are left unchanged.
type Update struct {
	CarrierAPIKey       *string
	DefaultService      *string
	AutoCreateShipments *bool
	SenderName          *string
	SenderAddress       *string
	SenderCity          *string
	SenderPostalCode    *string
	SenderPhone         *string
	SenderCountryCode   *string
}

// Apply validates and applies an update. An empty or masked API key keeps
// the stored key, so re-submitting a loaded form does not clobber it.
func (s *MerchantSettings) Apply(u Update) error {
	service := s.DefaultService
	if u.DefaultService != nil {
		st, ok := shipping.ParseServiceType(*u.DefaultService)
		if !ok {
			return ErrInvalidDefaultService
		}
		service = st
	}
	country := s.Sender.CountryCode
	if u.SenderCountryCode != nil {
		country = strings.ToUpper(strings.TrimSpace(*u.SenderCountryCode))
		if country != "" && len(country) != 2 {
			return ErrInvalidCountryCode
		}
	}
	s.DefaultService = service
	s.Sender.CountryCode = country

	if u.CarrierAPIKey != nil {
		key := strings.TrimSpace(*u.CarrierAPIKey)
		if key != "" && key != MaskedKeyMarker {
			s.CarrierAPIKey = key
		}
	}
	if u.AutoCreateShipments != nil {
		s.AutoCreateShipments = *u.AutoCreateShipments
	}
	assignTrimmed(&s.Sender.Name, u.SenderName)
	assignTrimmed(&s.Sender.Address, u.SenderAddress)
	assignTrimmed(&s.Sender.City, u.SenderCity)
	assignTrimmed(&s.Sender.PostalCode, u.SenderPostalCode)
	assignTrimmed(&s.Sender.Phone, u.SenderPhone)

	s.Touch()
	return nil
}

func assignTrimmed(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

// View is the read model returned to the admin UI. It never carries the key.
type View struct {
	CarrierAPIKey       string               `json:"kvikk_api_key"`
	DefaultService      shipping.ServiceType `json:"default_service"`
	AutoCreateShipments bool                 `json:"auto_create_shipments"`
	SenderInfo          SenderProfile        `json:"sender_info"`
}

// DefaultView is shown for shops without stored settings. hasFallbackKey
// reports whether a process-wide carrier key is configured.
func DefaultView(hasFallbackKey bool) View {
	v := View{
		DefaultService:      shipping.ServiceTypeStandard,
		AutoCreateShipments: true,
		SenderInfo:          DefaultSenderProfile(),
	}
	if hasFallbackKey {
		v.CarrierAPIKey = MaskedKeyMarker
	}
	return v
}

// View returns the masked read model.
func (s *MerchantSettings) View(hasFallbackKey bool) View {
	v := View{
		DefaultService:      s.DefaultService,
		AutoCreateShipments: s.AutoCreateShipments,
		SenderInfo:          s.Sender,
	}
	if s.HasCarrierAPIKey() || hasFallbackKey {
		v.CarrierAPIKey = MaskedKeyMarker
	}
	return v
}

// Repository persists merchant settings keyed by shop domain.
type Repository interface {
	// FindByShop returns ErrSettingsNotFound when the shop has no settings.
	FindByShop(ctx context.Context, shop string) (*MerchantSettings, error)
	Save(ctx context.Context, settings *MerchantSettings) error
}
