// Package merchant holds the admin-facing use cases of a merchant install:
// settings, connection checks, the shipment dashboard and installation.
package merchant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kvikk/backend/internal/domain/settings"
	"github.com/kvikk/backend/internal/domain/shipping"
	"github.com/kvikk/backend/internal/infrastructure/logger"
	"github.com/kvikk/backend/internal/infrastructure/telemetry"
)

// Admin UI messages.
const (
	MessageSettingsSaved     = "Beállítások mentve!"
	MessageConnectionOK      = "Kapcsolat sikeres!"
	MessageInvalidAPIKey     = "API kulcs érvénytelen"
	MessageConnectionFailure = "Kapcsolódási hiba: "
)

// ConnectionResult is the answer to a connection test.
type ConnectionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DashboardOverview is the carrier listing summary plus the shop's most
// recent local shipment records.
type DashboardOverview struct {
	shipping.ShipmentOverview
	Records []shipping.ShipmentRecord
}

// SettingsService manages per-shop merchant settings.
type SettingsService struct {
	repo           settings.Repository
	records        shipping.ShipmentRecordRepository
	carrier        shipping.Carrier
	fallbackAPIKey string
	logger         *zap.Logger
	now            func() time.Time
}

// SettingsServiceConfig contains the dependencies of SettingsService.
type SettingsServiceConfig struct {
	Repo           settings.Repository
	Records        shipping.ShipmentRecordRepository
	Carrier        shipping.Carrier
	FallbackAPIKey string
	Logger         *zap.Logger
	Now            func() time.Time
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(cfg SettingsServiceConfig) *SettingsService {
	s := &SettingsService{
		repo:           cfg.Repo,
		records:        cfg.Records,
		carrier:        cfg.Carrier,
		fallbackAPIKey: cfg.FallbackAPIKey,
		logger:         cfg.Logger,
		now:            cfg.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func isNotFound(err error) bool {
	return errors.Is(err, settings.ErrSettingsNotFound)
}

func (s *SettingsService) hasFallbackKey() bool {
	return s.fallbackAPIKey != ""
}

// find returns nil settings when the shop has none.
func (s *SettingsService) find(ctx context.Context, shop string) (*settings.MerchantSettings, error) {
	ms, err := s.repo.FindByShop(ctx, shop)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load merchant settings: %w", err)
	}
	return ms, nil
}

// Get returns the masked settings view. Shops without stored settings get
// the install defaults.
func (s *SettingsService) Get(ctx context.Context, shop string) (settings.View, error) {
	if err := settings.ValidateShopDomain(shop); err != nil {
		return settings.View{}, err
	}
	ms, err := s.find(ctx, shop)
	if err != nil {
		return settings.View{}, err
	}
	if ms == nil {
		return settings.DefaultView(s.hasFallbackKey()), nil
	}
	return ms.View(s.hasFallbackKey()), nil
}

// Save applies update to the shop's settings, creating them when absent.
func (s *SettingsService) Save(ctx context.Context, shop string, update settings.Update) (settings.View, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settings", "save")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrShopDomain, shop)

	ms, err := s.find(ctx, shop)
	if err != nil {
		telemetry.RecordError(span, err)
		return settings.View{}, err
	}
	if ms == nil {
		if ms, err = settings.NewMerchantSettings(shop); err != nil {
			return settings.View{}, err
		}
	}

	if err := ms.Apply(update); err != nil {
		return settings.View{}, err
	}
	if err := s.repo.Save(ctx, ms); err != nil {
		telemetry.RecordError(span, err)
		return settings.View{}, fmt.Errorf("save merchant settings: %w", err)
	}

	logger.WithLogger(ctx, s.logger).Info("Merchant settings saved",
		zap.String("shop_domain", shop),
		zap.String("default_service", ms.DefaultService.String()),
		zap.Bool("auto_create_shipments", ms.AutoCreateShipments),
	)
	return ms.View(s.hasFallbackKey()), nil
}

// TestConnection checks apiKey against the carrier. An empty or masked key
// tests the stored key, then the process-wide key.
func (s *SettingsService) TestConnection(ctx context.Context, shop, apiKey string) ConnectionResult {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" || apiKey == settings.MaskedKeyMarker {
		apiKey = s.storedKey(ctx, shop)
	}
	if apiKey == "" {
		return ConnectionResult{Success: false, Message: MessageInvalidAPIKey}
	}

	err := s.carrier.TestConnection(ctx, apiKey)
	switch {
	case err == nil:
		return ConnectionResult{Success: true, Message: MessageConnectionOK}
	case errors.Is(err, shipping.ErrCarrierRequestFailed):
		return ConnectionResult{Success: false, Message: MessageInvalidAPIKey}
	default:
		logger.WithLogger(ctx, s.logger).Warn("Kvikk connection test failed", zap.Error(err))
		return ConnectionResult{Success: false, Message: MessageConnectionFailure + err.Error()}
	}
}

func (s *SettingsService) storedKey(ctx context.Context, shop string) string {
	if shop == "" {
		return s.fallbackAPIKey
	}
	ms, err := s.find(ctx, shop)
	if err != nil {
		logger.WithLogger(ctx, s.logger).Warn("Failed to load merchant settings", zap.Error(err))
	}
	return ms.CarrierKey(s.fallbackAPIKey)
}

// RecentShipments returns the first ten carrier shipments and the number
// created today. Any carrier failure yields the empty overview.
func (s *SettingsService) RecentShipments(ctx context.Context, shop string) DashboardOverview {
	overview := DashboardOverview{ShipmentOverview: shipping.EmptyOverview()}

	if s.records != nil {
		records, err := s.records.FindRecent(ctx, shop, 10)
		if err != nil {
			logger.WithLogger(ctx, s.logger).Warn("Failed to load shipment records", zap.Error(err))
		}
		overview.Records = records
	}

	apiKey := s.storedKey(ctx, shop)
	if apiKey == "" {
		return overview
	}
	shipments, err := s.carrier.ListShipments(ctx, apiKey)
	if err != nil {
		logger.WithLogger(ctx, s.logger).Warn("Failed to list Kvikk shipments", zap.Error(err))
		return overview
	}
	overview.ShipmentOverview = shipping.SummarizeShipments(shipments, s.now())
	return overview
}
