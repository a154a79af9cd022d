package merchant

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kvikk/backend/internal/domain/settings"
	"github.com/kvikk/backend/internal/domain/shipping"
	"github.com/kvikk/backend/internal/infrastructure/logger"
	"github.com/kvikk/backend/internal/infrastructure/telemetry"
)

// MessageInstalled is returned to the embedded admin after a successful install.
const MessageInstalled = "Kvikk integráció sikeresen telepítve!"

// InstallResult describes a completed installation.
type InstallResult struct {
	Shop             string
	CarrierServiceID int64
	Message          string
}

// InstallService registers the carrier service for a shop and creates its
// default settings.
type InstallService struct {
	installer   shipping.StorefrontInstaller
	repo        settings.Repository
	callbackURL string
	logger      *zap.Logger
	now         func() time.Time
}

// InstallServiceConfig contains the dependencies of InstallService.
type InstallServiceConfig struct {
	Installer shipping.StorefrontInstaller
	Repo      settings.Repository
	// CallbackURL is the public rates endpoint the storefront calls at checkout.
	CallbackURL string
	Logger      *zap.Logger
	Now         func() time.Time
}

// NewInstallService creates a new InstallService
func NewInstallService(cfg InstallServiceConfig) *InstallService {
	s := &InstallService{
		installer:   cfg.Installer,
		repo:        cfg.Repo,
		callbackURL: cfg.CallbackURL,
		logger:      cfg.Logger,
		now:         cfg.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Install exchanges the session token for an offline access token,
// registers the rates callback and stores the shop's settings. Running it
// again for an installed shop refreshes the token and keeps the
// merchant's edits.
func (s *InstallService) Install(ctx context.Context, shop, sessionToken string) (*InstallResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "install", "install")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrShopDomain, shop)

	if err := settings.ValidateShopDomain(shop); err != nil {
		return nil, err
	}
	log := logger.WithLogger(ctx, s.logger).With(zap.String("shop_domain", shop))

	accessToken, err := s.installer.ExchangeSessionToken(ctx, shop, sessionToken)
	if err != nil {
		telemetry.RecordError(span, err)
		log.Error("Session token exchange failed", zap.Error(err))
		return nil, fmt.Errorf("exchange session token: %w", err)
	}

	serviceID, err := s.installer.RegisterCarrierService(ctx, shop, accessToken, shipping.CarrierServiceDefinition{
		Name:             shipping.CarrierDisplayName,
		CallbackURL:      s.callbackURL,
		ServiceDiscovery: true,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		log.Error("Carrier service registration failed", zap.Error(err))
		return nil, fmt.Errorf("register carrier service: %w", err)
	}

	ms, err := s.repo.FindByShop(ctx, shop)
	if err != nil {
		if !isNotFound(err) {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("load merchant settings: %w", err)
		}
		if ms, err = settings.NewMerchantSettings(shop); err != nil {
			return nil, err
		}
	}
	ms.MarkInstalled(accessToken, serviceID, s.now())

	if err := s.repo.Save(ctx, ms); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("save merchant settings: %w", err)
	}

	telemetry.SetOK(span)
	log.Info("Kvikk carrier service installed", zap.Int64("carrier_service_id", serviceID))
	return &InstallResult{Shop: shop, CarrierServiceID: serviceID, Message: MessageInstalled}, nil
}
