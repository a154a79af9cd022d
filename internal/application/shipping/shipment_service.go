package shipping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kvikk/backend/internal/domain/settings"
	"github.com/kvikk/backend/internal/domain/shipping"
	"github.com/kvikk/backend/internal/infrastructure/logger"
	"github.com/kvikk/backend/internal/infrastructure/telemetry"
)

// ShipmentResult is the outcome of one shipment attempt.
type ShipmentResult struct {
	Outcome      shipping.Outcome
	Record       *shipping.ShipmentRecord
	Confirmation *shipping.ShipmentConfirmation
	// TrackingSynced reports whether tracking reached the storefront order.
	TrackingSynced bool
}

// ShipmentService creates Kvikk shipments for storefront orders.
type ShipmentService struct {
	carrier        shipping.Carrier
	tracking       shipping.TrackingWriter
	records        shipping.ShipmentRecordRepository
	settingsRepo   settings.Repository
	fallbackAPIKey string
	metrics        Metrics
	logger         *zap.Logger
}

// ShipmentServiceConfig contains the dependencies of ShipmentService.
type ShipmentServiceConfig struct {
	Carrier        shipping.Carrier
	Tracking       shipping.TrackingWriter
	Records        shipping.ShipmentRecordRepository
	SettingsRepo   settings.Repository
	FallbackAPIKey string
	Metrics        Metrics
	Logger         *zap.Logger
}

// NewShipmentService creates a new ShipmentService
func NewShipmentService(cfg ShipmentServiceConfig) *ShipmentService {
	s := &ShipmentService{
		carrier:        cfg.Carrier,
		tracking:       cfg.Tracking,
		records:        cfg.Records,
		settingsRepo:   cfg.SettingsRepo,
		fallbackAPIKey: cfg.FallbackAPIKey,
		metrics:        metricsOrNop(cfg.Metrics),
		logger:         cfg.Logger,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// CreateForOrder submits a shipment for order and writes the tracking number
// back to the storefront. Every attempt past the shipping-line check is
// persisted as a ShipmentRecord. A carrier rejection returns an error that
// wraps the carrier's status text.
func (s *ShipmentService) CreateForOrder(ctx context.Context, shop string, order *shipping.Order) (*ShipmentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "shipments", "create_for_order")
	defer span.End()

	if order == nil {
		return nil, shipping.ErrOrderInvalidPayload
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrShopDomain, shop,
		telemetry.SpanAttrOrderID, order.ID,
		telemetry.SpanAttrOrderNumber, order.OrderNumber,
	)

	line, ok := order.CarrierShippingLine()
	if !ok {
		return nil, shipping.ErrNoCarrierShippingLine
	}
	service := line.ServiceType()
	telemetry.SetAttributes(span, telemetry.SpanAttrServiceType, service.String())

	log := logger.WithLogger(ctx, s.logger).With(
		zap.String("shop_domain", shop),
		zap.Int64("order_id", order.ID),
		zap.Int64("order_number", order.OrderNumber),
	)
	if shipping.AmbiguousServiceCode(line.Code) {
		log.Warn("Shipping line code names more than one service",
			zap.String("code", line.Code),
			zap.String("service_type", service.String()),
		)
	}

	ms, err := s.loadSettings(ctx, shop)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	record, err := s.startRecord(ctx, shop, order, service)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		result    *ShipmentResult
		createErr error
	)
	telemetry.WithProfilingLabels(ctx, map[string]string{
		telemetry.ProfilingLabelOperation: "create_shipment",
	}, func(c context.Context) {
		result, createErr = s.submit(c, log, ms, record, order, line)
	})

	s.metrics.RecordShipment(ctx, result.Outcome.String(), service.String())
	telemetry.SetAttributes(span, telemetry.SpanAttrOutcome, result.Outcome.String())
	if createErr != nil {
		telemetry.RecordError(span, createErr)
		return result, createErr
	}
	telemetry.SetOK(span)
	return result, nil
}

func (s *ShipmentService) submit(
	ctx context.Context,
	log *logger.ContextLogger,
	ms *settings.MerchantSettings,
	record *shipping.ShipmentRecord,
	order *shipping.Order,
	line shipping.ShippingLine,
) (*ShipmentResult, error) {
	result := &ShipmentResult{Outcome: shipping.OutcomeError, Record: record}

	fail := func(err error) (*ShipmentResult, error) {
		record.MarkFailed(err)
		if saveErr := s.records.Save(ctx, record); saveErr != nil {
			log.Error("Failed to persist failed shipment record", zap.Error(saveErr))
		}
		log.Error("Kvikk shipment creation failed", zap.Error(err))
		return result, err
	}

	apiKey := ms.CarrierKey(s.fallbackAPIKey)
	if apiKey == "" {
		return fail(shipping.ErrCarrierKeyMissing)
	}

	sender := shipping.DefaultSender()
	if ms != nil {
		sender = ms.Sender.ToSender()
	}
	req, err := shipping.NewShipmentRequest(order, line, sender)
	if err != nil {
		return fail(err)
	}

	start := time.Now()
	conf, err := s.carrier.CreateShipment(ctx, apiKey, req)
	s.metrics.RecordCarrierCall(ctx, "create_shipment", time.Since(start), err)
	if err != nil {
		return fail(fmt.Errorf("Kvikk API hiba: %w", err))
	}

	record.MarkCreated(conf)
	if err := s.records.Save(ctx, record); err != nil {
		log.Error("Failed to persist shipment record", zap.Error(err))
	}
	result.Outcome = shipping.OutcomeSuccess
	result.Confirmation = conf
	log.Info("Kvikk shipment created",
		zap.String("shipment_id", conf.ID),
		zap.String("tracking_number", conf.TrackingNumber),
		zap.String("service_type", req.ServiceType.String()),
	)

	result.TrackingSynced = s.writeTracking(ctx, log, ms, record, conf)
	return result, nil
}

// writeTracking records tracking on the storefront order. Failures are
// logged only; the shipment already exists at the carrier.
func (s *ShipmentService) writeTracking(
	ctx context.Context,
	log *logger.ContextLogger,
	ms *settings.MerchantSettings,
	record *shipping.ShipmentRecord,
	conf *shipping.ShipmentConfirmation,
) bool {
	if s.tracking == nil || conf.TrackingNumber == "" {
		return false
	}
	if ms == nil || ms.AccessToken == "" {
		log.Warn("No storefront access token, tracking not written back",
			zap.Error(shipping.ErrPlatformNotInstalled))
		return false
	}

	info := shipping.TrackingInfo{Number: conf.TrackingNumber, Company: shipping.TrackingCompany}
	if err := s.tracking.RecordTracking(ctx, record.ShopDomain, ms.AccessToken, record.OrderID, info); err != nil {
		log.Error("Failed to write tracking back to order", zap.Error(err))
		return false
	}

	record.MarkTrackingSynced()
	if err := s.records.Save(ctx, record); err != nil {
		log.Error("Failed to persist tracking sync", zap.Error(err))
	}
	return true
}

// loadSettings returns nil settings for shops that never saved any.
func (s *ShipmentService) loadSettings(ctx context.Context, shop string) (*settings.MerchantSettings, error) {
	if s.settingsRepo == nil {
		return nil, nil
	}
	ms, err := s.settingsRepo.FindByShop(ctx, shop)
	if errors.Is(err, settings.ErrSettingsNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load merchant settings: %w", err)
	}
	return ms, nil
}

// startRecord resumes the order's previous record or begins a new one.
func (s *ShipmentService) startRecord(ctx context.Context, shop string, order *shipping.Order, service shipping.ServiceType) (*shipping.ShipmentRecord, error) {
	existing, err := s.records.FindByOrder(ctx, shop, order.ID)
	switch {
	case errors.Is(err, shipping.ErrShipmentRecordNotFound):
		return shipping.NewShipmentRecord(shop, order, service), nil
	case err != nil:
		return nil, fmt.Errorf("load shipment record: %w", err)
	}
	if err := existing.BeginAttempt(service); err != nil {
		return nil, err
	}
	return existing, nil
}
