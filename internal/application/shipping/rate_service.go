package shipping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kvikk/backend/internal/domain/settings"
	"github.com/kvikk/backend/internal/domain/shipping"
	"github.com/kvikk/backend/internal/infrastructure/logger"
	"github.com/kvikk/backend/internal/infrastructure/telemetry"
)

// RateFailureMessage is returned to checkout when no rate can be produced.
const RateFailureMessage = "Szállítási díjak lekérése sikertelen"

// PlatformAddress is an address in the storefront's rate callback.
type PlatformAddress struct {
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	City       string `json:"city"`
}

func (a PlatformAddress) toDomain() shipping.Address {
	return shipping.Address{PostalCode: a.PostalCode, CountryCode: a.Country, City: a.City}
}

// PlatformRateRequest is the body of the storefront's rate callback.
type PlatformRateRequest struct {
	Rate struct {
		Origin      PlatformAddress     `json:"origin"`
		Destination PlatformAddress     `json:"destination"`
		Items       []shipping.LineItem `json:"items"`
		Currency    string              `json:"currency"`
	} `json:"rate"`
}

// ToRateRequest converts the callback into a domain rate request.
func (p PlatformRateRequest) ToRateRequest() shipping.RateRequest {
	return shipping.RateRequest{
		Origin:      p.Rate.Origin.toDomain(),
		Destination: p.Rate.Destination.toDomain(),
		Items:       p.Rate.Items,
		Currency:    p.Rate.Currency,
	}
}

// QuoteResult is the outcome of one checkout quote. Rates is non-empty for
// success and fallback and empty for error.
type QuoteResult struct {
	Outcome shipping.Outcome
	Rates   []shipping.RateOffer
	Err     error
}

// RateService quotes Kvikk rates for storefront checkouts.
type RateService struct {
	carrier        shipping.Carrier
	settingsRepo   settings.Repository
	fallbackAPIKey string
	metrics        Metrics
	logger         *zap.Logger
	now            func() time.Time
}

// RateServiceConfig contains the dependencies of RateService.
type RateServiceConfig struct {
	Carrier      shipping.Carrier
	SettingsRepo settings.Repository
	// FallbackAPIKey is used for shops without a stored key.
	FallbackAPIKey string
	Metrics        Metrics
	Logger         *zap.Logger
	Now            func() time.Time
}

// NewRateService creates a new RateService
func NewRateService(cfg RateServiceConfig) *RateService {
	s := &RateService{
		carrier:        cfg.Carrier,
		settingsRepo:   cfg.SettingsRepo,
		fallbackAPIKey: cfg.FallbackAPIKey,
		metrics:        metricsOrNop(cfg.Metrics),
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

// QuotePayload decodes a raw rate callback body and quotes it. A body that
// cannot be decoded is the only input that yields OutcomeError.
func (s *RateService) QuotePayload(ctx context.Context, shop string, body []byte) QuoteResult {
	var payload PlatformRateRequest
	if err := json.Unmarshal(body, &payload); err != nil {
		err = fmt.Errorf("decode rate request: %w", err)
		logger.WithLogger(ctx, s.logger).Warn("Rejected undecodable rate request", zap.Error(err))
		s.metrics.RecordQuote(ctx, shipping.OutcomeError.String())
		return QuoteResult{Outcome: shipping.OutcomeError, Rates: []shipping.RateOffer{}, Err: err}
	}
	return s.Quote(ctx, shop, payload.ToRateRequest())
}

// Quote asks the carrier for rates. It never fails the checkout: carrier
// errors, empty answers and missing credentials all degrade to the static
// fallback rate. Only a cancelled context yields OutcomeError.
func (s *RateService) Quote(ctx context.Context, shop string, req shipping.RateRequest) QuoteResult {
	ctx, span := telemetry.StartServiceSpan(ctx, "rates", "quote")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrShopDomain, shop)

	log := logger.WithLogger(ctx, s.logger)
	carrierReq := shipping.NewCarrierRateRequest(req)
	log.Debug("Shipping rate request",
		zap.String("shop_domain", shop),
		zap.Any("rate_request", req),
		zap.Any("carrier_request", carrierReq),
	)

	var result QuoteResult
	telemetry.WithProfilingLabels(ctx, map[string]string{
		telemetry.ProfilingLabelOperation: "quote_rates",
	}, func(c context.Context) {
		result = s.quote(c, shop, &carrierReq)
	})

	telemetry.SetAttributes(span,
		telemetry.SpanAttrOutcome, result.Outcome.String(),
		telemetry.SpanAttrRateCount, len(result.Rates),
	)
	if result.Err != nil && result.Outcome == shipping.OutcomeError {
		telemetry.RecordError(span, result.Err)
	}
	s.metrics.RecordQuote(ctx, result.Outcome.String())

	log.Debug("Returning shipping rates",
		zap.String("outcome", result.Outcome.String()),
		zap.Any("rates", result.Rates),
	)
	return result
}

func (s *RateService) quote(ctx context.Context, shop string, req *shipping.CarrierRateRequest) QuoteResult {
	log := logger.WithLogger(ctx, s.logger)

	apiKey := s.resolveAPIKey(ctx, shop)
	if apiKey == "" {
		log.Warn("No carrier API key configured, using fallback rates", zap.String("shop_domain", shop))
		return s.fallback(shipping.ErrCarrierKeyMissing)
	}

	start := time.Now()
	rates, err := s.carrier.QuoteRates(ctx, apiKey, req)
	s.metrics.RecordCarrierCall(ctx, "quote_rates", time.Since(start), err)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return QuoteResult{Outcome: shipping.OutcomeError, Rates: []shipping.RateOffer{}, Err: ctxErr}
	}
	if err != nil {
		log.Error("Kvikk rates request failed, using fallback rates", zap.Error(err))
		return s.fallback(err)
	}
	if len(rates) == 0 {
		log.Warn("Kvikk returned no rates, using fallback rates")
		return s.fallback(nil)
	}

	return QuoteResult{Outcome: shipping.OutcomeSuccess, Rates: shipping.MapRates(rates)}
}

func (s *RateService) fallback(cause error) QuoteResult {
	return QuoteResult{
		Outcome: shipping.OutcomeFallback,
		Rates:   shipping.MapRates(shipping.FallbackRates(s.now())),
		Err:     cause,
	}
}

// resolveAPIKey prefers the shop's stored key. Settings lookup failures
// fall back to the process-wide key so checkout keeps working.
func (s *RateService) resolveAPIKey(ctx context.Context, shop string) string {
	if s.settingsRepo == nil || shop == "" {
		return s.fallbackAPIKey
	}
	ms, err := s.settingsRepo.FindByShop(ctx, shop)
	if err != nil {
		if !errors.Is(err, settings.ErrSettingsNotFound) {
			logger.WithLogger(ctx, s.logger).Warn("Failed to load merchant settings for rates", zap.Error(err))
		}
		return s.fallbackAPIKey
	}
	return ms.CarrierKey(s.fallbackAPIKey)
}
