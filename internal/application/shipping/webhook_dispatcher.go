package shipping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kvikk/backend/internal/domain/settings"
	"github.com/kvikk/backend/internal/domain/shared"
	"github.com/kvikk/backend/internal/domain/shipping"
	"github.com/kvikk/backend/internal/infrastructure/logger"
	"github.com/kvikk/backend/internal/infrastructure/telemetry"
)

// Order webhook topics.
const (
	TopicOrdersCreate    = "orders/create"
	TopicOrdersUpdated   = "orders/updated"
	TopicOrdersFulfilled = "orders/fulfilled"
)

// WebhookAction is what the dispatcher did with a delivery.
type WebhookAction string

const (
	WebhookActionCreated      WebhookAction = "created"
	WebhookActionFailed       WebhookAction = "failed"
	WebhookActionSkipped      WebhookAction = "skipped"
	WebhookActionDuplicate    WebhookAction = "duplicate"
	WebhookActionAcknowledged WebhookAction = "acknowledged"
	WebhookActionIgnored      WebhookAction = "ignored"
)

// WebhookEvent is one delivery from the storefront.
type WebhookEvent struct {
	Topic     string
	Shop      string
	WebhookID string
	Body      []byte
}

// WebhookResult describes how a delivery was handled.
type WebhookResult struct {
	Topic  string        `json:"topic"`
	Action WebhookAction `json:"action"`
	Reason string        `json:"reason,omitempty"`
}

// ShipmentCreator is the part of ShipmentService the dispatcher needs.
type ShipmentCreator interface {
	CreateForOrder(ctx context.Context, shop string, order *shipping.Order) (*ShipmentResult, error)
}

// WebhookDispatcher routes order webhooks by topic.
type WebhookDispatcher struct {
	shipments    ShipmentCreator
	settingsRepo settings.Repository
	idempotency  shared.IdempotencyStore
	ttl          time.Duration
	metrics      Metrics
	logger       *zap.Logger
}

// WebhookDispatcherConfig contains the dependencies of WebhookDispatcher.
type WebhookDispatcherConfig struct {
	Shipments    ShipmentCreator
	SettingsRepo settings.Repository
	// Idempotency guards against duplicate shipments. Nil disables the guard.
	Idempotency shared.IdempotencyStore
	TTL         time.Duration
	Metrics     Metrics
	Logger      *zap.Logger
}

// NewWebhookDispatcher creates a new WebhookDispatcher
func NewWebhookDispatcher(cfg WebhookDispatcherConfig) *WebhookDispatcher {
	d := &WebhookDispatcher{
		shipments:    cfg.Shipments,
		settingsRepo: cfg.SettingsRepo,
		idempotency:  cfg.Idempotency,
		ttl:          cfg.TTL,
		metrics:      metricsOrNop(cfg.Metrics),
		logger:       cfg.Logger,
	}
	if d.ttl <= 0 {
		d.ttl = shared.DefaultIdempotencyConfig().TTL
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	return d
}

// ShipmentIdempotencyKey is the duplicate-guard key for an order.
func ShipmentIdempotencyKey(shop string, orderID int64) string {
	return fmt.Sprintf("shipment:%s:%d", shop, orderID)
}

// Handle processes one delivery. It never returns an error and recovers
// from panics: the storefront must always receive an acknowledgement.
func (d *WebhookDispatcher) Handle(ctx context.Context, event WebhookEvent) (result WebhookResult) {
	ctx, span := telemetry.StartServiceSpan(ctx, "webhooks", "handle",
		telemetry.WithAttribute(telemetry.SpanAttrWebhookTopic, event.Topic),
		telemetry.WithAttribute(telemetry.SpanAttrShopDomain, event.Shop),
	)
	defer span.End()

	log := logger.WithLogger(ctx, d.logger).With(
		zap.String("webhook_topic", event.Topic),
		zap.String("shop_domain", event.Shop),
		zap.String("webhook_id", event.WebhookID),
	)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic handling webhook: %v", r)
			log.Error("Recovered from webhook panic", zap.Error(err), zap.Stack("stacktrace"))
			telemetry.RecordError(span, err)
			result = WebhookResult{Topic: event.Topic, Action: WebhookActionFailed, Reason: err.Error()}
		}
		d.metrics.RecordWebhook(ctx, event.Topic, string(result.Action))
		telemetry.SetAttributes(span, "webhook_action", string(result.Action))
	}()

	telemetry.WithProfilingLabels(ctx, map[string]string{
		telemetry.ProfilingLabelWebhookTopic: event.Topic,
	}, func(c context.Context) {
		switch event.Topic {
		case TopicOrdersCreate:
			result = d.handleOrderCreated(c, log, event)
		case TopicOrdersUpdated:
			log.Info("Order updated")
			result = WebhookResult{Topic: event.Topic, Action: WebhookActionAcknowledged}
		case TopicOrdersFulfilled:
			log.Info("Order fulfilled")
			result = WebhookResult{Topic: event.Topic, Action: WebhookActionAcknowledged}
		default:
			log.Debug("Unhandled webhook topic")
			result = WebhookResult{Topic: event.Topic, Action: WebhookActionIgnored}
		}
	})
	return result
}

func (d *WebhookDispatcher) handleOrderCreated(ctx context.Context, log *logger.ContextLogger, event WebhookEvent) WebhookResult {
	skip := func(action WebhookAction, reason string) WebhookResult {
		return WebhookResult{Topic: event.Topic, Action: action, Reason: reason}
	}

	order, err := shipping.DecodeOrder(event.Body)
	if err != nil {
		log.Error("Orders create webhook payload rejected", zap.Error(err))
		return skip(WebhookActionFailed, err.Error())
	}
	log = log.With(zap.Int64("order_id", order.ID), zap.Int64("order_number", order.OrderNumber))
	log.Info("New order received")

	if _, ok := order.CarrierShippingLine(); !ok {
		return skip(WebhookActionSkipped, "no Kvikk shipping line")
	}
	if !d.autoCreateEnabled(ctx, log, event.Shop) {
		log.Info("Automatic shipment creation disabled for shop")
		return skip(WebhookActionSkipped, "auto-create disabled")
	}

	key := ShipmentIdempotencyKey(event.Shop, order.ID)
	claimed, err := d.claim(ctx, key)
	if err != nil {
		// Fail open when the guard is down.
		log.Warn("Idempotency store unavailable, continuing without guard", zap.Error(err))
	} else if !claimed {
		log.Info("Duplicate order delivery, shipment already in progress or created")
		return skip(WebhookActionDuplicate, "already processed")
	}

	if _, err := d.shipments.CreateForOrder(ctx, event.Shop, order); err != nil {
		if errors.Is(err, shipping.ErrShipmentAlreadyCreated) {
			return skip(WebhookActionDuplicate, err.Error())
		}
		if claimed {
			d.release(ctx, log, key)
		}
		return skip(WebhookActionFailed, err.Error())
	}
	return WebhookResult{Topic: event.Topic, Action: WebhookActionCreated}
}

func (d *WebhookDispatcher) claim(ctx context.Context, key string) (bool, error) {
	if d.idempotency == nil {
		return true, nil
	}
	return d.idempotency.MarkProcessed(ctx, key, d.ttl)
}

func (d *WebhookDispatcher) release(ctx context.Context, log *logger.ContextLogger, key string) {
	if d.idempotency == nil {
		return
	}
	if err := d.idempotency.Release(ctx, key); err != nil {
		log.Warn("Failed to release idempotency key", zap.String("key", key), zap.Error(err))
	}
}

// autoCreateEnabled defaults to true for shops without settings or when
// settings cannot be read.
func (d *WebhookDispatcher) autoCreateEnabled(ctx context.Context, log *logger.ContextLogger, shop string) bool {
	if d.settingsRepo == nil {
		return true
	}
	ms, err := d.settingsRepo.FindByShop(ctx, shop)
	if err != nil {
		if !errors.Is(err, settings.ErrSettingsNotFound) {
			log.Warn("Failed to load merchant settings for webhook", zap.Error(err))
		}
		return true
	}
	return ms.AutoCreateShipments
}
