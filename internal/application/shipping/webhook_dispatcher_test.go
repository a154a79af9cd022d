package shipping

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kvikk/backend/internal/domain/settings"
	"github.com/kvikk/backend/internal/domain/shared"
	"github.com/kvikk/backend/internal/domain/shipping"
	"github.com/kvikk/backend/internal/infrastructure/cache"
)

const orderCreateBody = `{
	"id": 5001,
	"order_number": 1042,
	"subtotal_price": "12990.00",
	"shipping_address": {"first_name": "Nagy", "last_name": "Péter", "address1": "Váci út 10.", "city": "Budapest", "zip": "1132", "country_code": "HU"},
	"line_items": [{"title": "Könyv", "quantity": 1, "grams": 400}],
	"shipping_lines": [{"code": "kvikk_standard", "source": "Kvikk Shipping"}]
}`

type dispatcherFixture struct {
	creator *MockShipmentCreator
	repo    *MockSettingsRepository
	metrics *recordingMetrics
}

func newDispatcher(t *testing.T, store shared.IdempotencyStore) (*WebhookDispatcher, *dispatcherFixture) {
	t.Helper()
	f := &dispatcherFixture{
		creator: new(MockShipmentCreator),
		repo:    new(MockSettingsRepository),
		metrics: &recordingMetrics{},
	}
	return NewWebhookDispatcher(WebhookDispatcherConfig{
		Shipments:    f.creator,
		SettingsRepo: f.repo,
		Idempotency:  store,
		TTL:          time.Hour,
		Metrics:      f.metrics,
		Logger:       zaptest.NewLogger(t),
	}), f
}

func createEvent(body string) WebhookEvent {
	return WebhookEvent{Topic: TopicOrdersCreate, Shop: testShop, WebhookID: "wh-1", Body: []byte(body)}
}

func TestShipmentIdempotencyKey(t *testing.T) {
	assert.Equal(t, "shipment:teszt-bolt.myshopify.com:5001", ShipmentIdempotencyKey(testShop, 5001))
}

func TestWebhookDispatcher_OrderCreated(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })
	d, f := newDispatcher(t, store)

	f.repo.On("FindByShop", mock.Anything, testShop).Return(nil, settings.ErrSettingsNotFound)
	f.creator.On("CreateForOrder", mock.Anything, testShop, mock.MatchedBy(func(o *shipping.Order) bool {
		return o.ID == 5001 && o.OrderNumber == 1042
	})).Return(&ShipmentResult{Outcome: shipping.OutcomeSuccess}, nil).Once()

	result := d.Handle(context.Background(), createEvent(orderCreateBody))
	assert.Equal(t, WebhookActionCreated, result.Action)

	// A redelivery of the same order is acknowledged without a second shipment.
	again := d.Handle(context.Background(), createEvent(orderCreateBody))
	assert.Equal(t, WebhookActionDuplicate, again.Action)

	f.creator.AssertNumberOfCalls(t, "CreateForOrder", 1)
	assert.Equal(t, []string{"orders/create/created", "orders/create/duplicate"}, f.metrics.webhooks)
}

func TestWebhookDispatcher_FailureReleasesClaim(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })
	d, f := newDispatcher(t, store)

	f.repo.On("FindByShop", mock.Anything, testShop).Return(nil, settings.ErrSettingsNotFound)
	f.creator.On("CreateForOrder", mock.Anything, testShop, mock.Anything).
		Return(&ShipmentResult{Outcome: shipping.OutcomeError}, errors.New("Kvikk API hiba: 503 Service Unavailable")).Once()
	f.creator.On("CreateForOrder", mock.Anything, testShop, mock.Anything).
		Return(&ShipmentResult{Outcome: shipping.OutcomeSuccess}, nil).Once()

	first := d.Handle(context.Background(), createEvent(orderCreateBody))
	assert.Equal(t, WebhookActionFailed, first.Action)
	assert.Contains(t, first.Reason, "503")

	held, err := store.IsProcessed(context.Background(), ShipmentIdempotencyKey(testShop, 5001))
	require.NoError(t, err)
	assert.False(t, held)

	second := d.Handle(context.Background(), createEvent(orderCreateBody))
	assert.Equal(t, WebhookActionCreated, second.Action)
}

func TestWebhookDispatcher_StoreErrorFailsOpen(t *testing.T) {
	store := new(MockIdempotencyStore)
	d, f := newDispatcher(t, store)

	f.repo.On("FindByShop", mock.Anything, testShop).Return(nil, settings.ErrSettingsNotFound)
	store.On("MarkProcessed", mock.Anything, "shipment:teszt-bolt.myshopify.com:5001", time.Hour).
		Return(false, errors.New("redis: connection refused"))
	f.creator.On("CreateForOrder", mock.Anything, testShop, mock.Anything).
		Return(nil, errors.New("boom"))

	result := d.Handle(context.Background(), createEvent(orderCreateBody))

	assert.Equal(t, WebhookActionFailed, result.Action)
	store.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
}

func TestWebhookDispatcher_AlreadyCreatedIsDuplicate(t *testing.T) {
	d, f := newDispatcher(t, nil)

	f.repo.On("FindByShop", mock.Anything, testShop).Return(nil, settings.ErrSettingsNotFound)
	f.creator.On("CreateForOrder", mock.Anything, testShop, mock.Anything).
		Return(nil, shipping.ErrShipmentAlreadyCreated)

	result := d.Handle(context.Background(), createEvent(orderCreateBody))

	assert.Equal(t, WebhookActionDuplicate, result.Action)
}

func TestWebhookDispatcher_SkipsOrdersWithoutCarrierLine(t *testing.T) {
	d, f := newDispatcher(t, nil)
	body := `{"id": 7, "order_number": 8, "shipping_lines": [{"code": "kvikk_express", "source": "shopify"}]}`

	result := d.Handle(context.Background(), createEvent(body))

	assert.Equal(t, WebhookActionSkipped, result.Action)
	f.creator.AssertNotCalled(t, "CreateForOrder", mock.Anything, mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "FindByShop", mock.Anything, mock.Anything)
}

func TestWebhookDispatcher_AutoCreateDisabled(t *testing.T) {
	d, f := newDispatcher(t, nil)
	ms := installedSettings("shop-key")
	ms.AutoCreateShipments = false
	f.repo.On("FindByShop", mock.Anything, testShop).Return(ms, nil)

	result := d.Handle(context.Background(), createEvent(orderCreateBody))

	assert.Equal(t, WebhookActionSkipped, result.Action)
	assert.Equal(t, "auto-create disabled", result.Reason)
	f.creator.AssertNotCalled(t, "CreateForOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookDispatcher_InvalidPayload(t *testing.T) {
	d, f := newDispatcher(t, nil)

	result := d.Handle(context.Background(), createEvent(`not json`))

	assert.Equal(t, WebhookActionFailed, result.Action)
	f.creator.AssertNotCalled(t, "CreateForOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookDispatcher_OtherTopics(t *testing.T) {
	d, f := newDispatcher(t, nil)

	tests := []struct {
		topic  string
		action WebhookAction
	}{
		{TopicOrdersUpdated, WebhookActionAcknowledged},
		{TopicOrdersFulfilled, WebhookActionAcknowledged},
		{"app/uninstalled", WebhookActionIgnored},
		{"", WebhookActionIgnored},
	}
	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			result := d.Handle(context.Background(), WebhookEvent{Topic: tt.topic, Shop: testShop, Body: []byte(orderCreateBody)})
			assert.Equal(t, tt.action, result.Action)
		})
	}
	f.creator.AssertNotCalled(t, "CreateForOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookDispatcher_RecoversFromPanic(t *testing.T) {
	d, f := newDispatcher(t, nil)

	f.repo.On("FindByShop", mock.Anything, testShop).Return(nil, settings.ErrSettingsNotFound)
	f.creator.On("CreateForOrder", mock.Anything, testShop, mock.Anything).
		Run(func(mock.Arguments) { panic("nil map write") })

	var result WebhookResult
	require.NotPanics(t, func() {
		result = d.Handle(context.Background(), createEvent(orderCreateBody))
	})
	assert.Equal(t, WebhookActionFailed, result.Action)
	assert.Contains(t, result.Reason, "nil map write")
	assert.Equal(t, []string{"orders/create/failed"}, f.metrics.webhooks)
}
