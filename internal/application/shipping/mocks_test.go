package shipping

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/kvikk/backend/internal/domain/settings"
	"github.com/kvikk/backend/internal/domain/shipping"
)

// ============================================================================
// Mocks
// ============================================================================

// MockCarrier is a mock implementation of shipping.Carrier
type MockCarrier struct {
	mock.Mock
}

func (m *MockCarrier) QuoteRates(ctx context.Context, apiKey string, req *shipping.CarrierRateRequest) ([]shipping.CarrierRate, error) {
	args := m.Called(ctx, apiKey, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shipping.CarrierRate), args.Error(1)
}

func (m *MockCarrier) CreateShipment(ctx context.Context, apiKey string, req *shipping.ShipmentRequest) (*shipping.ShipmentConfirmation, error) {
	args := m.Called(ctx, apiKey, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.ShipmentConfirmation), args.Error(1)
}

func (m *MockCarrier) TestConnection(ctx context.Context, apiKey string) error {
	args := m.Called(ctx, apiKey)
	return args.Error(0)
}

func (m *MockCarrier) ListShipments(ctx context.Context, apiKey string) ([]shipping.CarrierShipment, error) {
	args := m.Called(ctx, apiKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shipping.CarrierShipment), args.Error(1)
}

// MockTrackingWriter is a mock implementation of shipping.TrackingWriter
type MockTrackingWriter struct {
	mock.Mock
}

func (m *MockTrackingWriter) RecordTracking(ctx context.Context, shop, accessToken string, orderID int64, info shipping.TrackingInfo) error {
	args := m.Called(ctx, shop, accessToken, orderID, info)
	return args.Error(0)
}

// MockSettingsRepository is a mock implementation of settings.Repository
type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) FindByShop(ctx context.Context, shop string) (*settings.MerchantSettings, error) {
	args := m.Called(ctx, shop)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settings.MerchantSettings), args.Error(1)
}

func (m *MockSettingsRepository) Save(ctx context.Context, s *settings.MerchantSettings) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockShipmentCreator is a mock implementation of ShipmentCreator
type MockShipmentCreator struct {
	mock.Mock
}

func (m *MockShipmentCreator) CreateForOrder(ctx context.Context, shop string, order *shipping.Order) (*ShipmentResult, error) {
	args := m.Called(ctx, shop, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ShipmentResult), args.Error(1)
}

// memoryRecords is an in-memory shipment record repository that keeps a
// copy of every saved state.
type memoryRecords struct {
	mu      sync.Mutex
	byOrder map[int64]shipping.ShipmentRecord
	saves   []shipping.ShipmentRecord
}

func newMemoryRecords() *memoryRecords {
	return &memoryRecords{byOrder: make(map[int64]shipping.ShipmentRecord)}
}

func (r *memoryRecords) Save(_ context.Context, record *shipping.ShipmentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byOrder[record.OrderID] = *record
	r.saves = append(r.saves, *record)
	return nil
}

func (r *memoryRecords) FindByOrder(_ context.Context, _ string, orderID int64) (*shipping.ShipmentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byOrder[orderID]
	if !ok {
		return nil, shipping.ErrShipmentRecordNotFound
	}
	return &rec, nil
}

func (r *memoryRecords) FindRecent(_ context.Context, _ string, limit int) ([]shipping.ShipmentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]shipping.ShipmentRecord, 0, len(r.byOrder))
	for _, rec := range r.byOrder {
		out = append(out, rec)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// recordingMetrics captures metric calls.
type recordingMetrics struct {
	mu        sync.Mutex
	quotes    []string
	shipments []string
	webhooks  []string
	calls     []string
}

func (m *recordingMetrics) RecordQuote(_ context.Context, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes = append(m.quotes, outcome)
}

func (m *recordingMetrics) RecordShipment(_ context.Context, outcome, serviceType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shipments = append(m.shipments, outcome+"/"+serviceType)
}

func (m *recordingMetrics) RecordWebhook(_ context.Context, topic, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.webhooks = append(m.webhooks, topic+"/"+result)
}

func (m *recordingMetrics) RecordCarrierCall(_ context.Context, operation string, _ time.Duration, _ error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, operation)
}

const testShop = "teszt-bolt.myshopify.com"

func installedSettings(apiKey string) *settings.MerchantSettings {
	ms, err := settings.NewMerchantSettings(testShop)
	if err != nil {
		panic(err)
	}
	ms.CarrierAPIKey = apiKey
	ms.MarkInstalled("shpat_offline", 42, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	return ms
}
