package merchant

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/kvikk/backend/internal/domain/settings"
	"github.com/kvikk/backend/internal/domain/shipping"
)

// ============================================================================
// Mocks
// ============================================================================

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

// MockShipmentRecordRepository is a mock implementation of shipping.ShipmentRecordRepository
type MockShipmentRecordRepository struct {
	mock.Mock
}

func (m *MockShipmentRecordRepository) Save(ctx context.Context, record *shipping.ShipmentRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockShipmentRecordRepository) FindByOrder(ctx context.Context, shop string, orderID int64) (*shipping.ShipmentRecord, error) {
	args := m.Called(ctx, shop, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.ShipmentRecord), args.Error(1)
}

func (m *MockShipmentRecordRepository) FindRecent(ctx context.Context, shop string, limit int) ([]shipping.ShipmentRecord, error) {
	args := m.Called(ctx, shop, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shipping.ShipmentRecord), args.Error(1)
}

// MockStorefrontInstaller is a mock implementation of shipping.StorefrontInstaller
type MockStorefrontInstaller struct {
	mock.Mock
}

func (m *MockStorefrontInstaller) ExchangeSessionToken(ctx context.Context, shop, sessionToken string) (string, error) {
	args := m.Called(ctx, shop, sessionToken)
	return args.String(0), args.Error(1)
}

func (m *MockStorefrontInstaller) RegisterCarrierService(ctx context.Context, shop, accessToken string, def shipping.CarrierServiceDefinition) (int64, error) {
	args := m.Called(ctx, shop, accessToken, def)
	return args.Get(0).(int64), args.Error(1)
}

const testShop = "teszt-bolt.myshopify.com"
