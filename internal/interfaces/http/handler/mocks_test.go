package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"

	"github.com/kvikk/backend/internal/application/merchant"
	shippingapp "github.com/kvikk/backend/internal/application/shipping"
	"github.com/kvikk/backend/internal/domain/settings"
	"github.com/kvikk/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

const testShop = "teszt-bolt.myshopify.com"

// ==================== Mocks ====================

// MockRateQuoter is a mock implementation of RateQuoter
type MockRateQuoter struct {
	mock.Mock
}

func (m *MockRateQuoter) QuotePayload(ctx context.Context, shop string, body []byte) shippingapp.QuoteResult {
	args := m.Called(ctx, shop, body)
	return args.Get(0).(shippingapp.QuoteResult)
}

// MockWebhookProcessor is a mock implementation of WebhookProcessor
type MockWebhookProcessor struct {
	mock.Mock
}

func (m *MockWebhookProcessor) Handle(ctx context.Context, event shippingapp.WebhookEvent) shippingapp.WebhookResult {
	args := m.Called(ctx, event)
	return args.Get(0).(shippingapp.WebhookResult)
}

// MockSettingsManager is a mock implementation of SettingsManager
type MockSettingsManager struct {
	mock.Mock
}

func (m *MockSettingsManager) Get(ctx context.Context, shop string) (settings.View, error) {
	args := m.Called(ctx, shop)
	return args.Get(0).(settings.View), args.Error(1)
}

func (m *MockSettingsManager) Save(ctx context.Context, shop string, update settings.Update) (settings.View, error) {
	args := m.Called(ctx, shop, update)
	return args.Get(0).(settings.View), args.Error(1)
}

func (m *MockSettingsManager) TestConnection(ctx context.Context, shop, apiKey string) merchant.ConnectionResult {
	args := m.Called(ctx, shop, apiKey)
	return args.Get(0).(merchant.ConnectionResult)
}

func (m *MockSettingsManager) RecentShipments(ctx context.Context, shop string) merchant.DashboardOverview {
	args := m.Called(ctx, shop)
	return args.Get(0).(merchant.DashboardOverview)
}

// MockInstaller is a mock implementation of Installer
type MockInstaller struct {
	mock.Mock
}

func (m *MockInstaller) Install(ctx context.Context, shop, sessionToken string) (*merchant.InstallResult, error) {
	args := m.Called(ctx, shop, sessionToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*merchant.InstallResult), args.Error(1)
}

// authenticatedAs stands in for SessionAuth in handler tests
func authenticatedAs(shop, token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ShopDomainKey, shop)
		c.Set(middleware.SessionTokenKey, token)
		c.Next()
	}
}
