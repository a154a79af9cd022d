package shipping

import "context"

// Carrier is the port to the Kvikk carrier API. apiKey is the merchant's
// credential, resolved by the caller.
type Carrier interface {
	// QuoteRates issues one rate request.
	QuoteRates(ctx context.Context, apiKey string, req *CarrierRateRequest) ([]CarrierRate, error)
	// CreateShipment submits one shipment.
	CreateShipment(ctx context.Context, apiKey string, req *ShipmentRequest) (*ShipmentConfirmation, error)
	// TestConnection returns nil when the carrier accepts the credential.
	TestConnection(ctx context.Context, apiKey string) error
	// ListShipments returns the account's shipments, newest first.
	ListShipments(ctx context.Context, apiKey string) ([]CarrierShipment, error)
}

// TrackingWriter records tracking on a storefront order. Implementations
// must be idempotent per order.
type TrackingWriter interface {
	RecordTracking(ctx context.Context, shop, accessToken string, orderID int64, info TrackingInfo) error
}

// CarrierServiceDefinition describes the rate callback registered with the storefront.
type CarrierServiceDefinition struct {
	Name             string
	CallbackURL      string
	ServiceDiscovery bool
}

// StorefrontInstaller is the storefront side of app installation.
type StorefrontInstaller interface {
	// ExchangeSessionToken trades a session token for an offline access token.
	ExchangeSessionToken(ctx context.Context, shop, sessionToken string) (string, error)
	// RegisterCarrierService creates the carrier service, or reports the
	// existing one when already registered. Returns the service id.
	RegisterCarrierService(ctx context.Context, shop, accessToken string, def CarrierServiceDefinition) (int64, error)
}

// ShipmentRecordRepository persists shipment attempts.
type ShipmentRecordRepository interface {
	Save(ctx context.Context, record *ShipmentRecord) error
	// FindByOrder returns ErrShipmentRecordNotFound when absent.
	FindByOrder(ctx context.Context, shop string, orderID int64) (*ShipmentRecord, error)
	FindRecent(ctx context.Context, shop string, limit int) ([]ShipmentRecord, error)
}
