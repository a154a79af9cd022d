package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/kvikk/backend/internal/domain/shipping"
)

// maxResponseSize is the maximum allowed response size from the Admin API (10MB)
const maxResponseSize = 10 * 1024 * 1024

var ErrShopifyNoFulfillableOrder = errors.New("shopify: order has no open fulfillment order")

// APIError is a non-2xx Admin API response. It unwraps to
// shipping.ErrPlatformRequestFailed.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: %s", shipping.ErrPlatformRequestFailed, e.Status)
	}
	return fmt.Sprintf("%s: %s: %s", shipping.ErrPlatformRequestFailed, e.Status, e.Body)
}

func (e *APIError) Unwrap() error { return shipping.ErrPlatformRequestFailed }

// ShopifyAdapter talks to the Shopify Admin API on behalf of installed shops
type ShopifyAdapter struct {
	config     *ShopifyConfig
	httpClient *http.Client
}

var (
	_ shipping.TrackingWriter      = (*ShopifyAdapter)(nil)
	_ shipping.StorefrontInstaller = (*ShopifyAdapter)(nil)
)

// NewShopifyAdapter creates a new Admin API adapter
func NewShopifyAdapter(config *ShopifyConfig) (*ShopifyAdapter, error) {
	if config == nil {
		return nil, ErrShopifyConfigMissingCredentials
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &ShopifyAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// ---------------------------------------------------------------------------
// Installation
// ---------------------------------------------------------------------------

// ExchangeSessionToken trades an App Bridge session token for an offline access token
func (a *ShopifyAdapter) ExchangeSessionToken(ctx context.Context, shop, sessionToken string) (string, error) {
	payload := TokenExchangeRequest{
		ClientID:           a.config.APIKey,
		ClientSecret:       a.config.APISecret,
		GrantType:          tokenExchangeGrantType,
		SubjectToken:       sessionToken,
		SubjectTokenType:   idTokenType,
		RequestedTokenType: offlineAccessTokenType,
	}

	body, err := a.doRequest(ctx, http.MethodPost, shop, "/admin/oauth/access_token", "", payload)
	if err != nil {
		return "", err
	}

	var resp TokenExchangeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: invalid token response: %v", shipping.ErrPlatformRequestFailed, err)
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("%w: token response without access_token", shipping.ErrPlatformRequestFailed)
	}
	return resp.AccessToken, nil
}

// RegisterCarrierService creates the rate callback. When a service with the
// same name already exists it is reused and its callback URL refreshed.
func (a *ShopifyAdapter) RegisterCarrierService(ctx context.Context, shop, accessToken string, def shipping.CarrierServiceDefinition) (int64, error) {
	service := CarrierService{
		Name:             def.Name,
		CallbackURL:      def.CallbackURL,
		ServiceDiscovery: def.ServiceDiscovery,
		Format:           carrierServiceFormatJSON,
	}

	body, err := a.doRequest(ctx, http.MethodPost, shop, a.config.restPath("carrier_services.json"), accessToken,
		CarrierServiceEnvelope{CarrierService: service})
	if err == nil {
		var created CarrierServiceEnvelope
		if err := json.Unmarshal(body, &created); err != nil {
			return 0, fmt.Errorf("%w: invalid carrier service response: %v", shipping.ErrPlatformRequestFailed, err)
		}
		return created.CarrierService.ID, nil
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnprocessableEntity {
		return 0, err
	}

	existing, findErr := a.findCarrierService(ctx, shop, accessToken, def.Name)
	if findErr != nil {
		return 0, findErr
	}
	if existing == nil {
		return 0, err
	}
	if existing.CallbackURL != def.CallbackURL {
		path := a.config.restPath("carrier_services/" + strconv.FormatInt(existing.ID, 10) + ".json")
		service.ID = existing.ID
		if _, err := a.doRequest(ctx, http.MethodPut, shop, path, accessToken, CarrierServiceEnvelope{CarrierService: service}); err != nil {
			return 0, err
		}
	}
	return existing.ID, nil
}

func (a *ShopifyAdapter) findCarrierService(ctx context.Context, shop, accessToken, name string) (*CarrierService, error) {
	body, err := a.doRequest(ctx, http.MethodGet, shop, a.config.restPath("carrier_services.json"), accessToken, nil)
	if err != nil {
		return nil, err
	}

	var resp CarrierServicesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: invalid carrier services response: %v", shipping.ErrPlatformRequestFailed, err)
	}
	for i := range resp.CarrierServices {
		if resp.CarrierServices[i].Name == name {
			return &resp.CarrierServices[i], nil
		}
	}
	return nil, nil
}

// ---------------------------------------------------------------------------
// Tracking
// ---------------------------------------------------------------------------

// RecordTracking fulfils the order's open fulfillment orders with the
// carrier tracking number. Nothing is written when a fulfillment already
// carries the number.
func (a *ShopifyAdapter) RecordTracking(ctx context.Context, shop, accessToken string, orderID int64, info shipping.TrackingInfo) error {
	if accessToken == "" {
		return shipping.ErrPlatformNotInstalled
	}
	order := strconv.FormatInt(orderID, 10)

	body, err := a.doRequest(ctx, http.MethodGet, shop, a.config.restPath("orders/"+order+"/fulfillments.json"), accessToken, nil)
	if err != nil {
		return err
	}
	var fulfillments FulfillmentsResponse
	if err := json.Unmarshal(body, &fulfillments); err != nil {
		return fmt.Errorf("%w: invalid fulfillments response: %v", shipping.ErrPlatformRequestFailed, err)
	}
	for _, f := range fulfillments.Fulfillments {
		if f.hasTrackingNumber(info.Number) {
			return nil
		}
	}

	body, err = a.doRequest(ctx, http.MethodGet, shop, a.config.restPath("orders/"+order+"/fulfillment_orders.json"), accessToken, nil)
	if err != nil {
		return err
	}
	var fulfillmentOrders FulfillmentOrdersResponse
	if err := json.Unmarshal(body, &fulfillmentOrders); err != nil {
		return fmt.Errorf("%w: invalid fulfillment orders response: %v", shipping.ErrPlatformRequestFailed, err)
	}

	create := FulfillmentCreate{
		TrackingInfo: FulfillmentTrackingInfo{
			Number:  info.Number,
			Company: info.Company,
			URL:     info.URL,
		},
	}
	for _, fo := range fulfillmentOrders.FulfillmentOrders {
		if fo.fulfillable() {
			create.LineItemsByFulfillmentOrder = append(create.LineItemsByFulfillmentOrder,
				FulfillmentOrderLineItems{FulfillmentOrderID: fo.ID})
		}
	}
	if len(create.LineItemsByFulfillmentOrder) == 0 {
		return fmt.Errorf("%w: order %d", ErrShopifyNoFulfillableOrder, orderID)
	}

	_, err = a.doRequest(ctx, http.MethodPost, shop, a.config.restPath("fulfillments.json"), accessToken,
		FulfillmentCreateEnvelope{Fulfillment: create})
	return err
}

// doRequest sends a JSON request to a shop's Admin API and returns the body.
// Transport failures and statuses >= 400 wrap shipping.ErrPlatformRequestFailed.
func (a *ShopifyAdapter) doRequest(ctx context.Context, method, shop, path, accessToken string, payload any) ([]byte, error) {
	base, err := a.config.adminURL(shop)
	if err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("shopify: failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("shopify: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set(accessTokenHeader, accessToken)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shipping.ErrPlatformRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shipping.ErrPlatformRequestFailed, err)
	}

	if resp.StatusCode >= 400 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       errorText(body),
		}
	}
	return body, nil
}

func errorText(body []byte) string {
	var apiErr ErrorResponse
	if json.Unmarshal(body, &apiErr) != nil || apiErr.Errors == nil {
		return ""
	}
	if s, ok := apiErr.Errors.(string); ok {
		return s
	}
	data, err := json.Marshal(apiErr.Errors)
	if err != nil {
		return ""
	}
	return string(data)
}
