package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kvikk/backend/internal/domain/shipping"
)

// maxResponseSize is the maximum allowed response size from the Kvikk API (10MB)
const maxResponseSize = 10 * 1024 * 1024

const apiKeyHeader = "X-API-KEY"

// KvikkAdapter implements shipping.Carrier over the Kvikk REST API
type KvikkAdapter struct {
	config     *KvikkConfig
	httpClient *http.Client
}

var _ shipping.Carrier = (*KvikkAdapter)(nil)

// NewKvikkAdapter creates a new Kvikk carrier adapter
func NewKvikkAdapter(config *KvikkConfig) (*KvikkAdapter, error) {
	if config == nil {
		config = NewKvikkConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &KvikkAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// QuoteRates requests rates for one parcel
func (a *KvikkAdapter) QuoteRates(ctx context.Context, apiKey string, req *shipping.CarrierRateRequest) ([]shipping.CarrierRate, error) {
	body, err := a.doRequest(ctx, http.MethodPost, "/v1/rates", apiKey, req)
	if err != nil {
		return nil, err
	}

	var resp KvikkRatesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", shipping.ErrCarrierInvalidResponse, err)
	}
	return resp.Rates, nil
}

// CreateShipment submits a shipment
func (a *KvikkAdapter) CreateShipment(ctx context.Context, apiKey string, req *shipping.ShipmentRequest) (*shipping.ShipmentConfirmation, error) {
	body, err := a.doRequest(ctx, http.MethodPost, "/v1/shipments", apiKey, req)
	if err != nil {
		return nil, err
	}

	var resp KvikkShipmentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", shipping.ErrCarrierInvalidResponse, err)
	}
	return resp.Confirmation(), nil
}

// TestConnection checks the API key against GET /v1/test
func (a *KvikkAdapter) TestConnection(ctx context.Context, apiKey string) error {
	_, err := a.doRequest(ctx, http.MethodGet, "/v1/test", apiKey, nil)
	return err
}

// ListShipments returns the account's shipments
func (a *KvikkAdapter) ListShipments(ctx context.Context, apiKey string) ([]shipping.CarrierShipment, error) {
	body, err := a.doRequest(ctx, http.MethodGet, "/v1/shipments", apiKey, nil)
	if err != nil {
		return nil, err
	}

	var resp KvikkShipmentsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", shipping.ErrCarrierInvalidResponse, err)
	}

	shipments := make([]shipping.CarrierShipment, 0, len(resp.Shipments))
	for _, s := range resp.Shipments {
		shipments = append(shipments, s.toDomain())
	}
	return shipments, nil
}

// doRequest sends a JSON request and returns the response body.
// Transport failures wrap shipping.ErrCarrierUnavailable; statuses >= 400
// wrap shipping.ErrCarrierRequestFailed with the status text.
func (a *KvikkAdapter) doRequest(ctx context.Context, method, path, apiKey string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("kvikk: failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	url := strings.TrimRight(a.config.APIBaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("kvikk: failed to create request: %w", err)
	}

	req.Header.Set(apiKeyHeader, apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shipping.ErrCarrierUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shipping.ErrCarrierUnavailable, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, statusError(resp, body)
	}

	return body, nil
}

func statusError(resp *http.Response, body []byte) error {
	status := resp.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var apiErr KvikkErrorResponse
	if json.Unmarshal(body, &apiErr) == nil && apiErr.text() != "" {
		status = status + ": " + apiErr.text()
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: %w: %s", shipping.ErrCarrierRequestFailed, shipping.ErrCarrierAuthFailed, status)
	}
	return fmt.Errorf("%w: %s", shipping.ErrCarrierRequestFailed, status)
}
