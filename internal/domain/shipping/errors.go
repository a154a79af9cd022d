package shipping

import (
	"errors"

	"github.com/kvikk/backend/internal/domain/shared"
)

var (
	// Carrier errors
	ErrCarrierUnavailable     = errors.New("shipping: carrier unavailable")
	ErrCarrierRequestFailed   = errors.New("shipping: carrier request failed")
	ErrCarrierInvalidResponse = errors.New("shipping: invalid carrier response")
	ErrCarrierAuthFailed      = errors.New("shipping: carrier authentication failed")
	ErrCarrierKeyMissing      = errors.New("shipping: no carrier API key configured")

	// Order errors
	ErrOrderMissingShippingAddress = errors.New("shipping: order has no shipping address")
	ErrOrderInvalidPayload         = errors.New("shipping: invalid order payload")
	ErrNoCarrierShippingLine       = errors.New("shipping: order has no Kvikk shipping line")

	// Platform errors
	ErrPlatformRequestFailed = errors.New("shipping: platform request failed")
	ErrPlatformNotInstalled  = errors.New("shipping: no platform access token for shop")
)

// ErrShipmentAlreadyCreated is returned when a shipment already exists for an order.
var ErrShipmentAlreadyCreated = shared.NewDomainError("SHIPMENT_ALREADY_CREATED", "A shipment was already created for this order")

// ErrShipmentRecordNotFound is returned when no record exists for an order.
var ErrShipmentRecordNotFound = shared.NewDomainError("SHIPMENT_RECORD_NOT_FOUND", "Shipment record not found")
