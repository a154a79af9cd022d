package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	shippingapp "github.com/kvikk/backend/internal/application/shipping"
	"github.com/kvikk/backend/internal/domain/shipping"
	"github.com/kvikk/backend/internal/infrastructure/logger"
	"github.com/kvikk/backend/internal/infrastructure/shopify"
	"github.com/kvikk/backend/internal/interfaces/http/dto"
	"github.com/kvikk/backend/internal/interfaces/http/middleware"
)

// RateQuoter quotes a raw carrier-service callback body
type RateQuoter interface {
	QuotePayload(ctx context.Context, shop string, body []byte) shippingapp.QuoteResult
}

// WebhookProcessor handles one storefront webhook delivery
type WebhookProcessor interface {
	Handle(ctx context.Context, event shippingapp.WebhookEvent) shippingapp.WebhookResult
}

// ShippingHandler serves the storefront-facing endpoints. Both always answer
// 200 so the storefront never retries or breaks checkout.
type ShippingHandler struct {
	BaseHandler
	rates    RateQuoter
	webhooks WebhookProcessor
}

// NewShippingHandler creates a new ShippingHandler
func NewShippingHandler(rates RateQuoter, webhooks WebhookProcessor) *ShippingHandler {
	return &ShippingHandler{rates: rates, webhooks: webhooks}
}

// requestBody returns the body captured by the webhook middleware, or reads it
func requestBody(c *gin.Context) ([]byte, error) {
	if body, ok := middleware.GetRawBody(c); ok {
		return body, nil
	}
	return io.ReadAll(c.Request.Body)
}

// shopFromRequest prefers the verified shop and falls back to the header
func shopFromRequest(c *gin.Context) string {
	if shop := middleware.GetShopDomain(c); shop != "" {
		return shop
	}
	return c.GetHeader(shopify.HeaderShopDomain)
}

// ShippingRates answers the carrier-service callback with live or fallback
// rates. Only an unreadable request produces the error shape.
func (h *ShippingHandler) ShippingRates(c *gin.Context) {
	body, err := requestBody(c)
	if err != nil {
		logger.L(c.Request.Context()).Warn("Failed to read rate request body", zap.Error(err))
		c.JSON(http.StatusOK, dto.NewRatesErrorResponse(shippingapp.RateFailureMessage))
		return
	}

	result := h.rates.QuotePayload(c.Request.Context(), shopFromRequest(c), body)
	if result.Outcome == shipping.OutcomeError {
		c.JSON(http.StatusOK, dto.NewRatesErrorResponse(shippingapp.RateFailureMessage))
		return
	}
	c.JSON(http.StatusOK, dto.NewRatesResponse(result.Rates))
}

// Webhooks dispatches an order webhook and acknowledges it.
func (h *ShippingHandler) Webhooks(c *gin.Context) {
	body, err := requestBody(c)
	if err != nil {
		logger.L(c.Request.Context()).Warn("Failed to read webhook body", zap.Error(err))
		c.JSON(http.StatusOK, dto.WebhookAck{Received: true, Action: string(shippingapp.WebhookActionFailed)})
		return
	}

	result := h.webhooks.Handle(c.Request.Context(), shippingapp.WebhookEvent{
		Topic:     c.GetHeader(shopify.HeaderTopic),
		Shop:      shopFromRequest(c),
		WebhookID: c.GetHeader(shopify.HeaderWebhookID),
		Body:      body,
	})
	c.JSON(http.StatusOK, dto.WebhookAck{Received: true, Action: string(result.Action)})
}
