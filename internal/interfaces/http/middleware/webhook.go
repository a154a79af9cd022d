package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kvikk/backend/internal/infrastructure/logger"
	"github.com/kvikk/backend/internal/infrastructure/shopify"
	"github.com/kvikk/backend/internal/interfaces/http/dto"
)

// RawBodyKey holds the verified request body so handlers can decode it
// without reading the stream twice
const RawBodyKey = "raw_body"

// WebhookConfig configures storefront webhook verification
type WebhookConfig struct {
	// Secret is the app API secret the storefront signs deliveries with
	Secret string
	// Verify turns HMAC checking on. Only local development disables it.
	Verify bool
	Logger *zap.Logger
}

// ShopifyWebhook verifies the X-Shopify-Hmac-Sha256 signature over the raw
// body, restores the body for the handler and puts the topic and shop on
// the request context.
func ShopifyWebhook(cfg WebhookConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			status := http.StatusBadRequest
			code := dto.ErrCodeBadRequest
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				status = http.StatusRequestEntityTooLarge
				code = dto.ErrCodeRequestTooLarge
			}
			c.AbortWithStatusJSON(status, dto.NewErrorResponseWithRequestID(code, "Unable to read request body", GetRequestID(c)))
			return
		}
		_ = c.Request.Body.Close()

		if cfg.Verify && !shopify.VerifyWebhook(cfg.Secret, body, c.GetHeader(shopify.HeaderHMAC)) {
			log.Warn("Webhook signature rejected",
				zap.String("topic", c.GetHeader(shopify.HeaderTopic)),
				zap.String("shop_domain", c.GetHeader(shopify.HeaderShopDomain)),
				zap.String("request_id", GetRequestID(c)),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeInvalidSignature,
				"Invalid webhook signature",
				GetRequestID(c),
			))
			return
		}

		c.Set(RawBodyKey, body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		if topic := c.GetHeader(shopify.HeaderTopic); topic != "" {
			c.Request = c.Request.WithContext(logger.WithWebhookTopic(c.Request.Context(), topic))
		}
		if shop := c.GetHeader(shopify.HeaderShopDomain); shop != "" {
			setShopDomain(c, shop)
		}

		c.Next()
	}
}

// GetRawBody returns the body captured by ShopifyWebhook
func GetRawBody(c *gin.Context) ([]byte, bool) {
	v, ok := c.Get(RawBodyKey)
	if !ok {
		return nil, false
	}
	body, ok := v.([]byte)
	return body, ok
}
