// Package handler holds the gin handlers of the storefront and admin endpoints.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kvikk/backend/internal/domain/shared"
	"github.com/kvikk/backend/internal/interfaces/http/dto"
	"github.com/kvikk/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := middleware.GetRequestID(c); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// AdminError sends the flat {"error": message} body the embedded admin reads.
func (h *BaseHandler) AdminError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, dto.ErrorMessage{Error: message})
}

// HandleError maps an error to its dto code and HTTP status.
// Domain errors keep their message, anything else is reported generically.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	code := dto.CodeForError(err)
	message := "An unexpected error occurred"
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		message = domainErr.Message
	}
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// requireShop returns the authenticated shop or aborts with 401.
func (h *BaseHandler) requireShop(c *gin.Context) (string, bool) {
	shop := middleware.GetShopDomain(c)
	if shop == "" {
		h.Unauthorized(c, "Shop session required")
		return "", false
	}
	return shop, true
}
