package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kvikk/backend/internal/application/merchant"
	"github.com/kvikk/backend/internal/domain/settings"
	"github.com/kvikk/backend/internal/infrastructure/logger"
	"github.com/kvikk/backend/internal/interfaces/http/dto"
	"github.com/kvikk/backend/internal/interfaces/http/middleware"
)

// Admin error messages shown by the embedded admin
const (
	MessageSettingsLoadFailed = "Beállítások lekérése sikertelen"
	MessageSettingsSaveFailed = "Beállítások mentése sikertelen"
	MessageInstallFailed      = "Telepítési hiba történt"
)

// SettingsManager is the merchant settings use case
type SettingsManager interface {
	Get(ctx context.Context, shop string) (settings.View, error)
	Save(ctx context.Context, shop string, update settings.Update) (settings.View, error)
	TestConnection(ctx context.Context, shop, apiKey string) merchant.ConnectionResult
	RecentShipments(ctx context.Context, shop string) merchant.DashboardOverview
}

// Installer is the app install use case
type Installer interface {
	Install(ctx context.Context, shop, sessionToken string) (*merchant.InstallResult, error)
}

// AdminHandler serves the embedded admin. Every route sits behind session
// token authentication, which supplies the shop.
type AdminHandler struct {
	BaseHandler
	settings  SettingsManager
	installer Installer
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(settings SettingsManager, installer Installer) *AdminHandler {
	return &AdminHandler{settings: settings, installer: installer}
}

// DashboardResponse is the payload of GET /app: everything the admin page
// renders on load.
type DashboardResponse struct {
	Settings settings.View `json:"settings"`
	dto.RecentShipmentsResponse
}

func toConnectionResponse(r merchant.ConnectionResult) dto.TestConnectionResponse {
	return dto.TestConnectionResponse{TestResult: dto.ConnectionResult{Success: r.Success, Message: r.Message}}
}

// GetSettings returns the shop's settings with the API key masked
func (h *AdminHandler) GetSettings(c *gin.Context) {
	shop, ok := h.requireShop(c)
	if !ok {
		return
	}

	view, err := h.settings.Get(c.Request.Context(), shop)
	if err != nil {
		logger.L(c.Request.Context()).Error("Failed to load settings", zap.Error(err))
		h.AdminError(c, http.StatusInternalServerError, MessageSettingsLoadFailed)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SaveSettings applies a partial JSON settings update
func (h *AdminHandler) SaveSettings(c *gin.Context) {
	shop, ok := h.requireShop(c)
	if !ok {
		return
	}

	var req dto.SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	if _, err := h.settings.Save(c.Request.Context(), shop, req.ToUpdate()); err != nil {
		logger.L(c.Request.Context()).Error("Failed to save settings", zap.Error(err))
		h.AdminError(c, http.StatusInternalServerError, MessageSettingsSaveFailed)
		return
	}
	c.JSON(http.StatusOK, dto.SaveSettingsResponse{Success: true})
}

// TestConnection checks an API key against the carrier. An empty or masked
// key tests the stored key.
func (h *AdminHandler) TestConnection(c *gin.Context) {
	shop, ok := h.requireShop(c)
	if !ok {
		return
	}

	var req dto.TestConnectionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
	}

	result := h.settings.TestConnection(c.Request.Context(), shop, req.KvikkAPIKey)
	c.JSON(http.StatusOK, toConnectionResponse(result))
}

// Dashboard returns settings plus the recent shipments summary
func (h *AdminHandler) Dashboard(c *gin.Context) {
	shop, ok := h.requireShop(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	view, err := h.settings.Get(ctx, shop)
	if err != nil {
		logger.L(ctx).Error("Failed to load settings", zap.Error(err))
		h.AdminError(c, http.StatusInternalServerError, MessageSettingsLoadFailed)
		return
	}

	overview := h.settings.RecentShipments(ctx, shop)
	c.JSON(http.StatusOK, DashboardResponse{
		Settings:                view,
		RecentShipmentsResponse: dto.NewRecentShipmentsResponse(overview.ShipmentOverview, overview.Records),
	})
}

// AppAction handles the admin form: _action selects save_settings or
// test_connection.
func (h *AdminHandler) AppAction(c *gin.Context) {
	shop, ok := h.requireShop(c)
	if !ok {
		return
	}

	var form dto.AdminFormRequest
	if err := c.ShouldBind(&form); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	ctx := c.Request.Context()
	switch form.Action {
	case dto.ActionTestConnection:
		c.JSON(http.StatusOK, toConnectionResponse(h.settings.TestConnection(ctx, shop, form.KvikkAPIKey)))
	default:
		if _, err := h.settings.Save(ctx, shop, form.ToUpdate()); err != nil {
			logger.L(ctx).Error("Failed to save settings from admin form", zap.Error(err))
			h.AdminError(c, http.StatusInternalServerError, MessageSettingsSaveFailed)
			return
		}
		c.JSON(http.StatusOK, dto.SaveSettingsResponse{Success: true, Message: merchant.MessageSettingsSaved})
	}
}

// RecentShipments returns the latest carrier shipments, today's count and
// local shipment records. Carrier failures yield an empty summary.
func (h *AdminHandler) RecentShipments(c *gin.Context) {
	shop, ok := h.requireShop(c)
	if !ok {
		return
	}

	overview := h.settings.RecentShipments(c.Request.Context(), shop)
	c.JSON(http.StatusOK, dto.NewRecentShipmentsResponse(overview.ShipmentOverview, overview.Records))
}

// Install exchanges the session token, registers the carrier service and
// stores default settings.
func (h *AdminHandler) Install(c *gin.Context) {
	shop, ok := h.requireShop(c)
	if !ok {
		return
	}

	result, err := h.installer.Install(c.Request.Context(), shop, middleware.GetSessionToken(c))
	if err != nil {
		logger.L(c.Request.Context()).Error("Install failed", zap.Error(err))
		h.AdminError(c, http.StatusInternalServerError, MessageInstallFailed)
		return
	}

	c.JSON(http.StatusOK, dto.InstallResponse{
		Success:          true,
		Message:          result.Message,
		CarrierServiceID: result.CarrierServiceID,
	})
}
