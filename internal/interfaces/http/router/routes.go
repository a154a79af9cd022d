package router

import (
	"github.com/gin-gonic/gin"

	"github.com/kvikk/backend/internal/interfaces/http/handler"
)

// Handlers are the endpoint handlers the route table binds
type Handlers struct {
	System   *handler.SystemHandler
	Shipping *handler.ShippingHandler
	Admin    *handler.AdminHandler
}

// Guards are the per-group authentication middleware
type Guards struct {
	// Storefront verifies storefront-signed requests (webhooks and rate callbacks)
	Storefront gin.HandlerFunc
	// Session authenticates embedded admin requests
	Session gin.HandlerFunc
}

// Mount registers every route of the service on engine:
//
//	GET  /health
//	GET  /app, POST /app                      (session)
//	POST /api/webhooks, /api/shipping-rates   (storefront signature)
//	GET  /api/settings, POST /api/settings    (session)
//	POST /api/settings/test                   (session)
//	GET  /api/shipments/recent                (session)
//	POST /api/app/install                     (session)
//	GET  /api/system/info                     (session)
func Mount(engine *gin.Engine, h Handlers, g Guards) *Router {
	r := NewRouter(engine)

	system := NewDomainGroup("system", "")
	system.GET("/health", h.System.Health)
	r.RegisterRoot(system)

	app := NewDomainGroup("app", "/app").Use(g.Session)
	app.GET("", h.Admin.Dashboard)
	app.POST("", h.Admin.AppAction)
	r.RegisterRoot(app)

	storefront := NewDomainGroup("storefront", "").Use(g.Storefront)
	storefront.POST("/webhooks", h.Shipping.Webhooks)
	storefront.POST("/shipping-rates", h.Shipping.ShippingRates)
	r.Register(storefront)

	admin := NewDomainGroup("admin", "").Use(g.Session)
	admin.GET("/settings", h.Admin.GetSettings)
	admin.POST("/settings", h.Admin.SaveSettings)
	admin.POST("/settings/test", h.Admin.TestConnection)
	admin.GET("/shipments/recent", h.Admin.RecentShipments)
	admin.POST("/app/install", h.Admin.Install)
	admin.GET("/system/info", h.System.GetSystemInfo)
	r.Register(admin)

	r.Setup()
	return r
}
