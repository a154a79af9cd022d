package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/kvikk/backend/internal/interfaces/http/handler"
)

func TestMount_RouteTable(t *testing.T) {
	engine := gin.New()
	deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusTeapot) }

	Mount(engine, Handlers{
		System:   handler.NewSystemHandler(nil, "kvikk-shopify", "test"),
		Shipping: handler.NewShippingHandler(nil, nil),
		Admin:    handler.NewAdminHandler(nil, nil),
	}, Guards{Storefront: deny, Session: deny})

	routes := map[string]bool{}
	for _, r := range engine.Routes() {
		routes[r.Method+" "+r.Path] = true
	}

	for _, want := range []string{
		"GET /health",
		"GET /app",
		"POST /app",
		"POST /api/webhooks",
		"POST /api/shipping-rates",
		"GET /api/settings",
		"POST /api/settings",
		"POST /api/settings/test",
		"GET /api/shipments/recent",
		"POST /api/app/install",
		"GET /api/system/info",
	} {
		assert.True(t, routes[want], "missing route %s", want)
	}

	// Health is unguarded, everything else passes through a guard
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	for _, path := range []string{"/app", "/api/webhooks", "/api/shipping-rates", "/api/settings"} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, strings.NewReader("{}")))
		assert.Equal(t, http.StatusTeapot, w.Code, path)
	}
}
