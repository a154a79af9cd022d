package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.NotNil(t, r)
	assert.Equal(t, "/api", r.basePath)
	assert.Empty(t, r.registrars)
}

func TestRouterWithBasePath(t *testing.T) {
	r := NewRouter(gin.New(), WithBasePath("/internal"))

	assert.Equal(t, "/internal", r.basePath)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	api := NewDomainGroup("test", "/test")
	api.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	root := NewDomainGroup("root", "")
	root.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	r.Register(api).RegisterRoot(root)
	r.Setup()

	w := serve(engine, http.MethodGet, "/api/test/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	w = serve(engine, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/health").Code)
}

func TestDomainGroup(t *testing.T) {
	t.Run("creates group with name and prefix", func(t *testing.T) {
		g := NewDomainGroup("settings", "/settings")
		assert.Equal(t, "settings", g.Name())
		assert.Equal(t, "/settings", g.Prefix())
	})

	t.Run("registers GET and POST routes", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("settings", "/settings")
		g.GET("", func(c *gin.Context) { c.String(http.StatusOK, "get") })
		g.POST("/test", func(c *gin.Context) { c.String(http.StatusOK, "test") })
		g.RegisterRoutes(engine.Group("/api"))

		assert.Equal(t, "get", serve(engine, http.MethodGet, "/api/settings").Body.String())
		assert.Equal(t, "test", serve(engine, http.MethodPost, "/api/settings/test").Body.String())
		assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodPost, "/api/settings").Code)
	})

	t.Run("applies middleware only to its own routes", func(t *testing.T) {
		engine := gin.New()
		guarded := NewDomainGroup("admin", "").Use(func(c *gin.Context) {
			c.AbortWithStatus(http.StatusUnauthorized)
		})
		guarded.GET("/settings", func(c *gin.Context) { c.Status(http.StatusOK) })

		open := NewDomainGroup("storefront", "")
		open.POST("/webhooks", func(c *gin.Context) { c.Status(http.StatusOK) })

		api := engine.Group("/api")
		guarded.RegisterRoutes(api)
		open.RegisterRoutes(api)

		assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/api/settings").Code)
		assert.Equal(t, http.StatusOK, serve(engine, http.MethodPost, "/api/webhooks").Code)
	})

	t.Run("creates subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("admin", "/admin")
		sub := g.Group("shipments", "/shipments")
		sub.GET("/recent", func(c *gin.Context) { c.String(http.StatusOK, "recent") })
		g.RegisterRoutes(engine.Group("/api"))

		assert.Equal(t, "recent", serve(engine, http.MethodGet, "/api/admin/shipments/recent").Body.String())
	})
}

func TestChainedMethodCalls(t *testing.T) {
	engine := gin.New()
	NewDomainGroup("chain", "/chain").
		GET("/a", func(c *gin.Context) { c.String(http.StatusOK, "a") }).
		POST("/b", func(c *gin.Context) { c.String(http.StatusOK, "b") }).
		RegisterRoutes(engine.Group("/api"))

	assert.Equal(t, "a", serve(engine, http.MethodGet, "/api/chain/a").Body.String())
	assert.Equal(t, "b", serve(engine, http.MethodPost, "/api/chain/b").Body.String())
}
