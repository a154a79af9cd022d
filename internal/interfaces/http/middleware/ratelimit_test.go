package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("shop-a"), "request %d should pass", i+1)
	}
	assert.False(t, rl.Allow("shop-a"))
	assert.True(t, rl.Allow("shop-b"), "keys are limited independently")
}

func TestRateLimiter_WindowReset(t *testing.T) {
	rl := NewRateLimiter(1, 20*time.Millisecond)
	defer rl.Stop()

	assert.True(t, rl.Allow("k"))
	assert.False(t, rl.Allow("k"))

	time.Sleep(30 * time.Millisecond)
	assert.True(t, rl.Allow("k"))
}

func TestRateLimiter_Remaining(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	defer rl.Stop()

	assert.Equal(t, 5, rl.Remaining("k"))
	rl.Allow("k")
	rl.Allow("k")
	assert.Equal(t, 3, rl.Remaining("k"))
}

func TestRateLimiter_Concurrent(t *testing.T) {
	rl := NewRateLimiter(50, time.Minute)
	defer rl.Stop()

	var mu sync.Mutex
	allowed := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow("k") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowed)
}

func TestRateLimit_Middleware(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	router := gin.New()
	router.Use(RateLimit(rl))
	router.POST("/api/shipping-rates", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func(shop string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/shipping-rates", nil)
		req.Header.Set("X-Shopify-Shop-Domain", shop)
		router.ServeHTTP(w, req)
		return w
	}

	w := send("a.myshopify.com")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, send("a.myshopify.com").Code)

	w = send("a.myshopify.com")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_RATE_LIMITED")

	assert.Equal(t, http.StatusOK, send("b.myshopify.com").Code)
}

func TestShopRateLimitKey(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(c *gin.Context)
		header string
		want   string
	}{
		{name: "ip only", want: "192.0.2.1"},
		{name: "webhook header", header: "a.myshopify.com", want: "a.myshopify.com:192.0.2.1"},
		{
			name:   "authenticated shop wins",
			setup:  func(c *gin.Context) { c.Set(ShopDomainKey, "b.myshopify.com") },
			header: "a.myshopify.com",
			want:   "b.myshopify.com:192.0.2.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Request.RemoteAddr = "192.0.2.1:1234"
			if tt.header != "" {
				c.Request.Header.Set("X-Shopify-Shop-Domain", tt.header)
			}
			if tt.setup != nil {
				tt.setup(c)
			}
			assert.Equal(t, tt.want, ShopRateLimitKey(c))
		})
	}
}
