package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestBodyLimit_WithinLimit(t *testing.T) {
	router := gin.New()
	router.Use(BodyLimit(1024))
	router.POST("/api/webhooks", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		assert.NoError(t, err)
		c.String(http.StatusOK, string(body))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks", strings.NewReader(`{"id":1}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"id":1}`, w.Body.String())
}

func TestBodyLimit_ContentLengthTooLarge(t *testing.T) {
	router := gin.New()
	router.Use(BodyLimit(10))
	router.POST("/api/webhooks", func(c *gin.Context) {
		t.Fatal("handler must not run")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks", strings.NewReader(strings.Repeat("a", 100)))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_REQUEST_TOO_LARGE")
}

func TestBodyLimit_StreamingBodyCutOff(t *testing.T) {
	var readErr error

	router := gin.New()
	router.Use(BodyLimit(10))
	router.POST("/api/webhooks", func(c *gin.Context) {
		_, readErr = io.ReadAll(c.Request.Body)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks", io.NopCloser(strings.NewReader(strings.Repeat("a", 100))))
	req.ContentLength = -1
	router.ServeHTTP(w, req)

	assert.Error(t, readErr)
}
