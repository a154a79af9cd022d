package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/kvikk/backend/internal/infrastructure/auth"
	"github.com/kvikk/backend/internal/infrastructure/logger"
)

// MockSessionVerifier is a mock implementation of SessionVerifier
type MockSessionVerifier struct {
	mock.Mock
}

func (m *MockSessionVerifier) Verify(token string) (*auth.SessionClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.SessionClaims), args.Error(1)
}

func newSessionRouter(verifier SessionVerifier) *gin.Engine {
	router := gin.New()
	router.Use(SessionAuth(SessionAuthConfig{Verifier: verifier}))
	router.GET("/api/settings", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"shop":     GetShopDomain(c),
			"ctx_shop": logger.GetShopDomain(c.Request.Context()),
			"token":    GetSessionToken(c),
			"claims":   GetSessionClaims(c) != nil,
		})
	})
	return router
}

func TestSessionAuth_ValidToken(t *testing.T) {
	verifier := new(MockSessionVerifier)
	verifier.On("Verify", "good-token").Return(&auth.SessionClaims{
		Destination: "https://teszt-bolt.myshopify.com",
	}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	newSessionRouter(verifier).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"shop":"teszt-bolt.myshopify.com","ctx_shop":"teszt-bolt.myshopify.com","token":"good-token","claims":true}`, w.Body.String())
	verifier.AssertExpectations(t)
}

func TestSessionAuth_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		verifyFn func(m *MockSessionVerifier)
		wantCode string
	}{
		{name: "no header", wantCode: "ERR_UNAUTHORIZED"},
		{name: "not bearer", header: "Basic abc", wantCode: "ERR_UNAUTHORIZED"},
		{name: "empty bearer", header: "Bearer  ", wantCode: "ERR_UNAUTHORIZED"},
		{
			name:   "expired",
			header: "Bearer old",
			verifyFn: func(m *MockSessionVerifier) {
				m.On("Verify", "old").Return(nil, auth.ErrExpiredToken)
			},
			wantCode: "ERR_TOKEN_EXPIRED",
		},
		{
			name:   "wrong audience",
			header: "Bearer other-app",
			verifyFn: func(m *MockSessionVerifier) {
				m.On("Verify", "other-app").Return(nil, auth.ErrAudienceMismatch)
			},
			wantCode: "ERR_TOKEN_INVALID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := new(MockSessionVerifier)
			if tt.verifyFn != nil {
				tt.verifyFn(verifier)
			}

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			newSessionRouter(verifier).ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantCode)
			verifier.AssertExpectations(t)
		})
	}
}
