package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kvikk/backend/internal/infrastructure/auth"
	"github.com/kvikk/backend/internal/interfaces/http/dto"
)

// Session context keys and header names
const (
	SessionClaimsKey = "session_claims"
	SessionTokenKey  = "session_token"
	AuthHeaderKey    = "Authorization"
	BearerPrefix     = "Bearer "
)

// SessionVerifier validates embedded admin session tokens
type SessionVerifier interface {
	Verify(token string) (*auth.SessionClaims, error)
}

// SessionAuthConfig holds configuration for session-token middleware
type SessionAuthConfig struct {
	Verifier SessionVerifier
	Logger   *zap.Logger
}

// SessionAuth authenticates admin requests with the session token in the
// Authorization header and exposes the token's shop to handlers.
func SessionAuth(cfg SessionAuthConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeaderKey)
		if !strings.HasPrefix(header, BearerPrefix) {
			abortSession(c, log, auth.ErrMissingToken)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
		if token == "" {
			abortSession(c, log, auth.ErrMissingToken)
			return
		}

		claims, err := cfg.Verifier.Verify(token)
		if err != nil {
			abortSession(c, log, err)
			return
		}

		c.Set(SessionClaimsKey, claims)
		c.Set(SessionTokenKey, token)
		setShopDomain(c, claims.Shop())

		c.Next()
	}
}

func abortSession(c *gin.Context, log *zap.Logger, err error) {
	log.Debug("Session token rejected",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", GetRequestID(c)),
	)

	code := dto.ErrCodeUnauthorized
	message := "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code = dto.ErrCodeTokenExpired
		message = "Session token has expired"
	case errors.Is(err, auth.ErrMissingToken):
	default:
		code = dto.ErrCodeTokenInvalid
		message = "Invalid session token"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

// GetSessionClaims returns the claims set by SessionAuth
func GetSessionClaims(c *gin.Context) *auth.SessionClaims {
	if v, ok := c.Get(SessionClaimsKey); ok {
		if claims, ok := v.(*auth.SessionClaims); ok {
			return claims
		}
	}
	return nil
}

// GetSessionToken returns the raw session token set by SessionAuth
func GetSessionToken(c *gin.Context) string {
	return c.GetString(SessionTokenKey)
}
