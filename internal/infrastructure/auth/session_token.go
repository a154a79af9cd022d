package auth

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kvikk/backend/internal/domain/settings"
	"github.com/kvikk/backend/internal/infrastructure/config"
)

// Common errors
var (
	ErrMissingToken       = errors.New("missing session token")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrTokenNotYetValid   = errors.New("token is not yet valid")
	ErrInvalidClaims      = errors.New("invalid token claims")
	ErrAudienceMismatch   = errors.New("token audience does not match app key")
	ErrDestinationInvalid = errors.New("token destination is not a shop domain")
	ErrIssuerMismatch     = errors.New("token issuer does not match destination")
	ErrVerifierNotReady   = errors.New("session token verifier requires app key and secret")
)

// DefaultClockSkew tolerates small clock differences between the admin and this server
const DefaultClockSkew = 5 * time.Second

// SessionClaims are the claims the embedded admin puts into a session token.
// iss is https://{shop}/admin, dest is https://{shop} and aud is the app's API key.
type SessionClaims struct {
	jwt.RegisteredClaims
	Destination string `json:"dest"`
	SessionID   string `json:"sid,omitempty"`
}

// Shop returns the shop domain from the dest claim
func (c *SessionClaims) Shop() string {
	u, err := url.Parse(c.Destination)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// SessionTokenVerifier validates session tokens signed with the app secret
type SessionTokenVerifier struct {
	apiKey    string
	secret    []byte
	clockSkew time.Duration
}

// NewSessionTokenVerifier creates a verifier for the app credentials
func NewSessionTokenVerifier(cfg config.ShopifyConfig) (*SessionTokenVerifier, error) {
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, ErrVerifierNotReady
	}
	return &SessionTokenVerifier{
		apiKey:    cfg.APIKey,
		secret:    []byte(cfg.APISecret),
		clockSkew: DefaultClockSkew,
	}, nil
}

// Verify parses and validates a session token and returns its claims.
// The token must be HS256-signed, unexpired, addressed to this app, and its
// issuer must belong to the destination shop.
func (v *SessionTokenVerifier) Verify(tokenString string) (*SessionClaims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.clockSkew),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}

	if !audienceContains(claims.Audience, v.apiKey) {
		return nil, ErrAudienceMismatch
	}

	shop := claims.Shop()
	if err := settings.ValidateShopDomain(shop); err != nil {
		return nil, ErrDestinationInvalid
	}

	issuer, err := url.Parse(claims.Issuer)
	if err != nil || issuer.Hostname() != shop {
		return nil, ErrIssuerMismatch
	}

	return claims, nil
}

func audienceContains(aud jwt.ClaimStrings, key string) bool {
	for _, a := range aud {
		if a == key {
			return true
		}
	}
	return false
}
