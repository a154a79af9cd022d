package shopify

import (
	"errors"
	"strings"

	"github.com/kvikk/backend/internal/domain/settings"
)

const (
	// DefaultAPIVersion is the Admin REST API version used when none is configured
	DefaultAPIVersion = "2024-01"

	defaultTimeoutSeconds = 30
)

var (
	ErrShopifyConfigMissingCredentials = errors.New("shopify: api key and secret are required")
	ErrShopifyInvalidShopDomain        = errors.New("shopify: invalid shop domain")
)

// ShopifyConfig holds app credentials and Admin API settings
type ShopifyConfig struct {
	APIKey     string
	APISecret  string
	APIVersion string
	// AdminBaseURL replaces https://{shop} for every request. Only set for
	// local fakes and tests; shop domains are not validated when it is set.
	AdminBaseURL   string
	TimeoutSeconds int
}

// Validate fills defaults and validates the configuration
func (c *ShopifyConfig) Validate() error {
	if c.APIKey == "" || c.APISecret == "" {
		return ErrShopifyConfigMissingCredentials
	}
	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = defaultTimeoutSeconds
	}
	return nil
}

// adminURL returns the scheme and host for a shop's Admin API
func (c *ShopifyConfig) adminURL(shop string) (string, error) {
	if c.AdminBaseURL != "" {
		return strings.TrimRight(c.AdminBaseURL, "/"), nil
	}
	if err := settings.ValidateShopDomain(shop); err != nil {
		return "", ErrShopifyInvalidShopDomain
	}
	return "https://" + shop, nil
}

// restPath prefixes a resource path with the versioned REST root
func (c *ShopifyConfig) restPath(resource string) string {
	return "/admin/api/" + c.APIVersion + "/" + strings.TrimLeft(resource, "/")
}
