package shopify

import (
	"errors"
	"fmt"
)

// DefaultAPIVersion is the Admin API version requests are pinned to
const DefaultAPIVersion = "2024-01"

// MaxPageSize is the platform's maximum page size for list endpoints
const MaxPageSize = 250

// Errors for Shopify configuration
var (
	ErrConfigMissingShopDomain  = errors.New("shopify: shop domain is required")
	ErrConfigMissingAccessToken = errors.New("shopify: access token is required")
)

// Config holds configuration for the Shopify Admin API client
type Config struct {
	// ShopDomain is the myshopify domain (e.g. "acme.myshopify.com")
	ShopDomain string
	// AccessToken is the Admin API access token
	AccessToken string
	// APIVersion is the Admin API version (e.g. "2024-01")
	APIVersion string
	// PageSize is the list page size, capped at MaxPageSize
	PageSize int
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
	// MaxRetries bounds retries of rate-limited requests
	MaxRetries int
	// BaseURL overrides the shop-domain derived base URL when non-empty
	BaseURL string
}

// NewConfig creates a new Shopify configuration with defaults
func NewConfig(shopDomain, accessToken string) *Config {
	return &Config{
		ShopDomain:     shopDomain,
		AccessToken:    accessToken,
		APIVersion:     DefaultAPIVersion,
		PageSize:       MaxPageSize,
		TimeoutSeconds: 30,
		MaxRetries:     3,
	}
}

// Validate validates the configuration and fills in defaults
func (c *Config) Validate() error {
	if c.ShopDomain == "" && c.BaseURL == "" {
		return ErrConfigMissingShopDomain
	}
	if c.AccessToken == "" {
		return ErrConfigMissingAccessToken
	}
	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	if c.PageSize <= 0 || c.PageSize > MaxPageSize {
		c.PageSize = MaxPageSize
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 3
	}
	return nil
}

// APIBaseURL returns the versioned Admin API base URL
func (c *Config) APIBaseURL() string {
	if c.BaseURL != "" {
		return fmt.Sprintf("%s/admin/api/%s", c.BaseURL, c.APIVersion)
	}
	return fmt.Sprintf("https://%s/admin/api/%s", c.ShopDomain, c.APIVersion)
}
