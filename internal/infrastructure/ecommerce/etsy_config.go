package ecommerce

import (
	"errors"
	"time"
)

// EtsyConfig holds configuration for the Etsy v3 API integration.
// Public listing search only needs the application API key.
type EtsyConfig struct {
	// APIKey is the application keystring from the Etsy developer portal
	APIKey string
	// BaseURL is the base URL for the Etsy v3 API
	BaseURL string
	// Timeout is the HTTP request timeout
	Timeout time.Duration
}

// EtsyAPIURL is the Etsy v3 API endpoint
const EtsyAPIURL = "https://openapi.etsy.com/v3"

// ErrEtsyConfigMissingAPIKey indicates a missing Etsy API key
var ErrEtsyConfigMissingAPIKey = errors.New("etsy: API key is required")

// NewEtsyConfig creates a new Etsy configuration with defaults
func NewEtsyConfig(apiKey string) *EtsyConfig {
	return &EtsyConfig{
		APIKey:  apiKey,
		BaseURL: EtsyAPIURL,
		Timeout: 30 * time.Second,
	}
}

// Validate validates the Etsy configuration
func (c *EtsyConfig) Validate() error {
	if c.APIKey == "" {
		return ErrEtsyConfigMissingAPIKey
	}
	if c.BaseURL == "" {
		c.BaseURL = EtsyAPIURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return nil
}
