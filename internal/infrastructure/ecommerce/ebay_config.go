package ecommerce

import (
	"encoding/base64"
	"errors"
	"time"
)

// EbayConfig holds configuration for the eBay Browse API integration
type EbayConfig struct {
	// ClientID is the application client ID from the eBay developer program
	ClientID string
	// ClientSecret is the application client secret
	ClientSecret string
	// BaseURL is the base URL for the eBay REST API (production or sandbox)
	BaseURL string
	// AuthURL is the OAuth token endpoint
	AuthURL string
	// IsSandbox indicates if this is a sandbox environment
	IsSandbox bool
	// Timeout is the HTTP request timeout
	Timeout time.Duration
}

const (
	// EbayProductionAPIURL is the production API endpoint
	EbayProductionAPIURL = "https://api.ebay.com"
	// EbaySandboxAPIURL is the sandbox API endpoint
	EbaySandboxAPIURL = "https://api.sandbox.ebay.com"
	// ebayTokenPath is the OAuth client-credentials token path
	ebayTokenPath = "/identity/v1/oauth2/token"
	// ebayBrowseScope is the application-level scope for the Browse API
	ebayBrowseScope = "https://api.ebay.com/oauth/api_scope"
)

// Errors for eBay configuration
var (
	ErrEbayConfigMissingClientID     = errors.New("ebay: client ID is required")
	ErrEbayConfigMissingClientSecret = errors.New("ebay: client secret is required")
)

// NewEbayConfig creates a new eBay configuration with production defaults
func NewEbayConfig(clientID, clientSecret string) *EbayConfig {
	return &EbayConfig{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		BaseURL:      EbayProductionAPIURL,
		AuthURL:      EbayProductionAPIURL + ebayTokenPath,
		IsSandbox:    false,
		Timeout:      30 * time.Second,
	}
}

// NewSandboxEbayConfig creates a new eBay configuration for the sandbox
// environment
func NewSandboxEbayConfig(clientID, clientSecret string) *EbayConfig {
	return &EbayConfig{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		BaseURL:      EbaySandboxAPIURL,
		AuthURL:      EbaySandboxAPIURL + ebayTokenPath,
		IsSandbox:    true,
		Timeout:      30 * time.Second,
	}
}

// Validate validates the eBay configuration
func (c *EbayConfig) Validate() error {
	if c.ClientID == "" {
		return ErrEbayConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrEbayConfigMissingClientSecret
	}
	if c.BaseURL == "" {
		if c.IsSandbox {
			c.BaseURL = EbaySandboxAPIURL
		} else {
			c.BaseURL = EbayProductionAPIURL
		}
	}
	if c.AuthURL == "" {
		c.AuthURL = c.BaseURL + ebayTokenPath
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return nil
}

// BasicAuth returns the base64-encoded client credentials for the OAuth
// token request
func (c *EbayConfig) BasicAuth() string {
	return base64.StdEncoding.EncodeToString([]byte(c.ClientID + ":" + c.ClientSecret))
}
