package ecommerce

import (
	"encoding/base64"
	"errors"
	"time"
)

// RedditConfig holds configuration for the Reddit API integration.
// Read-only access uses the application-only OAuth grant, so no Reddit
// account credentials are needed.
type RedditConfig struct {
	// ClientID is the script-app client ID
	ClientID string
	// ClientSecret is the script-app client secret
	ClientSecret string
	// UserAgent identifies this client to Reddit; required by their API terms
	UserAgent string
	// BaseURL is the authenticated API endpoint
	BaseURL string
	// AuthURL is the OAuth token endpoint
	AuthURL string
	// Subreddits are the communities searched for denim listings
	Subreddits []string
	// Timeout is the HTTP request timeout
	Timeout time.Duration
}

const (
	// RedditAPIURL is the authenticated Reddit API endpoint
	RedditAPIURL = "https://oauth.reddit.com"
	// RedditAuthURL is the OAuth token endpoint
	RedditAuthURL = "https://www.reddit.com/api/v1/access_token"
)

// defaultSubreddits are the denim communities monitored when none are
// configured
var defaultSubreddits = []string{"rawdenim", "vintagefashion", "ThriftStoreHauls"}

// Errors for Reddit configuration
var (
	ErrRedditConfigMissingClientID     = errors.New("reddit: client ID is required")
	ErrRedditConfigMissingClientSecret = errors.New("reddit: client secret is required")
)

// NewRedditConfig creates a new Reddit configuration with defaults
func NewRedditConfig(clientID, clientSecret, userAgent string) *RedditConfig {
	if userAgent == "" {
		userAgent = "fadedindigo/1.0"
	}
	return &RedditConfig{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		UserAgent:    userAgent,
		BaseURL:      RedditAPIURL,
		AuthURL:      RedditAuthURL,
		Subreddits:   defaultSubreddits,
		Timeout:      30 * time.Second,
	}
}

// Validate validates the Reddit configuration
func (c *RedditConfig) Validate() error {
	if c.ClientID == "" {
		return ErrRedditConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrRedditConfigMissingClientSecret
	}
	if c.UserAgent == "" {
		c.UserAgent = "fadedindigo/1.0"
	}
	if c.BaseURL == "" {
		c.BaseURL = RedditAPIURL
	}
	if c.AuthURL == "" {
		c.AuthURL = RedditAuthURL
	}
	if len(c.Subreddits) == 0 {
		c.Subreddits = defaultSubreddits
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return nil
}

// BasicAuth returns the base64-encoded client credentials for the OAuth
// token request
func (c *RedditConfig) BasicAuth() string {
	return base64.StdEncoding.EncodeToString([]byte(c.ClientID + ":" + c.ClientSecret))
}
