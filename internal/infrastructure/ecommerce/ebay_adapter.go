package ecommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fadedindigo/backend/internal/domain/marketplace"
)

// maxResponseSize is the maximum allowed response size from a vendor API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// tokenExpiryMargin is subtracted from a vendor token lifetime so a token
// is never used within a minute of its expiry
const tokenExpiryMargin = time.Minute

// ebayMaxPageSize is the Browse API per-request item cap
const ebayMaxPageSize = 200

// EbayAdapter implements the marketplace Adapter interface for the eBay
// Browse API. Application tokens are fetched via the OAuth client
// credentials flow and cached until shortly before expiry.
type EbayAdapter struct {
	config     *EbayConfig
	httpClient *http.Client

	mu             sync.Mutex // Protects the cached token
	token          string
	tokenExpiresAt time.Time
}

// NewEbayAdapter creates a new eBay adapter with the given configuration
func NewEbayAdapter(config *EbayConfig) (*EbayAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &EbayAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// Platform returns the platform this adapter handles
func (a *EbayAdapter) Platform() marketplace.Platform {
	return marketplace.PlatformEbay
}

// Fetch retrieves one page of raw item summaries from the Browse API.
// The cursor is the numeric result offset.
func (a *EbayAdapter) Fetch(ctx context.Context, query marketplace.FetchQuery) (*marketplace.FetchPage, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	offset, err := parseOffsetCursor(query.Cursor)
	if err != nil {
		return nil, err
	}

	token, err := a.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	limit := query.Limit
	if limit > ebayMaxPageSize {
		limit = ebayMaxPageSize
	}

	params := url.Values{}
	params.Set("q", query.Keywords)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	endpoint := a.config.BaseURL + "/buy/browse/v1/item_summary/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("ebay: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	body, err := a.doRequest(req)
	if err != nil {
		return nil, err
	}

	var resp ebaySearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse search response: %v", marketplace.ErrPlatformInvalidResponse, err)
	}

	page := &marketplace.FetchPage{
		RawItems: make([]json.RawMessage, 0, len(resp.ItemSummaries)),
	}
	for _, raw := range resp.ItemSummaries {
		var probe struct {
			ItemID string `json:"itemId"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil || probe.ItemID == "" {
			page.Skipped++
			continue
		}
		page.RawItems = append(page.RawItems, raw)
	}

	nextOffset := resp.Offset + len(resp.ItemSummaries)
	if resp.Next != "" && nextOffset < resp.Total {
		page.NextCursor = strconv.Itoa(nextOffset)
	}

	return page, nil
}

// Normalize maps one Browse API item summary to a canonical listing
func (a *EbayAdapter) Normalize(raw json.RawMessage) (*marketplace.Listing, error) {
	var item ebayItemSummary
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, &marketplace.NormalizationError{
			Platform: marketplace.PlatformEbay,
			Reason:   fmt.Errorf("invalid item summary: %w", err),
			RawItem:  raw,
		}
	}
	if item.ItemID == "" {
		return nil, &marketplace.NormalizationError{
			Platform: marketplace.PlatformEbay,
			Reason:   marketplace.ErrListingInvalidID,
			RawItem:  raw,
		}
	}
	if item.Title == "" {
		return nil, &marketplace.NormalizationError{
			Platform: marketplace.PlatformEbay,
			Reason:   marketplace.ErrListingInvalidTitle,
			RawItem:  raw,
		}
	}

	listing := &marketplace.Listing{
		Platform:   marketplace.PlatformEbay,
		ExternalID: item.ItemID,
		URL:        item.ItemWebURL,
		Title:      item.Title,
		Condition:  mapConditionText(item.Condition),
		Currency:   "USD",
		RawData:    string(raw),
		ListedAt:   time.Now(),
	}

	if listing.URL == "" {
		listing.URL = "https://www.ebay.com/itm/" + item.ItemID
	}

	if item.Price == nil || item.Price.Value == "" {
		return nil, &marketplace.NormalizationError{
			Platform: marketplace.PlatformEbay,
			Reason:   marketplace.ErrListingInvalidPrice,
			RawItem:  raw,
		}
	}
	listing.Price = ParseDecimal(item.Price.Value)
	if !listing.Price.IsPositive() {
		return nil, &marketplace.NormalizationError{
			Platform: marketplace.PlatformEbay,
			Reason:   marketplace.ErrListingInvalidPrice,
			RawItem:  raw,
		}
	}
	if item.Price.Currency != "" {
		listing.Currency = item.Price.Currency
	}

	// Summaries carry no description; derive denim attributes from the title
	listing.Brand = extractBrand(item.Title)
	listing.WaistSize, listing.InseamLength = extractMeasurements(item.Title)
	if listing.WaistSize != nil && listing.InseamLength != nil {
		listing.SizeLabel = fmt.Sprintf("%dx%d", *listing.WaistSize, *listing.InseamLength)
	}
	listing.Era = extractEra(item.Title)
	listing.Wash = extractWash(item.Title)

	if item.Image != nil && item.Image.ImageURL != "" {
		listing.ThumbnailURL = item.Image.ImageURL
		listing.ImageURLs = append(listing.ImageURLs, item.Image.ImageURL)
	}
	for _, img := range item.AdditionalImages {
		if img.ImageURL != "" && img.ImageURL != listing.ThumbnailURL {
			listing.ImageURLs = append(listing.ImageURLs, img.ImageURL)
		}
	}

	if item.Seller != nil {
		listing.SellerUsername = item.Seller.Username
		if item.Seller.FeedbackPercentage != "" {
			if pct, err := strconv.ParseFloat(item.Seller.FeedbackPercentage, 64); err == nil {
				rating := pct / 100.0
				listing.SellerRating = &rating
			}
		}
	}

	if item.ItemLocation != nil {
		listing.SellerLocation = item.ItemLocation.Country
	}

	for _, opt := range item.ShippingOptions {
		if opt.ShippingCost != nil {
			listing.ShippingCost = ParseDecimal(opt.ShippingCost.Value)
			break
		}
	}

	if item.ItemCreationDate != "" {
		if t, err := time.Parse(time.RFC3339, item.ItemCreationDate); err == nil {
			listing.ListedAt = t
		}
	}

	return listing, nil
}

// getAccessToken returns a cached application token, fetching a new one via
// the client credentials grant when the cache is empty or near expiry
func (a *EbayAdapter) getAccessToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && time.Now().Before(a.tokenExpiresAt) {
		return a.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", ebayBrowseScope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("ebay: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Basic "+a.config.BasicAuth())

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", marketplace.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("ebay: failed to read token response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", fmt.Errorf("%w: token request rejected with HTTP %d", marketplace.ErrPlatformAuthFailed, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: token request failed with HTTP %d", marketplace.ErrPlatformRequestFailed, resp.StatusCode)
	}

	var token ebayTokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return "", fmt.Errorf("%w: failed to parse token response: %v", marketplace.ErrPlatformInvalidResponse, err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", marketplace.ErrPlatformAuthFailed)
	}

	a.token = token.AccessToken
	a.tokenExpiresAt = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - tokenExpiryMargin)

	return a.token, nil
}

// doRequest performs an authenticated request and maps vendor error
// statuses to domain errors
func (a *EbayAdapter) doRequest(req *http.Request) ([]byte, error) {
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", marketplace.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("ebay: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		// Force a fresh token on the next call
		a.mu.Lock()
		a.token = ""
		a.mu.Unlock()
		return nil, fmt.Errorf("%w: HTTP %d", marketplace.ErrPlatformAuthFailed, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &marketplace.RateLimitedError{
			Platform:   marketplace.PlatformEbay,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: HTTP %d", marketplace.ErrPlatformUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: HTTP %d: %s", marketplace.ErrPlatformRequestFailed, resp.StatusCode, firstEbayErrorMessage(body))
	}

	return body, nil
}

// firstEbayErrorMessage extracts the first error message from an eBay error
// envelope, or empty string
func firstEbayErrorMessage(body []byte) string {
	var envelope ebayErrorResponse
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Errors) == 0 {
		return ""
	}
	return envelope.Errors[0].Message
}

// parseOffsetCursor parses a numeric offset cursor; empty means zero
func parseOffsetCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	offset, err := strconv.Atoi(cursor)
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("%w: invalid cursor %q", marketplace.ErrPlatformRequestFailed, cursor)
	}
	return offset, nil
}

// parseRetryAfter parses a Retry-After header value in seconds
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// Ensure EbayAdapter implements the Adapter interface
var _ marketplace.Adapter = (*EbayAdapter)(nil)
