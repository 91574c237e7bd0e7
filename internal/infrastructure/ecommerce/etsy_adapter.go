package ecommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fadedindigo/backend/internal/domain/marketplace"
)

// etsyMaxPageSize is the v3 API per-request listing cap
const etsyMaxPageSize = 100

// EtsyAdapter implements the marketplace Adapter interface for the Etsy v3
// API. Public listing search authenticates with the application API key
// alone, so there is no token cache.
type EtsyAdapter struct {
	config     *EtsyConfig
	httpClient *http.Client
}

// NewEtsyAdapter creates a new Etsy adapter with the given configuration
func NewEtsyAdapter(config *EtsyConfig) (*EtsyAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &EtsyAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// Platform returns the platform this adapter handles
func (a *EtsyAdapter) Platform() marketplace.Platform {
	return marketplace.PlatformEtsy
}

// Fetch retrieves one page of active listings matching the query. The
// cursor is the numeric result offset.
func (a *EtsyAdapter) Fetch(ctx context.Context, query marketplace.FetchQuery) (*marketplace.FetchPage, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	offset, err := parseOffsetCursor(query.Cursor)
	if err != nil {
		return nil, err
	}

	limit := query.Limit
	if limit > etsyMaxPageSize {
		limit = etsyMaxPageSize
	}

	params := url.Values{}
	params.Set("keywords", query.Keywords)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("sort_on", "score")
	params.Set("includes", "Images,Shop")

	endpoint := a.config.BaseURL + "/application/listings/active?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("etsy: failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", a.config.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", marketplace.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("etsy: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: HTTP %d", marketplace.ErrPlatformAuthFailed, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &marketplace.RateLimitedError{
			Platform:   marketplace.PlatformEtsy,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: HTTP %d", marketplace.ErrPlatformUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: HTTP %d: %s", marketplace.ErrPlatformRequestFailed, resp.StatusCode, etsyErrorMessage(body))
	}

	var search etsySearchResponse
	if err := json.Unmarshal(body, &search); err != nil {
		return nil, fmt.Errorf("%w: failed to parse search response: %v", marketplace.ErrPlatformInvalidResponse, err)
	}

	page := &marketplace.FetchPage{
		RawItems: make([]json.RawMessage, 0, len(search.Results)),
	}
	for _, raw := range search.Results {
		var probe struct {
			ListingID int64 `json:"listing_id"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil || probe.ListingID == 0 {
			page.Skipped++
			continue
		}
		page.RawItems = append(page.RawItems, raw)
	}

	nextOffset := offset + len(search.Results)
	if len(search.Results) > 0 && nextOffset < search.Count {
		page.NextCursor = strconv.Itoa(nextOffset)
	}

	return page, nil
}

// Normalize maps one active listing record to a canonical listing
func (a *EtsyAdapter) Normalize(raw json.RawMessage) (*marketplace.Listing, error) {
	var item etsyListing
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, &marketplace.NormalizationError{
			Platform: marketplace.PlatformEtsy,
			Reason:   fmt.Errorf("invalid listing record: %w", err),
			RawItem:  raw,
		}
	}
	if item.ListingID == 0 {
		return nil, &marketplace.NormalizationError{
			Platform: marketplace.PlatformEtsy,
			Reason:   marketplace.ErrListingInvalidID,
			RawItem:  raw,
		}
	}
	if item.Title == "" {
		return nil, &marketplace.NormalizationError{
			Platform: marketplace.PlatformEtsy,
			Reason:   marketplace.ErrListingInvalidTitle,
			RawItem:  raw,
		}
	}

	externalID := strconv.FormatInt(item.ListingID, 10)
	listing := &marketplace.Listing{
		Platform:    marketplace.PlatformEtsy,
		ExternalID:  externalID,
		URL:         item.URL,
		Title:       item.Title,
		Description: item.Description,
		Currency:    "USD",
		RawData:     string(raw),
		ListedAt:    time.Now(),
	}

	if listing.URL == "" {
		listing.URL = "https://www.etsy.com/listing/" + externalID
	}

	if item.Price == nil || item.Price.Amount <= 0 {
		return nil, &marketplace.NormalizationError{
			Platform: marketplace.PlatformEtsy,
			Reason:   marketplace.ErrListingInvalidPrice,
			RawItem:  raw,
		}
	}
	divisor := item.Price.Divisor
	if divisor <= 0 {
		divisor = 100
	}
	listing.Price = decimal.New(item.Price.Amount, 0).Div(decimal.New(divisor, 0))
	if item.Price.CurrencyCode != "" {
		listing.Currency = item.Price.CurrencyCode
	}

	text := item.Title + " " + item.Description
	listing.Brand = extractBrand(text)
	listing.WaistSize, listing.InseamLength = extractMeasurements(text)
	if listing.WaistSize != nil && listing.InseamLength != nil {
		listing.SizeLabel = fmt.Sprintf("%dx%d", *listing.WaistSize, *listing.InseamLength)
	}
	listing.Era = extractEra(text)
	listing.Wash = extractWash(text)
	listing.Condition = mapConditionText(text)

	for i, img := range item.Images {
		full := img.URLFullxfull
		if full == "" {
			full = img.URL570xN
		}
		if full == "" {
			continue
		}
		listing.ImageURLs = append(listing.ImageURLs, full)
		if i == 0 {
			if img.URL570xN != "" {
				listing.ThumbnailURL = img.URL570xN
			} else {
				listing.ThumbnailURL = full
			}
		}
	}

	if item.Shop != nil {
		listing.SellerUsername = item.Shop.ShopName
		listing.SellerLocation = item.Shop.City
	} else if item.ShopName != "" {
		listing.SellerUsername = item.ShopName
	}

	if item.CreatedTimestamp > 0 {
		listing.ListedAt = time.Unix(item.CreatedTimestamp, 0).UTC()
	}

	return listing, nil
}

// etsyErrorMessage extracts the error message from a v3 error envelope,
// or empty string
func etsyErrorMessage(body []byte) string {
	var envelope etsyErrorResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return envelope.Error
}

// Ensure EtsyAdapter implements the Adapter interface
var _ marketplace.Adapter = (*EtsyAdapter)(nil)
