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

// redditMaxPageSize is the search API per-request post cap
const redditMaxPageSize = 100

// redditDescriptionLimit caps the description taken from a post body
const redditDescriptionLimit = 500

// RedditAdapter implements the marketplace Adapter interface for Reddit.
// It searches the configured denim subreddits in sequence via the
// application-only OAuth grant, caching the token until shortly before
// expiry.
type RedditAdapter struct {
	config     *RedditConfig
	httpClient *http.Client

	mu             sync.Mutex // Protects the cached token
	token          string
	tokenExpiresAt time.Time
}

// NewRedditAdapter creates a new Reddit adapter with the given configuration
func NewRedditAdapter(config *RedditConfig) (*RedditAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &RedditAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// Platform returns the platform this adapter handles
func (a *RedditAdapter) Platform() marketplace.Platform {
	return marketplace.PlatformReddit
}

// Fetch retrieves one page of posts. The cursor is "index|after": the
// position in the configured subreddit list plus Reddit's own pagination
// token within that subreddit. Subreddits are walked in order; when one is
// exhausted the cursor advances to the next.
func (a *RedditAdapter) Fetch(ctx context.Context, query marketplace.FetchQuery) (*marketplace.FetchPage, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	subIndex, after, err := a.parseCursor(query.Cursor)
	if err != nil {
		return nil, err
	}

	token, err := a.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	limit := query.Limit
	if limit > redditMaxPageSize {
		limit = redditMaxPageSize
	}

	subreddit := a.config.Subreddits[subIndex]
	params := url.Values{}
	params.Set("q", query.Keywords)
	params.Set("restrict_sr", "1")
	params.Set("sort", "new")
	params.Set("t", "week")
	params.Set("limit", strconv.Itoa(limit))
	if after != "" {
		params.Set("after", after)
	}

	endpoint := a.config.BaseURL + "/r/" + url.PathEscape(subreddit) + "/search.json?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("reddit: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", a.config.UserAgent)

	body, err := a.doRequest(req)
	if err != nil {
		return nil, err
	}

	var listing redditListingResponse
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("%w: failed to parse search response: %v", marketplace.ErrPlatformInvalidResponse, err)
	}

	page := &marketplace.FetchPage{
		RawItems: make([]json.RawMessage, 0, len(listing.Data.Children)),
	}
	for _, raw := range listing.Data.Children {
		var probe struct {
			Kind string `json:"kind"`
			Data struct {
				ID string `json:"id"`
			} `json:"data"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil || probe.Kind != "t3" || probe.Data.ID == "" {
			page.Skipped++
			continue
		}
		page.RawItems = append(page.RawItems, raw)
	}

	switch {
	case listing.Data.After != "":
		page.NextCursor = strconv.Itoa(subIndex) + "|" + listing.Data.After
	case subIndex+1 < len(a.config.Subreddits):
		page.NextCursor = strconv.Itoa(subIndex+1) + "|"
	}

	return page, nil
}

// Normalize maps one t3 submission to a canonical listing. Prices, brands
// and measurements are extracted from the post text since Reddit has no
// structured listing fields.
func (a *RedditAdapter) Normalize(raw json.RawMessage) (*marketplace.Listing, error) {
	var thing redditThing
	if err := json.Unmarshal(raw, &thing); err != nil {
		return nil, &marketplace.NormalizationError{
			Platform: marketplace.PlatformReddit,
			Reason:   fmt.Errorf("invalid thing wrapper: %w", err),
			RawItem:  raw,
		}
	}
	if thing.Kind != "t3" {
		return nil, &marketplace.NormalizationError{
			Platform: marketplace.PlatformReddit,
			Reason:   fmt.Errorf("unsupported kind %q", thing.Kind),
			RawItem:  raw,
		}
	}

	var post redditPost
	if err := json.Unmarshal(thing.Data, &post); err != nil {
		return nil, &marketplace.NormalizationError{
			Platform: marketplace.PlatformReddit,
			Reason:   fmt.Errorf("invalid post data: %w", err),
			RawItem:  raw,
		}
	}
	if post.ID == "" {
		return nil, &marketplace.NormalizationError{
			Platform: marketplace.PlatformReddit,
			Reason:   marketplace.ErrListingInvalidID,
			RawItem:  raw,
		}
	}
	if post.Title == "" {
		return nil, &marketplace.NormalizationError{
			Platform: marketplace.PlatformReddit,
			Reason:   marketplace.ErrListingInvalidTitle,
			RawItem:  raw,
		}
	}

	listing := &marketplace.Listing{
		Platform:   marketplace.PlatformReddit,
		ExternalID: post.ID,
		URL:        "https://reddit.com" + post.Permalink,
		Title:      post.Title,
		Currency:   "USD",
		RawData:    string(raw),
		ListedAt:   time.Now(),
	}

	if post.Selftext != "" {
		listing.Description = truncate(post.Selftext, redditDescriptionLimit)
	}

	text := post.Title + " " + post.Selftext
	price := extractPrice(text)
	if price == nil || !price.IsPositive() {
		return nil, &marketplace.NormalizationError{
			Platform: marketplace.PlatformReddit,
			Reason:   marketplace.ErrListingInvalidPrice,
			RawItem:  raw,
		}
	}
	listing.Price = *price
	listing.Brand = extractBrand(text)
	listing.WaistSize, listing.InseamLength = extractMeasurements(text)
	if listing.WaistSize != nil && listing.InseamLength != nil {
		listing.SizeLabel = fmt.Sprintf("%dx%d", *listing.WaistSize, *listing.InseamLength)
	}
	listing.Era = extractEra(text)
	listing.Wash = extractWash(text)
	listing.Condition = mapConditionText(text)

	listing.SellerUsername = post.Author
	if listing.SellerUsername == "" {
		listing.SellerUsername = "[deleted]"
	}

	if isImageURL(post.URL) {
		listing.ImageURLs = append(listing.ImageURLs, post.URL)
		listing.ThumbnailURL = post.URL
	} else if post.Preview != nil && len(post.Preview.Images) > 0 {
		source := strings.ReplaceAll(post.Preview.Images[0].Source.URL, "&amp;", "&")
		if source != "" {
			listing.ImageURLs = append(listing.ImageURLs, source)
			if strings.HasPrefix(post.Thumbnail, "http") {
				listing.ThumbnailURL = post.Thumbnail
			} else {
				listing.ThumbnailURL = source
			}
		}
	}

	if post.CreatedUTC > 0 {
		listing.ListedAt = time.Unix(int64(post.CreatedUTC), 0).UTC()
	}

	return listing, nil
}

// getAccessToken returns a cached application-only token, fetching a new
// one when the cache is empty or near expiry
func (a *RedditAdapter) getAccessToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && time.Now().Before(a.tokenExpiresAt) {
		return a.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("reddit: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Basic "+a.config.BasicAuth())
	req.Header.Set("User-Agent", a.config.UserAgent)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", marketplace.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("reddit: failed to read token response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", fmt.Errorf("%w: token request rejected with HTTP %d", marketplace.ErrPlatformAuthFailed, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: token request failed with HTTP %d", marketplace.ErrPlatformRequestFailed, resp.StatusCode)
	}

	var token redditTokenResponse
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
func (a *RedditAdapter) doRequest(req *http.Request) ([]byte, error) {
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", marketplace.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reddit: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		a.mu.Lock()
		a.token = ""
		a.mu.Unlock()
		return nil, fmt.Errorf("%w: HTTP %d", marketplace.ErrPlatformAuthFailed, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &marketplace.RateLimitedError{
			Platform:   marketplace.PlatformReddit,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: HTTP %d", marketplace.ErrPlatformUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: HTTP %d", marketplace.ErrPlatformRequestFailed, resp.StatusCode)
	}

	return body, nil
}

// parseCursor splits an "index|after" cursor into its parts
func (a *RedditAdapter) parseCursor(cursor string) (subIndex int, after string, err error) {
	if cursor == "" {
		return 0, "", nil
	}
	parts := strings.SplitN(cursor, "|", 2)
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("%w: invalid cursor %q", marketplace.ErrPlatformRequestFailed, cursor)
	}
	subIndex, err = strconv.Atoi(parts[0])
	if err != nil || subIndex < 0 || subIndex >= len(a.config.Subreddits) {
		return 0, "", fmt.Errorf("%w: invalid cursor %q", marketplace.ErrPlatformRequestFailed, cursor)
	}
	return subIndex, parts[1], nil
}

// isImageURL reports whether a URL points directly at an image file
func isImageURL(u string) bool {
	lower := strings.ToLower(u)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// truncate cuts a string to at most n bytes on a rune boundary
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// Ensure RedditAdapter implements the Adapter interface
var _ marketplace.Adapter = (*RedditAdapter)(nil)
