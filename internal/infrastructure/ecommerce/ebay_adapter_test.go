package ecommerce

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fadedindigo/backend/internal/domain/marketplace"
)

// ---------------------------------------------------------------------------
// Config Tests
// ---------------------------------------------------------------------------

func TestEbayConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *EbayConfig
		wantErr error
	}{
		{
			name: "valid config",
			config: &EbayConfig{
				ClientID:     "test_client_id",
				ClientSecret: "test_client_secret",
			},
			wantErr: nil,
		},
		{
			name: "missing client ID",
			config: &EbayConfig{
				ClientSecret: "test_client_secret",
			},
			wantErr: ErrEbayConfigMissingClientID,
		},
		{
			name: "missing client secret",
			config: &EbayConfig{
				ClientID: "test_client_id",
			},
			wantErr: ErrEbayConfigMissingClientSecret,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				// Check defaults are set
				assert.NotEmpty(t, tt.config.BaseURL)
				assert.NotEmpty(t, tt.config.AuthURL)
				assert.True(t, tt.config.Timeout > 0)
			}
		})
	}
}

func TestNewEbayConfig(t *testing.T) {
	config := NewEbayConfig("id", "secret")
	assert.Equal(t, "id", config.ClientID)
	assert.Equal(t, "secret", config.ClientSecret)
	assert.Equal(t, EbayProductionAPIURL, config.BaseURL)
	assert.Equal(t, EbayProductionAPIURL+ebayTokenPath, config.AuthURL)
	assert.False(t, config.IsSandbox)
}

func TestNewSandboxEbayConfig(t *testing.T) {
	config := NewSandboxEbayConfig("id", "secret")
	assert.Equal(t, EbaySandboxAPIURL, config.BaseURL)
	assert.True(t, config.IsSandbox)
}

// ---------------------------------------------------------------------------
// Adapter Tests
// ---------------------------------------------------------------------------

func TestNewEbayAdapter(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		adapter, err := NewEbayAdapter(NewEbayConfig("id", "secret"))
		require.NoError(t, err)
		assert.NotNil(t, adapter)
		assert.Equal(t, marketplace.PlatformEbay, adapter.Platform())
	})

	t.Run("invalid config", func(t *testing.T) {
		adapter, err := NewEbayAdapter(&EbayConfig{})
		assert.Error(t, err)
		assert.Nil(t, adapter)
	})
}

// newEbayTestAdapter serves the token endpoint plus the given search
// handler from one test server and points an adapter at it
func newEbayTestAdapter(t *testing.T, tokenCalls *int32, search http.HandlerFunc) *EbayAdapter {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc(ebayTokenPath, func(w http.ResponseWriter, r *http.Request) {
		if tokenCalls != nil {
			atomic.AddInt32(tokenCalls, 1)
		}
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NotEmpty(t, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(ebayTokenResponse{
			AccessToken: "test_token",
			ExpiresIn:   7200,
			TokenType:   "Application Access Token",
		})
	})
	mux.HandleFunc("/buy/browse/v1/item_summary/search", search)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	config := &EbayConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		BaseURL:      server.URL,
		AuthURL:      server.URL + ebayTokenPath,
		Timeout:      5 * time.Second,
	}
	adapter, err := NewEbayAdapter(config)
	require.NoError(t, err)
	return adapter
}

func TestEbayAdapter_Fetch(t *testing.T) {
	t.Run("successful fetch with pagination", func(t *testing.T) {
		adapter := newEbayTestAdapter(t, nil, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer test_token", r.Header.Get("Authorization"))
			assert.Equal(t, "vintage jeans", r.URL.Query().Get("q"))
			assert.Equal(t, "50", r.URL.Query().Get("limit"))
			assert.Equal(t, "0", r.URL.Query().Get("offset"))
			json.NewEncoder(w).Encode(map[string]any{
				"total":  120,
				"offset": 0,
				"limit":  50,
				"next":   "https://api.ebay.com/buy/browse/v1/item_summary/search?offset=2",
				"itemSummaries": []map[string]any{
					{"itemId": "v1|111|0", "title": "Vintage Levi's 501"},
					{"itemId": "v1|222|0", "title": "Wrangler cowboy cut"},
				},
			})
		})

		page, err := adapter.Fetch(context.Background(), marketplace.FetchQuery{
			Keywords: "vintage jeans",
			Limit:    50,
		})
		require.NoError(t, err)
		assert.Len(t, page.RawItems, 2)
		assert.Equal(t, 0, page.Skipped)
		assert.Equal(t, "2", page.NextCursor)
	})

	t.Run("cursor resumes at offset", func(t *testing.T) {
		adapter := newEbayTestAdapter(t, nil, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "100", r.URL.Query().Get("offset"))
			json.NewEncoder(w).Encode(map[string]any{
				"total":  101,
				"offset": 100,
				"itemSummaries": []map[string]any{
					{"itemId": "v1|333|0", "title": "Lee Riders"},
				},
			})
		})

		page, err := adapter.Fetch(context.Background(), marketplace.FetchQuery{
			Keywords: "vintage jeans",
			Limit:    100,
			Cursor:   "100",
		})
		require.NoError(t, err)
		assert.Len(t, page.RawItems, 1)
		assert.Empty(t, page.NextCursor) // Last page
	})

	t.Run("malformed items are skipped not fatal", func(t *testing.T) {
		adapter := newEbayTestAdapter(t, nil, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{
				"total": 3,
				"offset": 0,
				"itemSummaries": [
					{"itemId": "v1|111|0", "title": "Good item"},
					{"title": "No item ID"},
					"not an object"
				]
			}`))
		})

		page, err := adapter.Fetch(context.Background(), marketplace.FetchQuery{Keywords: "jeans", Limit: 10})
		require.NoError(t, err)
		assert.Len(t, page.RawItems, 1)
		assert.Equal(t, 2, page.Skipped)
	})

	t.Run("token is cached across fetches", func(t *testing.T) {
		var tokenCalls int32
		adapter := newEbayTestAdapter(t, &tokenCalls, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"total": 0})
		})

		for i := 0; i < 3; i++ {
			_, err := adapter.Fetch(context.Background(), marketplace.FetchQuery{Keywords: "jeans", Limit: 10})
			require.NoError(t, err)
		}
		assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls))
	})

	t.Run("auth failure", func(t *testing.T) {
		adapter := newEbayTestAdapter(t, nil, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		_, err := adapter.Fetch(context.Background(), marketplace.FetchQuery{Keywords: "jeans", Limit: 10})
		assert.ErrorIs(t, err, marketplace.ErrPlatformAuthFailed)
	})

	t.Run("rate limited with retry-after", func(t *testing.T) {
		adapter := newEbayTestAdapter(t, nil, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "120")
			w.WriteHeader(http.StatusTooManyRequests)
		})

		_, err := adapter.Fetch(context.Background(), marketplace.FetchQuery{Keywords: "jeans", Limit: 10})
		var rateErr *marketplace.RateLimitedError
		require.ErrorAs(t, err, &rateErr)
		assert.Equal(t, marketplace.PlatformEbay, rateErr.Platform)
		assert.Equal(t, 2*time.Minute, rateErr.RetryAfter)
	})

	t.Run("server error maps to unavailable", func(t *testing.T) {
		adapter := newEbayTestAdapter(t, nil, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		_, err := adapter.Fetch(context.Background(), marketplace.FetchQuery{Keywords: "jeans", Limit: 10})
		assert.ErrorIs(t, err, marketplace.ErrPlatformUnavailable)
	})

	t.Run("invalid cursor", func(t *testing.T) {
		adapter := newEbayTestAdapter(t, nil, func(w http.ResponseWriter, r *http.Request) {})

		_, err := adapter.Fetch(context.Background(), marketplace.FetchQuery{Keywords: "jeans", Limit: 10, Cursor: "abc"})
		assert.ErrorIs(t, err, marketplace.ErrPlatformRequestFailed)
	})
}

// ---------------------------------------------------------------------------
// Normalize Tests
// ---------------------------------------------------------------------------

func TestEbayAdapter_Normalize(t *testing.T) {
	adapter, err := NewEbayAdapter(NewEbayConfig("id", "secret"))
	require.NoError(t, err)

	t.Run("full item", func(t *testing.T) {
		raw := json.RawMessage(`{
			"itemId": "v1|123456|0",
			"title": "Vintage Levi's 501 jeans 32x34 stone wash 1980s",
			"itemWebUrl": "https://www.ebay.com/itm/123456",
			"itemCreationDate": "2026-08-01T12:00:00.000Z",
			"condition": "Pre-owned",
			"price": {"value": "89.99", "currency": "USD"},
			"image": {"imageUrl": "https://i.ebayimg.com/1.jpg"},
			"additionalImages": [{"imageUrl": "https://i.ebayimg.com/2.jpg"}],
			"seller": {"username": "denim_dealer", "feedbackPercentage": "99.5"},
			"itemLocation": {"country": "US"},
			"shippingOptions": [{"shippingCost": {"value": "12.50", "currency": "USD"}}]
		}`)

		listing, err := adapter.Normalize(raw)
		require.NoError(t, err)

		assert.Equal(t, marketplace.PlatformEbay, listing.Platform)
		assert.Equal(t, "v1|123456|0", listing.ExternalID)
		assert.Equal(t, "https://www.ebay.com/itm/123456", listing.URL)
		assert.True(t, listing.Price.Equal(decimal.NewFromFloat(89.99)))
		assert.Equal(t, "USD", listing.Currency)
		assert.True(t, listing.ShippingCost.Equal(decimal.NewFromFloat(12.50)))
		assert.Equal(t, marketplace.ConditionGood, listing.Condition)
		assert.Equal(t, "Levi's", listing.Brand)
		require.NotNil(t, listing.WaistSize)
		require.NotNil(t, listing.InseamLength)
		assert.Equal(t, 32, *listing.WaistSize)
		assert.Equal(t, 34, *listing.InseamLength)
		assert.Equal(t, "32x34", listing.SizeLabel)
		assert.Equal(t, "1980s", listing.Era)
		assert.Equal(t, "stone wash", listing.Wash)
		assert.Equal(t, []string{"https://i.ebayimg.com/1.jpg", "https://i.ebayimg.com/2.jpg"}, listing.ImageURLs)
		assert.Equal(t, "https://i.ebayimg.com/1.jpg", listing.ThumbnailURL)
		assert.Equal(t, "denim_dealer", listing.SellerUsername)
		require.NotNil(t, listing.SellerRating)
		assert.InDelta(t, 0.995, *listing.SellerRating, 0.0001)
		assert.Equal(t, "US", listing.SellerLocation)
		assert.Equal(t, 2026, listing.ListedAt.Year())
		assert.JSONEq(t, string(raw), listing.RawData)
	})

	t.Run("minimal item builds URL and defaults", func(t *testing.T) {
		raw := json.RawMessage(`{"itemId": "v1|789|0", "title": "Old jeans", "price": {"value": "15.00"}}`)

		listing, err := adapter.Normalize(raw)
		require.NoError(t, err)
		assert.Equal(t, "https://www.ebay.com/itm/v1|789|0", listing.URL)
		assert.True(t, listing.Price.Equal(decimal.NewFromInt(15)))
		assert.Equal(t, "USD", listing.Currency)
		assert.Equal(t, marketplace.ConditionUnknown, listing.Condition)
		assert.False(t, listing.ListedAt.IsZero())
	})

	t.Run("missing price", func(t *testing.T) {
		_, err := adapter.Normalize(json.RawMessage(`{"itemId": "v1|790|0", "title": "Vintage Levi's 501"}`))
		var normErr *marketplace.NormalizationError
		require.ErrorAs(t, err, &normErr)
		assert.True(t, errors.Is(err, marketplace.ErrListingInvalidPrice))
	})

	t.Run("zero price", func(t *testing.T) {
		_, err := adapter.Normalize(json.RawMessage(`{"itemId": "v1|791|0", "title": "Vintage Levi's 501", "price": {"value": "0"}}`))
		assert.True(t, errors.Is(err, marketplace.ErrListingInvalidPrice))
	})

	t.Run("missing item ID", func(t *testing.T) {
		_, err := adapter.Normalize(json.RawMessage(`{"title": "No ID"}`))
		var normErr *marketplace.NormalizationError
		require.ErrorAs(t, err, &normErr)
		assert.Equal(t, marketplace.PlatformEbay, normErr.Platform)
		assert.True(t, errors.Is(err, marketplace.ErrListingInvalidID))
	})

	t.Run("missing title", func(t *testing.T) {
		_, err := adapter.Normalize(json.RawMessage(`{"itemId": "v1|1|0"}`))
		var normErr *marketplace.NormalizationError
		require.ErrorAs(t, err, &normErr)
		assert.True(t, errors.Is(err, marketplace.ErrListingInvalidTitle))
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := adapter.Normalize(json.RawMessage(`not json`))
		var normErr *marketplace.NormalizationError
		assert.ErrorAs(t, err, &normErr)
	})
}
