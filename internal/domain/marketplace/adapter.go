package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ---------------------------------------------------------------------------
// Adapter Errors
// ---------------------------------------------------------------------------

var (
	ErrPlatformNotConfigured   = errors.New("marketplace: platform not configured")
	ErrPlatformUnavailable     = errors.New("marketplace: platform temporarily unavailable")
	ErrPlatformRequestFailed   = errors.New("marketplace: platform request failed")
	ErrPlatformInvalidResponse = errors.New("marketplace: invalid platform response")
	ErrPlatformAuthFailed      = errors.New("marketplace: platform authentication failed")
)

// RateLimitedError signals a vendor rate-limit response. The adapter never
// retries internally; the retry policy honors RetryAfter when present.
type RateLimitedError struct {
	Platform   Platform
	RetryAfter time.Duration
}

// Error implements the error interface
func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("marketplace: %s rate limited, retry after %s", e.Platform, e.RetryAfter)
	}
	return fmt.Sprintf("marketplace: %s rate limited", e.Platform)
}

// NormalizationError reports a raw vendor item that could not be mapped to
// a canonical listing. It is per-item and never retryable; the caller
// decides whether to count it as skipped or abort.
type NormalizationError struct {
	Platform Platform
	Reason   error
	RawItem  json.RawMessage
}

// Error implements the error interface
func (e *NormalizationError) Error() string {
	return fmt.Sprintf("marketplace: cannot normalize %s item: %v", e.Platform, e.Reason)
}

// Unwrap exposes the underlying reason for errors.Is checks
func (e *NormalizationError) Unwrap() error {
	return e.Reason
}

// ---------------------------------------------------------------------------
// Fetch contract
// ---------------------------------------------------------------------------

// FetchQuery is a search request against a vendor marketplace
type FetchQuery struct {
	// Keywords is the search string
	Keywords string
	// Limit is the maximum items to return across all pages
	Limit int
	// Cursor resumes a paginated fetch; empty for the first page
	Cursor string
}

// Validate applies the vendor-independent bounds
func (q *FetchQuery) Validate() error {
	if q.Keywords == "" {
		q.Keywords = "vintage jeans"
	}
	if q.Limit < 1 || q.Limit > 200 {
		q.Limit = 100
	}
	return nil
}

// FetchPage is one page of raw vendor records. RawItems are entries the
// adapter could decode structurally; items dropped at the wire level are
// counted in Skipped so a single bad record never aborts the page.
type FetchPage struct {
	// RawItems are the decoded vendor records, in vendor order
	RawItems []json.RawMessage
	// Skipped counts entries dropped because they were structurally malformed
	Skipped int
	// NextCursor is non-empty when more pages are available
	NextCursor string
}

// ---------------------------------------------------------------------------
// Adapter Port
// ---------------------------------------------------------------------------

// Adapter is the port one marketplace integration implements. Concrete
// adapters (eBay, Etsy, Reddit) live in the infrastructure layer and handle
// vendor auth transparently, caching credentials for their lifetime.
// Adapters hold no mutable sync state across calls beyond the auth cache.
type Adapter interface {
	// Platform returns the marketplace this adapter handles
	Platform() Platform

	// Fetch retrieves one page of raw vendor records for the query.
	// Rate-limit responses surface as *RateLimitedError; auth failures
	// as ErrPlatformAuthFailed. Fetch never retries internally.
	Fetch(ctx context.Context, query FetchQuery) (*FetchPage, error)

	// Normalize maps one raw vendor record to a canonical listing.
	// It is a pure function: no I/O, no side effects. Failures are
	// *NormalizationError carrying the offending raw item.
	Normalize(raw json.RawMessage) (*Listing, error)
}

// AdapterRegistry resolves adapters by platform
type AdapterRegistry interface {
	// Get returns the adapter for the platform
	Get(platform Platform) (Adapter, error)
	// All returns every registered adapter
	All() []Adapter
}
