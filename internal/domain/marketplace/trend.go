package marketplace

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// BrandCount is a brand's listing volume within a summary window
type BrandCount struct {
	Brand string
	Count int64
}

// TrendSummary is the read-side market aggregation over a lookback window.
// Price statistics only consider listings with a positive price; listings
// parsed without one (common for Reddit posts) count toward volume only.
type TrendSummary struct {
	PeriodStart time.Time
	PeriodEnd   time.Time

	TotalListings int64
	AvgPrice      decimal.Decimal
	MinPrice      decimal.Decimal
	MaxPrice      decimal.Decimal

	// PlatformCounts is listing volume per source marketplace
	PlatformCounts map[Platform]int64
	// TopBrands is the highest-volume brands, descending
	TopBrands []BrandCount
}

// TrendRepository aggregates listings for the trend read side
type TrendRepository interface {
	// Summarize aggregates listings created since the cutoff
	Summarize(ctx context.Context, since time.Time, topBrands int) (*TrendSummary, error)
}
