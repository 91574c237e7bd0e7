package persistence

import (
	"context"
	"time"

	"github.com/fadedindigo/backend/internal/domain/marketplace"
	"github.com/fadedindigo/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormTrendRepository aggregates listings for the trend read side
type GormTrendRepository struct {
	db *gorm.DB
}

// NewGormTrendRepository creates a new GormTrendRepository
func NewGormTrendRepository(db *gorm.DB) *GormTrendRepository {
	return &GormTrendRepository{db: db}
}

// priceStats receives the price aggregate row
type priceStats struct {
	AvgPrice decimal.Decimal
	MinPrice decimal.Decimal
	MaxPrice decimal.Decimal
}

// platformCount receives one platform group row
type platformCount struct {
	Platform string
	Count    int64
}

// brandCount receives one brand group row
type brandCount struct {
	Brand string
	Count int64
}

// Summarize aggregates listings created since the cutoff. Price statistics
// skip zero-priced rows so unpriced Reddit posts never drag the averages.
func (r *GormTrendRepository) Summarize(ctx context.Context, since time.Time, topBrands int) (*marketplace.TrendSummary, error) {
	if topBrands < 1 {
		topBrands = 5
	}

	summary := &marketplace.TrendSummary{
		PeriodStart:    since,
		PeriodEnd:      time.Now().UTC(),
		PlatformCounts: make(map[marketplace.Platform]int64),
	}

	base := r.db.WithContext(ctx).Model(&models.ListingModel{}).Where("created_at >= ?", since)

	if err := base.Session(&gorm.Session{}).Count(&summary.TotalListings).Error; err != nil {
		return nil, err
	}
	if summary.TotalListings == 0 {
		return summary, nil
	}

	var stats priceStats
	if err := base.Session(&gorm.Session{}).
		Select("AVG(price) AS avg_price, MIN(price) AS min_price, MAX(price) AS max_price").
		Where("price > 0").
		Scan(&stats).Error; err != nil {
		return nil, err
	}
	summary.AvgPrice = stats.AvgPrice.Round(2)
	summary.MinPrice = stats.MinPrice
	summary.MaxPrice = stats.MaxPrice

	var platforms []platformCount
	if err := base.Session(&gorm.Session{}).
		Select("platform, COUNT(*) AS count").
		Group("platform").
		Scan(&platforms).Error; err != nil {
		return nil, err
	}
	for _, p := range platforms {
		summary.PlatformCounts[marketplace.Platform(p.Platform)] = p.Count
	}

	var brands []brandCount
	if err := base.Session(&gorm.Session{}).
		Select("brand, COUNT(*) AS count").
		Where("brand <> ''").
		Group("brand").
		Order("count DESC").
		Limit(topBrands).
		Scan(&brands).Error; err != nil {
		return nil, err
	}
	summary.TopBrands = make([]marketplace.BrandCount, len(brands))
	for i, b := range brands {
		summary.TopBrands[i] = marketplace.BrandCount{Brand: b.Brand, Count: b.Count}
	}

	return summary, nil
}

// Ensure GormTrendRepository implements TrendRepository
var _ marketplace.TrendRepository = (*GormTrendRepository)(nil)
