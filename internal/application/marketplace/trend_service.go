package marketplace

import (
	"context"
	"time"

	"github.com/fadedindigo/backend/internal/domain/marketplace"
)

const (
	defaultTrendDays = 7
	maxTrendDays     = 90
	topBrandCount    = 5
)

// TrendService serves the market trend read side
type TrendService struct {
	trends marketplace.TrendRepository
}

// NewTrendService creates a new TrendService
func NewTrendService(trends marketplace.TrendRepository) *TrendService {
	return &TrendService{trends: trends}
}

// Summary aggregates the market over the lookback window. Days outside
// 1..90 fall back to the 7-day default.
func (s *TrendService) Summary(ctx context.Context, days int) (*TrendSummaryResponse, error) {
	if days < 1 || days > maxTrendDays {
		days = defaultTrendDays
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	summary, err := s.trends.Summarize(ctx, since, topBrandCount)
	if err != nil {
		return nil, err
	}
	return ToTrendSummaryResponse(summary, days), nil
}
