package marketplace

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fadedindigo/backend/internal/domain/marketplace"
)

// ---------------------------------------------------------------------------
// Listing DTOs
// ---------------------------------------------------------------------------

// ListingListQuery is the query surface for listing the catalog
type ListingListQuery struct {
	Platform  string `form:"platform"`
	Brand     string `form:"brand"`
	MinPrice  string `form:"min_price"`
	MaxPrice  string `form:"max_price"`
	Condition string `form:"condition"`
	Size      string `form:"size"`
	Status    string `form:"status"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
}

// ListingResponse is the API shape of a canonical listing
type ListingResponse struct {
	ID         uuid.UUID `json:"id"`
	Platform   string    `json:"platform"`
	ExternalID string    `json:"external_id"`
	URL        string    `json:"url"`

	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Brand        string `json:"brand,omitempty"`
	SizeLabel    string `json:"size_label,omitempty"`
	WaistSize    *int   `json:"waist_size,omitempty"`
	InseamLength *int   `json:"inseam_length,omitempty"`
	Condition    string `json:"condition"`
	Wash         string `json:"wash,omitempty"`
	Era          string `json:"era,omitempty"`

	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`

	SellerUsername string   `json:"seller_username,omitempty"`
	SellerRating   *float64 `json:"seller_rating,omitempty"`
	SellerLocation string   `json:"seller_location,omitempty"`

	ImageURLs    []string `json:"image_urls"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`

	Status     string   `json:"status"`
	AITags     []string `json:"ai_tags"`
	TrendScore *float64 `json:"trend_score,omitempty"`

	ListedAt     time.Time  `json:"listed_at"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ToListingResponse converts a domain listing to its API shape
func ToListingResponse(l *marketplace.Listing) *ListingResponse {
	imageURLs := l.ImageURLs
	if imageURLs == nil {
		imageURLs = []string{}
	}
	aiTags := l.AITags
	if aiTags == nil {
		aiTags = []string{}
	}
	return &ListingResponse{
		ID:             l.ID,
		Platform:       l.Platform.String(),
		ExternalID:     l.ExternalID,
		URL:            l.URL,
		Title:          l.Title,
		Description:    l.Description,
		Brand:          l.Brand,
		SizeLabel:      l.SizeLabel,
		WaistSize:      l.WaistSize,
		InseamLength:   l.InseamLength,
		Condition:      l.Condition.String(),
		Wash:           l.Wash,
		Era:            l.Era,
		Price:          l.Price,
		Currency:       l.Currency,
		ShippingCost:   l.ShippingCost,
		SellerUsername: l.SellerUsername,
		SellerRating:   l.SellerRating,
		SellerLocation: l.SellerLocation,
		ImageURLs:      imageURLs,
		ThumbnailURL:   l.ThumbnailURL,
		Status:         l.Status.String(),
		AITags:         aiTags,
		TrendScore:     l.TrendScore,
		ListedAt:       l.ListedAt,
		LastSyncedAt:   l.LastSyncedAt,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
}

// ---------------------------------------------------------------------------
// Sync job DTOs
// ---------------------------------------------------------------------------

// TriggerSyncRequest asks for a sync run. Platform accepts a single
// marketplace or "all".
type TriggerSyncRequest struct {
	Platform string `json:"platform" binding:"required"`
	JobType  string `json:"job_type"`
	Keywords string `json:"keywords"`
	Limit    int    `json:"limit"`
}

// TriggerSyncResponse reports one dispatched (or coalesced) sync
type TriggerSyncResponse struct {
	Status   string `json:"status"`
	Platform string `json:"platform"`
	TaskID   string `json:"task_id,omitempty"`
	Keywords string `json:"keywords"`
	Limit    int    `json:"limit"`
	Message  string `json:"message,omitempty"`
}

// SyncJobListQuery is the query surface for job history
type SyncJobListQuery struct {
	Platform string `form:"platform"`
	Status   string `form:"status"`
	Limit    int    `form:"limit"`
}

// SyncJobResponse is the API shape of a sync job
type SyncJobResponse struct {
	ID       uuid.UUID `json:"id"`
	TaskID   string    `json:"task_id"`
	Platform string    `json:"platform"`
	JobType  string    `json:"job_type"`
	Status   string    `json:"status"`

	Keywords string `json:"keywords"`
	Limit    int    `json:"limit"`

	Fetched int `json:"fetched"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`

	RetryCount int             `json:"retry_count"`
	Error      *SyncErrorField `json:"error,omitempty"`

	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	DurationSeconds *int64     `json:"duration_seconds,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// SyncErrorField is the API shape of a job's structured error detail
type SyncErrorField struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// ToSyncJobResponse converts a domain job to its API shape
func ToSyncJobResponse(j *marketplace.SyncJob) *SyncJobResponse {
	resp := &SyncJobResponse{
		ID:          j.ID,
		TaskID:      j.TaskID,
		Platform:    j.Platform.String(),
		JobType:     string(j.JobType),
		Status:      j.Status.String(),
		Keywords:    j.Keywords,
		Limit:       j.Limit,
		Fetched:     j.Fetched,
		Created:     j.Created,
		Updated:     j.Updated,
		Failed:      j.Failed,
		RetryCount:  j.RetryCount,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
		CreatedAt:   j.CreatedAt,
	}
	if j.ErrorDetail != nil {
		resp.Error = &SyncErrorField{
			Code:      j.ErrorDetail.Code,
			Message:   j.ErrorDetail.Message,
			Retryable: j.ErrorDetail.Retryable,
		}
	}
	if d := j.Duration(); d > 0 {
		seconds := int64(d.Seconds())
		resp.DurationSeconds = &seconds
	}
	return resp
}

// ---------------------------------------------------------------------------
// Trend DTOs
// ---------------------------------------------------------------------------

// TrendSummaryResponse is the high-level market summary
type TrendSummaryResponse struct {
	Period      string    `json:"period"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`

	TotalListings int64           `json:"total_listings"`
	AvgPrice      decimal.Decimal `json:"avg_price"`
	MinPrice      decimal.Decimal `json:"min_price"`
	MaxPrice      decimal.Decimal `json:"max_price"`

	Platforms map[string]int64     `json:"platforms"`
	TopBrands []BrandCountResponse `json:"top_brands"`
}

// BrandCountResponse is one trending brand entry
type BrandCountResponse struct {
	Brand string `json:"brand"`
	Count int64  `json:"count"`
}

// ToTrendSummaryResponse converts a domain summary to its API shape
func ToTrendSummaryResponse(s *marketplace.TrendSummary, days int) *TrendSummaryResponse {
	platforms := make(map[string]int64, len(s.PlatformCounts))
	for platform, count := range s.PlatformCounts {
		platforms[platform.String()] = count
	}
	topBrands := make([]BrandCountResponse, len(s.TopBrands))
	for i, b := range s.TopBrands {
		topBrands[i] = BrandCountResponse{Brand: b.Brand, Count: b.Count}
	}
	return &TrendSummaryResponse{
		Period:        fmt.Sprintf("Last %d days", days),
		PeriodStart:   s.PeriodStart,
		PeriodEnd:     s.PeriodEnd,
		TotalListings: s.TotalListings,
		AvgPrice:      s.AvgPrice,
		MinPrice:      s.MinPrice,
		MaxPrice:      s.MaxPrice,
		Platforms:     platforms,
		TopBrands:     topBrands,
	}
}
