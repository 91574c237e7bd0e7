package models

import (
	"encoding/json"
	"time"

	"github.com/fadedindigo/backend/internal/domain/marketplace"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// ListingModel
// ---------------------------------------------------------------------------

// ListingModel is the persistence model for the Listing domain entity.
// The (platform, external_id) pair is the identity key; the unique index
// backs the idempotent upsert.
type ListingModel struct {
	ID         uuid.UUID            `gorm:"type:uuid;primary_key"`
	Platform   marketplace.Platform `gorm:"type:varchar(20);not null;uniqueIndex:idx_listings_identity,priority:1;index:idx_listings_platform"`
	ExternalID string               `gorm:"type:varchar(100);not null;uniqueIndex:idx_listings_identity,priority:2"`
	URL        string               `gorm:"type:varchar(500)"`

	Title        string `gorm:"type:varchar(500);not null"`
	Description  string `gorm:"type:text"`
	Brand        string `gorm:"type:varchar(100);index"`
	SizeLabel    string `gorm:"type:varchar(50)"`
	WaistSize    *int
	InseamLength *int
	Condition    marketplace.Condition `gorm:"type:varchar(20)"`
	Wash         string                `gorm:"type:varchar(50)"`
	Era          string                `gorm:"type:varchar(20)"`

	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Currency     string          `gorm:"type:varchar(3);not null;default:'USD'"`
	ShippingCost decimal.Decimal `gorm:"type:decimal(10,2)"`

	SellerUsername string `gorm:"type:varchar(100)"`
	SellerRating   *float64
	SellerLocation string `gorm:"type:varchar(100)"`

	ImageURLsJSON string `gorm:"type:jsonb;column:image_urls"`
	ThumbnailURL  string `gorm:"type:varchar(500)"`

	RawData string `gorm:"type:jsonb;column:raw_data"`

	Status     marketplace.ListingStatus `gorm:"type:varchar(20);not null;default:'pending_approval';index"`
	AITagsJSON string                    `gorm:"type:jsonb;column:ai_tags"`
	TrendScore *float64

	ListedAt     time.Time `gorm:"index"`
	LastSyncedAt *time.Time

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ListingModel) TableName() string {
	return "listings"
}

// ToDomain converts the persistence model to a domain Listing entity.
func (m *ListingModel) ToDomain() *marketplace.Listing {
	listing := &marketplace.Listing{
		ID:             m.ID,
		Platform:       m.Platform,
		ExternalID:     m.ExternalID,
		URL:            m.URL,
		Title:          m.Title,
		Description:    m.Description,
		Brand:          m.Brand,
		SizeLabel:      m.SizeLabel,
		WaistSize:      m.WaistSize,
		InseamLength:   m.InseamLength,
		Condition:      m.Condition,
		Wash:           m.Wash,
		Era:            m.Era,
		Price:          m.Price,
		Currency:       m.Currency,
		ShippingCost:   m.ShippingCost,
		SellerUsername: m.SellerUsername,
		SellerRating:   m.SellerRating,
		SellerLocation: m.SellerLocation,
		ImageURLs:      make([]string, 0),
		ThumbnailURL:   m.ThumbnailURL,
		RawData:        m.RawData,
		Status:         m.Status,
		AITags:         make([]string, 0),
		TrendScore:     m.TrendScore,
		ListedAt:       m.ListedAt,
		LastSyncedAt:   m.LastSyncedAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}

	if m.ImageURLsJSON != "" {
		var urls []string
		if err := json.Unmarshal([]byte(m.ImageURLsJSON), &urls); err == nil {
			listing.ImageURLs = urls
		}
	}
	if m.AITagsJSON != "" {
		var tags []string
		if err := json.Unmarshal([]byte(m.AITagsJSON), &tags); err == nil {
			listing.AITags = tags
		}
	}

	return listing
}

// FromDomain populates the persistence model from a domain Listing entity.
func (m *ListingModel) FromDomain(l *marketplace.Listing) {
	m.ID = l.ID
	m.Platform = l.Platform
	m.ExternalID = l.ExternalID
	m.URL = l.URL
	m.Title = l.Title
	m.Description = l.Description
	m.Brand = l.Brand
	m.SizeLabel = l.SizeLabel
	m.WaistSize = l.WaistSize
	m.InseamLength = l.InseamLength
	m.Condition = l.Condition
	m.Wash = l.Wash
	m.Era = l.Era
	m.Price = l.Price
	m.Currency = l.Currency
	m.ShippingCost = l.ShippingCost
	m.SellerUsername = l.SellerUsername
	m.SellerRating = l.SellerRating
	m.SellerLocation = l.SellerLocation
	m.ThumbnailURL = l.ThumbnailURL
	m.RawData = l.RawData
	m.Status = l.Status
	m.TrendScore = l.TrendScore
	m.ListedAt = l.ListedAt
	m.LastSyncedAt = l.LastSyncedAt
	m.CreatedAt = l.CreatedAt
	m.UpdatedAt = l.UpdatedAt

	m.ImageURLsJSON = marshalStringSlice(l.ImageURLs)
	m.AITagsJSON = marshalStringSlice(l.AITags)
}

// ListingModelFromDomain creates a new persistence model from a domain Listing entity.
func ListingModelFromDomain(l *marketplace.Listing) *ListingModel {
	m := &ListingModel{}
	m.FromDomain(l)
	return m
}

func marshalStringSlice(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	jsonBytes, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(jsonBytes)
}

// ---------------------------------------------------------------------------
// SyncJobModel
// ---------------------------------------------------------------------------

// SyncJobModel is the persistence model for the SyncJob domain entity.
// Count columns carry the _count suffix so they never collide with SQL
// keywords or GORM's created_at convention.
type SyncJobModel struct {
	ID       uuid.UUID            `gorm:"type:uuid;primary_key"`
	TaskID   string               `gorm:"type:varchar(36);not null;uniqueIndex:idx_sync_jobs_task_id"`
	Platform marketplace.Platform `gorm:"type:varchar(20);not null;index:idx_sync_jobs_platform_status,priority:1"`
	JobType  marketplace.JobType  `gorm:"type:varchar(20);not null"`
	Status   marketplace.JobStatus `gorm:"type:varchar(20);not null;index:idx_sync_jobs_platform_status,priority:2"`

	Keywords  string `gorm:"type:varchar(255)"`
	ItemLimit int    `gorm:"column:item_limit;not null;default:0"`

	FetchedCount int `gorm:"column:fetched_count;not null;default:0"`
	CreatedCount int `gorm:"column:created_count;not null;default:0"`
	UpdatedCount int `gorm:"column:updated_count;not null;default:0"`
	FailedCount  int `gorm:"column:failed_count;not null;default:0"`

	RetryCount      int    `gorm:"not null;default:0"`
	ErrorDetailJSON string `gorm:"type:jsonb;column:error_detail"`

	StartedAt   *time.Time
	CompletedAt *time.Time `gorm:"index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncJobModel) TableName() string {
	return "sync_jobs"
}

// ToDomain converts the persistence model to a domain SyncJob entity.
func (m *SyncJobModel) ToDomain() *marketplace.SyncJob {
	job := &marketplace.SyncJob{
		ID:          m.ID,
		TaskID:      m.TaskID,
		Platform:    m.Platform,
		JobType:     m.JobType,
		Status:      m.Status,
		Keywords:    m.Keywords,
		Limit:       m.ItemLimit,
		Fetched:     m.FetchedCount,
		Created:     m.CreatedCount,
		Updated:     m.UpdatedCount,
		Failed:      m.FailedCount,
		RetryCount:  m.RetryCount,
		StartedAt:   m.StartedAt,
		CompletedAt: m.CompletedAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}

	if m.ErrorDetailJSON != "" {
		var detail marketplace.SyncError
		if err := json.Unmarshal([]byte(m.ErrorDetailJSON), &detail); err == nil {
			job.ErrorDetail = &detail
		}
	}

	return job
}

// FromDomain populates the persistence model from a domain SyncJob entity.
func (m *SyncJobModel) FromDomain(j *marketplace.SyncJob) {
	m.ID = j.ID
	m.TaskID = j.TaskID
	m.Platform = j.Platform
	m.JobType = j.JobType
	m.Status = j.Status
	m.Keywords = j.Keywords
	m.ItemLimit = j.Limit
	m.FetchedCount = j.Fetched
	m.CreatedCount = j.Created
	m.UpdatedCount = j.Updated
	m.FailedCount = j.Failed
	m.RetryCount = j.RetryCount
	m.StartedAt = j.StartedAt
	m.CompletedAt = j.CompletedAt
	m.CreatedAt = j.CreatedAt
	m.UpdatedAt = j.UpdatedAt

	m.ErrorDetailJSON = ""
	if j.ErrorDetail != nil {
		if jsonBytes, err := json.Marshal(j.ErrorDetail); err == nil {
			m.ErrorDetailJSON = string(jsonBytes)
		}
	}
}

// SyncJobModelFromDomain creates a new persistence model from a domain SyncJob entity.
func SyncJobModelFromDomain(j *marketplace.SyncJob) *SyncJobModel {
	m := &SyncJobModel{}
	m.FromDomain(j)
	return m
}

// ---------------------------------------------------------------------------
// PlatformSyncLeaseModel
// ---------------------------------------------------------------------------

// PlatformSyncLeaseModel backs the one-in-flight-per-platform rule. One row
// per platform; acquisition is an atomic conditional write against the
// primary key, so the rule holds across worker restarts.
type PlatformSyncLeaseModel struct {
	Platform   marketplace.Platform `gorm:"type:varchar(20);primary_key"`
	Holder     string               `gorm:"type:varchar(100);not null"`
	AcquiredAt time.Time            `gorm:"not null"`
	ExpiresAt  time.Time            `gorm:"not null"`
	UpdatedAt  time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PlatformSyncLeaseModel) TableName() string {
	return "platform_sync_leases"
}
