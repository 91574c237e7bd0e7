package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fadedindigo/backend/internal/domain/marketplace"
	"github.com/fadedindigo/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// listingIdentityColumns is the conflict target for the idempotent upsert
var listingIdentityColumns = []clause.Column{
	{Name: "platform"},
	{Name: "external_id"},
}

// listingVendorColumns are the columns the sync pipeline owns. On a
// re-sync these are refreshed from the vendor payload. Everything else
// (id, status, ai_tags, trend_score, created_at) belongs to other
// subsystems and is preserved across upserts.
var listingVendorColumns = []string{
	"url",
	"title",
	"description",
	"brand",
	"size_label",
	"waist_size",
	"inseam_length",
	"condition",
	"wash",
	"era",
	"price",
	"currency",
	"shipping_cost",
	"seller_username",
	"seller_rating",
	"seller_location",
	"image_urls",
	"thumbnail_url",
	"raw_data",
	"listed_at",
	"last_synced_at",
	"updated_at",
}

// GormListingRepository implements ListingRepository using GORM
type GormListingRepository struct {
	db *gorm.DB
}

// NewGormListingRepository creates a new GormListingRepository
func NewGormListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

// WithTx returns a new repository instance bound to the given transaction
func (r *GormListingRepository) WithTx(tx *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: tx}
}

// ---------------------------------------------------------------------------
// Upsert
// ---------------------------------------------------------------------------

// Upsert inserts or refreshes the row keyed by (platform, external_id).
// The write is a single INSERT ... ON CONFLICT DO UPDATE so overlapping
// writers can never interleave field-level updates, and only the vendor
// columns are assigned on conflict.
func (r *GormListingRepository) Upsert(ctx context.Context, listing *marketplace.Listing) (marketplace.UpsertOutcome, error) {
	if err := listing.Validate(); err != nil {
		return "", err
	}

	now := time.Now().UTC()
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	listing.LastSyncedAt = &now
	listing.CreatedAt = now
	listing.UpdatedAt = now

	// RETURNING hands back the surviving row. When the conflict branch
	// fires, id and created_at keep their stored values, so the candidate
	// id no longer matching tells created apart from updated without a
	// racy existence check.
	candidateID := listing.ID
	model := models.ListingModelFromDomain(listing)
	result := r.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   listingIdentityColumns,
			DoUpdates: clause.AssignmentColumns(listingVendorColumns),
		},
		clause.Returning{Columns: []clause.Column{{Name: "id"}, {Name: "created_at"}}},
	).Create(model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return "", marketplace.ErrStoreConflict
		}
		return "", result.Error
	}

	listing.ID = model.ID
	listing.CreatedAt = model.CreatedAt
	if model.ID != candidateID {
		return marketplace.UpsertUpdated, nil
	}
	return marketplace.UpsertCreated, nil
}

// ---------------------------------------------------------------------------
// Readers
// ---------------------------------------------------------------------------

// FindByID finds a listing by its internal ID
func (r *GormListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*marketplace.Listing, error) {
	var model models.ListingModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, marketplace.ErrListingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIdentity finds a listing by its (platform, external_id) key
func (r *GormListingRepository) FindByIdentity(ctx context.Context, key marketplace.IdentityKey) (*marketplace.Listing, error) {
	var model models.ListingModel
	if err := r.db.WithContext(ctx).
		Where("platform = ? AND external_id = ?", key.Platform, key.ExternalID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, marketplace.ErrListingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds listings matching the filter and returns the total count
func (r *GormListingRepository) FindAll(ctx context.Context, filter marketplace.ListingFilter) ([]marketplace.Listing, int64, error) {
	filter.Normalize()

	var total int64
	countQuery := r.applyFilter(r.db.WithContext(ctx).Model(&models.ListingModel{}), filter)
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var listingModels []models.ListingModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ListingModel{}), filter)
	query = r.applySort(query, filter)
	offset := (filter.Page - 1) * filter.PageSize
	if err := query.Offset(offset).Limit(filter.PageSize).Find(&listingModels).Error; err != nil {
		return nil, 0, err
	}

	listings := make([]marketplace.Listing, len(listingModels))
	for i, model := range listingModels {
		listings[i] = *model.ToDomain()
	}
	return listings, total, nil
}

// Search matches keywords against title, description and brand
func (r *GormListingRepository) Search(ctx context.Context, keywords string, platform *marketplace.Platform, limit int) ([]marketplace.Listing, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}

	query := r.db.WithContext(ctx).Model(&models.ListingModel{})
	if keywords != "" {
		like := likeOperator(r.db)
		pattern := "%" + escapeLikePattern(keywords) + "%"
		query = query.Where(
			"title "+like+" ? OR description "+like+" ? OR brand "+like+" ?",
			pattern, pattern, pattern,
		)
	}
	if platform != nil && platform.IsValid() {
		query = query.Where("platform = ?", *platform)
	}

	var listingModels []models.ListingModel
	if err := query.Order("created_at DESC").Limit(limit).Find(&listingModels).Error; err != nil {
		return nil, err
	}

	listings := make([]marketplace.Listing, len(listingModels))
	for i, model := range listingModels {
		listings[i] = *model.ToDomain()
	}
	return listings, nil
}

// Count counts listings matching the filter
func (r *GormListingRepository) Count(ctx context.Context, filter marketplace.ListingFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ListingModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ---------------------------------------------------------------------------
// Filter helpers
// ---------------------------------------------------------------------------

// applyFilter applies filter criteria without sorting or pagination
func (r *GormListingRepository) applyFilter(query *gorm.DB, filter marketplace.ListingFilter) *gorm.DB {
	if filter.Platform != nil && filter.Platform.IsValid() {
		query = query.Where("platform = ?", *filter.Platform)
	}
	if filter.Brand != "" {
		pattern := "%" + escapeLikePattern(filter.Brand) + "%"
		query = query.Where("brand "+likeOperator(query)+" ?", pattern)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.Condition != nil && filter.Condition.IsValid() {
		query = query.Where("condition = ?", *filter.Condition)
	}
	if filter.SizeLabel != "" {
		query = query.Where("size_label = ?", filter.SizeLabel)
	}
	if filter.Status != nil && filter.Status.IsValid() {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}

// applySort applies whitelisted sorting
func (r *GormListingRepository) applySort(query *gorm.DB, filter marketplace.ListingFilter) *gorm.DB {
	field := ValidateSortField(filter.SortBy, ListingSortFields, "created_at")
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	return query.Order(field + " " + direction)
}

// Ensure GormListingRepository implements ListingRepository
var _ marketplace.ListingRepository = (*GormListingRepository)(nil)

// ---------------------------------------------------------------------------
// Helper functions
// ---------------------------------------------------------------------------

// escapeLikePattern escapes special characters in LIKE patterns
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}

// likeOperator returns the case-insensitive pattern operator for the
// connected dialect. Postgres needs ILIKE; sqlite's plain LIKE already
// ignores ASCII case.
func likeOperator(db *gorm.DB) string {
	if db.Dialector != nil && db.Dialector.Name() == "postgres" {
		return "ILIKE"
	}
	return "LIKE"
}
