package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fadedindigo/backend/internal/domain/marketplace"
	"github.com/fadedindigo/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSyncJobRepository implements SyncJobRepository using GORM
type GormSyncJobRepository struct {
	db *gorm.DB
}

// NewGormSyncJobRepository creates a new GormSyncJobRepository
func NewGormSyncJobRepository(db *gorm.DB) *GormSyncJobRepository {
	return &GormSyncJobRepository{db: db}
}

// Create persists a new pending job
func (r *GormSyncJobRepository) Create(ctx context.Context, job *marketplace.SyncJob) error {
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	model := models.SyncJobModelFromDomain(job)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update folds a delta into the stored job in a single UPDATE. Count
// columns accumulate via SQL expressions so concurrent progress writes
// never lose increments; pointer fields replace when set.
func (r *GormSyncJobRepository) Update(ctx context.Context, id uuid.UUID, delta marketplace.JobDelta) error {
	updates := map[string]any{
		"updated_at": time.Now().UTC(),
	}

	if delta.Fetched != 0 {
		updates["fetched_count"] = gorm.Expr("fetched_count + ?", delta.Fetched)
	}
	if delta.Created != 0 {
		updates["created_count"] = gorm.Expr("created_count + ?", delta.Created)
	}
	if delta.Updated != 0 {
		updates["updated_count"] = gorm.Expr("updated_count + ?", delta.Updated)
	}
	if delta.Failed != 0 {
		updates["failed_count"] = gorm.Expr("failed_count + ?", delta.Failed)
	}
	if delta.RetryCount != nil {
		updates["retry_count"] = *delta.RetryCount
	}
	if delta.Status != nil {
		updates["status"] = *delta.Status
	}
	if delta.StartedAt != nil {
		updates["started_at"] = *delta.StartedAt
	}
	if delta.CompletedAt != nil {
		updates["completed_at"] = *delta.CompletedAt
	}
	if delta.ErrorDetail != nil {
		jsonBytes, err := json.Marshal(delta.ErrorDetail)
		if err != nil {
			return err
		}
		updates["error_detail"] = string(jsonBytes)
	}

	// Terminal rows are immutable; a late progress write from a timed-out
	// worker must not resurrect a finished job.
	result := r.db.WithContext(ctx).
		Model(&models.SyncJobModel{}).
		Where("id = ? AND completed_at IS NULL", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.SyncJobModel{}).
			Where("id = ?", id).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return marketplace.ErrJobNotFound
		}
		return marketplace.ErrJobInvalidTransition
	}
	return nil
}

// FindByID finds a job by its internal ID
func (r *GormSyncJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*marketplace.SyncJob, error) {
	var model models.SyncJobModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, marketplace.ErrJobNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByTaskID finds a job by its dispatch handle
func (r *GormSyncJobRepository) FindByTaskID(ctx context.Context, taskID string) (*marketplace.SyncJob, error) {
	var model models.SyncJobModel
	if err := r.db.WithContext(ctx).First(&model, "task_id = ?", taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, marketplace.ErrJobNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds job history matching the filter, newest first
func (r *GormSyncJobRepository) FindAll(ctx context.Context, filter marketplace.SyncJobFilter) ([]marketplace.SyncJob, error) {
	query := r.db.WithContext(ctx).Model(&models.SyncJobModel{})

	if filter.Platform != nil && filter.Platform.IsValid() {
		query = query.Where("platform = ?", *filter.Platform)
	}
	if filter.Status != nil && filter.Status.IsValid() {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Since != nil {
		query = query.Where("created_at >= ?", *filter.Since)
	}

	limit := filter.Limit
	if limit < 1 || limit > 500 {
		limit = 50
	}

	var jobModels []models.SyncJobModel
	if err := query.Order("created_at DESC").Limit(limit).Find(&jobModels).Error; err != nil {
		return nil, err
	}

	jobs := make([]marketplace.SyncJob, len(jobModels))
	for i, model := range jobModels {
		jobs[i] = *model.ToDomain()
	}
	return jobs, nil
}

// DeleteCompletedBefore purges terminal jobs finished before the cutoff.
// Rows without CompletedAt are never touched.
func (r *GormSyncJobRepository) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("completed_at IS NOT NULL AND completed_at < ?", cutoff).
		Delete(&models.SyncJobModel{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// FindStuckRunning surfaces running jobs older than the threshold
func (r *GormSyncJobRepository) FindStuckRunning(ctx context.Context, olderThan time.Duration) ([]marketplace.SyncJob, error) {
	threshold := time.Now().UTC().Add(-olderThan)

	var jobModels []models.SyncJobModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND started_at IS NOT NULL AND started_at < ?", marketplace.JobStatusRunning, threshold).
		Order("started_at ASC").
		Find(&jobModels).Error; err != nil {
		return nil, err
	}

	jobs := make([]marketplace.SyncJob, len(jobModels))
	for i, model := range jobModels {
		jobs[i] = *model.ToDomain()
	}
	return jobs, nil
}

// Ensure GormSyncJobRepository implements SyncJobRepository
var _ marketplace.SyncJobRepository = (*GormSyncJobRepository)(nil)
