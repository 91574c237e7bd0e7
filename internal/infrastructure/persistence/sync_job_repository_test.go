package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/fadedindigo/backend/internal/domain/marketplace"
	"github.com/fadedindigo/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSyncJobTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.SyncJobModel{})
	require.NoError(t, err)

	return db
}

func statusPtr(s marketplace.JobStatus) *marketplace.JobStatus { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func TestGormSyncJobRepository_Create(t *testing.T) {
	db := setupSyncJobTestDB(t)
	repo := NewGormSyncJobRepository(db)
	ctx := context.Background()

	job := marketplace.NewSyncJob(marketplace.PlatformEbay, marketplace.JobTypeFull, "vintage jeans", 100)
	require.NoError(t, repo.Create(ctx, job))

	found, err := repo.FindByTaskID(ctx, job.TaskID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, found.ID)
	assert.Equal(t, marketplace.JobStatusPending, found.Status)
	assert.Equal(t, "vintage jeans", found.Keywords)
	assert.Equal(t, 100, found.Limit)
	assert.Nil(t, found.CompletedAt)
}

func TestGormSyncJobRepository_Update(t *testing.T) {
	db := setupSyncJobTestDB(t)
	repo := NewGormSyncJobRepository(db)
	ctx := context.Background()

	t.Run("accumulates counts across deltas", func(t *testing.T) {
		job := marketplace.NewSyncJob(marketplace.PlatformEbay, marketplace.JobTypeFull, "levis 501", 100)
		require.NoError(t, repo.Create(ctx, job))

		require.NoError(t, repo.Update(ctx, job.ID, marketplace.JobDelta{Fetched: 5, Created: 4, Failed: 1}))
		require.NoError(t, repo.Update(ctx, job.ID, marketplace.JobDelta{Fetched: 5, Created: 2, Updated: 3}))

		found, err := repo.FindByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, found.Fetched)
		assert.Equal(t, 6, found.Created)
		assert.Equal(t, 3, found.Updated)
		assert.Equal(t, 1, found.Failed)
		assert.Equal(t, found.Fetched, found.Created+found.Updated+found.Failed)
	})

	t.Run("applies status transition and error detail", func(t *testing.T) {
		job := marketplace.NewSyncJob(marketplace.PlatformEtsy, marketplace.JobTypeFull, "", 50)
		require.NoError(t, repo.Create(ctx, job))

		now := time.Now().UTC()
		require.NoError(t, repo.Update(ctx, job.ID, marketplace.JobDelta{
			Status:    statusPtr(marketplace.JobStatusRunning),
			StartedAt: timePtr(now),
		}))
		require.NoError(t, repo.Update(ctx, job.ID, marketplace.JobDelta{
			Status:      statusPtr(marketplace.JobStatusFailed),
			CompletedAt: timePtr(now.Add(time.Minute)),
			ErrorDetail: &marketplace.SyncError{
				Code:      marketplace.SyncErrorAuthFailed,
				Message:   "etsy: api key rejected",
				Retryable: false,
			},
		}))

		found, err := repo.FindByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, marketplace.JobStatusFailed, found.Status)
		require.NotNil(t, found.CompletedAt)
		require.NotNil(t, found.ErrorDetail)
		assert.Equal(t, marketplace.SyncErrorAuthFailed, found.ErrorDetail.Code)
	})

	t.Run("terminal jobs are immutable", func(t *testing.T) {
		job := marketplace.NewSyncJob(marketplace.PlatformReddit, marketplace.JobTypeFull, "", 50)
		require.NoError(t, repo.Create(ctx, job))

		now := time.Now().UTC()
		require.NoError(t, repo.Update(ctx, job.ID, marketplace.JobDelta{
			Status:      statusPtr(marketplace.JobStatusCompleted),
			CompletedAt: timePtr(now),
		}))

		err := repo.Update(ctx, job.ID, marketplace.JobDelta{Fetched: 7})
		assert.ErrorIs(t, err, marketplace.ErrJobInvalidTransition)

		found, err := repo.FindByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, found.Fetched)
		assert.Equal(t, marketplace.JobStatusCompleted, found.Status)
	})

	t.Run("returns ErrJobNotFound for unknown id", func(t *testing.T) {
		err := repo.Update(ctx, uuid.New(), marketplace.JobDelta{Fetched: 1})
		assert.ErrorIs(t, err, marketplace.ErrJobNotFound)
	})
}

func TestGormSyncJobRepository_FindAll(t *testing.T) {
	db := setupSyncJobTestDB(t)
	repo := NewGormSyncJobRepository(db)
	ctx := context.Background()

	platforms := []marketplace.Platform{
		marketplace.PlatformEbay,
		marketplace.PlatformEbay,
		marketplace.PlatformEtsy,
	}
	for _, p := range platforms {
		job := marketplace.NewSyncJob(p, marketplace.JobTypeFull, "", 50)
		require.NoError(t, repo.Create(ctx, job))
	}

	t.Run("filters by platform", func(t *testing.T) {
		platform := marketplace.PlatformEbay
		jobs, err := repo.FindAll(ctx, marketplace.SyncJobFilter{Platform: &platform})
		require.NoError(t, err)
		assert.Len(t, jobs, 2)
	})

	t.Run("filters by status", func(t *testing.T) {
		status := marketplace.JobStatusPending
		jobs, err := repo.FindAll(ctx, marketplace.SyncJobFilter{Status: &status})
		require.NoError(t, err)
		assert.Len(t, jobs, 3)
	})

	t.Run("respects limit", func(t *testing.T) {
		jobs, err := repo.FindAll(ctx, marketplace.SyncJobFilter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, jobs, 2)
	})
}

func TestGormSyncJobRepository_DeleteCompletedBefore(t *testing.T) {
	db := setupSyncJobTestDB(t)
	repo := NewGormSyncJobRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()

	oldDone := marketplace.NewSyncJob(marketplace.PlatformEbay, marketplace.JobTypeFull, "", 50)
	require.NoError(t, repo.Create(ctx, oldDone))
	require.NoError(t, repo.Update(ctx, oldDone.ID, marketplace.JobDelta{
		Status:      statusPtr(marketplace.JobStatusCompleted),
		CompletedAt: timePtr(now.Add(-40 * 24 * time.Hour)),
	}))

	recentDone := marketplace.NewSyncJob(marketplace.PlatformEtsy, marketplace.JobTypeFull, "", 50)
	require.NoError(t, repo.Create(ctx, recentDone))
	require.NoError(t, repo.Update(ctx, recentDone.ID, marketplace.JobDelta{
		Status:      statusPtr(marketplace.JobStatusPartial),
		CompletedAt: timePtr(now.Add(-time.Hour)),
	}))

	// Old but never finished, must survive cleanup
	stuck := marketplace.NewSyncJob(marketplace.PlatformReddit, marketplace.JobTypeFull, "", 50)
	require.NoError(t, repo.Create(ctx, stuck))
	require.NoError(t, db.Model(&models.SyncJobModel{}).
		Where("id = ?", stuck.ID).
		Update("created_at", now.Add(-60*24*time.Hour)).Error)

	deleted, err := repo.DeleteCompletedBefore(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.FindByID(ctx, oldDone.ID)
	assert.ErrorIs(t, err, marketplace.ErrJobNotFound)

	_, err = repo.FindByID(ctx, recentDone.ID)
	assert.NoError(t, err)

	_, err = repo.FindByID(ctx, stuck.ID)
	assert.NoError(t, err)
}

func TestGormSyncJobRepository_FindStuckRunning(t *testing.T) {
	db := setupSyncJobTestDB(t)
	repo := NewGormSyncJobRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()

	stuck := marketplace.NewSyncJob(marketplace.PlatformEbay, marketplace.JobTypeFull, "", 50)
	require.NoError(t, repo.Create(ctx, stuck))
	require.NoError(t, repo.Update(ctx, stuck.ID, marketplace.JobDelta{
		Status:    statusPtr(marketplace.JobStatusRunning),
		StartedAt: timePtr(now.Add(-2 * time.Hour)),
	}))

	fresh := marketplace.NewSyncJob(marketplace.PlatformEtsy, marketplace.JobTypeFull, "", 50)
	require.NoError(t, repo.Create(ctx, fresh))
	require.NoError(t, repo.Update(ctx, fresh.ID, marketplace.JobDelta{
		Status:    statusPtr(marketplace.JobStatusRunning),
		StartedAt: timePtr(now.Add(-time.Minute)),
	}))

	jobs, err := repo.FindStuckRunning(ctx, time.Hour)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, stuck.ID, jobs[0].ID)
}
