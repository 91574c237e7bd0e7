package persistence

import (
	"context"
	"time"

	"github.com/fadedindigo/backend/internal/domain/marketplace"
	"github.com/fadedindigo/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSyncLeaseRepository implements SyncLeaseRepository using GORM.
// One row per platform; acquisition is a single INSERT ... ON CONFLICT
// DO UPDATE ... WHERE, so two workers racing for the same platform can
// never both win, and the rule survives process restarts because the
// lease lives in the database.
type GormSyncLeaseRepository struct {
	db *gorm.DB
}

// NewGormSyncLeaseRepository creates a new GormSyncLeaseRepository
func NewGormSyncLeaseRepository(db *gorm.DB) *GormSyncLeaseRepository {
	return &GormSyncLeaseRepository{db: db}
}

// Acquire takes the platform lease for the holder with a TTL. Returns
// false when the lease is held by someone else and not yet expired.
// Re-acquiring an own lease extends it.
func (r *GormSyncLeaseRepository) Acquire(ctx context.Context, platform marketplace.Platform, holder string, ttl time.Duration) (bool, error) {
	now := time.Now().UTC()
	lease := models.PlatformSyncLeaseModel{
		Platform:   platform,
		Holder:     holder,
		AcquiredAt: now,
		ExpiresAt:  now.Add(ttl),
		UpdatedAt:  now,
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "platform"}},
		DoUpdates: clause.Assignments(map[string]any{
			"holder":      holder,
			"acquired_at": now,
			"expires_at":  now.Add(ttl),
			"updated_at":  now,
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Or(
				clause.Lt{Column: clause.Column{Table: "platform_sync_leases", Name: "expires_at"}, Value: now},
				clause.Eq{Column: clause.Column{Table: "platform_sync_leases", Name: "holder"}, Value: holder},
			),
		}},
	}).Create(&lease)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// Release frees the lease if the holder still owns it. Releasing a lease
// lost to expiry is a no-op rather than an error.
func (r *GormSyncLeaseRepository) Release(ctx context.Context, platform marketplace.Platform, holder string) error {
	return r.db.WithContext(ctx).
		Where("platform = ? AND holder = ?", platform, holder).
		Delete(&models.PlatformSyncLeaseModel{}).Error
}

// Ensure GormSyncLeaseRepository implements SyncLeaseRepository
var _ marketplace.SyncLeaseRepository = (*GormSyncLeaseRepository)(nil)
