package marketplace

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Listing filters
// ---------------------------------------------------------------------------

// ListingFilter defines query criteria for listings
type ListingFilter struct {
	// Platform filters by source marketplace (optional)
	Platform *Platform
	// Brand filters by brand substring (optional)
	Brand string
	// MinPrice filters by minimum price (optional)
	MinPrice *decimal.Decimal
	// MaxPrice filters by maximum price (optional)
	MaxPrice *decimal.Decimal
	// Condition filters by condition grade (optional)
	Condition *Condition
	// SizeLabel filters by exact size label (optional)
	SizeLabel string
	// Status filters by moderation status (optional)
	Status *ListingStatus
	// SortBy is the sort column, validated against a whitelist
	SortBy string
	// SortDesc sorts descending when true
	SortDesc bool
	// Page is 1-indexed
	Page int
	// PageSize bounds the result set
	PageSize int
}

// Normalize applies pagination and sort defaults
func (f *ListingFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 200 {
		f.PageSize = 50
	}
	if f.SortBy == "" {
		f.SortBy = "created_at"
		f.SortDesc = true
	}
}

// ---------------------------------------------------------------------------
// ListingRepository
// ---------------------------------------------------------------------------

// ListingRepository is the upsert store for canonical listings. Upsert is
// the only write path the sync pipeline uses; it must be atomic per
// identity key so overlapping sync runs never interleave field-level
// writes, and it must leave AITags, TrendScore and moderation fields
// untouched on update.
type ListingRepository interface {
	// Upsert inserts or refreshes the row for the listing's identity key
	// and reports which happened.
	Upsert(ctx context.Context, listing *Listing) (UpsertOutcome, error)

	// FindByID returns a listing by internal ID
	FindByID(ctx context.Context, id uuid.UUID) (*Listing, error)

	// FindByIdentity returns a listing by its identity key
	FindByIdentity(ctx context.Context, key IdentityKey) (*Listing, error)

	// FindAll returns listings matching the filter plus the total count
	FindAll(ctx context.Context, filter ListingFilter) ([]Listing, int64, error)

	// Search matches keywords against title, description and brand
	Search(ctx context.Context, keywords string, platform *Platform, limit int) ([]Listing, error)

	// Count returns the number of listings matching the filter
	Count(ctx context.Context, filter ListingFilter) (int64, error)
}

// ---------------------------------------------------------------------------
// SyncJobRepository
// ---------------------------------------------------------------------------

// SyncJobFilter defines query criteria for job history
type SyncJobFilter struct {
	Platform *Platform
	Status   *JobStatus
	Since    *time.Time
	Limit    int
}

// SyncJobRepository tracks sync job rows. Create is the only way to obtain
// a pending job; Update accumulates count deltas and applies status
// transitions; cleanup only ever touches terminal jobs.
type SyncJobRepository interface {
	// Create persists a new pending job
	Create(ctx context.Context, job *SyncJob) error

	// Update folds a delta into the stored job. Counts accumulate.
	Update(ctx context.Context, id uuid.UUID, delta JobDelta) error

	// FindByID returns a job by internal ID
	FindByID(ctx context.Context, id uuid.UUID) (*SyncJob, error)

	// FindByTaskID returns a job by its dispatch handle
	FindByTaskID(ctx context.Context, taskID string) (*SyncJob, error)

	// FindAll returns job history matching the filter, newest first
	FindAll(ctx context.Context, filter SyncJobFilter) ([]SyncJob, error)

	// DeleteCompletedBefore purges terminal jobs whose CompletedAt is
	// older than the cutoff and returns the number deleted. Jobs without
	// CompletedAt are never deleted.
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// FindStuckRunning surfaces running jobs older than the threshold as
	// a health signal for operator attention.
	FindStuckRunning(ctx context.Context, olderThan time.Duration) ([]SyncJob, error)
}

// ---------------------------------------------------------------------------
// SyncLeaseRepository
// ---------------------------------------------------------------------------

// SyncLeaseRepository serializes sync execution per platform. The lease is
// held in the shared store rather than process memory so the
// one-in-flight-per-platform rule survives worker restarts. Acquire uses
// an atomic conditional write; a false result means another holder owns
// the lease and the trigger should be coalesced.
type SyncLeaseRepository interface {
	// Acquire takes the platform lease for the holder with a TTL.
	// Expired leases are reclaimable.
	Acquire(ctx context.Context, platform Platform, holder string, ttl time.Duration) (bool, error)

	// Release frees the lease if the holder still owns it
	Release(ctx context.Context, platform Platform, holder string) error
}
