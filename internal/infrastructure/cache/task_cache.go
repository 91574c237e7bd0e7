package cache

import (
	"context"
	"time"

	"github.com/fadedindigo/backend/internal/domain/marketplace"
)

// TaskResultCache holds terminal sync job snapshots keyed by task handle so
// status polling after completion never touches the database. Entries
// expire; a miss falls through to the job repository.
type TaskResultCache interface {
	// GetJob returns the cached snapshot for the task, or found=false on a miss
	GetJob(ctx context.Context, taskID string) (job *marketplace.SyncJob, found bool, err error)

	// PutJob stores a snapshot with a TTL
	PutJob(ctx context.Context, job *marketplace.SyncJob, ttl time.Duration) error

	// Close releases cache resources
	Close() error
}

// TriggerGuard absorbs duplicate sync triggers before they reach the
// dispatch path. Reserve is atomic: exactly one caller per platform wins
// within the window.
type TriggerGuard interface {
	// Reserve claims the platform trigger slot for the window. Returns
	// false when another trigger already holds it.
	Reserve(ctx context.Context, platform marketplace.Platform, window time.Duration) (bool, error)
}
