package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fadedindigo/backend/internal/domain/marketplace"
)

// JobExecutor runs one sync job to completion. Implementations own every
// mutation of the job row after dispatch.
type JobExecutor interface {
	Execute(ctx context.Context, job *marketplace.SyncJob) error
}

// SyncExecutor pulls pages from a platform adapter, normalizes each raw
// record and upserts it into the listing store, tracking progress on the
// job row as it goes. Fetch failures go through the retry policy; item
// failures are counted and never abort the run.
type SyncExecutor struct {
	registry marketplace.AdapterRegistry
	listings marketplace.ListingRepository
	jobs     marketplace.SyncJobRepository
	policy   RetryPolicy

	// softTimeout winds the job down between pages: once spent, no new
	// page is fetched and the job finishes with whatever it has.
	softTimeout time.Duration

	logger *zap.Logger
}

// NewSyncExecutor creates an executor
func NewSyncExecutor(
	registry marketplace.AdapterRegistry,
	listings marketplace.ListingRepository,
	jobs marketplace.SyncJobRepository,
	policy RetryPolicy,
	softTimeout time.Duration,
	logger *zap.Logger,
) *SyncExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncExecutor{
		registry:    registry,
		listings:    listings,
		jobs:        jobs,
		policy:      policy,
		softTimeout: softTimeout,
		logger:      logger,
	}
}

// Execute runs the job. The returned error reflects the fatal cause when
// the run could not complete; the job row always reaches a terminal status
// either way.
func (e *SyncExecutor) Execute(ctx context.Context, job *marketplace.SyncJob) error {
	adapter, err := e.registry.Get(job.Platform)
	if err != nil {
		e.finishJob(job, SyncErrorFor(err))
		return err
	}

	if err := e.markRunning(ctx, job); err != nil {
		return fmt.Errorf("mark job running: %w", err)
	}

	e.logger.Info("sync job started",
		zap.String("task_id", job.TaskID),
		zap.String("platform", job.Platform.String()),
		zap.String("keywords", job.Keywords),
		zap.Int("limit", job.Limit))

	softDeadline := time.Now().Add(e.softTimeout)
	query := marketplace.FetchQuery{
		Keywords: job.Keywords,
		Limit:    job.Limit,
	}

	var fatalErr error
	remaining := job.Limit

pageLoop:
	for remaining > 0 {
		select {
		case <-ctx.Done():
			fatalErr = ctx.Err()
			break pageLoop
		default:
		}

		if e.softTimeout > 0 && time.Now().After(softDeadline) {
			e.logger.Warn("sync job soft deadline reached, winding down",
				zap.String("task_id", job.TaskID),
				zap.Int("fetched", job.Fetched))
			fatalErr = context.DeadlineExceeded
			break pageLoop
		}

		if remaining < query.Limit {
			query.Limit = remaining
		}

		page, err := e.fetchWithRetry(ctx, adapter, job, query)
		if err != nil {
			fatalErr = err
			break pageLoop
		}

		delta := e.applyPage(ctx, adapter, job, page)
		if err := e.updateJob(ctx, job, delta); err != nil {
			fatalErr = err
			break pageLoop
		}

		remaining -= len(page.RawItems) + page.Skipped
		if page.NextCursor == "" {
			break
		}
		query.Cursor = page.NextCursor
	}

	e.finishJob(job, SyncErrorFor(fatalErr))

	e.logger.Info("sync job finished",
		zap.String("task_id", job.TaskID),
		zap.String("status", job.Status.String()),
		zap.Int("fetched", job.Fetched),
		zap.Int("created", job.Created),
		zap.Int("updated", job.Updated),
		zap.Int("failed", job.Failed))

	return fatalErr
}

// fetchWithRetry fetches one page, retrying transient failures per the
// policy. The consumed retry count is recorded on the job row.
func (e *SyncExecutor) fetchWithRetry(
	ctx context.Context,
	adapter marketplace.Adapter,
	job *marketplace.SyncJob,
	query marketplace.FetchQuery,
) (*marketplace.FetchPage, error) {
	var lastErr error
	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		page, err := adapter.Fetch(ctx, query)
		if err == nil {
			return page, nil
		}
		lastErr = err

		switch ClassifyFetchError(err) {
		case AttemptFatal:
			return nil, err
		case AttemptRetryable:
			if attempt == e.policy.MaxAttempts {
				return nil, err
			}
			retries := job.RetryCount + 1
			delta := marketplace.JobDelta{RetryCount: &retries}
			if updateErr := e.updateJob(ctx, job, delta); updateErr != nil {
				return nil, updateErr
			}

			delay := e.policy.Delay(attempt, err)
			e.logger.Warn("fetch failed, retrying",
				zap.String("task_id", job.TaskID),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(err))
			if sleepErr := Sleep(ctx, delay); sleepErr != nil {
				return nil, sleepErr
			}
		}
	}
	return nil, lastErr
}

// applyPage normalizes and upserts every raw item on the page, returning
// the count delta. Items the adapter already dropped at the wire level
// count as fetched and failed so totals stay consistent.
func (e *SyncExecutor) applyPage(
	ctx context.Context,
	adapter marketplace.Adapter,
	job *marketplace.SyncJob,
	page *marketplace.FetchPage,
) marketplace.JobDelta {
	delta := marketplace.JobDelta{
		Fetched: len(page.RawItems) + page.Skipped,
		Failed:  page.Skipped,
	}

	for _, raw := range page.RawItems {
		listing, err := adapter.Normalize(raw)
		if err != nil {
			delta.Failed++
			e.logger.Debug("item normalization failed",
				zap.String("task_id", job.TaskID),
				zap.Error(err))
			continue
		}

		outcome, err := e.upsertListing(ctx, listing)
		if err != nil {
			delta.Failed++
			e.logger.Warn("listing upsert failed",
				zap.String("task_id", job.TaskID),
				zap.String("external_id", listing.ExternalID),
				zap.Error(err))
			continue
		}
		switch outcome {
		case marketplace.UpsertCreated:
			delta.Created++
		case marketplace.UpsertUpdated:
			delta.Updated++
		}
	}
	return delta
}

// upsertListing writes one listing, retrying once immediately on a
// concurrent write conflict. Overlapping runs on the same identity key are
// rare and the second attempt lands on the settled row.
func (e *SyncExecutor) upsertListing(ctx context.Context, listing *marketplace.Listing) (marketplace.UpsertOutcome, error) {
	outcome, err := e.listings.Upsert(ctx, listing)
	if errors.Is(err, marketplace.ErrStoreConflict) {
		return e.listings.Upsert(ctx, listing)
	}
	return outcome, err
}

func (e *SyncExecutor) markRunning(ctx context.Context, job *marketplace.SyncJob) error {
	if err := job.Start(); err != nil {
		return err
	}
	status := job.Status
	return e.jobs.Update(ctx, job.ID, marketplace.JobDelta{
		Status:    &status,
		StartedAt: job.StartedAt,
	})
}

// updateJob folds the delta into both the in-memory job and the stored row
func (e *SyncExecutor) updateJob(ctx context.Context, job *marketplace.SyncJob, delta marketplace.JobDelta) error {
	if err := job.Apply(delta); err != nil {
		return err
	}
	return e.jobs.Update(ctx, job.ID, delta)
}

// finishJob derives the terminal status from the run's error detail and
// accumulated counts and stamps it on the row. Persistence errors here are logged, not returned: the
// caller's outcome is the run's outcome.
func (e *SyncExecutor) finishJob(job *marketplace.SyncJob, detail *marketplace.SyncError) {
	status := job.TerminalStatusFor(detail)
	if status == marketplace.JobStatusCompleted {
		detail = nil
	}
	if err := job.Finish(status, detail); err != nil {
		e.logger.Error("cannot finish sync job",
			zap.String("task_id", job.TaskID),
			zap.Error(err))
		return
	}

	// The run context may already be cancelled; the terminal write gets
	// its own deadline so the row never sticks in running.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	delta := marketplace.JobDelta{
		Status:      &job.Status,
		CompletedAt: job.CompletedAt,
		ErrorDetail: detail,
	}
	if err := e.jobs.Update(ctx, job.ID, delta); err != nil {
		e.logger.Error("cannot persist terminal job status",
			zap.String("task_id", job.TaskID),
			zap.String("status", job.Status.String()),
			zap.Error(err))
	}
}

var _ JobExecutor = (*SyncExecutor)(nil)
