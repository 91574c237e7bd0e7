package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fadedindigo/backend/internal/domain/marketplace"
)

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// SyncSchedulerConfig configures the sync worker pool
type SyncSchedulerConfig struct {
	// Workers is the number of concurrent job workers
	Workers int
	// QueueSize bounds the dispatch queue; a full queue rejects triggers
	QueueSize int
	// JobTimeout is the hard per-job deadline enforced via context
	JobTimeout time.Duration
	// JobSoftTimeout winds a job down between pages before the hard cut
	JobSoftTimeout time.Duration
	// LeaseTTL is how long a platform lease survives a crashed worker
	LeaseTTL time.Duration
	// Retry bounds the per-page fetch retry loop
	Retry RetryPolicy
}

// DefaultSyncSchedulerConfig returns the standard configuration
func DefaultSyncSchedulerConfig() SyncSchedulerConfig {
	return SyncSchedulerConfig{
		Workers:        3,
		QueueSize:      100,
		JobTimeout:     10 * time.Minute,
		JobSoftTimeout: 9 * time.Minute,
		LeaseTTL:       15 * time.Minute,
		Retry:          DefaultRetryPolicy(),
	}
}

// Validate validates the configuration
func (c *SyncSchedulerConfig) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1", ErrInvalidConfig)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("%w: queue size must be at least 1", ErrInvalidConfig)
	}
	if c.JobTimeout <= 0 {
		return fmt.Errorf("%w: job timeout must be positive", ErrInvalidConfig)
	}
	if c.JobSoftTimeout <= 0 || c.JobSoftTimeout > c.JobTimeout {
		return fmt.Errorf("%w: soft timeout must be positive and not exceed the job timeout", ErrInvalidConfig)
	}
	if c.LeaseTTL < c.JobTimeout {
		return fmt.Errorf("%w: lease TTL must cover the job timeout", ErrInvalidConfig)
	}
	if err := c.Retry.Validate(); err != nil {
		return fmt.Errorf("%w: invalid retry policy", ErrInvalidConfig)
	}
	return nil
}

// ---------------------------------------------------------------------------
// SyncScheduler
// ---------------------------------------------------------------------------

// SyncScheduler dispatches sync jobs to a bounded worker pool. At most one
// job per platform is in flight at a time, enforced through a store-backed
// lease acquired at trigger time and released when the worker finishes.
// A trigger that loses the lease race is coalesced: the caller is told a
// sync is already running and no job row is created.
type SyncScheduler struct {
	config   SyncSchedulerConfig
	executor JobExecutor
	jobs     marketplace.SyncJobRepository
	leases   marketplace.SyncLeaseRepository
	logger   *zap.Logger

	queue chan *marketplace.SyncJob

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewSyncScheduler creates a scheduler with the given configuration
func NewSyncScheduler(
	config SyncSchedulerConfig,
	executor JobExecutor,
	jobs marketplace.SyncJobRepository,
	leases marketplace.SyncLeaseRepository,
	logger *zap.Logger,
) (*SyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncScheduler{
		config:   config,
		executor: executor,
		jobs:     jobs,
		leases:   leases,
		logger:   logger,
		queue:    make(chan *marketplace.SyncJob, config.QueueSize),
	}, nil
}

// Start launches the worker pool
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.isRunning = true

	for i := 0; i < s.config.Workers; i++ {
		s.wg.Add(1)
		go s.worker(workerCtx, i)
	}

	s.logger.Info("sync scheduler started",
		zap.Int("workers", s.config.Workers),
		zap.Int("queue_size", s.config.QueueSize))
	return nil
}

// Stop shuts the pool down, waiting for in-flight jobs until the context
// expires
func (s *SyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("sync scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("sync scheduler stop timed out with jobs in flight")
		return ctx.Err()
	}
}

// Trigger dispatches a sync job for the platform and returns its task
// handle. When another job for the platform holds the lease, the trigger
// is coalesced and ErrSyncAlreadyRunning is returned without creating a
// job row.
func (s *SyncScheduler) Trigger(
	ctx context.Context,
	platform marketplace.Platform,
	jobType marketplace.JobType,
	keywords string,
	limit int,
) (string, error) {
	s.mu.Lock()
	running := s.isRunning
	s.mu.Unlock()
	if !running {
		return "", ErrSchedulerNotRunning
	}

	if !platform.IsSyncable() {
		return "", fmt.Errorf("%w: %s", ErrPlatformNotSyncable, platform)
	}
	if !jobType.IsValid() {
		jobType = marketplace.JobTypeFull
	}

	query := marketplace.FetchQuery{Keywords: keywords, Limit: limit}
	if err := query.Validate(); err != nil {
		return "", err
	}

	job := marketplace.NewSyncJob(platform, jobType, query.Keywords, query.Limit)

	acquired, err := s.leases.Acquire(ctx, platform, job.TaskID, s.config.LeaseTTL)
	if err != nil {
		return "", fmt.Errorf("acquire sync lease: %w", err)
	}
	if !acquired {
		s.logger.Info("sync trigger coalesced, platform already syncing",
			zap.String("platform", platform.String()))
		return "", marketplace.ErrSyncAlreadyRunning
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		s.releaseLease(platform, job.TaskID)
		return "", fmt.Errorf("create sync job: %w", err)
	}

	select {
	case s.queue <- job:
		s.logger.Info("sync job dispatched",
			zap.String("task_id", job.TaskID),
			zap.String("platform", platform.String()),
			zap.String("job_type", string(jobType)))
		return job.TaskID, nil
	default:
		s.failUndispatched(ctx, job)
		s.releaseLease(platform, job.TaskID)
		return "", ErrJobQueueFull
	}
}

func (s *SyncScheduler) worker(ctx context.Context, id int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-s.queue:
			if !ok {
				return
			}
			s.processJob(ctx, id, job)
		}
	}
}

func (s *SyncScheduler) processJob(ctx context.Context, workerID int, job *marketplace.SyncJob) {
	defer s.releaseLease(job.Platform, job.TaskID)

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	s.logger.Debug("worker picked up sync job",
		zap.Int("worker", workerID),
		zap.String("task_id", job.TaskID))

	if err := s.executor.Execute(jobCtx, job); err != nil {
		s.logger.Warn("sync job ended with error",
			zap.Int("worker", workerID),
			zap.String("task_id", job.TaskID),
			zap.String("status", job.Status.String()),
			zap.Error(err))
	}
}

// failUndispatched finishes a job that never reached a worker
func (s *SyncScheduler) failUndispatched(ctx context.Context, job *marketplace.SyncJob) {
	detail := &marketplace.SyncError{
		Code:      marketplace.SyncErrorInternal,
		Message:   "job queue full",
		Retryable: true,
	}
	if err := job.Finish(marketplace.JobStatusFailed, detail); err != nil {
		s.logger.Error("cannot fail undispatched job",
			zap.String("task_id", job.TaskID), zap.Error(err))
		return
	}
	delta := marketplace.JobDelta{
		Status:      &job.Status,
		CompletedAt: job.CompletedAt,
		ErrorDetail: detail,
	}
	if err := s.jobs.Update(ctx, job.ID, delta); err != nil {
		s.logger.Error("cannot persist undispatched job failure",
			zap.String("task_id", job.TaskID), zap.Error(err))
	}
}

// releaseLease frees the platform lease with its own short deadline; the
// job context is typically already done when this runs.
func (s *SyncScheduler) releaseLease(platform marketplace.Platform, holder string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.leases.Release(ctx, platform, holder); err != nil {
		s.logger.Error("cannot release platform sync lease",
			zap.String("platform", platform.String()),
			zap.Error(err))
	}
}
