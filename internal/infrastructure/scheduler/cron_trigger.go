package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fadedindigo/backend/internal/domain/marketplace"
)

// Standard 5-field cron expressions (minute hour dom month dow)
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// CronTriggerConfig holds the schedule for recurring syncs. Platform
// schedules are staggered so vendor APIs are never hit in the same minute.
type CronTriggerConfig struct {
	EbayCron    string
	EtsyCron    string
	RedditCron  string
	CleanupCron string

	// Keywords and Limit seed every scheduled sync
	Keywords string
	Limit    int

	// Retention is how long terminal job rows are kept before cleanup
	Retention time.Duration
	// StuckThreshold is the age past which a running job is reported stuck
	StuckThreshold time.Duration
}

// Validate checks every cron expression parses
func (c *CronTriggerConfig) Validate() error {
	for _, expr := range []string{c.EbayCron, c.EtsyCron, c.RedditCron, c.CleanupCron} {
		if expr == "" {
			continue
		}
		if _, err := cronParser.Parse(expr); err != nil {
			return fmt.Errorf("%w: invalid cron expression %q: %v", ErrInvalidConfig, expr, err)
		}
	}
	if c.Retention <= 0 {
		return fmt.Errorf("%w: retention must be positive", ErrInvalidConfig)
	}
	if c.StuckThreshold <= 0 {
		return fmt.Errorf("%w: stuck threshold must be positive", ErrInvalidConfig)
	}
	return nil
}

// CronTrigger fires scheduled syncs and the daily job-history cleanup.
// An empty cron expression disables that entry.
type CronTrigger struct {
	config    CronTriggerConfig
	scheduler *SyncScheduler
	jobs      marketplace.SyncJobRepository
	logger    *zap.Logger

	cron *cron.Cron

	mu        sync.Mutex
	isRunning bool
}

// NewCronTrigger creates a cron trigger
func NewCronTrigger(
	config CronTriggerConfig,
	scheduler *SyncScheduler,
	jobs marketplace.SyncJobRepository,
	logger *zap.Logger,
) (*CronTrigger, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CronTrigger{
		config:    config,
		scheduler: scheduler,
		jobs:      jobs,
		logger:    logger,
		cron:      cron.New(cron.WithParser(cronParser)),
	}, nil
}

// Start registers the schedule entries and starts the cron runner
func (t *CronTrigger) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.isRunning {
		return nil
	}

	entries := []struct {
		expr     string
		platform marketplace.Platform
	}{
		{t.config.EbayCron, marketplace.PlatformEbay},
		{t.config.EtsyCron, marketplace.PlatformEtsy},
		{t.config.RedditCron, marketplace.PlatformReddit},
	}
	for _, entry := range entries {
		if entry.expr == "" {
			continue
		}
		platform := entry.platform
		if _, err := t.cron.AddFunc(entry.expr, func() {
			t.triggerSync(platform)
		}); err != nil {
			return fmt.Errorf("register %s sync schedule: %w", platform, err)
		}
	}

	if t.config.CleanupCron != "" {
		if _, err := t.cron.AddFunc(t.config.CleanupCron, t.cleanup); err != nil {
			return fmt.Errorf("register cleanup schedule: %w", err)
		}
	}

	t.cron.Start()
	t.isRunning = true

	t.logger.Info("cron trigger started",
		zap.String("ebay", t.config.EbayCron),
		zap.String("etsy", t.config.EtsyCron),
		zap.String("reddit", t.config.RedditCron),
		zap.String("cleanup", t.config.CleanupCron))
	return nil
}

// Stop halts the cron runner, waiting for entries already in flight
func (t *CronTrigger) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.isRunning {
		return
	}
	<-t.cron.Stop().Done()
	t.isRunning = false
	t.logger.Info("cron trigger stopped")
}

func (t *CronTrigger) triggerSync(platform marketplace.Platform) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	taskID, err := t.scheduler.Trigger(ctx, platform, marketplace.JobTypeIncremental,
		t.config.Keywords, t.config.Limit)
	if err != nil {
		// A sync still running from the previous window is expected
		// with staggered schedules; anything else is worth a warning.
		if errors.Is(err, marketplace.ErrSyncAlreadyRunning) {
			t.logger.Info("scheduled sync skipped, previous run still in flight",
				zap.String("platform", platform.String()))
			return
		}
		t.logger.Warn("scheduled sync trigger failed",
			zap.String("platform", platform.String()),
			zap.Error(err))
		return
	}

	t.logger.Info("scheduled sync triggered",
		zap.String("platform", platform.String()),
		zap.String("task_id", taskID))
}

// cleanup purges aged-out terminal jobs and reports running jobs that look
// stuck
func (t *CronTrigger) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().Add(-t.config.Retention)
	deleted, err := t.jobs.DeleteCompletedBefore(ctx, cutoff)
	if err != nil {
		t.logger.Error("sync job cleanup failed", zap.Error(err))
	} else if deleted > 0 {
		t.logger.Info("purged aged sync jobs",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff))
	}

	stuck, err := t.jobs.FindStuckRunning(ctx, t.config.StuckThreshold)
	if err != nil {
		t.logger.Error("stuck job scan failed", zap.Error(err))
		return
	}
	for _, job := range stuck {
		t.logger.Warn("sync job stuck in running",
			zap.String("task_id", job.TaskID),
			zap.String("platform", job.Platform.String()),
			zap.Timep("started_at", job.StartedAt))
	}
}
