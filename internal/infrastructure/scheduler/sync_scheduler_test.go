package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fadedindigo/backend/internal/domain/marketplace"
)

func testSchedulerConfig() SyncSchedulerConfig {
	cfg := DefaultSyncSchedulerConfig()
	cfg.Workers = 1
	cfg.QueueSize = 1
	cfg.Retry = fastRetryPolicy()
	return cfg
}

func newTestScheduler(t *testing.T, executor JobExecutor, jobs *memJobRepo, leases *memLeaseRepo) *SyncScheduler {
	t.Helper()
	s, err := NewSyncScheduler(testSchedulerConfig(), executor, jobs, leases, zap.NewNop())
	require.NoError(t, err)
	return s
}

func startScheduler(t *testing.T, s *SyncScheduler) {
	t.Helper()
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	})
}

func TestSyncSchedulerConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SyncSchedulerConfig)
		verify func(*testing.T, error)
	}{
		{
			"default is valid",
			func(*SyncSchedulerConfig) {},
			func(t *testing.T, err error) { assert.NoError(t, err) },
		},
		{
			"zero workers",
			func(c *SyncSchedulerConfig) { c.Workers = 0 },
			func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrInvalidConfig) },
		},
		{
			"zero queue",
			func(c *SyncSchedulerConfig) { c.QueueSize = 0 },
			func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrInvalidConfig) },
		},
		{
			"soft timeout above hard timeout",
			func(c *SyncSchedulerConfig) { c.JobSoftTimeout = c.JobTimeout + time.Minute },
			func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrInvalidConfig) },
		},
		{
			"lease shorter than job timeout",
			func(c *SyncSchedulerConfig) { c.LeaseTTL = c.JobTimeout - time.Minute },
			func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrInvalidConfig) },
		},
		{
			"invalid retry policy",
			func(c *SyncSchedulerConfig) { c.Retry.MaxAttempts = 0 },
			func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrInvalidConfig) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSyncSchedulerConfig()
			tt.mutate(&cfg)
			tt.verify(t, cfg.Validate())
		})
	}
}

func TestSyncSchedulerTriggerDispatches(t *testing.T) {
	executor := &stubExecutor{started: make(chan string, 1)}
	jobs := newMemJobRepo()
	leases := newMemLeaseRepo()
	s := newTestScheduler(t, executor, jobs, leases)
	startScheduler(t, s)

	taskID, err := s.Trigger(context.Background(), marketplace.PlatformEbay,
		marketplace.JobTypeFull, "vintage jeans", 50)
	require.NoError(t, err)
	require.NotEmpty(t, taskID)

	select {
	case started := <-executor.started:
		assert.Equal(t, taskID, started)
	case <-time.After(time.Second):
		t.Fatal("job never reached a worker")
	}

	job, err := jobs.FindByTaskID(context.Background(), taskID)
	require.NoError(t, err)
	assert.Equal(t, marketplace.PlatformEbay, job.Platform)
	assert.Equal(t, marketplace.JobTypeFull, job.JobType)
	assert.Equal(t, 50, job.Limit)

	// The worker releases the lease once the executor returns
	assert.Eventually(t, func() bool {
		return !leases.held(marketplace.PlatformEbay)
	}, time.Second, 5*time.Millisecond)
}

func TestSyncSchedulerCoalescesConcurrentTriggers(t *testing.T) {
	executor := &stubExecutor{started: make(chan string, 1), block: make(chan struct{})}
	jobs := newMemJobRepo()
	leases := newMemLeaseRepo()
	s := newTestScheduler(t, executor, jobs, leases)
	startScheduler(t, s)

	taskID, err := s.Trigger(context.Background(), marketplace.PlatformEbay,
		marketplace.JobTypeFull, "", 0)
	require.NoError(t, err)
	<-executor.started

	// Platform lease is held; the second trigger is coalesced and leaves
	// no job row behind.
	_, err = s.Trigger(context.Background(), marketplace.PlatformEbay,
		marketplace.JobTypeFull, "", 0)
	assert.ErrorIs(t, err, marketplace.ErrSyncAlreadyRunning)

	all, listErr := jobs.FindAll(context.Background(), marketplace.SyncJobFilter{})
	require.NoError(t, listErr)
	assert.Len(t, all, 1)
	assert.Equal(t, taskID, all[0].TaskID)

	close(executor.block)
}

func TestSyncSchedulerIndependentPlatforms(t *testing.T) {
	executor := &stubExecutor{}
	jobs := newMemJobRepo()
	leases := newMemLeaseRepo()

	cfg := testSchedulerConfig()
	cfg.Workers = 2
	cfg.QueueSize = 4
	s, err := NewSyncScheduler(cfg, executor, jobs, leases, zap.NewNop())
	require.NoError(t, err)
	startScheduler(t, s)

	// A lease on one platform never blocks another
	_, err = s.Trigger(context.Background(), marketplace.PlatformEbay, marketplace.JobTypeFull, "", 0)
	require.NoError(t, err)
	_, err = s.Trigger(context.Background(), marketplace.PlatformEtsy, marketplace.JobTypeFull, "", 0)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return len(executor.executedTasks()) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestSyncSchedulerRejectsUnsyncablePlatform(t *testing.T) {
	s := newTestScheduler(t, &stubExecutor{}, newMemJobRepo(), newMemLeaseRepo())
	startScheduler(t, s)

	_, err := s.Trigger(context.Background(), marketplace.PlatformManual,
		marketplace.JobTypeFull, "", 0)
	assert.ErrorIs(t, err, ErrPlatformNotSyncable)
}

func TestSyncSchedulerRejectsWhenStopped(t *testing.T) {
	s := newTestScheduler(t, &stubExecutor{}, newMemJobRepo(), newMemLeaseRepo())

	_, err := s.Trigger(context.Background(), marketplace.PlatformEbay,
		marketplace.JobTypeFull, "", 0)
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestSyncSchedulerQueueFull(t *testing.T) {
	executor := &stubExecutor{started: make(chan string, 1), block: make(chan struct{})}
	jobs := newMemJobRepo()
	leases := newMemLeaseRepo()
	s := newTestScheduler(t, executor, jobs, leases)
	startScheduler(t, s)

	// Worker 1 busy on ebay, etsy queued, reddit has nowhere to go
	_, err := s.Trigger(context.Background(), marketplace.PlatformEbay, marketplace.JobTypeFull, "", 0)
	require.NoError(t, err)
	<-executor.started

	_, err = s.Trigger(context.Background(), marketplace.PlatformEtsy, marketplace.JobTypeFull, "", 0)
	require.NoError(t, err)

	_, err = s.Trigger(context.Background(), marketplace.PlatformReddit, marketplace.JobTypeFull, "", 0)
	assert.ErrorIs(t, err, ErrJobQueueFull)

	// The rejected job is closed out failed and its lease released
	all, listErr := jobs.FindAll(context.Background(), marketplace.SyncJobFilter{})
	require.NoError(t, listErr)
	var rejected *marketplace.SyncJob
	for i := range all {
		if all[i].Platform == marketplace.PlatformReddit {
			rejected = &all[i]
		}
	}
	require.NotNil(t, rejected)
	assert.Equal(t, marketplace.JobStatusFailed, rejected.Status)
	assert.False(t, leases.held(marketplace.PlatformReddit))

	close(executor.block)
}

func TestSyncSchedulerDefaultsQuery(t *testing.T) {
	executor := &stubExecutor{started: make(chan string, 1)}
	jobs := newMemJobRepo()
	s := newTestScheduler(t, executor, jobs, newMemLeaseRepo())
	startScheduler(t, s)

	taskID, err := s.Trigger(context.Background(), marketplace.PlatformEtsy,
		marketplace.JobTypeFull, "", 0)
	require.NoError(t, err)
	<-executor.started

	job, err := jobs.FindByTaskID(context.Background(), taskID)
	require.NoError(t, err)
	assert.Equal(t, "vintage jeans", job.Keywords)
	assert.Equal(t, 100, job.Limit)
}

func TestSyncSchedulerStopWaitsForWorkers(t *testing.T) {
	executor := &stubExecutor{started: make(chan string, 1), block: make(chan struct{})}
	jobs := newMemJobRepo()
	s := newTestScheduler(t, executor, jobs, newMemLeaseRepo())
	require.NoError(t, s.Start(context.Background()))

	_, err := s.Trigger(context.Background(), marketplace.PlatformEbay,
		marketplace.JobTypeFull, "", 0)
	require.NoError(t, err)
	<-executor.started

	// Stop cancels the job context; the blocked executor unblocks on it
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))

	// Stopping twice is a no-op
	assert.NoError(t, s.Stop(ctx))
}
