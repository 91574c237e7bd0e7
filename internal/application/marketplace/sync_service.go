package marketplace

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fadedindigo/backend/internal/domain/marketplace"
	"github.com/fadedindigo/backend/internal/domain/shared"
	"github.com/fadedindigo/backend/internal/infrastructure/cache"
)

// PlatformAll triggers every syncable platform in one request
const PlatformAll = "all"

// resultCacheTTL is how long terminal job snapshots stay in the result cache
const resultCacheTTL = time.Hour

// triggerGuardWindow absorbs duplicate trigger bursts; shorter than any
// realistic sync so it never blocks a legitimate follow-up trigger.
const triggerGuardWindow = 10 * time.Second

// SyncDispatcher dispatches sync jobs. Implemented by the scheduler.
type SyncDispatcher interface {
	Trigger(ctx context.Context, platform marketplace.Platform, jobType marketplace.JobType, keywords string, limit int) (string, error)
}

// SyncService orchestrates manual sync triggers and task status polling
type SyncService struct {
	dispatcher SyncDispatcher
	jobs       marketplace.SyncJobRepository
	results    cache.TaskResultCache
	guard      cache.TriggerGuard

	defaultKeywords string
	defaultLimit    int
}

// NewSyncService creates a new SyncService
func NewSyncService(
	dispatcher SyncDispatcher,
	jobs marketplace.SyncJobRepository,
	results cache.TaskResultCache,
	guard cache.TriggerGuard,
	defaultKeywords string,
	defaultLimit int,
) *SyncService {
	if defaultKeywords == "" {
		defaultKeywords = "vintage jeans"
	}
	if defaultLimit < 1 {
		defaultLimit = 100
	}
	return &SyncService{
		dispatcher:      dispatcher,
		jobs:            jobs,
		results:         results,
		guard:           guard,
		defaultKeywords: defaultKeywords,
		defaultLimit:    defaultLimit,
	}
}

// Trigger dispatches sync runs for the requested platform, or for every
// syncable platform when the request names "all". Platforms already
// syncing are reported as skipped rather than failing the request.
func (s *SyncService) Trigger(ctx context.Context, req TriggerSyncRequest) ([]TriggerSyncResponse, error) {
	keywords := req.Keywords
	if keywords == "" {
		keywords = s.defaultKeywords
	}
	limit := req.Limit
	if limit < 1 {
		limit = s.defaultLimit
	}
	jobType := marketplace.JobType(req.JobType)
	if !jobType.IsValid() {
		jobType = marketplace.JobTypeFull
	}

	platforms, err := s.resolvePlatforms(req.Platform)
	if err != nil {
		return nil, err
	}

	responses := make([]TriggerSyncResponse, 0, len(platforms))
	for _, platform := range platforms {
		responses = append(responses, s.triggerOne(ctx, platform, jobType, keywords, limit))
	}

	// A single-platform request that could not start is an error the
	// caller should see directly.
	if len(responses) == 1 && responses[0].Status == "skipped" {
		return nil, marketplace.ErrSyncAlreadyRunning
	}
	return responses, nil
}

func (s *SyncService) triggerOne(
	ctx context.Context,
	platform marketplace.Platform,
	jobType marketplace.JobType,
	keywords string,
	limit int,
) TriggerSyncResponse {
	resp := TriggerSyncResponse{
		Platform: platform.String(),
		Keywords: keywords,
		Limit:    limit,
	}

	// The guard absorbs duplicate bursts before the dispatch path; a
	// guard failure (Redis down) falls through to the scheduler's lease,
	// which stays authoritative.
	if s.guard != nil {
		reserved, err := s.guard.Reserve(ctx, platform, triggerGuardWindow)
		if err == nil && !reserved {
			resp.Status = "skipped"
			resp.Message = "sync recently triggered for " + platform.String()
			return resp
		}
	}

	taskID, err := s.dispatcher.Trigger(ctx, platform, jobType, keywords, limit)
	if err != nil {
		if errors.Is(err, marketplace.ErrSyncAlreadyRunning) {
			resp.Status = "skipped"
			resp.Message = "sync already running for " + platform.String()
			return resp
		}
		resp.Status = "failed"
		resp.Message = err.Error()
		return resp
	}

	resp.Status = "triggered"
	resp.TaskID = taskID
	resp.Message = "Sync task started for " + platform.String()
	return resp
}

// resolvePlatforms expands the request platform into concrete targets
func (s *SyncService) resolvePlatforms(value string) ([]marketplace.Platform, error) {
	if value == PlatformAll {
		return marketplace.SyncablePlatforms(), nil
	}

	platform, err := parsePlatform(value)
	if err != nil {
		return nil, err
	}
	if !platform.IsSyncable() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Platform cannot be synced: "+value)
	}
	return []marketplace.Platform{platform}, nil
}

// Status returns the job state for a dispatch handle. Terminal results are
// served from the cache when present.
func (s *SyncService) Status(ctx context.Context, taskID string) (*SyncJobResponse, error) {
	if s.results != nil {
		if job, found, err := s.results.GetJob(ctx, taskID); err == nil && found {
			return ToSyncJobResponse(job), nil
		}
	}

	job, err := s.jobs.FindByTaskID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if s.results != nil && job.Status.IsTerminal() {
		// Best effort; the repository stays authoritative
		_ = s.results.PutJob(ctx, job, resultCacheTTL)
	}
	return ToSyncJobResponse(job), nil
}

// ListJobs returns job history matching the query, newest first
func (s *SyncService) ListJobs(ctx context.Context, query SyncJobListQuery) ([]SyncJobResponse, error) {
	filter := marketplace.SyncJobFilter{Limit: query.Limit}

	if query.Platform != "" {
		p, err := parsePlatform(query.Platform)
		if err != nil {
			return nil, err
		}
		filter.Platform = &p
	}
	if query.Status != "" {
		st := marketplace.JobStatus(query.Status)
		if !st.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT", "Unknown job status: "+query.Status)
		}
		filter.Status = &st
	}

	jobs, err := s.jobs.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]SyncJobResponse, len(jobs))
	for i := range jobs {
		responses[i] = *ToSyncJobResponse(&jobs[i])
	}
	return responses, nil
}

// GetJob returns one job by internal ID
func (s *SyncService) GetJob(ctx context.Context, id uuid.UUID) (*SyncJobResponse, error) {
	job, err := s.jobs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToSyncJobResponse(job), nil
}
