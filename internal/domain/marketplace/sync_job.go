package marketplace

import (
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Job status and type
// ---------------------------------------------------------------------------

// JobStatus represents the lifecycle state of a sync job. Transitions are
// monotonic: a job never moves backwards, and CompletedAt is set exactly
// when a terminal status is reached.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusPartial   JobStatus = "partial"
	JobStatusFailed    JobStatus = "failed"
)

// IsValid returns true if the status is a known value
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusPending, JobStatusRunning, JobStatusCompleted, JobStatusPartial, JobStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true for completed, partial and failed
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusPartial, JobStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of JobStatus
func (s JobStatus) String() string {
	return string(s)
}

// CanTransitionTo enforces the monotonic status order
// pending -> running -> {completed|partial|failed}.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobStatusPending:
		return next == JobStatusRunning || next.IsTerminal()
	case JobStatusRunning:
		return next.IsTerminal()
	default:
		return false
	}
}

// JobType distinguishes full from incremental syncs
type JobType string

const (
	JobTypeFull        JobType = "full"
	JobTypeIncremental JobType = "incremental"
)

// IsValid returns true if the job type is known
func (t JobType) IsValid() bool {
	return t == JobTypeFull || t == JobTypeIncremental
}

// ---------------------------------------------------------------------------
// SyncError
// ---------------------------------------------------------------------------

// SyncError is the structured error detail stored on a failed or partial
// job. It is the only failure surface exposed to consumers; raw vendor
// payloads and stack traces stay out of it.
type SyncError struct {
	// Code classifies the failure (AUTH_FAILED, RATE_LIMITED, TIMEOUT, ...)
	Code string `json:"code"`
	// Message is a human-readable summary
	Message string `json:"message"`
	// Retryable records whether the retry policy considered this transient
	Retryable bool `json:"retryable"`
}

// Error codes for SyncError.Code
const (
	SyncErrorAuthFailed      = "AUTH_FAILED"
	SyncErrorRateLimited     = "RATE_LIMITED"
	SyncErrorNetwork         = "NETWORK"
	SyncErrorTimeout         = "TIMEOUT"
	SyncErrorCancelled       = "CANCELLED"
	SyncErrorInvalidResponse = "INVALID_RESPONSE"
	SyncErrorInternal        = "INTERNAL"
)

// ---------------------------------------------------------------------------
// SyncJob
// ---------------------------------------------------------------------------

// SyncJob records one bounded execution attempt to pull and apply listings
// from one platform. One row is created per dispatch; only the job's own
// execution context mutates it afterwards.
type SyncJob struct {
	// ID is the internal job identifier
	ID uuid.UUID
	// TaskID is the dispatch handle returned to callers for polling
	TaskID string
	// Platform is the marketplace being synced
	Platform Platform
	// JobType is full or incremental
	JobType JobType
	// Status is the lifecycle state
	Status JobStatus

	// Keywords is the search query the job was dispatched with
	Keywords string
	// Limit is the maximum number of listings to pull
	Limit int

	// Counts accumulated during execution
	Fetched int
	Created int
	Updated int
	Failed  int

	// RetryCount is the number of fetch retries consumed
	RetryCount int
	// ErrorDetail is set when the job ends failed or partial
	ErrorDetail *SyncError

	StartedAt   *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewSyncJob creates a pending job for the given platform and query
func NewSyncJob(platform Platform, jobType JobType, keywords string, limit int) *SyncJob {
	return &SyncJob{
		ID:       uuid.New(),
		TaskID:   uuid.NewString(),
		Platform: platform,
		JobType:  jobType,
		Status:   JobStatusPending,
		Keywords: keywords,
		Limit:    limit,
	}
}

// Start transitions the job to running
func (j *SyncJob) Start() error {
	if !j.Status.CanTransitionTo(JobStatusRunning) {
		return ErrJobInvalidTransition
	}
	now := time.Now().UTC()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	return nil
}

// Finish transitions the job to the given terminal status and stamps
// CompletedAt. The terminal status must be derivable from the current one.
func (j *SyncJob) Finish(status JobStatus, detail *SyncError) error {
	if !status.IsTerminal() {
		return ErrJobInvalidTransition
	}
	if !j.Status.CanTransitionTo(status) {
		return ErrJobInvalidTransition
	}
	now := time.Now().UTC()
	j.Status = status
	j.CompletedAt = &now
	j.ErrorDetail = detail
	return nil
}

// TerminalStatusFor derives the terminal status from the run's error detail
// and progress: a cancelled run is always failed, any upserted work before
// another fatal error yields partial rather than failed, and item-level
// failures alone never fail a job.
func (j *SyncJob) TerminalStatusFor(detail *SyncError) JobStatus {
	if detail == nil {
		return JobStatusCompleted
	}
	if detail.Code == SyncErrorCancelled {
		return JobStatusFailed
	}
	if j.Created+j.Updated > 0 {
		return JobStatusPartial
	}
	return JobStatusFailed
}

// ---------------------------------------------------------------------------
// JobDelta
// ---------------------------------------------------------------------------

// JobDelta is an incremental update applied to a job by the tracker.
// Count fields accumulate; pointer fields replace when non-nil.
type JobDelta struct {
	Fetched int
	Created int
	Updated int
	Failed  int

	RetryCount  *int
	Status      *JobStatus
	ErrorDetail *SyncError
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// Apply folds the delta into the job, enforcing monotonic status order
func (j *SyncJob) Apply(d JobDelta) error {
	if d.Status != nil {
		if !j.Status.CanTransitionTo(*d.Status) && j.Status != *d.Status {
			return ErrJobInvalidTransition
		}
		j.Status = *d.Status
	}
	j.Fetched += d.Fetched
	j.Created += d.Created
	j.Updated += d.Updated
	j.Failed += d.Failed
	if d.RetryCount != nil {
		j.RetryCount = *d.RetryCount
	}
	if d.ErrorDetail != nil {
		j.ErrorDetail = d.ErrorDetail
	}
	if d.StartedAt != nil {
		j.StartedAt = d.StartedAt
	}
	if d.CompletedAt != nil {
		j.CompletedAt = d.CompletedAt
	}
	return nil
}

// Duration returns the wall-clock run time for finished jobs, zero otherwise
func (j *SyncJob) Duration() time.Duration {
	if j.StartedAt == nil || j.CompletedAt == nil {
		return 0
	}
	return j.CompletedAt.Sub(*j.StartedAt)
}
