package cache

import (
	"time"

	"github.com/google/uuid"

	"github.com/fadedindigo/backend/internal/domain/marketplace"
)

// jobSnapshot is the wire form of a cached sync job
type jobSnapshot struct {
	ID       uuid.UUID `json:"id"`
	TaskID   string    `json:"task_id"`
	Platform string    `json:"platform"`
	JobType  string    `json:"job_type"`
	Status   string    `json:"status"`

	Keywords string `json:"keywords"`
	Limit    int    `json:"limit"`

	Fetched int `json:"fetched"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`

	RetryCount  int                    `json:"retry_count"`
	ErrorDetail *marketplace.SyncError `json:"error_detail,omitempty"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func newJobSnapshot(job *marketplace.SyncJob) jobSnapshot {
	return jobSnapshot{
		ID:          job.ID,
		TaskID:      job.TaskID,
		Platform:    job.Platform.String(),
		JobType:     string(job.JobType),
		Status:      job.Status.String(),
		Keywords:    job.Keywords,
		Limit:       job.Limit,
		Fetched:     job.Fetched,
		Created:     job.Created,
		Updated:     job.Updated,
		Failed:      job.Failed,
		RetryCount:  job.RetryCount,
		ErrorDetail: job.ErrorDetail,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
	}
}

func (s jobSnapshot) toJob() *marketplace.SyncJob {
	return &marketplace.SyncJob{
		ID:          s.ID,
		TaskID:      s.TaskID,
		Platform:    marketplace.Platform(s.Platform),
		JobType:     marketplace.JobType(s.JobType),
		Status:      marketplace.JobStatus(s.Status),
		Keywords:    s.Keywords,
		Limit:       s.Limit,
		Fetched:     s.Fetched,
		Created:     s.Created,
		Updated:     s.Updated,
		Failed:      s.Failed,
		RetryCount:  s.RetryCount,
		ErrorDetail: s.ErrorDetail,
		StartedAt:   s.StartedAt,
		CompletedAt: s.CompletedAt,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
