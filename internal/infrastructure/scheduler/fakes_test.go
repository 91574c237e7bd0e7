package scheduler

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fadedindigo/backend/internal/domain/marketplace"
)

// ---------------------------------------------------------------------------
// In-memory sync job repository
// ---------------------------------------------------------------------------

type memJobRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*marketplace.SyncJob
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: make(map[uuid.UUID]*marketplace.SyncJob)}
}

func (r *memJobRepo) Create(_ context.Context, job *marketplace.SyncJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *job
	r.jobs[job.ID] = &stored
	return nil
}

func (r *memJobRepo) Update(_ context.Context, id uuid.UUID, delta marketplace.JobDelta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return marketplace.ErrJobNotFound
	}
	return job.Apply(delta)
}

func (r *memJobRepo) FindByID(_ context.Context, id uuid.UUID) (*marketplace.SyncJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, marketplace.ErrJobNotFound
	}
	copied := *job
	return &copied, nil
}

func (r *memJobRepo) FindByTaskID(_ context.Context, taskID string) (*marketplace.SyncJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, job := range r.jobs {
		if job.TaskID == taskID {
			copied := *job
			return &copied, nil
		}
	}
	return nil, marketplace.ErrJobNotFound
}

func (r *memJobRepo) FindAll(_ context.Context, _ marketplace.SyncJobFilter) ([]marketplace.SyncJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]marketplace.SyncJob, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, *job)
	}
	return out, nil
}

func (r *memJobRepo) DeleteCompletedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, job := range r.jobs {
		if job.Status.IsTerminal() && job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(r.jobs, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memJobRepo) FindStuckRunning(_ context.Context, olderThan time.Duration) ([]marketplace.SyncJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	threshold := time.Now().Add(-olderThan)
	var out []marketplace.SyncJob
	for _, job := range r.jobs {
		if job.Status == marketplace.JobStatusRunning && job.StartedAt != nil && job.StartedAt.Before(threshold) {
			out = append(out, *job)
		}
	}
	return out, nil
}

var _ marketplace.SyncJobRepository = (*memJobRepo)(nil)

// ---------------------------------------------------------------------------
// In-memory lease repository
// ---------------------------------------------------------------------------

type memLease struct {
	holder    string
	expiresAt time.Time
}

type memLeaseRepo struct {
	mu     sync.Mutex
	leases map[marketplace.Platform]memLease
}

func newMemLeaseRepo() *memLeaseRepo {
	return &memLeaseRepo{leases: make(map[marketplace.Platform]memLease)}
}

func (r *memLeaseRepo) Acquire(_ context.Context, platform marketplace.Platform, holder string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if lease, ok := r.leases[platform]; ok && lease.expiresAt.After(time.Now()) {
		return false, nil
	}
	r.leases[platform] = memLease{holder: holder, expiresAt: time.Now().Add(ttl)}
	return true, nil
}

func (r *memLeaseRepo) Release(_ context.Context, platform marketplace.Platform, holder string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if lease, ok := r.leases[platform]; ok && lease.holder == holder {
		delete(r.leases, platform)
	}
	return nil
}

func (r *memLeaseRepo) held(platform marketplace.Platform) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	lease, ok := r.leases[platform]
	return ok && lease.expiresAt.After(time.Now())
}

var _ marketplace.SyncLeaseRepository = (*memLeaseRepo)(nil)

// ---------------------------------------------------------------------------
// Stub listing repository
// ---------------------------------------------------------------------------

// stubListingRepo drives the upsert path: each call pops the next scripted
// outcome or error, defaulting to created.
type stubListingRepo struct {
	mu      sync.Mutex
	script  []upsertResult
	upserts []marketplace.Listing
}

type upsertResult struct {
	outcome marketplace.UpsertOutcome
	err     error
}

func (r *stubListingRepo) Upsert(_ context.Context, listing *marketplace.Listing) (marketplace.UpsertOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts = append(r.upserts, *listing)
	if len(r.script) == 0 {
		return marketplace.UpsertCreated, nil
	}
	next := r.script[0]
	r.script = r.script[1:]
	return next.outcome, next.err
}

func (r *stubListingRepo) FindByID(context.Context, uuid.UUID) (*marketplace.Listing, error) {
	return nil, marketplace.ErrListingNotFound
}

func (r *stubListingRepo) FindByIdentity(context.Context, marketplace.IdentityKey) (*marketplace.Listing, error) {
	return nil, marketplace.ErrListingNotFound
}

func (r *stubListingRepo) FindAll(context.Context, marketplace.ListingFilter) ([]marketplace.Listing, int64, error) {
	return nil, 0, nil
}

func (r *stubListingRepo) Search(context.Context, string, *marketplace.Platform, int) ([]marketplace.Listing, error) {
	return nil, nil
}

func (r *stubListingRepo) Count(context.Context, marketplace.ListingFilter) (int64, error) {
	return 0, nil
}

var _ marketplace.ListingRepository = (*stubListingRepo)(nil)

// ---------------------------------------------------------------------------
// Stub adapter
// ---------------------------------------------------------------------------

// stubPage scripts one Fetch call
type stubPage struct {
	page *marketplace.FetchPage
	err  error
}

type stubAdapter struct {
	platform marketplace.Platform

	mu      sync.Mutex
	pages   []stubPage
	fetches int

	// normalizeFail marks raw payloads (by exact bytes) that Normalize rejects
	normalizeFail map[string]bool

	// afterFetch, when set, runs after each served page with the fetch count
	afterFetch func(fetches int)
}

func (a *stubAdapter) Platform() marketplace.Platform { return a.platform }

func (a *stubAdapter) Fetch(_ context.Context, _ marketplace.FetchQuery) (*marketplace.FetchPage, error) {
	a.mu.Lock()
	if a.fetches >= len(a.pages) {
		a.mu.Unlock()
		return &marketplace.FetchPage{}, nil
	}
	next := a.pages[a.fetches]
	a.fetches++
	n := a.fetches
	a.mu.Unlock()

	if a.afterFetch != nil {
		a.afterFetch(n)
	}
	return next.page, next.err
}

func (a *stubAdapter) Normalize(raw json.RawMessage) (*marketplace.Listing, error) {
	if a.normalizeFail[string(raw)] {
		return nil, &marketplace.NormalizationError{
			Platform: a.platform,
			Reason:   marketplace.ErrListingInvalidTitle,
			RawItem:  raw,
		}
	}
	var item struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, &marketplace.NormalizationError{Platform: a.platform, Reason: err, RawItem: raw}
	}
	return &marketplace.Listing{
		ID:         uuid.New(),
		Platform:   a.platform,
		ExternalID: item.ID,
		Title:      "stub listing " + item.ID,
	}, nil
}

var _ marketplace.Adapter = (*stubAdapter)(nil)

func rawItem(id string) json.RawMessage {
	return json.RawMessage(`{"id":"` + id + `"}`)
}

func rawItems(ids ...string) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		out = append(out, rawItem(id))
	}
	return out
}

// singleRegistry resolves exactly one adapter
type singleRegistry struct {
	adapter marketplace.Adapter
}

func (r singleRegistry) Get(platform marketplace.Platform) (marketplace.Adapter, error) {
	if r.adapter != nil && r.adapter.Platform() == platform {
		return r.adapter, nil
	}
	return nil, marketplace.ErrPlatformNotConfigured
}

func (r singleRegistry) All() []marketplace.Adapter {
	if r.adapter == nil {
		return nil
	}
	return []marketplace.Adapter{r.adapter}
}

var _ marketplace.AdapterRegistry = singleRegistry{}

// ---------------------------------------------------------------------------
// Stub executor
// ---------------------------------------------------------------------------

// stubExecutor records executed jobs; when block is non-nil it holds the
// worker until the channel closes.
type stubExecutor struct {
	mu       sync.Mutex
	executed []string
	started  chan string
	block    chan struct{}
}

func (e *stubExecutor) Execute(ctx context.Context, job *marketplace.SyncJob) error {
	e.mu.Lock()
	e.executed = append(e.executed, job.TaskID)
	e.mu.Unlock()

	if e.started != nil {
		e.started <- job.TaskID
	}
	if e.block != nil {
		select {
		case <-e.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (e *stubExecutor) executedTasks() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.executed...)
}

var _ JobExecutor = (*stubExecutor)(nil)
