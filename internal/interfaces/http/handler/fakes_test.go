package handler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fadedindigo/backend/internal/domain/marketplace"
)

// fakeListingRepo replays scripted listings for the query service
type fakeListingRepo struct {
	mu       sync.Mutex
	listings []marketplace.Listing
	total    int64
	err      error
}

func (f *fakeListingRepo) Upsert(context.Context, *marketplace.Listing) (marketplace.UpsertOutcome, error) {
	return marketplace.UpsertCreated, nil
}

func (f *fakeListingRepo) FindByID(_ context.Context, id uuid.UUID) (*marketplace.Listing, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.listings {
		if f.listings[i].ID == id {
			return &f.listings[i], nil
		}
	}
	return nil, marketplace.ErrListingNotFound
}

func (f *fakeListingRepo) FindByIdentity(context.Context, marketplace.IdentityKey) (*marketplace.Listing, error) {
	return nil, marketplace.ErrListingNotFound
}

func (f *fakeListingRepo) FindAll(context.Context, marketplace.ListingFilter) ([]marketplace.Listing, int64, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.listings, f.total, nil
}

func (f *fakeListingRepo) Search(context.Context, string, *marketplace.Platform, int) ([]marketplace.Listing, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.listings, nil
}

func (f *fakeListingRepo) Count(context.Context, marketplace.ListingFilter) (int64, error) {
	return f.total, nil
}

var _ marketplace.ListingRepository = (*fakeListingRepo)(nil)

// fakeJobRepo is an in-memory sync job store
type fakeJobRepo struct {
	mu   sync.Mutex
	jobs []*marketplace.SyncJob
}

func (f *fakeJobRepo) add(job *marketplace.SyncJob) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
}

func (f *fakeJobRepo) Create(_ context.Context, job *marketplace.SyncJob) error {
	f.add(job)
	return nil
}

func (f *fakeJobRepo) Update(context.Context, uuid.UUID, marketplace.JobDelta) error {
	return nil
}

func (f *fakeJobRepo) FindByID(_ context.Context, id uuid.UUID) (*marketplace.SyncJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, job := range f.jobs {
		if job.ID == id {
			return job, nil
		}
	}
	return nil, marketplace.ErrJobNotFound
}

func (f *fakeJobRepo) FindByTaskID(_ context.Context, taskID string) (*marketplace.SyncJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, job := range f.jobs {
		if job.TaskID == taskID {
			return job, nil
		}
	}
	return nil, marketplace.ErrJobNotFound
}

func (f *fakeJobRepo) FindAll(context.Context, marketplace.SyncJobFilter) ([]marketplace.SyncJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]marketplace.SyncJob, len(f.jobs))
	for i, job := range f.jobs {
		out[i] = *job
	}
	return out, nil
}

func (f *fakeJobRepo) DeleteCompletedBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeJobRepo) FindStuckRunning(context.Context, time.Duration) ([]marketplace.SyncJob, error) {
	return nil, nil
}

var _ marketplace.SyncJobRepository = (*fakeJobRepo)(nil)

// fakeDispatcher replays scripted trigger results per platform
type fakeDispatcher struct {
	mu    sync.Mutex
	calls []marketplace.Platform
	errs  map[marketplace.Platform]error
}

func (f *fakeDispatcher) Trigger(_ context.Context, platform marketplace.Platform, _ marketplace.JobType, _ string, _ int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, platform)
	if err, ok := f.errs[platform]; ok {
		return "", err
	}
	return "task-" + platform.String(), nil
}

// fakeTrendRepo replays a scripted trend summary
type fakeTrendRepo struct {
	summary *marketplace.TrendSummary
	err     error
}

func (f *fakeTrendRepo) Summarize(context.Context, time.Time, int) (*marketplace.TrendSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.summary, nil
}

var _ marketplace.TrendRepository = (*fakeTrendRepo)(nil)

func fixtureListing(platform marketplace.Platform, externalID string) marketplace.Listing {
	waist := 32
	return marketplace.Listing{
		ID:         uuid.New(),
		Platform:   platform,
		ExternalID: externalID,
		URL:        "https://example.com/itm/" + externalID,
		Title:      "Vintage Levi's 501",
		Brand:      "Levi's",
		SizeLabel:  "32x34",
		WaistSize:  &waist,
		Condition:  marketplace.ConditionGood,
		Price:      decimal.NewFromFloat(125.50),
		Currency:   "USD",
		Status:     marketplace.ListingStatusActive,
		ListedAt:   time.Now().UTC().Add(-48 * time.Hour),
	}
}
