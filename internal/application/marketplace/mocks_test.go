package marketplace

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fadedindigo/backend/internal/domain/marketplace"
)

// MockListingRepository records the calls it receives and replays scripted
// results
type MockListingRepository struct {
	mu sync.Mutex

	lastFilter   marketplace.ListingFilter
	lastKeywords string
	lastPlatform *marketplace.Platform
	lastLimit    int

	listings []marketplace.Listing
	total    int64
	err      error
}

func (m *MockListingRepository) Upsert(context.Context, *marketplace.Listing) (marketplace.UpsertOutcome, error) {
	return marketplace.UpsertCreated, nil
}

func (m *MockListingRepository) FindByID(_ context.Context, id uuid.UUID) (*marketplace.Listing, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.listings {
		if m.listings[i].ID == id {
			return &m.listings[i], nil
		}
	}
	return nil, marketplace.ErrListingNotFound
}

func (m *MockListingRepository) FindByIdentity(context.Context, marketplace.IdentityKey) (*marketplace.Listing, error) {
	return nil, marketplace.ErrListingNotFound
}

func (m *MockListingRepository) FindAll(_ context.Context, filter marketplace.ListingFilter) ([]marketplace.Listing, int64, error) {
	m.mu.Lock()
	m.lastFilter = filter
	m.mu.Unlock()
	if m.err != nil {
		return nil, 0, m.err
	}
	return m.listings, m.total, nil
}

func (m *MockListingRepository) Search(_ context.Context, keywords string, platform *marketplace.Platform, limit int) ([]marketplace.Listing, error) {
	m.mu.Lock()
	m.lastKeywords = keywords
	m.lastPlatform = platform
	m.lastLimit = limit
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.listings, nil
}

func (m *MockListingRepository) Count(context.Context, marketplace.ListingFilter) (int64, error) {
	return m.total, nil
}

var _ marketplace.ListingRepository = (*MockListingRepository)(nil)

// MockSyncJobRepository is an in-memory job store
type MockSyncJobRepository struct {
	mu   sync.Mutex
	jobs []*marketplace.SyncJob
	err  error

	lastFilter marketplace.SyncJobFilter
}

func (m *MockSyncJobRepository) add(job *marketplace.SyncJob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
}

func (m *MockSyncJobRepository) Create(_ context.Context, job *marketplace.SyncJob) error {
	m.add(job)
	return nil
}

func (m *MockSyncJobRepository) Update(context.Context, uuid.UUID, marketplace.JobDelta) error {
	return nil
}

func (m *MockSyncJobRepository) FindByID(_ context.Context, id uuid.UUID) (*marketplace.SyncJob, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, job := range m.jobs {
		if job.ID == id {
			return job, nil
		}
	}
	return nil, marketplace.ErrJobNotFound
}

func (m *MockSyncJobRepository) FindByTaskID(_ context.Context, taskID string) (*marketplace.SyncJob, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, job := range m.jobs {
		if job.TaskID == taskID {
			return job, nil
		}
	}
	return nil, marketplace.ErrJobNotFound
}

func (m *MockSyncJobRepository) FindAll(_ context.Context, filter marketplace.SyncJobFilter) ([]marketplace.SyncJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = filter
	out := make([]marketplace.SyncJob, len(m.jobs))
	for i, job := range m.jobs {
		out[i] = *job
	}
	return out, nil
}

func (m *MockSyncJobRepository) DeleteCompletedBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (m *MockSyncJobRepository) FindStuckRunning(context.Context, time.Duration) ([]marketplace.SyncJob, error) {
	return nil, nil
}

var _ marketplace.SyncJobRepository = (*MockSyncJobRepository)(nil)

// MockDispatcher replays scripted trigger results per platform
type MockDispatcher struct {
	mu      sync.Mutex
	calls   []marketplace.Platform
	errs    map[marketplace.Platform]error
	taskIDs map[marketplace.Platform]string
}

func (m *MockDispatcher) Trigger(_ context.Context, platform marketplace.Platform, _ marketplace.JobType, _ string, _ int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, platform)
	if err, ok := m.errs[platform]; ok {
		return "", err
	}
	if id, ok := m.taskIDs[platform]; ok {
		return id, nil
	}
	return "task-" + platform.String(), nil
}

func (m *MockDispatcher) triggered() []marketplace.Platform {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]marketplace.Platform(nil), m.calls...)
}

var _ SyncDispatcher = (*MockDispatcher)(nil)

// MockTrendRepository replays a scripted summary
type MockTrendRepository struct {
	mu        sync.Mutex
	summary   *marketplace.TrendSummary
	err       error
	lastSince time.Time
	lastTop   int
}

func (m *MockTrendRepository) Summarize(_ context.Context, since time.Time, topBrands int) (*marketplace.TrendSummary, error) {
	m.mu.Lock()
	m.lastSince = since
	m.lastTop = topBrands
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.summary, nil
}

var _ marketplace.TrendRepository = (*MockTrendRepository)(nil)

func sampleListing(platform marketplace.Platform, externalID string) marketplace.Listing {
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
