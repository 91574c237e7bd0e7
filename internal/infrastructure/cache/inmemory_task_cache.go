package cache

import (
	"context"
	"sync"
	"time"

	"github.com/fadedindigo/backend/internal/domain/marketplace"
)

// taskEntry is a cached job snapshot with expiration
type taskEntry struct {
	snapshot  jobSnapshot
	expiresAt time.Time
}

// reservation is a held trigger slot with expiration
type reservation struct {
	expiresAt time.Time
}

// InMemoryTaskCache implements TaskResultCache and TriggerGuard with maps.
// Suitable for single-instance deployments and testing; state is not
// shared across processes.
type InMemoryTaskCache struct {
	mu           sync.RWMutex
	tasks        map[string]taskEntry
	reservations map[marketplace.Platform]reservation
	stopChan     chan struct{}
	wg           sync.WaitGroup
	closeOnce    sync.Once
}

// NewInMemoryTaskCache creates an in-memory task cache. It starts a
// background goroutine to drop expired entries.
func NewInMemoryTaskCache() *InMemoryTaskCache {
	cache := &InMemoryTaskCache{
		tasks:        make(map[string]taskEntry),
		reservations: make(map[marketplace.Platform]reservation),
		stopChan:     make(chan struct{}),
	}

	cache.wg.Add(1)
	go cache.cleanupLoop()

	return cache
}

// GetJob returns the cached snapshot for the task, or found=false on a miss
func (c *InMemoryTaskCache) GetJob(_ context.Context, taskID string) (*marketplace.SyncJob, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.tasks[taskID]
	if !exists || time.Now().After(entry.expiresAt) {
		return nil, false, nil
	}
	return entry.snapshot.toJob(), true, nil
}

// PutJob stores a snapshot with a TTL
func (c *InMemoryTaskCache) PutJob(_ context.Context, job *marketplace.SyncJob, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tasks[job.TaskID] = taskEntry{
		snapshot:  newJobSnapshot(job),
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Reserve claims the platform trigger slot for the window. Returns false
// when another trigger already holds it.
func (c *InMemoryTaskCache) Reserve(_ context.Context, platform marketplace.Platform, window time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r, exists := c.reservations[platform]; exists && time.Now().Before(r.expiresAt) {
		return false, nil
	}
	c.reservations[platform] = reservation{expiresAt: time.Now().Add(window)}
	return true, nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (c *InMemoryTaskCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

// Size returns the number of cached task entries (for testing/monitoring)
func (c *InMemoryTaskCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tasks)
}

func (c *InMemoryTaskCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

// cleanup removes expired entries
func (c *InMemoryTaskCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for taskID, entry := range c.tasks {
		if now.After(entry.expiresAt) {
			delete(c.tasks, taskID)
		}
	}
	for platform, r := range c.reservations {
		if now.After(r.expiresAt) {
			delete(c.reservations, platform)
		}
	}
}

var (
	_ TaskResultCache = (*InMemoryTaskCache)(nil)
	_ TriggerGuard    = (*InMemoryTaskCache)(nil)
)
