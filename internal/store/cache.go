package store

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/ritu11x/cortex-ai/internal/domain"
)

// DefaultSnapshotTTL bounds how stale a cached listing can be.
const DefaultSnapshotTTL = 30 * time.Second

// DefaultMaxSnapshots caps how many users are cached at once.
const DefaultMaxSnapshots = 1000

// SnapshotReader returns a private copy of a user's listing.
type SnapshotReader interface {
	Snapshot(ctx context.Context, userID string) ([]domain.SavedItem, error)
}

// Snapshot reads through s when it caches, and lists directly otherwise.
func Snapshot(ctx context.Context, s ItemStore, userID string) ([]domain.SavedItem, error) {
	if r, ok := s.(SnapshotReader); ok {
		return r.Snapshot(ctx, userID)
	}
	return s.ListByUser(ctx, userID)
}

// CacheConfig tunes the snapshot cache.
type CacheConfig struct {
	TTL          time.Duration
	MaxSnapshots int
	Hits          prometheus.Counter
	Misses        prometheus.Counter
	Invalidations prometheus.Counter
}

type snapshotEntry struct {
	items     []domain.SavedItem
	expiresAt time.Time
}

// CachedItems wraps an ItemStore with a per-user listing cache. Any write
// for a user drops that user's snapshot.
type CachedItems struct {
	ItemStore

	mu            sync.RWMutex
	entries       map[string]snapshotEntry
	gens          map[string]uint64
	ttl           time.Duration
	max           int
	hits          prometheus.Counter
	misses        prometheus.Counter
	invalidations prometheus.Counter
	group         singleflight.Group
	now           func() time.Time
}

// NewCachedItems wraps inner. Zero config values take the defaults.
func NewCachedItems(inner ItemStore, cfg CacheConfig) *CachedItems {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSnapshotTTL
	}
	if cfg.MaxSnapshots <= 0 {
		cfg.MaxSnapshots = DefaultMaxSnapshots
	}
	return &CachedItems{
		ItemStore:     inner,
		entries:       make(map[string]snapshotEntry),
		gens:          make(map[string]uint64),
		ttl:           cfg.TTL,
		max:           cfg.MaxSnapshots,
		hits:          cfg.Hits,
		misses:        cfg.Misses,
		invalidations: cfg.Invalidations,
		now:           time.Now,
	}
}

// Invalidate drops the cached listing for userID.
func (c *CachedItems) Invalidate(userID string) {
	c.mu.Lock()
	delete(c.entries, userID)
	c.gens[userID]++
	c.mu.Unlock()

	c.group.Forget(userID)
	c.count(c.invalidations)
}

// Snapshot returns the user's items newest first. The slice and its items
// are copies the caller may modify.
func (c *CachedItems) Snapshot(ctx context.Context, userID string) ([]domain.SavedItem, error) {
	if items, ok := c.lookup(userID); ok {
		c.count(c.hits)
		return cloneItems(items), nil
	}
	c.count(c.misses)

	v, err, _ := c.group.Do(userID, func() (any, error) {
		gen := c.generation(userID)
		items, err := c.ItemStore.ListByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		c.store(userID, gen, items)
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneItems(v.([]domain.SavedItem)), nil
}

// ListByUser serves from the snapshot.
func (c *CachedItems) ListByUser(ctx context.Context, userID string) ([]domain.SavedItem, error) {
	return c.Snapshot(ctx, userID)
}

func (c *CachedItems) Create(ctx context.Context, item domain.SavedItem) (domain.SavedItem, error) {
	created, err := c.ItemStore.Create(ctx, item)
	if err == nil {
		c.Invalidate(created.UserID)
	}
	return created, err
}

func (c *CachedItems) Update(ctx context.Context, userID, id string, patch domain.ItemPatch) (domain.SavedItem, error) {
	updated, err := c.ItemStore.Update(ctx, userID, id, patch)
	if err == nil {
		c.Invalidate(userID)
	}
	return updated, err
}

func (c *CachedItems) SetPinned(ctx context.Context, userID, id string, pinned bool) (domain.SavedItem, error) {
	updated, err := c.ItemStore.SetPinned(ctx, userID, id, pinned)
	if err == nil {
		c.Invalidate(userID)
	}
	return updated, err
}

func (c *CachedItems) Delete(ctx context.Context, userID, id string) error {
	err := c.ItemStore.Delete(ctx, userID, id)
	if err == nil {
		c.Invalidate(userID)
	}
	return err
}

// Len reports how many users currently have a snapshot.
func (c *CachedItems) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *CachedItems) lookup(userID string) ([]domain.SavedItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[userID]
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.items, true
}

func (c *CachedItems) generation(userID string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gens[userID]
}

// store keeps items unless a write invalidated the user since gen was read.
func (c *CachedItems) store(userID string, gen uint64, items []domain.SavedItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[userID] != gen {
		return
	}
	if _, exists := c.entries[userID]; !exists && len(c.entries) >= c.max {
		c.evictOldest()
	}
	c.entries[userID] = snapshotEntry{
		items:     cloneItems(items),
		expiresAt: c.now().Add(c.ttl),
	}
}

// evictOldest drops the entry closest to expiry. Callers hold the lock.
func (c *CachedItems) evictOldest() {
	var (
		oldestKey  string
		oldestTime time.Time
	)
	for key, entry := range c.entries {
		if oldestTime.IsZero() || entry.expiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.expiresAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func (c *CachedItems) count(counter prometheus.Counter) {
	if counter != nil {
		counter.Inc()
	}
}

func cloneItems(items []domain.SavedItem) []domain.SavedItem {
	out := make([]domain.SavedItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}

// ============================================================================
// CACHED STORE
// ============================================================================

// CachedStore is a Store whose item reads go through a CachedItems.
type CachedStore struct {
	*CachedItems
	backend Store
}

// NewCachedStore wraps backend's items with a snapshot cache.
func NewCachedStore(backend Store, cfg CacheConfig) *CachedStore {
	return &CachedStore{CachedItems: NewCachedItems(backend, cfg), backend: backend}
}

func (s *CachedStore) AddNotification(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	return s.backend.AddNotification(ctx, n)
}

func (s *CachedStore) ListNotifications(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	return s.backend.ListNotifications(ctx, userID, limit)
}

func (s *CachedStore) MarkRead(ctx context.Context, userID, id string) error {
	return s.backend.MarkRead(ctx, userID, id)
}

func (s *CachedStore) MarkAllRead(ctx context.Context, userID string) error {
	return s.backend.MarkAllRead(ctx, userID)
}

func (s *CachedStore) DeleteNotification(ctx context.Context, userID, id string) error {
	return s.backend.DeleteNotification(ctx, userID, id)
}

func (s *CachedStore) ClearNotifications(ctx context.Context, userID string) error {
	return s.backend.ClearNotifications(ctx, userID)
}

func (s *CachedStore) Ping(ctx context.Context) error { return s.backend.Ping(ctx) }

func (s *CachedStore) Close() error { return s.backend.Close() }
