package store

import (
	"context"
	"sync"
	"time"

	"github.com/ritu11x/cortex-ai/internal/domain"
)

// MemoryStore keeps everything in process. It is the default backend and
// the one tests run against.
type MemoryStore struct {
	mu            sync.RWMutex
	items         map[string]map[string]domain.SavedItem
	notifications map[string]map[string]domain.Notification
	now           func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:         make(map[string]map[string]domain.SavedItem),
		notifications: make(map[string]map[string]domain.Notification),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source used for created_at.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Create(ctx context.Context, item domain.SavedItem) (domain.SavedItem, error) {
	item, err := prepareItem(item, s.now())
	if err != nil {
		return domain.SavedItem{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	byID, ok := s.items[item.UserID]
	if !ok {
		byID = make(map[string]domain.SavedItem)
		s.items[item.UserID] = byID
	}
	byID[item.ID] = item
	return item.Clone(), nil
}

func (s *MemoryStore) Get(ctx context.Context, userID, id string) (domain.SavedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[userID][id]
	if !ok {
		return domain.SavedItem{}, itemNotFound(userID, id)
	}
	return item.Clone(), nil
}

func (s *MemoryStore) ListByUser(ctx context.Context, userID string) ([]domain.SavedItem, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]domain.SavedItem, 0, len(s.items[userID]))
	for _, item := range s.items[userID] {
		out = append(out, item.Clone())
	}
	s.mu.RUnlock()

	sortByCreatedDesc(out)
	return out, nil
}

func (s *MemoryStore) Update(ctx context.Context, userID, id string, patch domain.ItemPatch) (domain.SavedItem, error) {
	if err := patch.Validate(); err != nil {
		return domain.SavedItem{}, err
	}
	return s.mutate(userID, id, patch.Apply)
}

func (s *MemoryStore) SetPinned(ctx context.Context, userID, id string, pinned bool) (domain.SavedItem, error) {
	return s.mutate(userID, id, func(item domain.SavedItem) domain.SavedItem {
		item.Pinned = pinned
		return item
	})
}

func (s *MemoryStore) mutate(userID, id string, fn func(domain.SavedItem) domain.SavedItem) (domain.SavedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[userID][id]
	if !ok {
		return domain.SavedItem{}, itemNotFound(userID, id)
	}
	item = fn(item.Clone())
	s.items[userID][id] = item
	return item.Clone(), nil
}

func (s *MemoryStore) Delete(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[userID][id]; !ok {
		return itemNotFound(userID, id)
	}
	delete(s.items[userID], id)
	return nil
}

// ============================================================================
// NOTIFICATIONS
// ============================================================================

func (s *MemoryStore) AddNotification(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	n, err := prepareNotification(n, s.now())
	if err != nil {
		return domain.Notification{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	byID, ok := s.notifications[n.UserID]
	if !ok {
		byID = make(map[string]domain.Notification)
		s.notifications[n.UserID] = byID
	}
	byID[n.ID] = n
	return n, nil
}

func (s *MemoryStore) ListNotifications(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]domain.Notification, 0, len(s.notifications[userID]))
	for _, n := range s.notifications[userID] {
		out = append(out, n)
	}
	s.mu.RUnlock()

	sortNotifications(out)
	if limit = notificationLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) MarkRead(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[userID][id]
	if !ok {
		return notificationNotFound(userID, id)
	}
	n.Read = true
	s.notifications[userID][id] = n
	return nil
}

func (s *MemoryStore) MarkAllRead(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, n := range s.notifications[userID] {
		n.Read = true
		s.notifications[userID][id] = n
	}
	return nil
}

func (s *MemoryStore) DeleteNotification(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notifications[userID][id]; !ok {
		return notificationNotFound(userID, id)
	}
	delete(s.notifications[userID], id)
	return nil
}

func (s *MemoryStore) ClearNotifications(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.notifications, userID)
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func (s *MemoryStore) Close() error { return nil }
