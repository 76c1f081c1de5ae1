package store

import (
	"context"
	"time"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"github.com/ritu11x/cortex-ai/internal/domain"
)

// Supabase table names.
const (
	ItemsTable         = "saved_items"
	NotificationsTable = "notifications"
)

const returnRepresentation = "representation"

// SupabaseStore talks to the hosted Postgres through PostgREST.
type SupabaseStore struct {
	client *supabase.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewSupabaseStore connects with a service role key.
func NewSupabaseStore(url, serviceKey string, logger *zap.Logger) (*SupabaseStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := supabase.NewClient(url, serviceKey, nil)
	if err != nil {
		return nil, backendError(DriverSupabase, "connect", err)
	}
	return &SupabaseStore{
		client: client,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

type supabaseItemUpdate struct {
	Title    string          `json:"title"`
	Summary  string          `json:"summary"`
	Tags     []string        `json:"tags"`
	Category domain.Category `json:"category"`
}

func (s *SupabaseStore) Create(ctx context.Context, item domain.SavedItem) (domain.SavedItem, error) {
	item, err := prepareItem(item, s.now())
	if err != nil {
		return domain.SavedItem{}, err
	}

	var rows []domain.SavedItem
	_, err = s.client.From(ItemsTable).
		Insert(item, false, "", returnRepresentation, "").
		ExecuteTo(&rows)
	if err != nil {
		return domain.SavedItem{}, backendError(DriverSupabase, "insert", err)
	}
	if len(rows) == 0 {
		return item, nil
	}
	return normalizeItem(rows[0]), nil
}

func (s *SupabaseStore) Get(ctx context.Context, userID, id string) (domain.SavedItem, error) {
	var rows []domain.SavedItem
	_, err := s.client.From(ItemsTable).
		Select("*", "", false).
		Eq("user_id", userID).
		Eq("id", id).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return domain.SavedItem{}, backendError(DriverSupabase, "select", err)
	}
	if len(rows) == 0 {
		return domain.SavedItem{}, itemNotFound(userID, id)
	}
	return normalizeItem(rows[0]), nil
}

func (s *SupabaseStore) ListByUser(ctx context.Context, userID string) ([]domain.SavedItem, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	var rows []domain.SavedItem
	_, err := s.client.From(ItemsTable).
		Select("*", "", false).
		Eq("user_id", userID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&rows)
	if err != nil {
		s.logger.Error("supabase list failed", zap.String("user_id", userID), zap.Error(err))
		return nil, backendError(DriverSupabase, "select", err)
	}
	out := make([]domain.SavedItem, len(rows))
	for i, row := range rows {
		out[i] = normalizeItem(row)
	}
	return out, nil
}

func (s *SupabaseStore) Update(ctx context.Context, userID, id string, patch domain.ItemPatch) (domain.SavedItem, error) {
	if err := patch.Validate(); err != nil {
		return domain.SavedItem{}, err
	}
	current, err := s.Get(ctx, userID, id)
	if err != nil {
		return domain.SavedItem{}, err
	}
	next := patch.Apply(current)
	return s.updateItem(userID, id, supabaseItemUpdate{
		Title:    next.Title,
		Summary:  next.Summary,
		Tags:     next.Tags,
		Category: next.Category,
	})
}

func (s *SupabaseStore) SetPinned(ctx context.Context, userID, id string, pinned bool) (domain.SavedItem, error) {
	return s.updateItem(userID, id, map[string]bool{"pinned": pinned})
}

func (s *SupabaseStore) updateItem(userID, id string, values any) (domain.SavedItem, error) {
	var rows []domain.SavedItem
	_, err := s.client.From(ItemsTable).
		Update(values, returnRepresentation, "").
		Eq("user_id", userID).
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return domain.SavedItem{}, backendError(DriverSupabase, "update", err)
	}
	if len(rows) == 0 {
		return domain.SavedItem{}, itemNotFound(userID, id)
	}
	return normalizeItem(rows[0]), nil
}

func (s *SupabaseStore) Delete(ctx context.Context, userID, id string) error {
	var rows []domain.SavedItem
	_, err := s.client.From(ItemsTable).
		Delete(returnRepresentation, "").
		Eq("user_id", userID).
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return backendError(DriverSupabase, "delete", err)
	}
	if len(rows) == 0 {
		return itemNotFound(userID, id)
	}
	return nil
}

// ============================================================================
// NOTIFICATIONS
// ============================================================================

func (s *SupabaseStore) AddNotification(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	n, err := prepareNotification(n, s.now())
	if err != nil {
		return domain.Notification{}, err
	}
	var rows []domain.Notification
	_, err = s.client.From(NotificationsTable).
		Insert(n, false, "", returnRepresentation, "").
		ExecuteTo(&rows)
	if err != nil {
		return domain.Notification{}, backendError(DriverSupabase, "insert notification", err)
	}
	if len(rows) == 0 {
		return n, nil
	}
	return rows[0], nil
}

func (s *SupabaseStore) ListNotifications(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	rows := []domain.Notification{}
	_, err := s.client.From(NotificationsTable).
		Select("*", "", false).
		Eq("user_id", userID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(notificationLimit(limit), "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, backendError(DriverSupabase, "select notifications", err)
	}
	return rows, nil
}

func (s *SupabaseStore) MarkRead(ctx context.Context, userID, id string) error {
	var rows []domain.Notification
	_, err := s.client.From(NotificationsTable).
		Update(map[string]bool{"read": true}, returnRepresentation, "").
		Eq("user_id", userID).
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return backendError(DriverSupabase, "mark read", err)
	}
	if len(rows) == 0 {
		return notificationNotFound(userID, id)
	}
	return nil
}

func (s *SupabaseStore) MarkAllRead(ctx context.Context, userID string) error {
	_, _, err := s.client.From(NotificationsTable).
		Update(map[string]bool{"read": true}, "minimal", "").
		Eq("user_id", userID).
		Eq("read", "false").
		Execute()
	if err != nil {
		return backendError(DriverSupabase, "mark all read", err)
	}
	return nil
}

func (s *SupabaseStore) DeleteNotification(ctx context.Context, userID, id string) error {
	var rows []domain.Notification
	_, err := s.client.From(NotificationsTable).
		Delete(returnRepresentation, "").
		Eq("user_id", userID).
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return backendError(DriverSupabase, "delete notification", err)
	}
	if len(rows) == 0 {
		return notificationNotFound(userID, id)
	}
	return nil
}

func (s *SupabaseStore) ClearNotifications(ctx context.Context, userID string) error {
	_, _, err := s.client.From(NotificationsTable).
		Delete("minimal", "").
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return backendError(DriverSupabase, "clear notifications", err)
	}
	return nil
}

// Ping issues a cheap head request against the items table.
func (s *SupabaseStore) Ping(ctx context.Context) error {
	_, _, err := s.client.From(ItemsTable).Select("id", "exact", true).Limit(1, "").Execute()
	if err != nil {
		return backendError(DriverSupabase, "ping", err)
	}
	return nil
}

func (s *SupabaseStore) Close() error { return nil }

// normalizeItem applies the read-side defaults for rows written by older
// clients.
func normalizeItem(item domain.SavedItem) domain.SavedItem {
	item.SourceType = domain.ParseSourceType(string(item.SourceType))
	if item.Tags == nil {
		item.Tags = []string{}
	}
	item.CreatedAt = item.CreatedAt.UTC()
	return item
}
