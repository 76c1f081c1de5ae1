// Package store persists saved items and notifications. Every backend
// scopes records by user id and reports a missing record as NotFound.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ritu11x/cortex-ai/internal/domain"
	appErrors "github.com/ritu11x/cortex-ai/internal/errors"
)

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSupabase = "supabase"
	DriverDynamoDB = "dynamodb"
	DriverSQLite   = "sqlite"
)

// ItemStore is the persistence contract for saved items.
type ItemStore interface {
	// Create assigns an id and created_at when they are empty.
	Create(ctx context.Context, item domain.SavedItem) (domain.SavedItem, error)
	Get(ctx context.Context, userID, id string) (domain.SavedItem, error)
	// ListByUser returns the user's items newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.SavedItem, error)
	Update(ctx context.Context, userID, id string, patch domain.ItemPatch) (domain.SavedItem, error)
	SetPinned(ctx context.Context, userID, id string, pinned bool) (domain.SavedItem, error)
	Delete(ctx context.Context, userID, id string) error
}

// NotificationStore keeps in-app notifications.
type NotificationStore interface {
	AddNotification(ctx context.Context, n domain.Notification) (domain.Notification, error)
	// ListNotifications returns at most limit notifications, newest first.
	ListNotifications(ctx context.Context, userID string, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) error
	DeleteNotification(ctx context.Context, userID, id string) error
	ClearNotifications(ctx context.Context, userID string) error
}

// Store is a complete backend.
type Store interface {
	ItemStore
	NotificationStore
	Ping(ctx context.Context) error
	Close() error
}

// ============================================================================
// SHARED HELPERS
// ============================================================================

func itemNotFound(userID, id string) error {
	return appErrors.NotFound("ITEM_NOT_FOUND", "item not found").
		WithDetails(fmt.Sprintf("user %s id %s", userID, id)).
		Build()
}

func notificationNotFound(userID, id string) error {
	return appErrors.NotFound("NOTIFICATION_NOT_FOUND", "notification not found").
		WithDetails(fmt.Sprintf("user %s id %s", userID, id)).
		Build()
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return appErrors.Validation("USER_ID_REQUIRED", "user_id is required").Build()
	}
	return nil
}

func backendError(driver, op string, err error) error {
	return appErrors.Connection("STORE_UNAVAILABLE", fmt.Sprintf("%s %s failed", driver, op)).
		WithOperation(op).
		WithCause(err).
		Build()
}

// prepareItem validates a new item and fills in server-assigned fields.
func prepareItem(item domain.SavedItem, now time.Time) (domain.SavedItem, error) {
	if err := item.Validate(); err != nil {
		return domain.SavedItem{}, err
	}
	out := item.Clone()
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now
	}
	out.CreatedAt = out.CreatedAt.UTC()
	if strings.TrimSpace(out.Title) == "" {
		out.Title = domain.UntitledTitle
	}
	if out.SourceType == "" {
		out.SourceType = domain.SourceNote
	}
	if out.Category == "" {
		out.Category = domain.CategoryOther
	}
	return out, nil
}

func prepareNotification(n domain.Notification, now time.Time) (domain.Notification, error) {
	if err := n.Validate(); err != nil {
		return domain.Notification{}, err
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.CreatedAt = n.CreatedAt.UTC()
	return n, nil
}

func notificationLimit(limit int) int {
	if limit <= 0 {
		return domain.DefaultNotificationLimit
	}
	return limit
}

func sortNotifications(ns []domain.Notification) {
	sort.Slice(ns, func(a, b int) bool {
		if !ns[a].CreatedAt.Equal(ns[b].CreatedAt) {
			return ns[a].CreatedAt.After(ns[b].CreatedAt)
		}
		return ns[a].ID < ns[b].ID
	})
}

// sortByCreatedDesc orders by created_at descending with id as a tiebreak
// so map-backed stores list deterministically.
func sortByCreatedDesc(items []domain.SavedItem) {
	sort.Slice(items, func(a, b int) bool {
		if !items[a].CreatedAt.Equal(items[b].CreatedAt) {
			return items[a].CreatedAt.After(items[b].CreatedAt)
		}
		return items[a].ID < items[b].ID
	})
}
