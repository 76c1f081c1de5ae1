// Package notifications manages the in-app notification feed.
package notifications

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ritu11x/cortex-ai/internal/domain"
	appErrors "github.com/ritu11x/cortex-ai/internal/errors"
	"github.com/ritu11x/cortex-ai/internal/store"
)

// MaxLimit caps a single listing.
const MaxLimit = 100

// Service validates input and forwards to the notification store.
type Service struct {
	store  store.NotificationStore
	logger *zap.Logger
}

// NewService creates a Service.
func NewService(s store.NotificationStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: s, logger: logger.Named("notifications")}
}

// Notify adds a notification. Failures are logged and swallowed so the
// action that triggered them still succeeds.
func (s *Service) Notify(ctx context.Context, userID, title, message string, typ domain.NotificationType) {
	_, err := s.store.AddNotification(ctx, domain.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    typ,
	})
	if err != nil {
		s.logger.Warn("failed to add notification",
			zap.String("user_id", userID),
			zap.String("title", title),
			zap.Error(err))
	}
}

// List returns the newest notifications. A non-positive limit uses the
// default; larger limits are capped at MaxLimit.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = domain.DefaultNotificationLimit
	}
	return s.store.ListNotifications(ctx, userID, min(limit, MaxLimit))
}

func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	return s.store.MarkRead(ctx, userID, id)
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	return s.store.MarkAllRead(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	return s.store.DeleteNotification(ctx, userID, id)
}

// Clear removes every notification of the user.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	return s.store.ClearNotifications(ctx, userID)
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return appErrors.Validation("USER_ID_REQUIRED", "user_id is required").Build()
	}
	return nil
}
