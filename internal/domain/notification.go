package domain

import (
	"strings"
	"time"

	appErrors "github.com/ritu11x/cortex-ai/internal/errors"
)

// DefaultNotificationLimit is how many notifications a listing returns.
const DefaultNotificationLimit = 20

// NotificationType selects the icon and colour of a notification.
type NotificationType string

const (
	NotifyInfo    NotificationType = "info"
	NotifySuccess NotificationType = "success"
	NotifyWarning NotificationType = "warning"
	NotifyAI      NotificationType = "ai"
)

// Notification is an in-app message for a user.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// Validate checks the fields a store requires.
func (n Notification) Validate() error {
	if strings.TrimSpace(n.UserID) == "" {
		return appErrors.Validation("USER_ID_REQUIRED", "user_id is required").Build()
	}
	if strings.TrimSpace(n.Title) == "" {
		return appErrors.Validation("TITLE_REQUIRED", "title is required").Build()
	}
	switch n.Type {
	case NotifyInfo, NotifySuccess, NotifyWarning, NotifyAI:
	default:
		return appErrors.Validation("INVALID_NOTIFICATION_TYPE", "type must be one of info, success, warning, ai").Build()
	}
	return nil
}

// Milestones are the collection sizes worth celebrating.
var Milestones = []int{10, 25, 50, 100, 250, 500}

// CheckMilestone returns the first milestone crossed going from prev to next
// items, or 0 when none was crossed.
func CheckMilestone(prev, next int) int {
	for _, m := range Milestones {
		if prev < m && next >= m {
			return m
		}
	}
	return 0
}
