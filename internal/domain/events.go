package domain

import "time"

// Event type names, also used as EventBridge detail types.
const (
	EventItemSaved      = "item.saved"
	EventItemUpdated    = "item.updated"
	EventItemPinned     = "item.pinned"
	EventItemDeleted    = "item.deleted"
	EventReportExported = "report.exported"
)

// EventSource identifies this service on the event bus.
const EventSource = "cortex.api"

// Event is something that happened to a user's collection.
type Event struct {
	Type      string            `json:"type"`
	UserID    string            `json:"user_id"`
	ItemID    string            `json:"item_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Data      map[string]string `json:"data,omitempty"`
}

// NewEvent stamps an event with the current time.
func NewEvent(eventType, userID, itemID string) Event {
	return Event{
		Type:      eventType,
		UserID:    userID,
		ItemID:    itemID,
		Timestamp: time.Now().UTC(),
	}
}

// With attaches a data attribute and returns the event.
func (e Event) With(key, value string) Event {
	if e.Data == nil {
		e.Data = make(map[string]string)
	}
	e.Data[key] = value
	return e
}
