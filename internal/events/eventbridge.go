package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"

	"github.com/ritu11x/cortex-ai/internal/domain"
)

// maxEntriesPerPut is the PutEvents entry limit.
const maxEntriesPerPut = 10

// EventBridgeAPI is the part of the EventBridge client the publisher uses.
type EventBridgeAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// EventBridgePublisher sends events to an EventBridge bus.
type EventBridgePublisher struct {
	client   EventBridgeAPI
	eventBus string
	source   string
}

// NewEventBridgePublisher creates a publisher for eventBus. Empty values
// fall back to the default bus and domain.EventSource.
func NewEventBridgePublisher(client EventBridgeAPI, eventBus, source string) *EventBridgePublisher {
	if eventBus == "" {
		eventBus = "default"
	}
	if source == "" {
		source = domain.EventSource
	}
	return &EventBridgePublisher{client: client, eventBus: eventBus, source: source}
}

func (p *EventBridgePublisher) Publish(ctx context.Context, events ...domain.Event) error {
	for start := 0; start < len(events); start += maxEntriesPerPut {
		end := min(start+maxEntriesPerPut, len(events))
		if err := p.putBatch(ctx, events[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (p *EventBridgePublisher) putBatch(ctx context.Context, batch []domain.Event) error {
	entries := make([]types.PutEventsRequestEntry, 0, len(batch))
	for _, e := range batch {
		entry, err := p.entry(e)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}

	out, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
	if err != nil {
		return fmt.Errorf("put events: %w", err)
	}
	if out.FailedEntryCount > 0 {
		for _, e := range out.Entries {
			if e.ErrorCode != nil {
				return fmt.Errorf("%d events failed to publish: %s: %s",
					out.FailedEntryCount, aws.ToString(e.ErrorCode), aws.ToString(e.ErrorMessage))
			}
		}
		return fmt.Errorf("%d events failed to publish", out.FailedEntryCount)
	}
	return nil
}

func (p *EventBridgePublisher) entry(e domain.Event) (types.PutEventsRequestEntry, error) {
	detail, err := json.Marshal(e)
	if err != nil {
		return types.PutEventsRequestEntry{}, fmt.Errorf("marshal event %s: %w", e.Type, err)
	}
	entry := types.PutEventsRequestEntry{
		EventBusName: aws.String(p.eventBus),
		Source:       aws.String(p.source),
		DetailType:   aws.String(e.Type),
		Detail:       aws.String(string(detail)),
		Time:         aws.Time(e.Timestamp),
	}
	if e.ItemID != "" {
		entry.Resources = []string{e.ItemID}
	}
	return entry, nil
}
