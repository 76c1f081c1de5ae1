// Package events publishes domain events to the event bus.
package events

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"github.com/ritu11x/cortex-ai/internal/config"
	"github.com/ritu11x/cortex-ai/internal/domain"
)

// Provider names accepted in configuration.
const (
	ProviderLog         = "log"
	ProviderEventBridge = "eventbridge"
	ProviderNone        = "none"
)

// Publisher sends domain events somewhere. Callers treat failures as
// best-effort and only log them.
type Publisher interface {
	Publish(ctx context.Context, events ...domain.Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, ...domain.Event) error { return nil }

// LogPublisher writes events to the structured log.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger.Named("events")}
}

func (p *LogPublisher) Publish(_ context.Context, events ...domain.Event) error {
	for _, e := range events {
		p.logger.Info("domain event",
			zap.String("type", e.Type),
			zap.String("user_id", e.UserID),
			zap.String("item_id", e.ItemID),
			zap.Time("timestamp", e.Timestamp),
			zap.Any("data", e.Data))
	}
	return nil
}

// New builds the publisher selected by cfg. The EventBridge publisher is
// wrapped in an AsyncPublisher so requests never wait on the bus.
func New(ctx context.Context, cfg config.Events, logger *zap.Logger) (Publisher, error) {
	switch cfg.Provider {
	case ProviderNone:
		return Nop{}, nil
	case "", ProviderLog:
		return NewLogPublisher(logger), nil
	case ProviderEventBridge:
		opts := []func(*awsconfig.LoadOptions) error{}
		if cfg.Region != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		bridge := NewEventBridgePublisher(eventbridge.NewFromConfig(awsCfg), cfg.EventBusName, domain.EventSource)
		return NewAsyncPublisher(bridge, 0, logger), nil
	default:
		return nil, fmt.Errorf("unknown events provider %q", cfg.Provider)
	}
}
