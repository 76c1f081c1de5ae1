package di

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ritu11x/cortex-ai/internal/config"
	"github.com/ritu11x/cortex-ai/internal/events"
	"github.com/ritu11x/cortex-ai/internal/fetcher"
	"github.com/ritu11x/cortex-ai/internal/handlers"
	"github.com/ritu11x/cortex-ai/internal/llm"
	"github.com/ritu11x/cortex-ai/internal/observability"
	"github.com/ritu11x/cortex-ai/internal/service/analytics"
	"github.com/ritu11x/cortex-ai/internal/service/items"
	"github.com/ritu11x/cortex-ai/internal/service/notifications"
	"github.com/ritu11x/cortex-ai/internal/store"
	"github.com/ritu11x/cortex-ai/internal/tracing"
)

const cleanupTimeout = 5 * time.Second

// LogSetup is the process logger together with its runtime level.
type LogSetup struct {
	Logger *zap.Logger
	Level  zap.AtomicLevel
}

// ProvideLogSetup builds the logger from the logging section.
func ProvideLogSetup(cfg *config.Config) (LogSetup, func(), error) {
	logger, level, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return LogSetup{}, nil, err
	}
	logger = logger.With(zap.String("environment", string(cfg.Environment)))
	return LogSetup{Logger: logger, Level: level}, func() { _ = logger.Sync() }, nil
}

// ProvideLogger extracts the logger.
func ProvideLogger(s LogSetup) *zap.Logger {
	return s.Logger
}

// ProvideLogLevel extracts the runtime level.
func ProvideLogLevel(s LogSetup) zap.AtomicLevel {
	return s.Level
}

// ProvideMetrics creates the Prometheus collector.
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	return observability.NewCollector(cfg.Metrics.Namespace)
}

// ProvideTracing creates the tracer provider and flushes it on cleanup.
func ProvideTracing(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*tracing.Provider, func(), error) {
	tp, err := tracing.NewProvider(ctx, cfg.Tracing, cfg.Environment)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("failed to flush traces", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// ProvideStore opens the configured backend and decorates it with tracing
// and, when enabled, the snapshot cache.
func ProvideStore(
	ctx context.Context,
	cfg *config.Config,
	tp *tracing.Provider,
	metrics *observability.Collector,
	logger *zap.Logger,
) (store.Store, func(), error) {
	backend, err := store.Open(ctx, store.Options{
		Driver:             cfg.Store.Driver,
		SupabaseURL:        cfg.Store.Supabase.URL,
		SupabaseServiceKey: cfg.Store.Supabase.ServiceKey,
		DynamoDBTable:      cfg.Store.DynamoDB.Table,
		DynamoDBRegion:     cfg.Store.DynamoDB.Region,
		DynamoDBEndpoint:   cfg.Store.DynamoDB.Endpoint,
		SQLitePath:         cfg.Store.SQLite.Path,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	var s store.Store = tracing.NewTracedStore(backend, tp.Tracer(), cfg.Store.Driver, metrics)
	if cfg.Cache.Enabled {
		s = store.NewCachedStore(s, store.CacheConfig{
			TTL:           cfg.Cache.TTL,
			MaxSnapshots:  cfg.Cache.MaxSnapshots,
			Hits:          metrics.CacheHits,
			Misses:        metrics.CacheMisses,
			Invalidations: metrics.CacheInvalidations,
		})
	}

	cleanup := func() {
		if err := s.Close(); err != nil {
			logger.Warn("failed to close store", zap.Error(err))
		}
	}
	return s, cleanup, nil
}

// ProvidePublisher creates the domain event publisher and drains it on
// cleanup.
func ProvidePublisher(ctx context.Context, cfg *config.Config, logger *zap.Logger) (events.Publisher, func(), error) {
	pub, err := events.New(ctx, cfg.Events, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		closer, ok := pub.(interface{ Close(context.Context) error })
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()
		if err := closer.Close(ctx); err != nil {
			logger.Warn("failed to drain event publisher", zap.Error(err))
		}
	}
	return pub, cleanup, nil
}

// ProvideLLMProvider selects the Anthropic or the scripted provider.
func ProvideLLMProvider(cfg *config.Config, logger *zap.Logger) llm.Provider {
	if cfg.LLM.Provider == "mock" {
		logger.Info("using mock llm provider")
		return llm.NewMockProvider()
	}
	if cfg.LLM.APIKey == "" {
		logger.Warn("anthropic api key not set, items will be saved without enrichment")
	}
	return llm.NewAnthropicProvider(llm.AnthropicConfig{
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Timeout:    cfg.LLM.Timeout,
		MaxRetries: cfg.LLM.MaxRetries,
		RateLimit:  cfg.LLM.RateLimit,
		Burst:      cfg.LLM.Burst,
	}, logger)
}

// ProvideClassifier creates the content classifier.
func ProvideClassifier(p llm.Provider, cfg *config.Config, logger *zap.Logger) *llm.Classifier {
	return llm.NewClassifier(p, llm.ClassifierConfig{
		Model:     cfg.LLM.ClassifierModel,
		MaxTokens: int(cfg.LLM.ClassifierMaxTokens),
	}, logger)
}

// ProvideChatRelay creates the chat relay.
func ProvideChatRelay(p llm.Provider, cfg *config.Config, logger *zap.Logger) *llm.ChatRelay {
	return llm.NewChatRelay(p, llm.ChatConfig{
		Model:     cfg.LLM.ChatModel,
		MaxTokens: int(cfg.LLM.ChatMaxTokens),
	}, logger)
}

// ProvideFetcher creates the metadata fetcher.
func ProvideFetcher(cfg *config.Config, logger *zap.Logger) *fetcher.Fetcher {
	return fetcher.New(fetcher.Config{
		Timeout:      cfg.Fetcher.Timeout,
		MaxRedirects: cfg.Fetcher.MaxRedirects,
		MaxBodyBytes: cfg.Fetcher.MaxBodyBytes,
		UserAgent:    cfg.Fetcher.UserAgent,
	}, logger)
}

// ProvideNotificationService creates the notification service.
func ProvideNotificationService(s store.Store, logger *zap.Logger) *notifications.Service {
	return notifications.NewService(s, logger)
}

// ProvideItemService creates the items service.
func ProvideItemService(
	s store.Store,
	classifier *llm.Classifier,
	relay *llm.ChatRelay,
	notifier *notifications.Service,
	publisher events.Publisher,
	metrics *observability.Collector,
	cfg *config.Config,
	logger *zap.Logger,
) *items.Service {
	itemCfg := items.DefaultConfig()
	itemCfg.DefaultUserName = cfg.Report.DefaultUserName
	return items.NewService(s, classifier, relay, notifier, publisher, metrics, itemCfg, logger)
}

// ProvideAnalyticsService creates the analytics service.
func ProvideAnalyticsService(s store.Store) *analytics.Service {
	return analytics.NewService(s)
}

// ProvideHandlers creates every HTTP handler.
func ProvideHandlers(
	cfg *config.Config,
	itemSvc *items.Service,
	notifier *notifications.Service,
	analyticsSvc *analytics.Service,
	f *fetcher.Fetcher,
	s store.Store,
	logger *zap.Logger,
) *handlers.Handlers {
	maxBody := cfg.Server.MaxRequestSize
	return &handlers.Handlers{
		Items:         handlers.NewItemHandler(itemSvc, logger, maxBody),
		Assistant:     handlers.NewAssistantHandler(itemSvc, f, logger, maxBody),
		Notifications: handlers.NewNotificationHandler(notifier, logger),
		System:        handlers.NewSystemHandler(s, analyticsSvc, logger),
	}
}
