//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/ritu11x/cortex-ai/internal/config"
)

// SuperSet is the main provider set containing all providers.
var SuperSet = wire.NewSet(
	ProvideLogSetup,
	ProvideLogger,
	ProvideLogLevel,
	ProvideMetrics,
	ProvideTracing,
	ProvideStore,
	ProvidePublisher,
	ProvideLLMProvider,
	ProvideClassifier,
	ProvideChatRelay,
	ProvideFetcher,
	ProvideNotificationService,
	ProvideItemService,
	ProvideAnalyticsService,
	ProvideHandlers,
	NewRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container. The cleanup function
// releases resources in reverse order of creation.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}
