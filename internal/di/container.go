// Package di wires the application graph. wire.go declares the injector;
// wire_gen.go is its generated implementation.
package di

import (
	"github.com/go-chi/chi/v5"
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

// Container holds all application dependencies.
type Container struct {
	Config        *config.Config
	Logger        *zap.Logger
	LogLevel      zap.AtomicLevel
	Metrics       *observability.Collector
	Tracing       *tracing.Provider
	Store         store.Store
	Publisher     events.Publisher
	LLM           llm.Provider
	Classifier    *llm.Classifier
	ChatRelay     *llm.ChatRelay
	Fetcher       *fetcher.Fetcher
	Items         *items.Service
	Notifications *notifications.Service
	Analytics     *analytics.Service
	Handlers      *handlers.Handlers
	Router        *chi.Mux
}
