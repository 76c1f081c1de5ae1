package di

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritu11x/cortex-ai/internal/config"
	"github.com/ritu11x/cortex-ai/internal/fetcher"
	"github.com/ritu11x/cortex-ai/internal/llm"
)

func testConfig() *config.Config {
	cfg := config.Defaults(config.Test)
	cfg.Store.Driver = "memory"
	cfg.LLM.Provider = "mock"
	cfg.Events.Provider = "none"
	cfg.Logging.Level = "error"
	return cfg
}

func newContainer(t *testing.T, cfg *config.Config) *Container {
	t.Helper()
	c, cleanup, err := InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return c
}

func serve(c *Container, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	c.Router.ServeHTTP(rec, req)
	return rec
}

func TestInitializeContainer(t *testing.T) {
	t.Run("Should wire a working API", func(t *testing.T) {
		c := newContainer(t, testConfig())

		health := serve(c, httptest.NewRequest(http.MethodGet, "/health", nil))
		save := serve(c, httptest.NewRequest(http.MethodPost, "/api/items/save",
			strings.NewReader(`{"content":"a post about golang","user_id":"u1"}`)))

		assert.Equal(t, http.StatusOK, health.Code)
		assert.Equal(t, http.StatusOK, save.Code, save.Body.String())
		assert.NotEmpty(t, health.Header().Get("X-Request-ID"))
	})

	t.Run("Should expose metrics", func(t *testing.T) {
		c := newContainer(t, testConfig())
		serve(c, httptest.NewRequest(http.MethodPost, "/api/items/save",
			strings.NewReader(`{"content":"hello","user_id":"u1"}`)))

		rec := serve(c, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		body, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "cortex_items_saved_total 1")
		assert.Contains(t, string(body), "cortex_cache_invalidations_total 1")
		assert.Contains(t, string(body), `cortex_http_requests_total{method="POST",route="/api/items/save",status="200"} 1`)
	})

	t.Run("Should not mount metrics when disabled", func(t *testing.T) {
		cfg := testConfig()
		cfg.Metrics.Enabled = false
		c := newContainer(t, cfg)

		rec := serve(c, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Should answer CORS preflight requests", func(t *testing.T) {
		c := newContainer(t, testConfig())
		req := httptest.NewRequest(http.MethodOptions, "/api/items/save", nil)
		req.Header.Set("Origin", "https://cortex.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)

		rec := serve(c, req)

		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Should protect the API when auth is enabled", func(t *testing.T) {
		cfg := testConfig()
		cfg.Security.EnableAuth = true
		cfg.Security.JWTSecret = "s3cret"
		c := newContainer(t, cfg)

		api := serve(c, httptest.NewRequest(http.MethodGet, "/api/items/u1", nil))
		health := serve(c, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusUnauthorized, api.Code)
		assert.Equal(t, http.StatusOK, health.Code)
	})

	t.Run("Should fail without a JWT secret", func(t *testing.T) {
		cfg := testConfig()
		cfg.Security.EnableAuth = true

		_, _, err := InitializeContainer(context.Background(), cfg)

		assert.Error(t, err)
	})

	t.Run("Should reject an unknown store driver", func(t *testing.T) {
		cfg := testConfig()
		cfg.Store.Driver = "cassandra"

		_, _, err := InitializeContainer(context.Background(), cfg)

		assert.Error(t, err)
	})
}

func TestRouterBreakers(t *testing.T) {
	newBreakerContainer := func(t *testing.T) *Container {
		t.Helper()
		cfg := testConfig()
		cfg.CircuitBreaker = config.CircuitBreaker{
			Enabled:      true,
			MinRequests:  3,
			FailureRatio: 0.5,
			Timeout:      time.Minute,
		}
		c := newContainer(t, cfg)
		c.LLM.(*llm.MockProvider).SetAvailable(false)
		return c
	}
	chat := func(c *Container) *httptest.ResponseRecorder {
		return serve(c, httptest.NewRequest(http.MethodPost, "/api/chat",
			strings.NewReader(`{"message":"hi","items":[]}`)))
	}
	tripAssistant := func(t *testing.T, c *Container) {
		t.Helper()
		for i := 0; i < 3; i++ {
			require.Equal(t, http.StatusInternalServerError, chat(c).Code)
		}
		require.Equal(t, http.StatusServiceUnavailable, chat(c).Code)
	}

	t.Run("Should keep fetch-url on the fallback when the assistant breaker is open", func(t *testing.T) {
		c := newBreakerContainer(t)
		tripAssistant(t, c)
		page := httptest.NewServer(http.NotFoundHandler())
		addr := page.URL
		page.Close()

		rec := serve(c, httptest.NewRequest(http.MethodPost, "/api/fetch-url",
			strings.NewReader(`{"url":"`+addr+`"}`)))

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var meta fetcher.Metadata
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&meta))
		assert.Equal(t, fetcher.FallbackMessage, meta.Error)
	})

	t.Run("Should keep saving items when the assistant breaker is open", func(t *testing.T) {
		c := newBreakerContainer(t)
		tripAssistant(t, c)

		save := serve(c, httptest.NewRequest(http.MethodPost, "/api/items/save",
			strings.NewReader(`{"content":"a post about golang","user_id":"u1"}`)))
		list := serve(c, httptest.NewRequest(http.MethodGet, "/api/items/u1", nil))

		assert.Equal(t, http.StatusOK, save.Code, save.Body.String())
		assert.Equal(t, http.StatusOK, list.Code)
	})

	t.Run("Should reject feed requests while the assistant breaker is open", func(t *testing.T) {
		c := newBreakerContainer(t)
		tripAssistant(t, c)

		rec := serve(c, httptest.NewRequest(http.MethodPost, "/api/feed",
			strings.NewReader(`{"user_id":"u1","format":"newsletter"}`)))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestCircuitBreakerConfig(t *testing.T) {
	got := circuitBreakerConfig("cortex-data", config.CircuitBreaker{MinRequests: 4, FailureRatio: 0.5})

	assert.Equal(t, uint32(4), got.MinRequests)
	assert.Equal(t, 0.5, got.FailureThreshold)
	assert.Equal(t, uint32(3), got.MaxRequests)
	assert.Equal(t, "cortex-data", got.Name)
}
