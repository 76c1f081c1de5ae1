package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	appErrors "github.com/ritu11x/cortex-ai/internal/errors"
	"github.com/ritu11x/cortex-ai/pkg/api"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
}

func TestRequestIDMiddleware(t *testing.T) {
	t.Run("Should generate request ID when not provided", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()
		var seen string

		RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		})).ServeHTTP(w, req)

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	})

	t.Run("Should use provided request ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "test-request-id")
		w := httptest.NewRecorder()
		var seen string

		RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		})).ServeHTTP(w, req)

		assert.Equal(t, "test-request-id", seen)
		assert.Equal(t, "test-request-id", w.Header().Get(RequestIDHeader))
	})

	t.Run("Should return empty string without a request ID", func(t *testing.T) {
		assert.Empty(t, GetRequestID(context.Background()))
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	t.Run("Should handle panic gracefully", func(t *testing.T) {
		core, logs := observer.New(zap.ErrorLevel)
		w := httptest.NewRecorder()

		Recovery(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("test panic")
		})).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
		assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
	})

	t.Run("Should pass through normal requests", func(t *testing.T) {
		w := httptest.NewRecorder()

		Recovery(nil)(http.HandlerFunc(okHandler)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestLoggerMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	w := httptest.NewRecorder()
	handler := RequestID(Logger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		api.Error(w, http.StatusNotFound, "Item not found")
	})))

	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/items/u1/x", nil))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zap.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, int64(http.StatusNotFound), fields["status"])
	assert.Equal(t, "/api/items/u1/x", fields["path"])
	assert.NotEmpty(t, fields["request_id"])
}

type recordedHTTP struct {
	method, route, status string
}

type fakeHTTPObserver struct {
	calls []recordedHTTP
}

func (f *fakeHTTPObserver) ObserveHTTP(method, route, status string, _ time.Duration) {
	f.calls = append(f.calls, recordedHTTP{method, route, status})
}

func TestMetricsMiddleware(t *testing.T) {
	obs := &fakeHTTPObserver{}
	r := chi.NewRouter()
	r.Use(Metrics(obs))
	r.Get("/api/items/{user_id}", okHandler)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/items/u1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, []recordedHTTP{
		{http.MethodGet, "/api/items/{user_id}", "200"},
		{http.MethodGet, "unmatched", "404"},
	}, obs.calls)
}

func TestTimeoutMiddleware(t *testing.T) {
	t.Run("Should allow normal requests to complete", func(t *testing.T) {
		w := httptest.NewRecorder()

		Timeout(5*time.Second, nil)(http.HandlerFunc(okHandler)).
			ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Should answer 408 when the deadline passes", func(t *testing.T) {
		w := httptest.NewRecorder()

		Timeout(20*time.Millisecond, zaptest.NewLogger(t))(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		})).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))

		assert.Equal(t, http.StatusRequestTimeout, w.Code)
		assert.JSONEq(t, `{"error":"Request timeout"}`, w.Body.String())
	})
}

func TestCircuitBreakerMiddleware(t *testing.T) {
	t.Run("Should pass through successful requests", func(t *testing.T) {
		w := httptest.NewRecorder()

		CircuitBreaker(DefaultCircuitBreakerConfig("test"), nil)(http.HandlerFunc(okHandler)).
			ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Should keep the handler's 5xx response", func(t *testing.T) {
		w := httptest.NewRecorder()

		CircuitBreaker(DefaultCircuitBreakerConfig("test-failure"), nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("Should reject with 503 once open", func(t *testing.T) {
		cfg := DefaultCircuitBreakerConfig("test-open")
		cfg.MinRequests = 2
		cfg.FailureThreshold = 0.5
		handler := CircuitBreaker(cfg, zaptest.NewLogger(t))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			api.Error(w, http.StatusInternalServerError, "boom")
		}))

		for i := 0; i < 2; i++ {
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "too many failures")
	})
}

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuthenticate(t *testing.T) {
	validator, err := NewJWTValidator("s3cret", "cortex")
	require.NoError(t, err)
	var seenUser string
	handler := Authenticate(validator, zaptest.NewLogger(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser, _ = AuthenticatedUser(r.Context())
		okHandler(w, r)
	}))

	valid := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "cortex",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}

	t.Run("Should accept a valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/items/user-1", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "s3cret", valid))
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user-1", seenUser)
	})

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"Should reject a missing header", "", "Missing authorization header"},
		{"Should reject a non bearer header", "Basic abc", "Invalid authorization header format"},
		{"Should reject a bad signature", "Bearer " + signToken(t, "other", valid), "Invalid token"},
		{"Should reject an expired token", "Bearer " + signToken(t, "s3cret", Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "cortex",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		}}), "Token has expired"},
		{"Should reject the wrong issuer", "Bearer " + signToken(t, "s3cret", Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject: "user-1",
			Issuer:  "someone-else",
		}}), "Invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/items/user-1", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"error":"`+tt.want+`"}`, w.Body.String())
		})
	}
}

func TestAuthorizeUser(t *testing.T) {
	ctx := context.WithValue(context.Background(), userKey, "user-1")

	assert.NoError(t, AuthorizeUser(context.Background(), "anyone"))
	assert.NoError(t, AuthorizeUser(ctx, "user-1"))
	assert.True(t, appErrors.IsForbidden(AuthorizeUser(ctx, "user-2")))
}

func TestNewJWTValidator_RequiresSecret(t *testing.T) {
	_, err := NewJWTValidator("", "")
	assert.Error(t, err)
}
