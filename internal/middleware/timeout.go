package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ritu11x/cortex-ai/pkg/api"
)

// Timeout bounds each request with a context deadline. Handlers pass the
// context down to the store and the LLM; when the deadline passes before
// anything was written the client gets 408.
func Timeout(timeout time.Duration, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			sw := wrapWriter(w)
			next.ServeHTTP(sw, r.WithContext(ctx))

			if errors.Is(ctx.Err(), context.DeadlineExceeded) && !sw.wroteHeader {
				logger.Warn("request timeout",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.String("path", r.URL.Path),
					zap.Duration("timeout", timeout))
				api.Error(sw, http.StatusRequestTimeout, "Request timeout")
			}
		})
	}
}
