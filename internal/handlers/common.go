// Package handlers implements the HTTP API on top of the application
// services.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appErrors "github.com/ritu11x/cortex-ai/internal/errors"
	"github.com/ritu11x/cortex-ai/internal/middleware"
	"github.com/ritu11x/cortex-ai/internal/validation"
	"github.com/ritu11x/cortex-ai/pkg/api"
)

// DefaultMaxBodyBytes bounds request bodies when no limit is configured.
const DefaultMaxBodyBytes = 1 << 20

// retryAfterSeconds is advertised on 503s caused by retryable outages.
const retryAfterSeconds = "5"

// base carries what every handler needs.
type base struct {
	logger       *zap.Logger
	validator    *validation.Validator
	maxBodyBytes int64
}

func newBase(logger *zap.Logger, maxBodyBytes int64) base {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return base{logger: logger.Named("handlers"), validator: validation.Default(), maxBodyBytes: maxBodyBytes}
}

var errInvalidBody = appErrors.Validation("INVALID_BODY", "Invalid request body").Build()

// decode reads a JSON body into dst and validates its struct tags.
func (b base) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, b.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return appErrors.Validation("BODY_TOO_LARGE", "Request body too large").WithCause(err).Build()
		}
		if errors.Is(err, io.EOF) {
			return errInvalidBody
		}
		return appErrors.Validation("INVALID_BODY", "Invalid request body").WithCause(err).Build()
	}
	return b.validator.Struct(dst)
}

// userParam returns the {user_id} path parameter after checking it against
// the authenticated user.
func userParam(r *http.Request) (string, error) {
	userID := strings.TrimSpace(chi.URLParam(r, "user_id"))
	if userID == "" {
		return "", appErrors.Validation("USER_ID_REQUIRED", "user_id is required").Build()
	}
	if err := middleware.AuthorizeUser(r.Context(), userID); err != nil {
		return "", err
	}
	return userID, nil
}

// handleServiceError maps an error onto a status code and an {"error"} body.
func (b base) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	fields := []zap.Field{
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	}
	switch {
	case status >= http.StatusInternalServerError || appErrors.GetSeverity(err) == appErrors.SeverityHigh:
		b.logger.Error("request failed", fields...)
	case appErrors.GetSeverity(err) == appErrors.SeverityMedium:
		b.logger.Warn("request rejected", fields...)
	default:
		b.logger.Debug("request rejected", fields...)
	}
	if status == http.StatusServiceUnavailable && appErrors.IsRetryable(err) {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}
	api.Error(w, status, msg)
}

func statusFor(err error) (int, string) {
	switch {
	case appErrors.IsValidation(err):
		return http.StatusBadRequest, appErrors.Message(err)
	case appErrors.IsUnauthorized(err):
		return http.StatusUnauthorized, appErrors.Message(err)
	case appErrors.IsForbidden(err):
		return http.StatusForbidden, appErrors.Message(err)
	case appErrors.IsNotFound(err):
		return http.StatusNotFound, appErrors.Message(err)
	case appErrors.IsConflict(err):
		return http.StatusConflict, appErrors.Message(err)
	case appErrors.IsTimeout(err), appErrors.IsConnection(err), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "Service temporarily unavailable"
	case appErrors.IsExternal(err):
		return http.StatusInternalServerError, appErrors.Message(err)
	default:
		return http.StatusInternalServerError, "An internal error occurred"
	}
}
