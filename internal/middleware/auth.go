package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	appErrors "github.com/ritu11x/cortex-ai/internal/errors"
	"github.com/ritu11x/cortex-ai/pkg/api"
)

// Token validation errors.
var (
	ErrMissingToken  = errors.New("missing authentication token")
	ErrExpiredToken  = errors.New("token has expired")
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidClaims = errors.New("invalid token claims")
)

const userKey contextKey = "authUser"

// Claims are the token claims the API reads. Subject carries the user id.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTValidator verifies HS256 tokens issued by the auth provider.
type JWTValidator struct {
	secret []byte
	issuer string
}

// NewJWTValidator creates a validator. An empty issuer is not checked.
func NewJWTValidator(secret, issuer string) (*JWTValidator, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &JWTValidator{secret: []byte(secret), issuer: issuer}, nil
}

// ValidateToken parses a bearer token and returns its claims.
func (v *JWTValidator) ValidateToken(token string) (*Claims, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

// Authenticate requires a valid bearer token and stores the user id in
// the request context.
func Authenticate(v *JWTValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				api.Error(w, http.StatusUnauthorized, "Missing authorization header")
				return
			}
			if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
				api.Error(w, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}

			claims, err := v.ValidateToken(header[len("bearer "):])
			if err != nil {
				logger.Debug("token rejected",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.Error(err))
				msg := "Invalid token"
				if errors.Is(err, ErrExpiredToken) {
					msg = "Token has expired"
				}
				api.Error(w, http.StatusUnauthorized, msg)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuthenticatedUser returns the user id set by Authenticate.
func AuthenticatedUser(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userKey).(string)
	return id, ok && id != ""
}

// AuthorizeUser rejects access to another user's data. Without
// authentication every user id is accepted.
func AuthorizeUser(ctx context.Context, userID string) error {
	authed, ok := AuthenticatedUser(ctx)
	if !ok || authed == userID {
		return nil
	}
	return appErrors.Forbidden("USER_MISMATCH", "Access denied").
		WithDetails(fmt.Sprintf("token for %s asked for %s", authed, userID)).
		Build()
}
