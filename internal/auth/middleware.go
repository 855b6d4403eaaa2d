package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/goil-app/notifications-api/internal/domain"
	"go.uber.org/zap"
)

const (
	platformHeader   = "x-client-platform"
	expectedPlatform = "mobile-platform"
)

// Middleware carries the platform and bearer-token guards that front the
// mobile API.
type Middleware struct {
	validator *TokenValidator
	logger    *zap.Logger
}

// NewMiddleware creates the authentication middleware.
func NewMiddleware(validator *TokenValidator, logger *zap.Logger) *Middleware {
	return &Middleware{validator: validator, logger: logger}
}

// Platform rejects requests whose x-client-platform header is not the mobile
// platform marker. Comparison ignores case and surrounding whitespace.
func (m *Middleware) Platform(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		value := strings.TrimSpace(r.Header.Get(platformHeader))
		if !strings.EqualFold(value, expectedPlatform) {
			respond(w, http.StatusForbidden, domain.Error("Platform not Authorized"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Authenticate verifies the bearer token and attaches the security context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sec, err := m.validator.ValidateToken(r.Header.Get("Authorization"))
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			switch {
			case errors.Is(err, ErrExpiredToken):
				respond(w, http.StatusUnauthorized, domain.Error("Token expired"))
			case errors.Is(err, ErrInvalidSignature):
				respond(w, http.StatusUnauthorized, domain.Error("Token has invalid signature"))
			case errors.Is(err, ErrMissingBusinessID):
				respond(w, http.StatusInternalServerError, domain.Error("Business id is required"))
			default:
				respond(w, http.StatusUnauthorized, domain.Error("Not Authorized"))
			}
			return
		}

		ctx := WithSecurityContext(r.Context(), sec)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func respond(w http.ResponseWriter, status int, body domain.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
