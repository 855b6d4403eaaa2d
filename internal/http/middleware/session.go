package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/goil-app/notifications-api/internal/auth"
	"github.com/goil-app/notifications-api/internal/domain"
)

// SessionRepository looks up live sessions.
type SessionRepository interface {
	FindByIDAndBusinessID(ctx context.Context, sessionID, businessID string) (*domain.Session, error)
}

// SessionGuard verifies that the token's session still exists and attaches
// the session language to the security context. It must run after the
// authentication middleware.
type SessionGuard struct {
	sessions SessionRepository
	logger   *zap.Logger
}

// NewSessionGuard creates the session guard.
func NewSessionGuard(sessions SessionRepository, logger *zap.Logger) *SessionGuard {
	return &SessionGuard{sessions: sessions, logger: logger}
}

// Verify rejects requests whose session is missing or revoked.
func (g *SessionGuard) Verify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sec, ok := auth.FromContext(r.Context())
		if !ok || sec == nil {
			respond(w, http.StatusUnauthorized, domain.Error("Not Authorized"))
			return
		}
		if sec.SessionID == "" {
			respond(w, http.StatusUnauthorized, domain.Error("Session ID is required"))
			return
		}

		session, err := g.sessions.FindByIDAndBusinessID(r.Context(), sec.SessionID, sec.BusinessID)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				g.logger.Error("session lookup failed",
					zap.String("session_id", sec.SessionID),
					zap.Error(err),
				)
			}
			respond(w, http.StatusUnauthorized, domain.Error("Invalid session"))
			return
		}

		sec.Language = session.Language
		ctx := auth.WithSecurityContext(r.Context(), sec)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func respond(w http.ResponseWriter, status int, body domain.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
