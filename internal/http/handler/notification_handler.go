package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/goil-app/notifications-api/internal/auth"
	"github.com/goil-app/notifications-api/internal/domain"
	"github.com/goil-app/notifications-api/internal/service"
)

// NotificationGetter is the service surface the handler needs.
type NotificationGetter interface {
	GetNotification(ctx context.Context, req service.GetNotificationRequest) (*domain.NotificationData, error)
}

// NotificationHandler serves the mobile notification endpoints.
type NotificationHandler struct {
	service NotificationGetter
	logger  *zap.Logger
}

// NewNotificationHandler creates the notification handler.
func NewNotificationHandler(svc NotificationGetter, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{service: svc, logger: logger}
}

// GetNotification handles GET /api/v2/notification/{id}/me.
func (h *NotificationHandler) GetNotification(w http.ResponseWriter, r *http.Request) {
	sec, ok := auth.FromContext(r.Context())
	if !ok || sec == nil {
		respondError(w, http.StatusForbidden, "Missing authentication context")
		return
	}
	if sec.BusinessID == "" {
		respondError(w, http.StatusForbidden, "Missing or invalid business_id")
		return
	}

	req := service.GetNotificationRequest{
		ID:          chi.URLParam(r, "id"),
		UserID:      sec.UserID,
		BusinessID:  sec.BusinessID,
		SessionID:   sec.SessionID,
		Language:    sec.LanguageOrDefault(),
		BusinessIDs: r.URL.Query()["businessIds[]"],
		Headers:     forwardHeaders(r),
	}

	data, err := h.service.GetNotification(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrNotificationNotFound) {
			respondError(w, http.StatusNotFound, "Notification not found")
			return
		}
		h.logger.Error("notification fetch failed",
			zap.String("notification_id", req.ID),
			zap.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondData(w, http.StatusOK, data)
}

// forwardHeaders captures the client headers passed through to tracking.
func forwardHeaders(r *http.Request) domain.ForwardHeaders {
	return domain.ForwardHeaders{
		Authorization:  r.Header.Get("Authorization"),
		ClientPlatform: r.Header.Get("x-client-platform"),
		ClientOS:       r.Header.Get("x-client-os"),
		ClientDevice:   r.Header.Get("x-client-device"),
		ClientID:       r.Header.Get("x-client-id"),
	}
}
