package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/goil-app/notifications-api/internal/domain"
)

// trackNotificationJob names the job the downstream queue consumer handles.
const trackNotificationJob = "TRACK_NOTIFICATION"

// Dispatcher enqueues view-tracking events. Dispatch must not block the
// request path; implementations do their work on a detached goroutine and
// only log failures.
type Dispatcher interface {
	Dispatch(event domain.TrackEvent, headers domain.ForwardHeaders)
}

// queuePayload is the wire shape both dispatchers enqueue.
type queuePayload struct {
	Name   string            `json:"name"`
	Params domain.TrackEvent `json:"params"`
}

// HTTPDispatcher posts tracking events to the community queue endpoint,
// forwarding the caller's auth and client headers.
type HTTPDispatcher struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPDispatcher creates a dispatcher for the given queue endpoint. A zero
// timeout falls back to five seconds.
func NewHTTPDispatcher(url string, timeout time.Duration, logger *zap.Logger) *HTTPDispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPDispatcher{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Dispatch enqueues the event on a detached goroutine with its own deadline,
// so a slow queue endpoint never delays the response.
func (d *HTTPDispatcher) Dispatch(event domain.TrackEvent, headers domain.ForwardHeaders) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.httpClient.Timeout)
		defer cancel()
		if err := d.send(ctx, event, headers); err != nil {
			d.logger.Warn("failed to enqueue tracking event",
				zap.String("notification_id", event.ID),
				zap.Error(err),
			)
		}
	}()
}

func (d *HTTPDispatcher) send(ctx context.Context, event domain.TrackEvent, headers domain.ForwardHeaders) error {
	body, err := json.Marshal(queuePayload{Name: trackNotificationJob, Params: event})
	if err != nil {
		return fmt.Errorf("failed to encode tracking payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build tracking request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	setIfPresent(req, "authorization", headers.Authorization)
	setIfPresent(req, "x-client-platform", headers.ClientPlatform)
	setIfPresent(req, "x-client-os", headers.ClientOS)
	setIfPresent(req, "x-client-device", headers.ClientDevice)
	setIfPresent(req, "x-client-id", headers.ClientID)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tracking request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("queue endpoint returned %d: %s", resp.StatusCode, msg)
	}
	return nil
}

func setIfPresent(req *http.Request, name, value string) {
	if value != "" {
		req.Header.Set(name, value)
	}
}
