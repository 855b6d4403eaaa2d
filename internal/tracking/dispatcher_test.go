package tracking

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/goil-app/notifications-api/internal/domain"
)

func TestHTTPDispatcherSendsJobPayload(t *testing.T) {
	type received struct {
		payload queuePayload
		headers http.Header
	}
	done := make(chan received, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var p queuePayload
		require.NoError(t, json.Unmarshal(body, &p))
		done <- received{payload: p, headers: r.Header.Clone()}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewHTTPDispatcher(srv.URL, 2*time.Second, zap.NewNop())
	d.Dispatch(domain.TrackEvent{
		ID:                "64f100000000000000000001",
		BusinessID:        "64f300000000000000000001",
		AccountID:         "device-1",
		DeviceClientType:  "mobile-platform",
		DeviceClientModel: "iPhone15,2",
		DeviceClientOS:    "ios 17",
		SessionID:         "64f400000000000000000001",
	}, domain.ForwardHeaders{
		Authorization:  "Bearer tok",
		ClientPlatform: "mobile-platform",
		ClientOS:       "ios 17",
		ClientDevice:   "iPhone15,2",
		ClientID:       "device-1",
	})

	select {
	case got := <-done:
		assert.Equal(t, "TRACK_NOTIFICATION", got.payload.Name)
		assert.Equal(t, "64f100000000000000000001", got.payload.Params.ID)
		assert.Equal(t, "64f300000000000000000001", got.payload.Params.BusinessID)
		assert.Equal(t, "device-1", got.payload.Params.AccountID)
		assert.Equal(t, "64f400000000000000000001", got.payload.Params.SessionID)

		assert.Equal(t, "Bearer tok", got.headers.Get("authorization"))
		assert.Equal(t, "mobile-platform", got.headers.Get("x-client-platform"))
		assert.Equal(t, "ios 17", got.headers.Get("x-client-os"))
		assert.Equal(t, "iPhone15,2", got.headers.Get("x-client-device"))
		assert.Equal(t, "device-1", got.headers.Get("x-client-id"))
		assert.Equal(t, "application/json", got.headers.Get("Content-Type"))
	case <-time.After(3 * time.Second):
		t.Fatal("tracking request never arrived")
	}
}

func TestHTTPDispatcherOmitsEmptyHeaders(t *testing.T) {
	done := make(chan http.Header, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		done <- r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewHTTPDispatcher(srv.URL, 2*time.Second, zap.NewNop())
	d.Dispatch(domain.TrackEvent{ID: "n1"}, domain.ForwardHeaders{})

	select {
	case headers := <-done:
		_, hasAuth := headers["Authorization"]
		assert.False(t, hasAuth)
		assert.Empty(t, headers.Get("x-client-id"))
	case <-time.After(3 * time.Second):
		t.Fatal("tracking request never arrived")
	}
}

func TestHTTPDispatcherSurvivesFailure(t *testing.T) {
	done := make(chan struct{}, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		done <- struct{}{}
	}))
	defer srv.Close()

	// failures are logged, never surfaced
	d := NewHTTPDispatcher(srv.URL, 2*time.Second, zap.NewNop())
	d.Dispatch(domain.TrackEvent{ID: "n1"}, domain.ForwardHeaders{})

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("tracking request never arrived")
	}
}

func TestJobSerialization(t *testing.T) {
	data, err := json.Marshal(queuePayload{
		Name:   trackNotificationJob,
		Params: domain.TrackEvent{ID: "n1"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"TRACK_NOTIFICATION","params":{"id":"n1"}}`, string(data))

	j := job{ID: "j1", Name: trackNotificationJob, Data: data, Opts: defaultJobOptions()}
	raw, err := json.Marshal(j)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "j1", decoded["id"])
	opts := decoded["opts"].(map[string]interface{})
	assert.Equal(t, float64(3), opts["attempts"])
	assert.Nil(t, opts["delay"])
}
