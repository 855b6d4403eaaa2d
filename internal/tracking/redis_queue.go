package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/goil-app/notifications-api/internal/domain"
)

// job mirrors the record layout the queue workers consume.
type job struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
	Opts jobOptions      `json:"opts"`
}

type jobOptions struct {
	Delay    *uint64 `json:"delay"`
	Attempts *uint32 `json:"attempts"`
	Timeout  *uint64 `json:"timeout"`
	Priority *int32  `json:"priority"`
}

func defaultJobOptions() jobOptions {
	attempts := uint32(3)
	return jobOptions{Attempts: &attempts}
}

// RedisDispatcher enqueues tracking events directly on the shared Redis
// queue, using the same key layout as the Node workers: per-job record under
// bull:<queue>:<id>, the id pushed onto the bull:<queue>:wait list, and a
// bull:<queue>:meta marker created on first use.
type RedisDispatcher struct {
	client    *redis.Client
	queueName string
	timeout   time.Duration
	logger    *zap.Logger
}

// NewRedisDispatcher creates a Redis-backed dispatcher.
func NewRedisDispatcher(client *redis.Client, queueName string, timeout time.Duration, logger *zap.Logger) *RedisDispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RedisDispatcher{
		client:    client,
		queueName: queueName,
		timeout:   timeout,
		logger:    logger,
	}
}

func (d *RedisDispatcher) jobKey(id string) string {
	return fmt.Sprintf("bull:%s:%s", d.queueName, id)
}

func (d *RedisDispatcher) waitKey() string {
	return fmt.Sprintf("bull:%s:wait", d.queueName)
}

func (d *RedisDispatcher) metaKey() string {
	return fmt.Sprintf("bull:%s:meta", d.queueName)
}

// Dispatch enqueues the event on a detached goroutine with its own deadline.
// The forwarded headers are only meaningful for the HTTP path and are
// ignored here.
func (d *RedisDispatcher) Dispatch(event domain.TrackEvent, _ domain.ForwardHeaders) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.enqueue(ctx, event); err != nil {
			d.logger.Warn("failed to enqueue tracking event",
				zap.String("notification_id", event.ID),
				zap.Error(err),
			)
		}
	}()
}

func (d *RedisDispatcher) enqueue(ctx context.Context, event domain.TrackEvent) error {
	data, err := json.Marshal(queuePayload{Name: trackNotificationJob, Params: event})
	if err != nil {
		return fmt.Errorf("failed to encode tracking payload: %w", err)
	}

	j := job{
		ID:   uuid.NewString(),
		Name: trackNotificationJob,
		Data: data,
		Opts: defaultJobOptions(),
	}
	jobJSON, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	if err := d.client.Set(ctx, d.jobKey(j.ID), jobJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to store job: %w", err)
	}

	exists, err := d.client.Exists(ctx, d.metaKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to check queue metadata: %w", err)
	}
	if exists == 0 {
		meta, _ := json.Marshal(map[string]string{"name": d.queueName, "ns": "bull"})
		if err := d.client.Set(ctx, d.metaKey(), meta, 0).Err(); err != nil {
			return fmt.Errorf("failed to create queue metadata: %w", err)
		}
	}

	if err := d.client.LPush(ctx, d.waitKey(), j.ID).Err(); err != nil {
		return fmt.Errorf("failed to push job onto wait list: %w", err)
	}
	return nil
}
