package database

import (
	"context"
	"fmt"
	"time"

	"github.com/goil-app/notifications-api/internal/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Databases bundles the four logical databases served by the primary store.
type Databases struct {
	client        *mongo.Client
	Notifications *mongo.Database
	Account       *mongo.Database
	Analytics     *mongo.Database
	Client        *mongo.Database
}

// NewDatabases connects the Mongo client and resolves the database handles.
// Pool bounds are derived from the worker count unless overridden.
func NewDatabases(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Databases, error) {
	maxPool, minPool := cfg.PoolSizes()

	opts := options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetAppName(cfg.App.Name).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(5 * time.Second).
		SetMaxPoolSize(maxPool).
		SetMinPoolSize(minPool).
		SetMaxConnIdleTime(120 * time.Second).
		SetHeartbeatInterval(10 * time.Second).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	logger.Info("Connected to primary store",
		zap.Uint64("max_pool_size", maxPool),
		zap.Uint64("min_pool_size", minPool),
	)

	return &Databases{
		client:        client,
		Notifications: client.Database(cfg.Mongo.NotificationsDB),
		Account:       client.Database(cfg.Mongo.AccountDB),
		Analytics:     client.Database(cfg.Mongo.AnalyticsDB),
		Client:        client.Database(cfg.Mongo.ClientDB),
	}, nil
}

// HealthCheck pings the primary store.
func (d *Databases) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return d.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the underlying client.
func (d *Databases) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}
