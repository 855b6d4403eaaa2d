package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Mongo     MongoConfig
	JWT       JWTConfig
	GetStream GetStreamConfig
	Queue     QueueConfig
	Storage   StorageConfig
	Logging   LoggingConfig
	Server    ServerConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int `validate:"gt=0"`
	// Workers overrides the number of request workers used for connection
	// pool sizing. Zero means one per CPU.
	Workers int
}

// MongoConfig holds the primary store connection settings. A single client
// serves the four logical databases.
type MongoConfig struct {
	URI             string `validate:"required"`
	NotificationsDB string `validate:"required"`
	AccountDB       string `validate:"required"`
	AnalyticsDB     string `validate:"required"`
	ClientDB        string `validate:"required"`
	// MaxPoolSize/MinPoolSize of zero mean "derive from worker count", see
	// PoolSizes.
	MaxPoolSize uint64
	MinPoolSize uint64
}

type JWTConfig struct {
	Secret string `validate:"required"`
}

// GetStreamConfig holds the external chat provider credentials. BaseURL is
// overridable for tests.
type GetStreamConfig struct {
	APIKey   string
	Secret   string
	BaseURL  string
	TokenTTL int
}

// QueueConfig holds the tracking queue settings. When RedisURL is set the
// dispatcher enqueues through Redis instead of the HTTP endpoint.
type QueueConfig struct {
	URL       string
	Timeout   int
	RedisURL  string
	RedisName string
}

type StorageConfig struct {
	Bucket       string
	Region       string
	AccessKey    string
	SecretKey    string
	URLExpiresIn int
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	WhitelistPaths    []string
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// RequestTimeoutDuration returns request timeout as duration
func (s *ServerConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

// TimeoutDuration returns the tracking POST timeout as duration
func (q *QueueConfig) TimeoutDuration() time.Duration {
	return time.Duration(q.Timeout) * time.Second
}

// TokenTTLDuration returns the provider token lifetime as duration
func (g *GetStreamConfig) TokenTTLDuration() time.Duration {
	return time.Duration(g.TokenTTL) * time.Second
}

// URLExpiry returns the pre-signed URL lifetime as duration
func (s *StorageConfig) URLExpiry() time.Duration {
	return time.Duration(s.URLExpiresIn) * time.Second
}

// EffectiveWorkers returns the worker count used for pool sizing.
func (a *AppConfig) EffectiveWorkers() int {
	if a.Workers > 0 {
		return a.Workers
	}
	return runtime.NumCPU()
}

// PoolSizes derives the Mongo connection pool bounds from the worker count:
// max = min(150, 500/workers), min = 25% of max. Explicit overrides win.
func (c *Config) PoolSizes() (maxPool, minPool uint64) {
	maxPool = c.Mongo.MaxPoolSize
	if maxPool == 0 {
		perWorker := uint64(500 / c.App.EffectiveWorkers())
		maxPool = perWorker
		if maxPool > 150 {
			maxPool = 150
		}
		if maxPool < 1 {
			maxPool = 1
		}
	}
	minPool = c.Mongo.MinPoolSize
	if minPool == 0 {
		minPool = maxPool / 4
		if minPool < 1 {
			minPool = 1
		}
	}
	return maxPool, minPool
}

// Load loads configuration from environment variables (and a .env file when
// present) with sensible defaults.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:        v.GetString("APP_NAME"),
			Environment: v.GetString("APP_ENV"),
			Port:        v.GetInt("API_PORT"),
			Workers:     v.GetInt("WORKERS"),
		},
		Mongo: MongoConfig{
			URI:             v.GetString("MONGODB_URI"),
			NotificationsDB: v.GetString("MONGODB_NOTIFICATIONS_DB"),
			AccountDB:       v.GetString("MONGODB_ACCOUNT_DB"),
			AnalyticsDB:     v.GetString("MONGODB_ANALYTICS_DB"),
			ClientDB:        v.GetString("MONGODB_CLIENT_DB"),
			MaxPoolSize:     v.GetUint64("MONGODB_MAX_POOL_SIZE"),
			MinPoolSize:     v.GetUint64("MONGODB_MIN_POOL_SIZE"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
		},
		GetStream: GetStreamConfig{
			APIKey:   v.GetString("GETSTREAM_API_KEY"),
			Secret:   v.GetString("GETSTREAM_SECRET"),
			BaseURL:  v.GetString("GETSTREAM_BASE_URL"),
			TokenTTL: v.GetInt("GETSTREAM_TOKEN_TTL"),
		},
		Queue: QueueConfig{
			URL:       v.GetString("QUEUE_URL"),
			Timeout:   v.GetInt("QUEUE_TIMEOUT"),
			RedisURL:  v.GetString("REDIS_URL"),
			RedisName: v.GetString("REDIS_QUEUE_NAME"),
		},
		Storage: StorageConfig{
			Bucket:       v.GetString("PUBLIC_BUCKET"),
			Region:       v.GetString("AWS_REGION"),
			AccessKey:    v.GetString("AWS_ACCESS_KEY"),
			SecretKey:    v.GetString("AWS_SECRET_KEY"),
			URLExpiresIn: v.GetInt("S3_URL_EXPIRES_IN"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Server: ServerConfig{
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			RequestTimeout: v.GetInt("SERVER_REQUEST_TIMEOUT"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   v.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods:   v.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders:   v.GetStringSlice("CORS_ALLOWED_HEADERS"),
			AllowCredentials: v.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           v.GetInt("CORS_MAX_AGE"),
		},
		RateLimit: RateLimitConfig{
			Enabled:           v.GetBool("RATE_LIMIT_ENABLED"),
			RequestsPerMinute: v.GetInt("RATE_LIMIT_REQUESTS_PER_MINUTE"),
			WhitelistPaths:    v.GetStringSlice("RATE_LIMIT_WHITELIST_PATHS"),
		},
	}

	// Legacy deployments carried the JWT secret under the platform key
	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = v.GetString("JWT_MOBILE_PLATFORM")
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "notifications-api")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("API_PORT", 8080)
	v.SetDefault("WORKERS", 0)

	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_NOTIFICATIONS_DB", "NotificationDB")
	v.SetDefault("MONGODB_ACCOUNT_DB", "AccountDB")
	v.SetDefault("MONGODB_ANALYTICS_DB", "AnalyticsDB")
	v.SetDefault("MONGODB_CLIENT_DB", "ClientDB")

	v.SetDefault("GETSTREAM_BASE_URL", "https://chat.stream-io-api.com")
	v.SetDefault("GETSTREAM_TOKEN_TTL", 60)

	v.SetDefault("QUEUE_URL", "https://community.goil.app/api/v2/queue")
	v.SetDefault("QUEUE_TIMEOUT", 5)
	v.SetDefault("REDIS_QUEUE_NAME", "notifications")

	v.SetDefault("AWS_REGION", "eu-west-3")
	v.SetDefault("S3_URL_EXPIRES_IN", 600)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15)
	v.SetDefault("SERVER_REQUEST_TIMEOUT", 5)

	v.SetDefault("CORS_ALLOWED_METHODS", []string{"GET", "OPTIONS"})
	v.SetDefault("CORS_ALLOWED_HEADERS", []string{
		"Accept", "Authorization", "Content-Type",
		"x-client-platform", "x-client-device", "x-client-os", "x-client-id",
	})
	v.SetDefault("CORS_ALLOW_CREDENTIALS", true)
	v.SetDefault("CORS_MAX_AGE", 300)

	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_REQUESTS_PER_MINUTE", 300)
	v.SetDefault("RATE_LIMIT_WHITELIST_PATHS", []string{"/health"})
}
