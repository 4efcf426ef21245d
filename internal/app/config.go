package app

import (
	"time"

	"github.com/brynevale/admincore-backend/internal/observability"
	"github.com/brynevale/admincore-backend/internal/outbox"
	"github.com/brynevale/admincore-backend/internal/platform/envutil"
)

type Config struct {
	ServiceName string
	ServerAddr  string

	PostgresDSN string

	RedisAddr    string
	RedisChannel string

	JWTSecretKey   string
	AccessTokenTTL time.Duration

	CORSOrigins []string

	MetricsEnabled bool

	Dispatcher outbox.Config
	Otel       observability.OtelConfig
}

func LoadConfig() Config {
	serviceName := envutil.String("SERVICE_NAME", "admincore-backend")
	return Config{
		ServiceName: serviceName,
		ServerAddr:  envutil.String("SERVER_ADDR", ":8080"),

		PostgresDSN: envutil.String("POSTGRES_DSN", ""),

		RedisAddr:    envutil.String("REDIS_ADDR", ""),
		RedisChannel: envutil.String("REDIS_EVENT_CHANNEL", "admincore.events"),

		JWTSecretKey:   envutil.String("JWT_SECRET_KEY", ""),
		AccessTokenTTL: envutil.Duration("ACCESS_TOKEN_TTL", time.Hour),

		CORSOrigins: envutil.List("CORS_ORIGINS", nil),

		MetricsEnabled: envutil.Bool("METRICS_ENABLED", true),

		Dispatcher: outbox.Config{
			PollInterval: envutil.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second),
			BatchSize:    envutil.Int("OUTBOX_BATCH_SIZE", 200),
			WorkerLimit:  envutil.Int("OUTBOX_WORKER_LIMIT", 8),
			BaseBackoff:  envutil.Duration("OUTBOX_BASE_BACKOFF", time.Second),
			MaxBackoff:   envutil.Duration("OUTBOX_MAX_BACKOFF", 5*time.Minute),
		},

		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			ServiceName: serviceName,
			Environment: envutil.String("ENVIRONMENT", "development"),
			Version:     envutil.String("SERVICE_VERSION", "dev"),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", true),
			SampleRatio: 1.0,
		},
	}
}
