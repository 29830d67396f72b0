package app

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/examprep-backend/internal/data/db"
	"github.com/yungbote/examprep-backend/internal/observability"
	"github.com/yungbote/examprep-backend/internal/platform/envutil"
	"github.com/yungbote/examprep-backend/internal/platform/logger"
)

type Config struct {
	Port    string `yaml:"port"`
	LogMode string `yaml:"logMode"`
	Env     string `yaml:"env"`
	Version string `yaml:"version"`

	Postgres PostgresConfig `yaml:"postgres"`

	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	RedisChannel  string `yaml:"redisChannel"`
	NATSURL       string `yaml:"natsURL"`

	IdentityProjectID string `yaml:"identityProjectID"`
	IdentityIssuer    string `yaml:"identityIssuer"`
	IdentityJWKSURL   string `yaml:"identityJWKSURL"`

	SweepSecret            string        `yaml:"sweepSecret"`
	SweepSchedule          string        `yaml:"sweepSchedule"`
	PreviewCleanupSchedule string        `yaml:"previewCleanupSchedule"`
	WorkerConcurrency      int           `yaml:"workerConcurrency"`
	ContentTimezone        string        `yaml:"contentTimezone"`
	SessionMaxCeiling      int           `yaml:"sessionMaxCeiling"`
	HeartbeatInterval      time.Duration `yaml:"heartbeatInterval"`
	RelatedCacheTTL        time.Duration `yaml:"relatedCacheTTL"`
	CORSOrigins            []string      `yaml:"corsOrigins"`

	Otel OtelConfig `yaml:"otel"`
}

type OtelConfig struct {
	Enabled     bool     `yaml:"enabled"`
	Endpoint    string   `yaml:"endpoint"`
	Headers     []string `yaml:"headers"`
	Insecure    bool     `yaml:"insecure"`
	SampleRatio float64  `yaml:"sampleRatio"`
}

type PostgresConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslMode"`

	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

func defaultConfig() Config {
	return Config{
		Port:    "8080",
		LogMode: "development",
		Env:     "dev",
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            "5432",
			User:            "postgres",
			Name:            "examprep",
			SSLMode:         "disable",
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		RedisChannel:      "examprep:realtime",
		SweepSchedule:     "@every 1m",
		WorkerConcurrency: 2,
		ContentTimezone:   "Asia/Kolkata",
		SessionMaxCeiling: 2,
		HeartbeatInterval: 30 * time.Second,
		RelatedCacheTTL:   time.Hour,
		Otel:              OtelConfig{SampleRatio: 0.1},
	}
}

// LoadConfig layers defaults, then CONFIG_FILE (YAML), then the environment.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := defaultConfig()
	if path := envutil.String("CONFIG_FILE", ""); path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return cfg, err
		}
		if log != nil {
			log.Info("config file loaded", "path", path)
		}
	}
	overlayEnv(&cfg)
	if _, err := cfg.Location(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func overlayFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func overlayEnv(cfg *Config) {
	cfg.Port = envutil.String("PORT", cfg.Port)
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)
	cfg.Env = envutil.String("APP_ENV", cfg.Env)
	cfg.Version = envutil.String("APP_VERSION", cfg.Version)

	pg := &cfg.Postgres
	pg.URL = envutil.String("DATABASE_URL", pg.URL)
	pg.Host = envutil.String("POSTGRES_HOST", pg.Host)
	pg.Port = envutil.String("POSTGRES_PORT", pg.Port)
	pg.User = envutil.String("POSTGRES_USER", pg.User)
	pg.Password = envutil.String("POSTGRES_PASSWORD", pg.Password)
	pg.Name = envutil.String("POSTGRES_NAME", pg.Name)
	pg.SSLMode = envutil.String("POSTGRES_SSLMODE", pg.SSLMode)
	pg.MaxOpenConns = envutil.Int("POSTGRES_MAX_OPEN_CONNS", pg.MaxOpenConns)
	pg.MaxIdleConns = envutil.Int("POSTGRES_MAX_IDLE_CONNS", pg.MaxIdleConns)
	pg.ConnMaxLifetime = envutil.Duration("POSTGRES_CONN_MAX_LIFETIME", pg.ConnMaxLifetime)

	cfg.RedisAddr = envutil.String("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = envutil.String("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = envutil.Int("REDIS_DB", cfg.RedisDB)
	cfg.RedisChannel = envutil.String("REDIS_CHANNEL", cfg.RedisChannel)
	cfg.NATSURL = envutil.String("NATS_URL", cfg.NATSURL)

	cfg.IdentityProjectID = envutil.String("IDENTITY_PROJECT_ID", cfg.IdentityProjectID)
	cfg.IdentityIssuer = envutil.String("IDENTITY_ISSUER", cfg.IdentityIssuer)
	cfg.IdentityJWKSURL = envutil.String("IDENTITY_JWKS_URL", cfg.IdentityJWKSURL)

	cfg.SweepSecret = envutil.String("SWEEP_SECRET", cfg.SweepSecret)
	cfg.SweepSchedule = envutil.String("SWEEP_SCHEDULE", cfg.SweepSchedule)
	cfg.PreviewCleanupSchedule = envutil.String("PREVIEW_CLEANUP_SCHEDULE", cfg.PreviewCleanupSchedule)
	cfg.WorkerConcurrency = envutil.Int("WORKER_CONCURRENCY", cfg.WorkerConcurrency)
	cfg.ContentTimezone = envutil.String("CONTENT_TIMEZONE", cfg.ContentTimezone)
	cfg.SessionMaxCeiling = envutil.Int("SESSION_MAX_CEILING", cfg.SessionMaxCeiling)
	cfg.HeartbeatInterval = envutil.Duration("SESSION_HEARTBEAT_INTERVAL", cfg.HeartbeatInterval)
	cfg.RelatedCacheTTL = envutil.Duration("RELATED_CACHE_TTL", cfg.RelatedCacheTTL)
	cfg.CORSOrigins = envutil.List("CORS_ORIGINS", cfg.CORSOrigins)

	o := &cfg.Otel
	o.Enabled = envutil.Bool("OTEL_ENABLED", o.Enabled)
	o.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", o.Endpoint)
	o.Headers = envutil.List("OTEL_EXPORTER_OTLP_HEADERS", o.Headers)
	o.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", o.Insecure)
	o.SampleRatio = envutil.Float("OTEL_SAMPLER_RATIO", o.SampleRatio)
}

// Location is the timezone content days are counted in.
func (c Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.ContentTimezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("CONTENT_TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}

// IdentityConfigured reports whether session start can verify tokens.
func (c Config) IdentityConfigured() bool {
	return strings.TrimSpace(c.IdentityProjectID) != ""
}

func (c Config) otel() observability.OtelConfig {
	return observability.OtelConfig{
		Enabled:     c.Otel.Enabled,
		ServiceName: serviceName,
		Environment: c.Env,
		Version:     c.Version,
		Endpoint:    c.Otel.Endpoint,
		Headers:     observability.ParseHeaders(c.Otel.Headers),
		Insecure:    c.Otel.Insecure,
		SampleRatio: c.Otel.SampleRatio,
	}
}

func (c PostgresConfig) toDB() db.PostgresConfig {
	return db.PostgresConfig{
		URL:             c.URL,
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		Name:            c.Name,
		SSLMode:         c.SSLMode,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
	}
}
