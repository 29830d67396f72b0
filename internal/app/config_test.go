package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/examprep-backend/internal/platform/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("CONTENT_TIMEZONE", "")
	t.Setenv("IDENTITY_PROJECT_ID", "")

	cfg, err := LoadConfig(logger.Nop())
	require.NoError(t, err)
	require.Equal(t, "Asia/Kolkata", cfg.ContentTimezone)
	require.Equal(t, 2, cfg.SessionMaxCeiling)
	require.Equal(t, 30*time.Second, cfg.HeartbeatInterval)
	require.Equal(t, time.Hour, cfg.RelatedCacheTTL)
	require.Equal(t, "@every 1m", cfg.SweepSchedule)
	require.False(t, cfg.IdentityConfigured())
}

func TestLoadConfigEnvironmentBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "examprep.yaml")
	body := []byte(`
port: "9000"
sweepSecret: from-file
sessionMaxCeiling: 3
relatedCacheTTL: 10m
corsOrigins: ["https://admin.example.com"]
postgres:
  host: db.internal
  name: content
`)
	require.NoError(t, os.WriteFile(path, body, 0o600))

	for _, k := range []string{"PORT", "SESSION_MAX_CEILING", "RELATED_CACHE_TTL", "CORS_ORIGINS", "POSTGRES_HOST", "POSTGRES_PORT"} {
		t.Setenv(k, "")
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SWEEP_SECRET", "from-env")
	t.Setenv("IDENTITY_PROJECT_ID", "examprep-dev")

	cfg, err := LoadConfig(logger.Nop())
	require.NoError(t, err)
	require.Equal(t, "9000", cfg.Port)
	require.Equal(t, "from-env", cfg.SweepSecret)
	require.Equal(t, 3, cfg.SessionMaxCeiling)
	require.Equal(t, 10*time.Minute, cfg.RelatedCacheTTL)
	require.Equal(t, []string{"https://admin.example.com"}, cfg.CORSOrigins)
	require.Equal(t, "db.internal", cfg.Postgres.Host)
	require.Equal(t, "5432", cfg.Postgres.Port)
	require.True(t, cfg.IdentityConfigured())
}

func TestLoadConfigRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("CONTENT_TIMEZONE", "Mars/Olympus_Mons")

	_, err := LoadConfig(logger.Nop())
	require.Error(t, err)
}

func TestPostgresDSNPrefersURL(t *testing.T) {
	pg := PostgresConfig{URL: "postgres://u:p@h:1/n", Host: "ignored"}
	require.Equal(t, "postgres://u:p@h:1/n", pg.toDB().DSN())

	pg = PostgresConfig{Host: "h", Port: "5432", User: "u", Password: "p", Name: "n"}
	require.Equal(t, "postgres://u:p@h:5432/n?sslmode=disable", pg.toDB().DSN())
}
