package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rezkam/taskdeck/internal/env"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFrom(env.MapLookup(nil))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, 2, cfg.API.RetryAttempts)
	assert.Equal(t, 200*time.Millisecond, cfg.API.RetryBackoff)

	assert.Equal(t, StorageFS, cfg.Storage.Type)
	assert.Equal(t, "taskdeck:", cfg.Storage.RedisPrefix)
	assert.True(t, cfg.Database.AutoMigrate)

	assert.False(t, cfg.Observability.OTelEnabled)
	assert.Equal(t, "taskdeck", cfg.Observability.ServiceName)
	level, err := cfg.Observability.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
}

func TestLoad_WithEnv(t *testing.T) {
	cfg, err := LoadFrom(env.MapLookup(map[string]string{
		"TASKDECK_API_URL":      "https://tasks.example.com/api",
		"TASKDECK_API_TIMEOUT":  "3s",
		"TASKDECK_STORAGE":      "redis",
		"TASKDECK_REDIS_URL":    "redis://localhost:6379/0",
		"TASKDECK_OTEL_ENABLED": "true",
		"TASKDECK_LOG_LEVEL":    "DEBUG",
		"TASKDECK_LOG_FORMAT":   "json",
	}))
	require.NoError(t, err)

	assert.Equal(t, "https://tasks.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, StorageRedis, cfg.Storage.Type)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Storage.RedisURL)
	assert.True(t, cfg.Observability.OTelEnabled)
	assert.Equal(t, "json", cfg.Observability.LogFormat)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("TASKDECK_API_URL=http://from-file:9000\nTASKDECK_STORAGE=memory\n"), 0o600))

	cfg, err := LoadFrom(env.MapLookup(map[string]string{"TASKDECK_STORAGE": "sqlite"}), path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "http://from-file:9000", cfg.API.BaseURL)
	assert.Equal(t, StorageSQLite, cfg.Storage.Type, "environment wins over the dotenv file")
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		wantErr string
	}{
		{"unknown storage", map[string]string{"TASKDECK_STORAGE": "mysql"}, "unknown TASKDECK_STORAGE"},
		{"redis without url", map[string]string{"TASKDECK_STORAGE": "redis"}, "TASKDECK_REDIS_URL is required"},
		{"gcs without bucket", map[string]string{"TASKDECK_STORAGE": "gcs"}, "TASKDECK_GCS_BUCKET is required"},
		{"postgres without dsn", map[string]string{"TASKDECK_STORAGE": "postgres"}, "TASKDECK_DB_DSN is required"},
		{"relative api url", map[string]string{"TASKDECK_API_URL": "localhost:8000"}, "TASKDECK_API_URL"},
		{"zero timeout", map[string]string{"TASKDECK_API_TIMEOUT": "0s"}, "TASKDECK_API_TIMEOUT"},
		{"bad log level", map[string]string{"TASKDECK_LOG_LEVEL": "loud"}, "TASKDECK_LOG_LEVEL"},
		{"bad log format", map[string]string{"TASKDECK_LOG_FORMAT": "xml"}, "TASKDECK_LOG_FORMAT"},
		{"unparseable duration", map[string]string{"TASKDECK_API_RETRY_BACKOFF": "soon"}, "TASKDECK_API_RETRY_BACKOFF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(env.MapLookup(tt.vars))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_PostgresWithDSN(t *testing.T) {
	cfg, err := LoadFrom(env.MapLookup(map[string]string{
		"TASKDECK_STORAGE":      "postgres",
		"TASKDECK_DB_DSN":       "postgres://u:p@localhost:5432/taskdeck",
		"TASKDECK_DB_MAX_CONNS": "4",
	}))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Database.MaxConns)
}

func TestStorageConfig_Paths(t *testing.T) {
	c := StorageConfig{FSDir: "/tmp/td"}
	dir, err := c.Dir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/td", dir)

	file, err := c.SQLiteFile()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/td", "session.db"), file)

	c.SQLitePath = "/var/db/s.db"
	file, err = c.SQLiteFile()
	require.NoError(t, err)
	assert.Equal(t, "/var/db/s.db", file)
}
