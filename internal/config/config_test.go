package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "lull", cfg.MongoDatabase)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.SchedulerEnabled)
	assert.Equal(t, 5*time.Minute, cfg.SchedulerLockTTL)
	assert.Equal(t, 10, cfg.SchedulerConcurrency)
	assert.Equal(t, 4, cfg.ReconcileWorkers)
	assert.Empty(t, cfg.WebhookURL)
	assert.Equal(t, "0 2 * * *", cfg.JanitorSchedule)
	assert.Equal(t, 30*24*time.Hour, cfg.JanitorRetention)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("SCHEDULER_ENABLED", "false")
	t.Setenv("SCHEDULER_LOCK_TTL_SEC", "60")
	t.Setenv("WEBHOOK_URL", "http://hooks.local/downtimes")
	t.Setenv("JANITOR_RETENTION_DAYS", "7")

	cfg := Load()

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.False(t, cfg.SchedulerEnabled)
	assert.Equal(t, time.Minute, cfg.SchedulerLockTTL)
	assert.Equal(t, "http://hooks.local/downtimes", cfg.WebhookURL)
	assert.Equal(t, 7*24*time.Hour, cfg.JanitorRetention)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("WARN"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("info"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("verbose"))
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("SCHEDULER_CONCURRENCY", "lots")
	t.Setenv("SCHEDULER_ENABLED", "maybe")
	t.Setenv("WEBHOOK_BACKOFF_MULTIPLIER", "fast")

	cfg := Load()

	assert.Equal(t, 10, cfg.SchedulerConcurrency)
	assert.True(t, cfg.SchedulerEnabled)
	assert.Equal(t, 2.0, cfg.WebhookBackoffMultiple)
}
