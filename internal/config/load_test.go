package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Environment mutation, so these tests cannot run in parallel.

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TASKDECK_DATABASE_URL", "postgres://localhost:5432/taskdeck")
	t.Setenv("TASKDECK_AUTH_JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("TASKDECK_SERVER_PORT", "9090")
	t.Setenv("TASKDECK_REMINDER_SCAN_INTERVAL", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "postgres://localhost:5432/taskdeck", cfg.Database.URL)
	assert.Equal(t, 30*time.Minute, cfg.Reminder.ScanInterval)

	// Defaults fill the rest of the reminder group.
	assert.Equal(t, 24*time.Hour, cfg.Reminder.Horizon)
	assert.Equal(t, 2, cfg.Reminder.WorkerCount)
	assert.Equal(t, 5, cfg.Reminder.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Reminder.LeaseDuration)
}

func TestLoadMissingRequiredFields(t *testing.T) {
	// No database URL and no JWT secret configured.
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsShortJWTSecret(t *testing.T) {
	t.Setenv("TASKDECK_DATABASE_URL", "postgres://localhost:5432/taskdeck")
	t.Setenv("TASKDECK_AUTH_JWT_SECRET", "too-short")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsInvalidLogLevel(t *testing.T) {
	t.Setenv("TASKDECK_DATABASE_URL", "postgres://localhost:5432/taskdeck")
	t.Setenv("TASKDECK_AUTH_JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("TASKDECK_SERVER_LOG_LEVEL", "loud")

	_, err := Load()
	assert.Error(t, err)
}
