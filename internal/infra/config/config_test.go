package config

import (
	"testing"
	"time"

	"freshly_bot/internal/domain/item"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("DATABASE_URL", "postgres://freshly@localhost/freshly?sslmode=disable")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(0), cfg.AdminTelegramID)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "products.json", cfg.CatalogPath)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, 10, cfg.ReminderHour)
	assert.Equal(t, 10, cfg.SweepHour)
	assert.Equal(t, 0, cfg.SweepMinute)
	assert.Equal(t, time.Hour, cfg.ReminderLastChanceDelay)
	assert.Equal(t, 5, cfg.FreeItemLimit)
	assert.Equal(t, 50, cfg.PremiumItemLimit)
	assert.Equal(t, []item.Threshold{1}, cfg.FreeThresholds)
	assert.Equal(t, []item.Threshold{1, 3, 7}, cfg.PremiumThresholds)
	assert.Equal(t, 30, cfg.RetentionDays)
	assert.Equal(t, ":8081", cfg.HealthAddr)
	assert.Empty(t, cfg.RedisURL)
	assert.Empty(t, cfg.WebhookURL)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ADMIN_TELEGRAM_ID", "777")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("TIMEZONE", "Europe/Moscow")
	t.Setenv("REMINDER_HOUR", "9")
	t.Setenv("FREE_ITEM_LIMIT", "0")
	t.Setenv("PREMIUM_THRESHOLDS", "7,1")
	t.Setenv("REMINDER_LAST_CHANCE_DELAY", "30m")
	t.Setenv("RETENTION_DAYS", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(777), cfg.AdminTelegramID)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "Europe/Moscow", cfg.Location.String())
	assert.Equal(t, 9, cfg.ReminderHour)
	assert.Equal(t, 0, cfg.FreeItemLimit)
	assert.Equal(t, []item.Threshold{7, 1}, cfg.PremiumThresholds)
	assert.Equal(t, 30*time.Minute, cfg.ReminderLastChanceDelay)
	assert.Equal(t, 0, cfg.RetentionDays)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing token", env: map[string]string{"TELEGRAM_TOKEN": ""}},
		{name: "missing database", env: map[string]string{"DATABASE_URL": ""}},
		{name: "bad admin id", env: map[string]string{"ADMIN_TELEGRAM_ID": "admin"}},
		{name: "hour out of range", env: map[string]string{"REMINDER_HOUR": "24"}},
		{name: "bad thresholds", env: map[string]string{"FREE_THRESHOLDS": "one"}},
		{name: "bad timezone", env: map[string]string{"TIMEZONE": "Mars/Olympus"}},
		{name: "bad delay", env: map[string]string{"REMINDER_LAST_CHANCE_DELAY": "soon"}},
		{name: "negative retention", env: map[string]string{"RETENTION_DAYS": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
