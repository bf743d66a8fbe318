package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"freshly_bot/internal/domain/item"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken   string
	DatabaseURL     string
	AdminTelegramID int64 // 0 disables admin commands
	LogLevel        string
	Environment     string
	CatalogPath     string
	Location        *time.Location

	ReminderHour            int // Hour of day at which threshold reminders fire
	ReminderLastChanceDelay time.Duration
	SweepHour               int // Daily expired sweep
	SweepMinute             int
	CronSpecCleanup         string // Retention purge
	RetentionDays           int

	FreeItemLimit     int
	PremiumItemLimit  int
	FreeThresholds    []item.Threshold
	PremiumThresholds []item.Threshold

	RedisURL      string // Optional; enables the distributed locker
	HealthAddr    string
	WebhookURL    string // Optional; long polling is used when empty
	WebhookListen string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	if adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID"); adminIDStr != "" {
		cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}

	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getEnv("ENVIRONMENT", "development"))
	cfg.CatalogPath = getEnv("CATALOG_PATH", "products.json")

	cfg.Location, err = time.LoadLocation(getEnv("TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	if cfg.ReminderHour, err = getIntInRange("REMINDER_HOUR", 10, 0, 23); err != nil {
		return nil, err
	}
	if cfg.SweepHour, err = getIntInRange("SWEEP_HOUR", 10, 0, 23); err != nil {
		return nil, err
	}
	if cfg.SweepMinute, err = getIntInRange("SWEEP_MINUTE", 0, 0, 59); err != nil {
		return nil, err
	}
	// 0 keeps expired items forever.
	if cfg.RetentionDays, err = getIntInRange("RETENTION_DAYS", 30, 0, 3650); err != nil {
		return nil, err
	}
	// A limit of 0 disables the cap for that tier.
	if cfg.FreeItemLimit, err = getIntInRange("FREE_ITEM_LIMIT", 5, 0, 100000); err != nil {
		return nil, err
	}
	if cfg.PremiumItemLimit, err = getIntInRange("PREMIUM_ITEM_LIMIT", 50, 0, 100000); err != nil {
		return nil, err
	}

	cfg.ReminderLastChanceDelay, err = time.ParseDuration(getEnv("REMINDER_LAST_CHANCE_DELAY", "1h"))
	if err != nil || cfg.ReminderLastChanceDelay <= 0 {
		return nil, fmt.Errorf("invalid REMINDER_LAST_CHANCE_DELAY: %q", os.Getenv("REMINDER_LAST_CHANCE_DELAY"))
	}

	cfg.CronSpecCleanup = getEnv("CRON_SPEC_CLEANUP", "30 3 * * *") // Default: 03:30 daily

	cfg.FreeThresholds, err = item.ParseThresholds(getEnv("FREE_THRESHOLDS", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid FREE_THRESHOLDS: %w", err)
	}
	cfg.PremiumThresholds, err = item.ParseThresholds(getEnv("PREMIUM_THRESHOLDS", "1,3,7"))
	if err != nil {
		return nil, fmt.Errorf("invalid PREMIUM_THRESHOLDS: %w", err)
	}

	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.HealthAddr = getEnv("HEALTH_ADDR", ":8081")
	cfg.WebhookURL = os.Getenv("WEBHOOK_URL")
	cfg.WebhookListen = getEnv("WEBHOOK_LISTEN", ":8443")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntInRange(key string, defaultValue, min, max int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if v < min || v > max {
		return 0, fmt.Errorf("invalid %s: %d is outside [%d, %d]", key, v, min, max)
	}
	return v, nil
}
