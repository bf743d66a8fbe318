package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"freshly_bot/internal/app"
	"freshly_bot/internal/domain/catalog"
	"freshly_bot/internal/domain/lock"
	"freshly_bot/internal/infra/config"
	idb "freshly_bot/internal/infra/database"
	"freshly_bot/internal/infra/httpserver"
	"freshly_bot/internal/infra/locker"
	"freshly_bot/internal/infra/logger"
	"freshly_bot/internal/infra/scheduler"
	"freshly_bot/internal/infra/telegram"

	"github.com/redis/go-redis/v9"
	"gopkg.in/telebot.v3"
)

// Bounds every Bot API call, sends included. Must exceed the long-poll timeout.
const botHTTPTimeout = 20 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.Infof("Configuration loaded. Environment: %s, Admin ID: %d, Timezone: %s", cfg.Environment, cfg.AdminTelegramID, cfg.Location)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Database Connection
	db, err := idb.Connect(ctx, cfg.DatabaseURL, logger.Component("database"))
	if err != nil {
		mainLogger.Fatalf("Could not connect to database: %v", err)
	}
	defer db.Close()
	mainLogger.Info("Database connection established successfully.")

	itemRepo := idb.NewPostgresItemRepository(db)
	ownerRepo := idb.NewPostgresOwnerRepository(db)

	cat, err := catalog.Load(cfg.CatalogPath, logger.Component("catalog"))
	if err != nil {
		mainLogger.Fatalf("Could not load product catalog: %v", err)
	}

	var (
		lk          lock.Locker
		redisClient *redis.Client
	)
	if cfg.RedisURL != "" {
		redisClient, err = locker.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			mainLogger.Fatalf("Could not connect to redis: %v", err)
		}
		lk = locker.NewRedisLocker(redisClient, logger.Component("locker"))
		mainLogger.Info("Using redis locker.")
	} else {
		lk = locker.NewLocalLocker()
		mainLogger.Info("Using in-process locker.")
	}

	// Initialize Telegram Bot
	botLogger := logger.Component("telebot")
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Client: &http.Client{Timeout: botHTTPTimeout},
		OnError: func(err error, c telebot.Context) {
			entry := botLogger.WithError(err)
			if c != nil && c.Sender() != nil {
				entry = entry.WithField("sender_id", c.Sender().ID).WithField("text", c.Text())
			}
			entry.Error("Unhandled bot error")
		},
	}
	if cfg.WebhookURL != "" {
		pref.Poller = &telebot.Webhook{
			Listen:   cfg.WebhookListen,
			Endpoint: &telebot.WebhookEndpoint{PublicURL: cfg.WebhookURL},
		}
		mainLogger.WithField("url", cfg.WebhookURL).Info("Receiving updates via webhook.")
	} else {
		pref.Poller = &telebot.LongPoller{Timeout: 10 * time.Second}
		mainLogger.Info("Receiving updates via long polling.")
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.Fatalf("Could not create Telegram bot: %v", err)
	}
	client := telegram.NewTelebotAdapter(bot)

	// Initialize services
	jobs := scheduler.New(cfg.Location, logger.Component("scheduler"))
	reminderService := app.NewReminderService(itemRepo, jobs, client, lk, app.ReminderOptions{
		Location:        cfg.Location,
		ReminderHour:    cfg.ReminderHour,
		LastChanceDelay: cfg.ReminderLastChanceDelay,
	}, logger.Component("reminders"))
	trackingService := app.NewTrackingService(itemRepo, ownerRepo, cat, reminderService, lk, app.Policy{
		FreeItemLimit:     cfg.FreeItemLimit,
		PremiumItemLimit:  cfg.PremiumItemLimit,
		FreeThresholds:    cfg.FreeThresholds,
		PremiumThresholds: cfg.PremiumThresholds,
		RetentionDays:     cfg.RetentionDays,
	}, cfg.Location, logger.Component("tracking"))
	adminService := app.NewAdminService(ownerRepo, trackingService, client, cfg.AdminTelegramID, logger.Component("admin"))

	// Register Handlers
	handlerLogger := logger.Component("handlers")
	bot.Use(telegram.OwnerMiddleware(ctx, ownerRepo, handlerLogger))
	telegram.RegisterBotCommands(bot, cfg.AdminTelegramID, cat, handlerLogger)
	telegram.RegisterItemHandlers(ctx, bot, trackingService, handlerLogger)
	telegram.RegisterAdminHandlers(ctx, bot, adminService, handlerLogger)

	err = scheduler.RegisterDailyJobs(jobs, scheduler.DailyJobsConfig{
		SweepHour:   cfg.SweepHour,
		SweepMinute: cfg.SweepMinute,
		CleanupSpec: cfg.CronSpecCleanup,
	}, reminderService, trackingService, logger.Component("daily_jobs"))
	if err != nil {
		mainLogger.Fatalf("Could not register daily jobs: %v", err)
	}
	jobs.Start()

	armed, err := trackingService.RearmUpcoming(ctx)
	if err != nil {
		mainLogger.WithError(err).Error("Some reminders could not be re-armed")
	}
	mainLogger.WithField("jobs", armed).Info("Reminders re-armed from storage.")

	healthServer := httpserver.New(cfg.HealthAddr, logger.Component("http"))
	healthServer.Start()

	mainLogger.Info("Application setup complete. Bot and Scheduler are starting...")
	go bot.Start()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	mainLogger.Info("Shutting down application...")
	bot.Stop()
	jobs.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		mainLogger.WithError(err).Warn("Health server shutdown failed")
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			mainLogger.WithError(err).Warn("Redis client close failed")
		}
	}
	mainLogger.Info("Application shut down gracefully.")
}
