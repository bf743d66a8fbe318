package scheduler

import (
	"context"
	"time"

	"freshly_bot/internal/infra/metrics"

	"github.com/sirupsen/logrus"
)

// ExpiredSweeper delivers the "already expired" reminder to every due item.
type ExpiredSweeper interface {
	OnDailyTick(ctx context.Context, asOf time.Time) error
}

// RetentionPurger removes long-expired items.
type RetentionPurger interface {
	PurgeExpired(ctx context.Context, asOf time.Time) (int, error)
}

type DailyJobsConfig struct {
	SweepHour   int
	SweepMinute int
	CleanupSpec string // e.g., "30 3 * * *" (03:30 daily)
}

const (
	sweepTimeout   = 5 * time.Minute
	cleanupTimeout = 1 * time.Minute
)

// RegisterDailyJobs adds the expired sweep and the retention cleanup to s.
func RegisterDailyJobs(s *CronScheduler, cfg DailyJobsConfig, sweeper ExpiredSweeper, purger RetentionPurger, logger *logrus.Entry) error {
	err := s.ScheduleDaily(cfg.SweepHour, cfg.SweepMinute, func() {
		runExpiredSweep(sweeper, time.Now(), logger)
	})
	if err != nil {
		return err
	}

	return s.ScheduleSpec(cfg.CleanupSpec, func() {
		runRetentionCleanup(purger, time.Now(), logger)
	})
}

func runExpiredSweep(sweeper ExpiredSweeper, asOf time.Time, logger *logrus.Entry) {
	logger.Info("Cron job triggered for expired items sweep.")
	timer := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	if err := sweeper.OnDailyTick(ctx, asOf); err != nil {
		logger.WithError(err).Error("Error during expired items sweep")
	}
	metrics.JobDuration.WithLabelValues("expired_sweep").Observe(time.Since(timer).Seconds())
}

func runRetentionCleanup(purger RetentionPurger, asOf time.Time, logger *logrus.Entry) {
	logger.Info("Cron job triggered for retention cleanup.")
	timer := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	purged, err := purger.PurgeExpired(ctx, asOf)
	if err != nil {
		logger.WithError(err).Error("Error during retention cleanup")
	} else {
		logger.WithField("purged", purged).Info("Retention cleanup finished.")
	}
	metrics.JobDuration.WithLabelValues("retention_cleanup").Observe(time.Since(timer).Seconds())
}
