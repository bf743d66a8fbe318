package scheduler

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"freshly_bot/internal/domain/reminder"
	"freshly_bot/internal/infra/metrics"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// onceSchedule fires a single time at `at`. A zero Next tells cron the entry
// never runs again.
type onceSchedule struct {
	at time.Time
}

func (s onceSchedule) Next(t time.Time) time.Time {
	if t.Before(s.at) {
		return s.at
	}
	return time.Time{}
}

// CronScheduler implements reminder.JobScheduler on a robfig/cron engine.
type CronScheduler struct {
	cronEngine *cron.Cron
	logger     *logrus.Entry
	now        func() time.Time

	mu   sync.Mutex
	jobs map[reminder.JobKey]cron.EntryID
}

func New(loc *time.Location, logger *logrus.Entry) *CronScheduler {
	cronLogger := cron.PrintfLogger(logger)
	return &CronScheduler{
		cronEngine: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger)),
		),
		logger: logger,
		now:    time.Now,
		jobs:   make(map[reminder.JobKey]cron.EntryID),
	}
}

// ScheduleOnce arms fn for fireAt under key, replacing a pending job with the same key.
func (s *CronScheduler) ScheduleOnce(key reminder.JobKey, fireAt time.Time, fn func()) error {
	if !fireAt.After(s.now()) {
		return fmt.Errorf("fire time %s for %s is not in the future", fireAt.Format(time.RFC3339), key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.jobs[key]; ok {
		s.cronEngine.Remove(old)
		delete(s.jobs, key)
	}

	var id cron.EntryID
	id = s.cronEngine.Schedule(onceSchedule{at: fireAt}, cron.FuncJob(func() {
		// Blocks until ScheduleOnce has stored id.
		s.mu.Lock()
		current, ok := s.jobs[key]
		if !ok || current != id {
			// Replaced or cancelled after cron dispatched it.
			s.mu.Unlock()
			return
		}
		delete(s.jobs, key)
		metrics.ScheduledJobs.Set(float64(len(s.jobs)))
		s.mu.Unlock()

		s.cronEngine.Remove(id)
		fn()
	}))
	s.jobs[key] = id
	metrics.ScheduledJobs.Set(float64(len(s.jobs)))

	s.logger.WithFields(logrus.Fields{
		"job_key": key.String(),
		"fire_at": fireAt.Format(time.RFC3339),
	}).Debug("Reminder job scheduled")
	return nil
}

func (s *CronScheduler) Cancel(key reminder.JobKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked(key)
}

func (s *CronScheduler) CancelItem(itemID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cancelled := 0
	for key := range s.jobs {
		if key.ItemID == itemID && s.cancelLocked(key) {
			cancelled++
		}
	}
	return cancelled
}

func (s *CronScheduler) cancelLocked(key reminder.JobKey) bool {
	id, ok := s.jobs[key]
	if !ok {
		return false
	}
	delete(s.jobs, key)
	s.cronEngine.Remove(id)
	metrics.ScheduledJobs.Set(float64(len(s.jobs)))
	s.logger.WithField("job_key", key.String()).Debug("Reminder job cancelled")
	return true
}

// ScheduleDaily runs fn every day at hour:minute in the scheduler's location.
func (s *CronScheduler) ScheduleDaily(hour, minute int, fn func()) error {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("invalid daily time %02d:%02d", hour, minute)
	}
	return s.ScheduleSpec(fmt.Sprintf("%d %d * * *", minute, hour), fn)
}

// ScheduleSpec registers fn under a standard five-field cron spec.
func (s *CronScheduler) ScheduleSpec(spec string, fn func()) error {
	if _, err := s.cronEngine.AddFunc(spec, fn); err != nil {
		return fmt.Errorf("could not add cron job %q: %w", spec, err)
	}
	return nil
}

func (s *CronScheduler) Pending() []reminder.JobKey {
	s.mu.Lock()
	keys := make([]reminder.JobKey, 0, len(s.jobs))
	for key := range s.jobs {
		keys = append(keys, key)
	}
	s.mu.Unlock()

	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

func (s *CronScheduler) Start() {
	s.logger.Info("Starting job scheduler...")
	s.cronEngine.Start()
	s.logger.Info("Job scheduler started.")
}

func (s *CronScheduler) Stop() {
	s.logger.Info("Stopping job scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Job scheduler gracefully stopped.")
}
