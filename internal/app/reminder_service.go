package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"freshly_bot/internal/domain/item"
	"freshly_bot/internal/domain/lock"
	"freshly_bot/internal/domain/reminder"
	domainTelegram "freshly_bot/internal/domain/telegram"
	idb "freshly_bot/internal/infra/database"
	"freshly_bot/internal/infra/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrDeliveryFailure marks a reminder the messaging client could not deliver.
// It is logged, never returned to a caller.
var ErrDeliveryFailure = fmt.Errorf("reminder delivery failed")

const fireTimeout = 30 * time.Second

type ReminderOptions struct {
	Location        *time.Location
	ReminderHour    int           // Local hour at which threshold reminders fire
	LastChanceDelay time.Duration // Delay for a 1-day reminder whose slot already passed
}

type ReminderService struct {
	items  item.Repository
	jobs   reminder.JobScheduler
	client domainTelegram.Client
	locker lock.Locker
	opts   ReminderOptions
	now    func() time.Time
	pick   func(n int) int
	logger *logrus.Entry
}

func NewReminderService(
	items item.Repository,
	jobs reminder.JobScheduler,
	client domainTelegram.Client,
	locker lock.Locker,
	opts ReminderOptions,
	logger *logrus.Entry,
) *ReminderService {
	return &ReminderService{
		items:  items,
		jobs:   jobs,
		client: client,
		locker: locker,
		opts:   opts,
		now:    time.Now,
		pick:   rand.Intn,
		logger: logger,
	}
}

// FireTime is the instant the reminder for threshold t is due:
// t days before expiration at the reminder hour, in the configured zone.
func (s *ReminderService) FireTime(expiration time.Time, t item.Threshold) time.Time {
	day := expiration.AddDate(0, 0, -int(t))
	return time.Date(day.Year(), day.Month(), day.Day(), s.opts.ReminderHour, 0, 0, 0, s.opts.Location)
}

// Arm schedules one job per threshold not yet notified or attempted. It returns the number of
// jobs registered; scheduling errors are joined.
func (s *ReminderService) Arm(ctx context.Context, it *item.TrackedItem, thresholds []item.Threshold) (int, error) {
	now := s.now()
	today := item.DateOf(now.In(s.opts.Location))
	logger := s.logger.WithFields(logrus.Fields{"item_id": it.ID, "owner_id": it.OwnerID})

	armed := 0
	var errs []error
	for _, t := range thresholds {
		if t == item.ThresholdExpired || it.Settled(t) {
			// The expired band belongs to the daily sweep.
			continue
		}

		fireAt := s.FireTime(it.ExpirationDate, t)
		if !fireAt.After(now) {
			if t != item.ThresholdOneDay || it.ExpirationDate.Before(today) {
				logger.WithField("threshold", t).Debug("Reminder slot already passed, skipping")
				continue
			}
			fireAt = now.Add(s.opts.LastChanceDelay)
		}

		key := reminder.JobKey{OwnerID: it.OwnerID, ItemID: it.ID, Threshold: t}
		itemID, threshold := it.ID, t
		if err := s.jobs.ScheduleOnce(key, fireAt, func() { s.fire(itemID, threshold) }); err != nil {
			errs = append(errs, fmt.Errorf("schedule %s: %w", key, err))
			continue
		}
		armed++
	}
	return armed, errors.Join(errs...)
}

// Cancel drops every pending job of the item.
func (s *ReminderService) Cancel(itemID uuid.UUID) int {
	return s.jobs.CancelItem(itemID)
}

func (s *ReminderService) fire(itemID uuid.UUID, threshold item.Threshold) {
	ctx, cancel := context.WithTimeout(context.Background(), fireTimeout)
	defer cancel()
	if err := s.OnFire(ctx, itemID, threshold); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"item_id":   itemID,
			"threshold": threshold,
		}).Error("Reminder job failed")
	}
}

// OnFire delivers the reminder for (itemID, threshold) at most once. A deleted
// item, an already set flag or an earlier failed attempt makes it a no-op.
func (s *ReminderService) OnFire(ctx context.Context, itemID uuid.UUID, threshold item.Threshold) error {
	logger := s.logger.WithFields(logrus.Fields{"item_id": itemID, "threshold": threshold})

	release, err := s.locker.Acquire(ctx, lock.ItemKey(itemID))
	if err != nil {
		return fmt.Errorf("failed to lock item: %w", err)
	}
	defer release()

	it, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, idb.ErrItemNotFound) {
			logger.Debug("Item no longer exists, skipping reminder")
			return nil
		}
		return fmt.Errorf("failed to load item: %w", err)
	}
	if it.Notified.Has(threshold) {
		logger.Debug("Reminder already delivered, skipping")
		return nil
	}
	if it.Attempted.Has(threshold) {
		logger.Debug("Reminder delivery already failed once, skipping")
		return nil
	}

	text := s.Compose(it, s.now())
	label := strconv.Itoa(int(threshold))
	if err := s.client.SendMessage(ctx, it.OwnerID, text, nil); err != nil {
		metrics.RemindersFailed.WithLabelValues(label).Inc()
		// The flag stays unset; the attempt is recorded so no later job or sweep resends.
		if _, markErr := s.items.MarkAttempted(ctx, itemID, threshold); markErr != nil {
			return fmt.Errorf("failed to record failed delivery: %w", markErr)
		}
		logger.WithError(fmt.Errorf("%w: %w", ErrDeliveryFailure, err)).
			WithField("owner_id", it.OwnerID).
			Error("Failed to deliver reminder")
		return nil
	}
	metrics.RemindersSent.WithLabelValues(label).Inc()

	marked, err := s.items.MarkNotified(ctx, itemID, threshold)
	if err != nil {
		return fmt.Errorf("reminder delivered but not recorded: %w", err)
	}
	if !marked {
		logger.Warn("Reminder flag was already set when recording delivery")
	}
	logger.WithField("owner_id", it.OwnerID).Info("Reminder delivered")
	return nil
}

// OnDailyTick notifies every expired item whose expired reminder was neither
// delivered nor attempted.
func (s *ReminderService) OnDailyTick(ctx context.Context, asOf time.Time) error {
	due, err := s.items.ListDue(ctx, item.ThresholdExpired, asOf.In(s.opts.Location))
	if err != nil {
		return fmt.Errorf("failed to query expired items: %w", err)
	}
	s.logger.WithField("due", len(due)).Info("Running expired items sweep")

	var errs []error
	for _, it := range due {
		if err := s.OnFire(ctx, it.ID, item.ThresholdExpired); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Compose builds the reminder text for the item as of now: a headline for the
// current status band followed by one tip.
func (s *ReminderService) Compose(it *item.TrackedItem, now time.Time) string {
	daysLeft := it.DaysLeft(now.In(s.opts.Location))
	text := headline(it, daysLeft)

	if daysLeft < 0 {
		return text + "\n" + expiredTips[s.pick(len(expiredTips))]
	}
	pool, ok := recipesByCategory[it.Category]
	if !ok || len(pool) == 0 {
		pool = fallbackRecipes
	}
	return text + "\n" + pool[s.pick(len(pool))].String()
}
