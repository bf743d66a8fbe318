package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"freshly_bot/internal/domain/catalog"
	"freshly_bot/internal/domain/item"
	"freshly_bot/internal/domain/lock"
	"freshly_bot/internal/domain/owner"
	idb "freshly_bot/internal/infra/database"
	"freshly_bot/internal/infra/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Application-level errors for item tracking
var ErrEmptyName = fmt.Errorf("item name must not be empty")
var ErrInvalidDate = fmt.Errorf("invalid purchase date")
var ErrInvalidShelfLife = fmt.Errorf("shelf life must be a positive number of days")
var ErrQuotaExceeded = fmt.Errorf("item quota exceeded")

// Policy holds the per-tier limits. A limit <= 0 disables the cap.
type Policy struct {
	FreeItemLimit     int
	PremiumItemLimit  int
	FreeThresholds    []item.Threshold
	PremiumThresholds []item.Threshold
	RetentionDays     int // Expired items older than this are purged; <= 0 keeps them forever
}

func (p Policy) limitFor(premium bool) int {
	if premium {
		return p.PremiumItemLimit
	}
	return p.FreeItemLimit
}

func (p Policy) thresholdsFor(premium bool) []item.Threshold {
	if premium {
		return p.PremiumThresholds
	}
	return p.FreeThresholds
}

// Reminders arms and cancels the reminder jobs of an item.
type Reminders interface {
	Arm(ctx context.Context, it *item.TrackedItem, thresholds []item.Threshold) (int, error)
	Cancel(itemID uuid.UUID) int
}

type TrackingService struct {
	items     item.Repository
	owners    owner.Repository
	catalog   *catalog.Catalog
	reminders Reminders
	locker    lock.Locker
	policy    Policy
	loc       *time.Location
	now       func() time.Time
	logger    *logrus.Entry
}

func NewTrackingService(
	items item.Repository,
	owners owner.Repository,
	cat *catalog.Catalog,
	reminders Reminders,
	locker lock.Locker,
	policy Policy,
	loc *time.Location,
	logger *logrus.Entry,
) *TrackingService {
	return &TrackingService{
		items:     items,
		owners:    owners,
		catalog:   cat,
		reminders: reminders,
		locker:    locker,
		policy:    policy,
		loc:       loc,
		now:       time.Now,
		logger:    logger,
	}
}

// Today returns the current calendar date in the configured zone.
func (s *TrackingService) Today() time.Time {
	return item.DateOf(s.now().In(s.loc))
}

// AddFromCatalog resolves name in the catalog and tracks it with the catalog shelf life.
func (s *TrackingService) AddFromCatalog(ctx context.Context, ownerID int64, name string, purchaseDate time.Time) (*item.TrackedItem, error) {
	entry, err := s.catalog.Lookup(name)
	if err != nil {
		metrics.ItemsRejected.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("lookup %q: %w", name, err)
	}
	return s.add(ctx, ownerID, entry.Name, entry.Category, purchaseDate, entry.ShelfLifeDays)
}

// Add tracks an item with an explicit shelf life. The category is taken from the
// catalog when the name happens to match an entry.
func (s *TrackingService) Add(ctx context.Context, ownerID int64, displayName string, purchaseDate time.Time, shelfLifeDays int) (*item.TrackedItem, error) {
	category, err := s.catalog.Category(displayName)
	if err != nil && !errors.Is(err, catalog.ErrNotFound) {
		return nil, err
	}
	return s.add(ctx, ownerID, displayName, category, purchaseDate, shelfLifeDays)
}

func (s *TrackingService) add(ctx context.Context, ownerID int64, displayName, category string, purchaseDate time.Time, shelfLifeDays int) (*item.TrackedItem, error) {
	logger := s.logger.WithFields(logrus.Fields{"owner_id": ownerID, "item_name": displayName})

	name := strings.TrimSpace(displayName)
	if name == "" {
		metrics.ItemsRejected.WithLabelValues("empty_name").Inc()
		return nil, ErrEmptyName
	}
	purchase := item.DateOf(purchaseDate)
	if purchase.After(s.Today()) {
		metrics.ItemsRejected.WithLabelValues("invalid_date").Inc()
		return nil, fmt.Errorf("%w: %s is in the future", ErrInvalidDate, purchase.Format("2006-01-02"))
	}
	if shelfLifeDays < 0 {
		metrics.ItemsRejected.WithLabelValues("invalid_date").Inc()
		return nil, fmt.Errorf("%w: expiration would precede purchase", ErrInvalidDate)
	}
	if shelfLifeDays == 0 {
		metrics.ItemsRejected.WithLabelValues("invalid_shelf_life").Inc()
		return nil, ErrInvalidShelfLife
	}

	premium, err := s.isPremium(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, lock.OwnerKey(ownerID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock owner %d: %w", ownerID, err)
	}
	defer release()

	if limit := s.policy.limitFor(premium); limit > 0 {
		count, err := s.items.CountByOwner(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("failed to count items: %w", err)
		}
		if count >= limit {
			metrics.ItemsRejected.WithLabelValues("quota").Inc()
			logger.Infof("Quota of %d items reached", limit)
			return nil, fmt.Errorf("%w: limit is %d", ErrQuotaExceeded, limit)
		}
	}

	it := &item.TrackedItem{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		DisplayName:    name,
		Category:       category,
		PurchaseDate:   purchase,
		ExpirationDate: item.ExpirationFor(purchase, shelfLifeDays),
	}
	if err := s.items.Create(ctx, it); err != nil {
		return nil, fmt.Errorf("failed to store item: %w", err)
	}
	metrics.ItemsAdded.Inc()
	logger.WithFields(logrus.Fields{
		"item_id":    it.ID,
		"expires_on": it.ExpirationDate.Format("2006-01-02"),
	}).Info("Item tracked")

	// Arming is best effort: the item stays stored and the daily sweep still covers it.
	if _, err := s.reminders.Arm(ctx, it, s.policy.thresholdsFor(premium)); err != nil {
		logger.WithError(err).Warn("Failed to arm some reminders")
	}
	return it, nil
}

func (s *TrackingService) isPremium(ctx context.Context, ownerID int64) (bool, error) {
	o, err := s.owners.GetByTelegramID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, idb.ErrOwnerNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load owner %d: %w", ownerID, err)
	}
	return o.IsPremium(s.now()), nil
}

func (s *TrackingService) ListByOwner(ctx context.Context, ownerID int64) ([]*item.TrackedItem, error) {
	return s.items.ListByOwner(ctx, ownerID)
}

func (s *TrackingService) CountByOwner(ctx context.Context, ownerID int64) (int, error) {
	return s.items.CountByOwner(ctx, ownerID)
}

// Remove deletes a single item of the owner and cancels its pending reminders.
func (s *TrackingService) Remove(ctx context.Context, ownerID int64, itemID uuid.UUID) error {
	release, err := s.locker.Acquire(ctx, lock.OwnerKey(ownerID))
	if err != nil {
		return fmt.Errorf("failed to lock owner %d: %w", ownerID, err)
	}
	defer release()

	if err := s.items.Delete(ctx, itemID, ownerID); err != nil {
		return err
	}
	cancelled := s.reminders.Cancel(itemID)
	s.logger.WithFields(logrus.Fields{
		"owner_id":       ownerID,
		"item_id":        itemID,
		"jobs_cancelled": cancelled,
	}).Info("Item removed")
	return nil
}

// RemoveAll deletes every item of the owner and cancels their pending reminders.
func (s *TrackingService) RemoveAll(ctx context.Context, ownerID int64) (int, error) {
	release, err := s.locker.Acquire(ctx, lock.OwnerKey(ownerID))
	if err != nil {
		return 0, fmt.Errorf("failed to lock owner %d: %w", ownerID, err)
	}
	defer release()

	ids, err := s.items.DeleteByOwner(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete items: %w", err)
	}
	cancelled := 0
	for _, id := range ids {
		cancelled += s.reminders.Cancel(id)
	}
	s.logger.WithFields(logrus.Fields{
		"owner_id":       ownerID,
		"items_removed":  len(ids),
		"jobs_cancelled": cancelled,
	}).Info("Items cleared")
	return len(ids), nil
}

// MarkNotified records that threshold fired for the item. It reports whether the
// flag was newly set; repeating the call changes nothing.
func (s *TrackingService) MarkNotified(ctx context.Context, itemID uuid.UUID, threshold item.Threshold) (bool, error) {
	return s.items.MarkNotified(ctx, itemID, threshold)
}

// DueForNotification lists items whose threshold is reached at asOf and not yet notified.
func (s *TrackingService) DueForNotification(ctx context.Context, threshold item.Threshold, asOf time.Time) ([]*item.TrackedItem, error) {
	return s.items.ListDue(ctx, threshold, asOf.In(s.loc))
}

var csvHeader = []string{"name", "category", "purchase_date", "expiration_date", "days_left", "status"}

// ExportCSV writes the owner's items to w.
func (s *TrackingService) ExportCSV(ctx context.Context, ownerID int64, w io.Writer) (int, error) {
	items, err := s.items.ListByOwner(ctx, ownerID)
	if err != nil {
		return 0, err
	}

	today := s.Today()
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, it := range items {
		record := []string{
			it.DisplayName,
			it.Category,
			it.PurchaseDate.Format("2006-01-02"),
			it.ExpirationDate.Format("2006-01-02"),
			strconv.Itoa(it.DaysLeft(today)),
			string(it.Status(today)),
		}
		if err := cw.Write(record); err != nil {
			return 0, fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("failed to flush csv: %w", err)
	}
	return len(items), nil
}

// PurgeExpired removes items that expired more than RetentionDays before asOf,
// whether or not their expired reminder went out.
func (s *TrackingService) PurgeExpired(ctx context.Context, asOf time.Time) (int, error) {
	if s.policy.RetentionDays <= 0 {
		return 0, nil
	}
	cutoff := item.DateOf(asOf.In(s.loc)).AddDate(0, 0, -s.policy.RetentionDays)
	ids, err := s.items.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired items: %w", err)
	}
	for _, id := range ids {
		s.reminders.Cancel(id)
	}
	metrics.ItemsPurged.Add(float64(len(ids)))
	return len(ids), nil
}

// RearmUpcoming re-registers reminders for every item that has not expired yet.
// Jobs live in memory, so this runs once at startup.
func (s *TrackingService) RearmUpcoming(ctx context.Context) (int, error) {
	items, err := s.items.ListExpiringFrom(ctx, s.Today())
	if err != nil {
		return 0, fmt.Errorf("failed to list upcoming items: %w", err)
	}
	return s.rearm(ctx, items)
}

// RearmOwner re-registers the reminders of one owner, e.g. after a tier change.
func (s *TrackingService) RearmOwner(ctx context.Context, ownerID int64) (int, error) {
	items, err := s.items.ListByOwner(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	today := s.Today()
	var upcoming []*item.TrackedItem
	for _, it := range items {
		if !it.ExpirationDate.Before(today) {
			upcoming = append(upcoming, it)
		}
	}
	return s.rearm(ctx, upcoming)
}

func (s *TrackingService) rearm(ctx context.Context, items []*item.TrackedItem) (int, error) {
	tiers := make(map[int64]bool)
	armed := 0
	var errs []error
	for _, it := range items {
		premium, seen := tiers[it.OwnerID]
		if !seen {
			var err error
			premium, err = s.isPremium(ctx, it.OwnerID)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			tiers[it.OwnerID] = premium
		}
		n, err := s.reminders.Arm(ctx, it, s.policy.thresholdsFor(premium))
		if err != nil {
			errs = append(errs, err)
		}
		armed += n
	}
	s.logger.WithFields(logrus.Fields{"items": len(items), "jobs_armed": armed}).Info("Reminders re-armed")
	return armed, errors.Join(errs...)
}
