package item

import (
	"time"

	"github.com/google/uuid"
)

// TrackedItem is one user's purchased product being watched for expiration.
// Corresponds to the 'tracked_items' table.
type TrackedItem struct {
	ID             uuid.UUID
	OwnerID        int64  // Telegram user ID, FK to owners.telegram_id
	DisplayName    string // Free text or the catalog display name
	Category       string // Copied from the catalog at creation, may be empty
	PurchaseDate   time.Time
	ExpirationDate time.Time // PurchaseDate + shelf life, never recomputed
	Notified       ThresholdSet
	Attempted      ThresholdSet // Thresholds whose delivery failed; never retried
	CreatedAt      time.Time
}

// Settled reports whether threshold t needs no further delivery attempt.
func (it *TrackedItem) Settled(t Threshold) bool {
	return it.Notified.Has(t) || it.Attempted.Has(t)
}

// DaysLeft returns the whole days from asOf until expiration. Negative once expired.
func (it *TrackedItem) DaysLeft(asOf time.Time) int {
	return DaysBetween(asOf, it.ExpirationDate)
}

// Status returns the presentational band for the item at asOf.
func (it *TrackedItem) Status(asOf time.Time) Status {
	return StatusFor(it.DaysLeft(asOf))
}

// DateOf truncates t to its calendar date (in t's own location) and returns it
// as midnight UTC, the representation used for all item dates.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from `from` to `to`.
func DaysBetween(from, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)).Hours() / 24)
}

// ExpirationFor derives the expiration date from a purchase date and shelf life.
func ExpirationFor(purchaseDate time.Time, shelfLifeDays int) time.Time {
	return DateOf(purchaseDate).AddDate(0, 0, shelfLifeDays)
}
