package item

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the operations for persisting and querying tracked items.
type Repository interface {
	Create(ctx context.Context, it *TrackedItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*TrackedItem, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*TrackedItem, error) // Ascending by expiration date
	CountByOwner(ctx context.Context, ownerID int64) (int, error)
	// Delete removes one item of the owner. A missing item or a foreign owner is
	// reported as not found.
	Delete(ctx context.Context, id uuid.UUID, ownerID int64) error
	// DeleteByOwner removes every item of the owner and returns the deleted IDs.
	DeleteByOwner(ctx context.Context, ownerID int64) ([]uuid.UUID, error)
	// MarkNotified adds threshold to the item's flags. It reports whether the flag
	// was newly set; an already set flag or a missing item yields false.
	MarkNotified(ctx context.Context, id uuid.UUID, threshold Threshold) (bool, error)
	// MarkAttempted records a failed delivery for threshold so it is not tried again.
	MarkAttempted(ctx context.Context, id uuid.UUID, threshold Threshold) (bool, error)
	// ListDue returns items whose threshold is neither notified nor attempted and whose
	// expiration is exactly threshold days after asOf, or on/before asOf for ThresholdExpired.
	ListDue(ctx context.Context, threshold Threshold, asOf time.Time) ([]*TrackedItem, error)
	// ListExpiringFrom returns all items expiring on or after the given date.
	ListExpiringFrom(ctx context.Context, from time.Time) ([]*TrackedItem, error)
	// DeleteExpiredBefore removes items expired before cutoff, returning the deleted IDs.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
}
