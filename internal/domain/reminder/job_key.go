package reminder

import (
	"fmt"
	"time"

	"freshly_bot/internal/domain/item"

	"github.com/google/uuid"
)

// JobKey identifies one armed reminder. Re-scheduling under the same key replaces
// the pending job, so arming is idempotent.
type JobKey struct {
	OwnerID   int64
	ItemID    uuid.UUID
	Threshold item.Threshold
}

// String renders the stable textual form, e.g. "reminder:42:<uuid>:1".
func (k JobKey) String() string {
	return fmt.Sprintf("reminder:%d:%s:%d", k.OwnerID, k.ItemID, k.Threshold)
}

// JobScheduler is the job-scheduling collaborator. Implementations run callbacks
// on their own goroutines.
type JobScheduler interface {
	// ScheduleOnce registers fn to run once at fireAt, replacing any job with the same key.
	ScheduleOnce(key JobKey, fireAt time.Time, fn func()) error
	// Cancel removes the pending job for key. It reports whether one existed.
	Cancel(key JobKey) bool
	// CancelItem removes all pending jobs of the item and returns how many were removed.
	CancelItem(itemID uuid.UUID) int
	// ScheduleDaily runs fn every day at hour:minute.
	ScheduleDaily(hour, minute int, fn func()) error
	// Pending returns the keys of jobs that have not fired or been cancelled.
	Pending() []JobKey
}
