package lock

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotAcquired is returned when a lock could not be taken before the context ended.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker serializes work on a key across goroutines (and, for distributed
// implementations, across processes).
type Locker interface {
	// Acquire blocks until the lock for key is held or ctx is done.
	// The returned release func must be called exactly once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// ItemKey is the lock key guarding an item's notified flags.
func ItemKey(id uuid.UUID) string {
	return "item:" + id.String()
}

// OwnerKey is the lock key guarding an owner's item collection.
func OwnerKey(ownerID int64) string {
	return fmt.Sprintf("owner:%d", ownerID)
}
