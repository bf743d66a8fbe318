package locker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"freshly_bot/internal/domain/lock"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	logger, _ := test.NewNullLogger()
	return NewRedisLocker(client, logrus.NewEntry(logger)), mr
}

func lockers(t *testing.T) map[string]lock.Locker {
	redisLocker, _ := newRedisLocker(t)
	return map[string]lock.Locker{
		"local": NewLocalLocker(),
		"redis": redisLocker,
	}
}

func TestLocker_SecondClaimantWaitsForRelease(t *testing.T) {
	for name, l := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			release, err := l.Acquire(context.Background(), "item:a")
			require.NoError(t, err)

			acquired := make(chan struct{})
			go func() {
				r, err := l.Acquire(context.Background(), "item:a")
				if err == nil {
					close(acquired)
					r()
				}
			}()

			select {
			case <-acquired:
				t.Fatal("second claimant acquired a held lock")
			case <-time.After(100 * time.Millisecond):
			}

			release()
			select {
			case <-acquired:
			case <-time.After(2 * time.Second):
				t.Fatal("second claimant never acquired the lock")
			}
		})
	}
}

func TestLocker_ContextDeadline(t *testing.T) {
	for name, l := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			release, err := l.Acquire(context.Background(), "owner:1")
			require.NoError(t, err)
			defer release()

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
			defer cancel()
			_, err = l.Acquire(ctx, "owner:1")
			assert.ErrorIs(t, err, lock.ErrNotAcquired)
		})
	}
}

func TestLocker_DistinctKeysDoNotBlock(t *testing.T) {
	for name, l := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			r1, err := l.Acquire(context.Background(), "item:a")
			require.NoError(t, err)
			defer r1()

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			r2, err := l.Acquire(ctx, "item:b")
			require.NoError(t, err)
			r2()
		})
	}
}

func TestLocker_MutualExclusion(t *testing.T) {
	for name, l := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			var inside, maxInside int32
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					release, err := l.Acquire(context.Background(), "item:shared")
					if !assert.NoError(t, err) {
						return
					}
					n := atomic.AddInt32(&inside, 1)
					for {
						m := atomic.LoadInt32(&maxInside)
						if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
							break
						}
					}
					time.Sleep(5 * time.Millisecond)
					atomic.AddInt32(&inside, -1)
					release()
				}()
			}
			wg.Wait()
			assert.Equal(t, int32(1), atomic.LoadInt32(&maxInside))
		})
	}
}

func TestLocalLocker_DropsIdleKeys(t *testing.T) {
	l := NewLocalLocker()
	release, err := l.Acquire(context.Background(), "item:a")
	require.NoError(t, err)
	release()
	release() // second call is a no-op

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Empty(t, l.locks)
}

func TestRedisLocker_ReleaseKeepsForeignClaim(t *testing.T) {
	l, mr := newRedisLocker(t)

	release, err := l.Acquire(context.Background(), "item:a")
	require.NoError(t, err)

	// Simulate the claim expiring and another replica taking the key.
	mr.Del(keyPrefix + "item:a")
	require.NoError(t, mr.Set(keyPrefix+"item:a", "someone-else"))

	release()
	got, err := mr.Get(keyPrefix + "item:a")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisLocker_ClaimHasTTL(t *testing.T) {
	l, mr := newRedisLocker(t)

	release, err := l.Acquire(context.Background(), "owner:9")
	require.NoError(t, err)
	defer release()

	assert.Equal(t, defaultLockTTL, mr.TTL(keyPrefix+"owner:9"))
}

func TestRedisLocker_RenewsClaimWhileHeld(t *testing.T) {
	l, mr := newRedisLocker(t)
	l.ttl = 100 * time.Millisecond
	l.renewInterval = 10 * time.Millisecond

	release, err := l.Acquire(context.Background(), "item:slow")
	require.NoError(t, err)

	// Advance the clock well past the original ttl; each step is shorter than
	// the ttl and followed by enough wall time for a renewal.
	for i := 0; i < 6; i++ {
		mr.FastForward(60 * time.Millisecond)
		time.Sleep(40 * time.Millisecond)
		require.True(t, mr.Exists(keyPrefix+"item:slow"), "claim expired while held (step %d)", i)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "item:slow")
	assert.ErrorIs(t, err, lock.ErrNotAcquired)

	release()
	assert.False(t, mr.Exists(keyPrefix+"item:slow"))
}

func TestRedisLocker_StopsRenewingAfterRelease(t *testing.T) {
	l, mr := newRedisLocker(t)
	l.ttl = 100 * time.Millisecond
	l.renewInterval = 10 * time.Millisecond

	release, err := l.Acquire(context.Background(), "item:a")
	require.NoError(t, err)
	release()

	// A new holder's claim must not be extended by the old holder.
	require.NoError(t, mr.Set(keyPrefix+"item:a", "someone-else"))
	mr.SetTTL(keyPrefix+"item:a", 50*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 50*time.Millisecond, mr.TTL(keyPrefix+"item:a"))
}
