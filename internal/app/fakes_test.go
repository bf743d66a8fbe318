package app

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"freshly_bot/internal/domain/item"
	"freshly_bot/internal/domain/owner"
	"freshly_bot/internal/domain/reminder"
	idb "freshly_bot/internal/infra/database"

	"github.com/google/uuid"
	"gopkg.in/telebot.v3"
)

// fakeItemRepo mirrors the postgres repository semantics in memory.
type fakeItemRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]item.TrackedItem
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: make(map[uuid.UUID]item.TrackedItem)}
}

func (r *fakeItemRepo) Create(_ context.Context, it *item.TrackedItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it.CreatedAt = time.Now()
	r.items[it.ID] = *it
	return nil
}

func (r *fakeItemRepo) GetByID(_ context.Context, id uuid.UUID) (*item.TrackedItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return nil, idb.ErrItemNotFound
	}
	return &it, nil
}

func (r *fakeItemRepo) filter(keep func(item.TrackedItem) bool) []*item.TrackedItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*item.TrackedItem, 0)
	for _, it := range r.items {
		if keep(it) {
			copied := it
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExpirationDate.Equal(out[j].ExpirationDate) {
			return out[i].ExpirationDate.Before(out[j].ExpirationDate)
		}
		return out[i].DisplayName < out[j].DisplayName
	})
	return out
}

func (r *fakeItemRepo) ListByOwner(_ context.Context, ownerID int64) ([]*item.TrackedItem, error) {
	return r.filter(func(it item.TrackedItem) bool { return it.OwnerID == ownerID }), nil
}

func (r *fakeItemRepo) CountByOwner(ctx context.Context, ownerID int64) (int, error) {
	items, _ := r.ListByOwner(ctx, ownerID)
	return len(items), nil
}

func (r *fakeItemRepo) Delete(_ context.Context, id uuid.UUID, ownerID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok || it.OwnerID != ownerID {
		return idb.ErrItemNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeItemRepo) deleteWhere(match func(item.TrackedItem) bool) []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uuid.UUID, 0)
	for id, it := range r.items {
		if match(it) {
			ids = append(ids, id)
			delete(r.items, id)
		}
	}
	return ids
}

func (r *fakeItemRepo) DeleteByOwner(_ context.Context, ownerID int64) ([]uuid.UUID, error) {
	return r.deleteWhere(func(it item.TrackedItem) bool { return it.OwnerID == ownerID }), nil
}

func (r *fakeItemRepo) MarkNotified(_ context.Context, id uuid.UUID, threshold item.Threshold) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok || it.Notified.Has(threshold) {
		return false, nil
	}
	it.Notified = it.Notified.With(threshold)
	r.items[id] = it
	return true, nil
}

func (r *fakeItemRepo) MarkAttempted(_ context.Context, id uuid.UUID, threshold item.Threshold) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok || it.Attempted.Has(threshold) {
		return false, nil
	}
	it.Attempted = it.Attempted.With(threshold)
	r.items[id] = it
	return true, nil
}

func (r *fakeItemRepo) ListDue(_ context.Context, threshold item.Threshold, asOf time.Time) ([]*item.TrackedItem, error) {
	today := item.DateOf(asOf)
	return r.filter(func(it item.TrackedItem) bool {
		if it.Settled(threshold) {
			return false
		}
		if threshold == item.ThresholdExpired {
			return !it.ExpirationDate.After(today)
		}
		return it.ExpirationDate.Equal(today.AddDate(0, 0, int(threshold)))
	}), nil
}

func (r *fakeItemRepo) ListExpiringFrom(_ context.Context, from time.Time) ([]*item.TrackedItem, error) {
	day := item.DateOf(from)
	return r.filter(func(it item.TrackedItem) bool { return !it.ExpirationDate.Before(day) }), nil
}

func (r *fakeItemRepo) DeleteExpiredBefore(_ context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	day := item.DateOf(cutoff)
	return r.deleteWhere(func(it item.TrackedItem) bool {
		return it.ExpirationDate.Before(day)
	}), nil
}

type fakeOwnerRepo struct {
	mu     sync.Mutex
	owners map[int64]owner.Owner
}

func newFakeOwnerRepo(owners ...owner.Owner) *fakeOwnerRepo {
	r := &fakeOwnerRepo{owners: make(map[int64]owner.Owner)}
	for _, o := range owners {
		r.owners[o.TelegramID] = o
	}
	return r
}

func (r *fakeOwnerRepo) Upsert(_ context.Context, o *owner.Owner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.owners[o.TelegramID]
	if ok {
		o.PremiumUntil = existing.PremiumUntil
		o.CreatedAt = existing.CreatedAt
	} else {
		o.CreatedAt = time.Now()
	}
	r.owners[o.TelegramID] = *o
	return nil
}

func (r *fakeOwnerRepo) GetByTelegramID(_ context.Context, telegramID int64) (*owner.Owner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.owners[telegramID]
	if !ok {
		return nil, idb.ErrOwnerNotFound
	}
	return &o, nil
}

func (r *fakeOwnerRepo) SetPremiumUntil(_ context.Context, telegramID int64, until sql.NullTime) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.owners[telegramID]
	if !ok {
		return idb.ErrOwnerNotFound
	}
	o.PremiumUntil = until
	r.owners[telegramID] = o
	return nil
}

func (r *fakeOwnerRepo) ListAll(_ context.Context) ([]*owner.Owner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*owner.Owner, 0, len(r.owners))
	for _, o := range r.owners {
		copied := o
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TelegramID < out[j].TelegramID })
	return out, nil
}

type scheduledJob struct {
	fireAt time.Time
	fn     func()
}

// fakeJobs records jobs instead of running them; tests fire them explicitly.
type fakeJobs struct {
	mu   sync.Mutex
	jobs map[reminder.JobKey]scheduledJob
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{jobs: make(map[reminder.JobKey]scheduledJob)}
}

func (j *fakeJobs) ScheduleOnce(key reminder.JobKey, fireAt time.Time, fn func()) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.jobs[key] = scheduledJob{fireAt: fireAt, fn: fn}
	return nil
}

func (j *fakeJobs) Cancel(key reminder.JobKey) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	_, ok := j.jobs[key]
	delete(j.jobs, key)
	return ok
}

func (j *fakeJobs) CancelItem(itemID uuid.UUID) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	n := 0
	for key := range j.jobs {
		if key.ItemID == itemID {
			delete(j.jobs, key)
			n++
		}
	}
	return n
}

func (j *fakeJobs) ScheduleDaily(int, int, func()) error { return nil }

func (j *fakeJobs) Pending() []reminder.JobKey {
	j.mu.Lock()
	defer j.mu.Unlock()
	keys := make([]reminder.JobKey, 0, len(j.jobs))
	for key := range j.jobs {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(a, b int) bool { return keys[a].String() < keys[b].String() })
	return keys
}

func (j *fakeJobs) get(key reminder.JobKey) (scheduledJob, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	job, ok := j.jobs[key]
	return job, ok
}

// fire runs the job for key the way the cron scheduler would: once, then forgotten.
func (j *fakeJobs) fire(key reminder.JobKey) bool {
	j.mu.Lock()
	job, ok := j.jobs[key]
	delete(j.jobs, key)
	j.mu.Unlock()
	if ok {
		job.fn()
	}
	return ok
}

func (j *fakeJobs) pendingFor(ownerID int64) int {
	n := 0
	for _, key := range j.Pending() {
		if key.OwnerID == ownerID {
			n++
		}
	}
	return n
}

type sentMessage struct {
	recipientID int64
	text        string
}

type fakeClient struct {
	mu       sync.Mutex
	sent     []sentMessage
	attempts int
	failFor  map[int64]bool
	delay    time.Duration
}

func newFakeClient() *fakeClient {
	return &fakeClient{failFor: make(map[int64]bool)}
}

func (c *fakeClient) SendMessage(_ context.Context, recipientID int64, text string, _ *telebot.SendOptions) error {
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempts++
	if c.failFor[recipientID] {
		return errors.New("telegram: bot was blocked by the user (403)")
	}
	c.sent = append(c.sent, sentMessage{recipientID: recipientID, text: text})
	return nil
}

func (c *fakeClient) attemptCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

func (c *fakeClient) messages() []sentMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sentMessage(nil), c.sent...)
}
