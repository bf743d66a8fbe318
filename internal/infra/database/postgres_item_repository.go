package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"freshly_bot/internal/domain/item"

	"github.com/google/uuid"
	"github.com/lib/pq" // For pq.Array
)

// Custom errors specific to item repository
var ErrItemNotFound = fmt.Errorf("tracked item not found")

const dateLayout = "2006-01-02"

const itemColumns = `id, owner_id, display_name, category, purchase_date, expiration_date, notified_thresholds, attempted_thresholds, created_at`

type PostgresItemRepository struct {
	db *sql.DB
}

func NewPostgresItemRepository(db *sql.DB) *PostgresItemRepository {
	return &PostgresItemRepository{db: db}
}

func (r *PostgresItemRepository) Create(ctx context.Context, it *item.TrackedItem) error {
	query := `INSERT INTO tracked_items (id, owner_id, display_name, category, purchase_date, expiration_date, notified_thresholds)
               VALUES ($1, $2, $3, $4, $5, $6, $7)
               RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query,
		it.ID, it.OwnerID, it.DisplayName, it.Category,
		it.PurchaseDate.Format(dateLayout), it.ExpirationDate.Format(dateLayout),
		pq.Array(it.Notified.Int64s()),
	).Scan(&it.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating tracked item: %w", err)
	}
	return nil
}

func (r *PostgresItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*item.TrackedItem, error) {
	query := `SELECT ` + itemColumns + ` FROM tracked_items WHERE id = $1`
	it, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("error getting tracked item by ID: %w", err)
	}
	return it, nil
}

func (r *PostgresItemRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*item.TrackedItem, error) {
	query := `SELECT ` + itemColumns + `
               FROM tracked_items
               WHERE owner_id = $1 ORDER BY expiration_date ASC, display_name ASC`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error querying tracked items by owner: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

func (r *PostgresItemRepository) CountByOwner(ctx context.Context, ownerID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tracked_items WHERE owner_id = $1`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting tracked items: %w", err)
	}
	return count, nil
}

func (r *PostgresItemRepository) Delete(ctx context.Context, id uuid.UUID, ownerID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tracked_items WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("error deleting tracked item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *PostgresItemRepository) DeleteByOwner(ctx context.Context, ownerID int64) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `DELETE FROM tracked_items WHERE owner_id = $1 RETURNING id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error deleting tracked items of owner: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// MarkNotified appends the threshold only when it is absent, so concurrent
// callers cannot both observe the flag as newly set.
func (r *PostgresItemRepository) MarkNotified(ctx context.Context, id uuid.UUID, threshold item.Threshold) (bool, error) {
	query := `UPDATE tracked_items
               SET notified_thresholds = array_append(notified_thresholds, $2)
               WHERE id = $1 AND NOT ($2 = ANY(notified_thresholds))`
	return r.appendThreshold(ctx, query, id, threshold, "notified")
}

func (r *PostgresItemRepository) MarkAttempted(ctx context.Context, id uuid.UUID, threshold item.Threshold) (bool, error) {
	query := `UPDATE tracked_items
               SET attempted_thresholds = array_append(attempted_thresholds, $2)
               WHERE id = $1 AND NOT ($2 = ANY(attempted_thresholds))`
	return r.appendThreshold(ctx, query, id, threshold, "attempted")
}

func (r *PostgresItemRepository) appendThreshold(ctx context.Context, query string, id uuid.UUID, threshold item.Threshold, what string) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, id, int64(threshold))
	if err != nil {
		return false, fmt.Errorf("error marking tracked item %s: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading affected rows: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresItemRepository) ListDue(ctx context.Context, threshold item.Threshold, asOf time.Time) ([]*item.TrackedItem, error) {
	var query string
	var target time.Time
	if threshold == item.ThresholdExpired {
		query = `SELECT ` + itemColumns + `
               FROM tracked_items
               WHERE expiration_date <= $1::date
                 AND NOT ($2 = ANY(notified_thresholds)) AND NOT ($2 = ANY(attempted_thresholds))
               ORDER BY expiration_date ASC`
		target = item.DateOf(asOf)
	} else {
		query = `SELECT ` + itemColumns + `
               FROM tracked_items
               WHERE expiration_date = $1::date
                 AND NOT ($2 = ANY(notified_thresholds)) AND NOT ($2 = ANY(attempted_thresholds))
               ORDER BY owner_id, display_name`
		target = item.DateOf(asOf).AddDate(0, 0, int(threshold))
	}

	rows, err := r.db.QueryContext(ctx, query, target.Format(dateLayout), int64(threshold))
	if err != nil {
		return nil, fmt.Errorf("error querying due tracked items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

func (r *PostgresItemRepository) ListExpiringFrom(ctx context.Context, from time.Time) ([]*item.TrackedItem, error) {
	query := `SELECT ` + itemColumns + `
               FROM tracked_items
               WHERE expiration_date >= $1::date ORDER BY expiration_date ASC`
	rows, err := r.db.QueryContext(ctx, query, item.DateOf(from).Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("error querying upcoming tracked items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

func (r *PostgresItemRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	query := `DELETE FROM tracked_items
               WHERE expiration_date < $1::date
               RETURNING id`
	rows, err := r.db.QueryContext(ctx, query, item.DateOf(cutoff).Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("error purging expired tracked items: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*item.TrackedItem, error) {
	it := &item.TrackedItem{}
	var notified, attempted []int64
	if err := row.Scan(
		&it.ID, &it.OwnerID, &it.DisplayName, &it.Category,
		&it.PurchaseDate, &it.ExpirationDate, pq.Array(&notified), pq.Array(&attempted), &it.CreatedAt,
	); err != nil {
		return nil, err
	}
	// DATE columns come back in a driver-specific zone; keep the UTC-midnight form.
	it.PurchaseDate = item.DateOf(it.PurchaseDate)
	it.ExpirationDate = item.DateOf(it.ExpirationDate)
	it.Notified = item.ThresholdSetFromInt64s(notified)
	it.Attempted = item.ThresholdSetFromInt64s(attempted)
	return it, nil
}

// Helper to scan multiple rows
func scanItems(rows *sql.Rows) ([]*item.TrackedItem, error) {
	items := make([]*item.TrackedItem, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning tracked item row: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tracked item rows: %w", err)
	}
	return items, nil
}

func scanIDs(rows *sql.Rows) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning tracked item id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tracked item ids: %w", err)
	}
	return ids, nil
}
