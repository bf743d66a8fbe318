package database

import (
	"context"
	"database/sql"
	"fmt" // For error wrapping

	"freshly_bot/internal/domain/owner"
)

// Custom errors
var ErrOwnerNotFound = fmt.Errorf("owner not found")

type PostgresOwnerRepository struct {
	db *sql.DB
}

func NewPostgresOwnerRepository(db *sql.DB) *PostgresOwnerRepository {
	return &PostgresOwnerRepository{db: db}
}

func (r *PostgresOwnerRepository) Upsert(ctx context.Context, o *owner.Owner) error {
	query := `INSERT INTO owners (telegram_id, username)
               VALUES ($1, $2)
               ON CONFLICT (telegram_id) DO UPDATE SET username = EXCLUDED.username
               RETURNING premium_until, created_at`

	err := r.db.QueryRowContext(ctx, query, o.TelegramID, o.Username).Scan(&o.PremiumUntil, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("error upserting owner: %w", err)
	}
	return nil
}

func (r *PostgresOwnerRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*owner.Owner, error) {
	query := `SELECT telegram_id, username, premium_until, created_at
               FROM owners WHERE telegram_id = $1`
	o := &owner.Owner{}
	err := r.db.QueryRowContext(ctx, query, telegramID).Scan(&o.TelegramID, &o.Username, &o.PremiumUntil, &o.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOwnerNotFound
		}
		return nil, fmt.Errorf("error getting owner by Telegram ID: %w", err)
	}
	return o, nil
}

func (r *PostgresOwnerRepository) SetPremiumUntil(ctx context.Context, telegramID int64, until sql.NullTime) error {
	res, err := r.db.ExecContext(ctx, `UPDATE owners SET premium_until = $1 WHERE telegram_id = $2`, until, telegramID)
	if err != nil {
		return fmt.Errorf("error updating owner premium: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		return ErrOwnerNotFound
	}
	return nil
}

func (r *PostgresOwnerRepository) ListAll(ctx context.Context) ([]*owner.Owner, error) {
	query := `SELECT telegram_id, username, premium_until, created_at
               FROM owners ORDER BY telegram_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing owners: %w", err)
	}
	defer rows.Close()

	owners := make([]*owner.Owner, 0)
	for rows.Next() {
		o := &owner.Owner{}
		if err := rows.Scan(&o.TelegramID, &o.Username, &o.PremiumUntil, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning owner: %w", err)
		}
		owners = append(owners, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating owners: %w", err)
	}
	return owners, nil
}
