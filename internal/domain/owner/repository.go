package owner

import (
	"context"
	"database/sql"
)

// Repository defines the operations for persisting and retrieving Owner entities.
type Repository interface {
	// Upsert creates the owner or refreshes its username, filling PremiumUntil and CreatedAt.
	Upsert(ctx context.Context, o *Owner) error
	GetByTelegramID(ctx context.Context, telegramID int64) (*Owner, error)
	SetPremiumUntil(ctx context.Context, telegramID int64, until sql.NullTime) error
	ListAll(ctx context.Context) ([]*Owner, error) // For broadcasts
}
