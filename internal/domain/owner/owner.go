package owner

import (
	"database/sql"
	"time"
)

// Owner is a bot user who tracks items. Corresponds to the 'owners' table.
type Owner struct {
	TelegramID   int64
	Username     string
	PremiumUntil sql.NullTime // Premium tier is active while this is in the future
	CreatedAt    time.Time
}

// IsPremium reports whether the premium window is open at now.
func (o *Owner) IsPremium(now time.Time) bool {
	return o.PremiumUntil.Valid && o.PremiumUntil.Time.After(now)
}
