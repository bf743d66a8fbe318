package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/sirupsen/logrus"
)

const (
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 5 * time.Minute

	pingAttempts = 5
	pingTimeout  = 5 * time.Second
	pingBackoff  = 2 * time.Second
)

// Connect opens the PostgreSQL pool, waits for the server to answer and
// bootstraps the schema. The server may still be starting when the bot
// comes up, so the ping is retried a few times.
func Connect(ctx context.Context, dataSourceName string, logger *logrus.Entry) (*sql.DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	if err := pingWithRetry(ctx, db, pingAttempts, pingBackoff, logger); err != nil {
		db.Close()
		return nil, err
	}
	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func pingWithRetry(ctx context.Context, db *sql.DB, attempts int, backoff time.Duration, logger *logrus.Entry) error {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = db.PingContext(pingCtx)
		cancel()
		if lastErr == nil {
			return nil
		}

		logger.WithError(lastErr).WithFields(logrus.Fields{
			"attempt":  attempt,
			"attempts": attempts,
		}).Warn("Database not reachable yet")
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to ping database: %w", ctx.Err())
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("failed to ping database after %d attempts: %w", attempts, lastErr)
}
