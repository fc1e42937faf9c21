package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"layoff-watch/tracker/internal/models"
)

// RecordFetch stores the outcome of fetching url in the current run.
// Consecutive failures are counted and reset on success.
func (db *DB) RecordFetch(ctx context.Context, url, status string, entries, matched int, fetchErr error) error {
	now := time.Now().UTC()

	failed := 0
	var lastError sql.NullString
	if fetchErr != nil {
		failed = 1
		lastError = sql.NullString{String: fetchErr.Error(), Valid: true}
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO feeds (url, status, failures_count, last_error, last_entries, last_matched,
			last_retrieved_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			failures_count = CASE WHEN excluded.failures_count = 0 THEN 0 ELSE feeds.failures_count + 1 END,
			status = excluded.status,
			last_error = excluded.last_error,
			last_entries = excluded.last_entries,
			last_matched = excluded.last_matched,
			last_retrieved_at = excluded.last_retrieved_at,
			updated_at = excluded.updated_at;`,
		url, status, failed, lastError, entries, matched, now, now, now)
	if err != nil {
		return fmt.Errorf("failed to record fetch of %s: %w", url, err)
	}
	return nil
}

// ListFeeds returns every feed the archive has seen, ordered by url.
func (db *DB) ListFeeds(ctx context.Context) ([]models.Feed, error) {
	feeds := []models.Feed{}
	if err := db.SelectContext(ctx, &feeds, `SELECT * FROM feeds ORDER BY url ASC`); err != nil {
		return nil, fmt.Errorf("failed to query feeds: %w", err)
	}
	return feeds, nil
}
