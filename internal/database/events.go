package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"layoff-watch/tracker/internal/models"
)

// UpsertEvents archives events. Unknown ids are inserted; known ids only have
// last_seen_at refreshed so the first archived version is kept.
func (db *DB) UpsertEvents(ctx context.Context, events []models.Event) (inserted, updated int, err error) {
	if len(events) == 0 {
		return 0, 0, nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insert, err := tx.PreparexContext(ctx, `
		INSERT INTO events (
			id, date, company, event_type, headcount_affected, headcount_confidence,
			summary, source_urls, region, sector, listed_flag, tags, source_domain,
			first_seen_at, last_seen_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING;`)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer insert.Close()

	touch, err := tx.PreparexContext(ctx, `UPDATE events SET last_seen_at = ? WHERE id = ?`)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to prepare update: %w", err)
	}
	defer touch.Close()

	now := time.Now().UTC()
	for _, ev := range events {
		if ev.IsEmpty() {
			continue
		}
		row, err := models.NewEventRow(ev)
		if err != nil {
			return 0, 0, err
		}

		res, err := insert.ExecContext(ctx,
			row.ID, row.Date, row.Company, row.EventType, row.HeadcountAffected, row.HeadcountConfidence,
			row.Summary, string(row.SourceURLs), row.Region, row.Sector, row.ListedFlag, string(row.Tags),
			row.SourceDomain, now, now,
		)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to insert event %s: %w", ev.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, 0, fmt.Errorf("failed to get rows affected for %s: %w", ev.ID, err)
		}
		if n > 0 {
			inserted++
			continue
		}

		if _, err := touch.ExecContext(ctx, now, ev.ID); err != nil {
			return 0, 0, fmt.Errorf("failed to touch event %s: %w", ev.ID, err)
		}
		updated++
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inserted, updated, nil
}

// GetEvent returns the archived event with id, or nil when unknown.
func (db *DB) GetEvent(ctx context.Context, id string) (*models.EventRow, error) {
	var rows []models.EventRow
	if err := db.SelectContext(ctx, &rows, `SELECT * FROM events WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("failed to query event %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// PurgeEvents removes events not seen for retentionDays.
func (db *DB) PurgeEvents(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, fmt.Errorf("retentionDays must be positive")
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	log.Debug().
		Time("cutoff", cutoff).
		Int("retention_days", retentionDays).
		Msg("Purging stale events")

	result, err := db.ExecContext(ctx, "DELETE FROM events WHERE last_seen_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge events: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Warn().Err(err).Msg("Could not get RowsAffected after purging events")
		return 0, nil
	}
	return rowsAffected, nil
}
