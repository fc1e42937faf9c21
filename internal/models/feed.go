package models

import (
	"database/sql"
	"time"
)

// Feed status values stored in the feeds table.
const (
	FeedStatusOK     = "ok"
	FeedStatusWarn   = "warn"
	FeedStatusFailed = "failed"
)

// Feed represents a row in the 'feeds' table: the fetch health of one feed URL
// across runs.
type Feed struct {
	URL             string         `db:"url"`
	Status          string         `db:"status"`
	FailuresCount   int            `db:"failures_count"`
	LastError       sql.NullString `db:"last_error"`
	LastEntries     int            `db:"last_entries"`
	LastMatched     int            `db:"last_matched"`
	LastRetrievedAt sql.NullTime   `db:"last_retrieved_at"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

