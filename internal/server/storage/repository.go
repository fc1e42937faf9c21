package storage

import (
	"context"
	"fmt"
	"strings"

	"layoff-watch/tracker/internal/database"
	"layoff-watch/tracker/internal/models"
)

// EventFilter selects archived events. Zero values disable a condition.
type EventFilter struct {
	Limit        int
	Since        string // YYYY-MM-DD, inclusive
	EventType    string
	MinHeadcount int

	// Keyset position: rows strictly after (CursorDate, CursorID) in
	// (date DESC, id ASC) order.
	CursorDate string
	CursorID   string
}

// EventRepository defines operations for accessing archived events.
type EventRepository interface {
	FetchEvents(ctx context.Context, f EventFilter) ([]models.EventRow, error)
	GetEvent(ctx context.Context, id string) (*models.EventRow, error)
}

// sqlxRepository implements EventRepository using sqlx.
type sqlxRepository struct {
	db *database.DB
}

// NewRepository creates a new repository instance.
func NewRepository(db *database.DB) EventRepository {
	return &sqlxRepository{db: db}
}

// FetchEvents retrieves events newest first, ties broken by id.
func (r *sqlxRepository) FetchEvents(ctx context.Context, f EventFilter) ([]models.EventRow, error) {
	if f.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	var where []string
	var args []any

	if f.CursorDate != "" {
		where = append(where, `(date < ? OR (date = ? AND id > ?))`)
		args = append(args, f.CursorDate, f.CursorDate, f.CursorID)
	}
	if f.Since != "" {
		where = append(where, `date >= ?`)
		args = append(args, f.Since)
	}
	if f.EventType != "" {
		where = append(where, `event_type = ?`)
		args = append(args, f.EventType)
	}
	if f.MinHeadcount > 0 {
		where = append(where, `headcount_affected >= ?`)
		args = append(args, f.MinHeadcount)
	}

	query := `SELECT * FROM events`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY date DESC, id ASC LIMIT ?`
	args = append(args, f.Limit)

	items := []models.EventRow{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	return items, nil
}

// GetEvent returns the archived event with id, or nil when there is none.
func (r *sqlxRepository) GetEvent(ctx context.Context, id string) (*models.EventRow, error) {
	return r.db.GetEvent(ctx, id)
}
