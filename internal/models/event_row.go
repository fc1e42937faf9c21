package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventRow represents a row in the events table
type EventRow struct {
	ID                  string    `db:"id" json:"id"`
	Date                string    `db:"date" json:"date"`
	Company             string    `db:"company" json:"company"`
	EventType           string    `db:"event_type" json:"event_type"`
	HeadcountAffected   int       `db:"headcount_affected" json:"headcount_affected"`
	HeadcountConfidence float64   `db:"headcount_confidence" json:"headcount_confidence"`
	Summary             string    `db:"summary" json:"summary"`
	SourceURLs          []byte    `db:"source_urls" json:"-"` // JSON array
	Region              string    `db:"region" json:"region"`
	Sector              string    `db:"sector" json:"sector"`
	ListedFlag          bool      `db:"listed_flag" json:"listed_flag"`
	Tags                []byte    `db:"tags" json:"-"` // JSON array
	SourceDomain        string    `db:"source_domain" json:"source_domain"`
	FirstSeenAt         time.Time `db:"first_seen_at" json:"first_seen_at"`
	LastSeenAt          time.Time `db:"last_seen_at" json:"last_seen_at"`
}

// NewEventRow converts an Event into its archive representation.
func NewEventRow(e Event) (*EventRow, error) {
	urls, err := json.Marshal(nonNil(e.SourceURLs))
	if err != nil {
		return nil, fmt.Errorf("marshal source_urls for %s: %w", e.ID, err)
	}
	tags, err := json.Marshal(nonNil(e.Tags))
	if err != nil {
		return nil, fmt.Errorf("marshal tags for %s: %w", e.ID, err)
	}

	now := time.Now()
	return &EventRow{
		ID:                  e.ID,
		Date:                e.Date,
		Company:             e.Company,
		EventType:           string(e.EventType),
		HeadcountAffected:   e.HeadcountAffected,
		HeadcountConfidence: e.HeadcountConfidence,
		Summary:             e.Summary,
		SourceURLs:          urls,
		Region:              e.Region,
		Sector:              e.Sector,
		ListedFlag:          e.ListedFlag,
		Tags:                tags,
		SourceDomain:        e.Meta.SourceDomain,
		FirstSeenAt:         now,
		LastSeenAt:          now,
	}, nil
}

// Event converts the row back into the dataset representation. Malformed JSON
// columns decode as empty lists.
func (r EventRow) Event() Event {
	var urls, tags []string
	if err := json.Unmarshal(r.SourceURLs, &urls); err != nil || urls == nil {
		urls = []string{}
	}
	if err := json.Unmarshal(r.Tags, &tags); err != nil || tags == nil {
		tags = []string{}
	}
	return Event{
		ID:                  r.ID,
		Date:                r.Date,
		Company:             r.Company,
		EventType:           EventType(r.EventType),
		HeadcountAffected:   r.HeadcountAffected,
		HeadcountConfidence: r.HeadcountConfidence,
		Summary:             r.Summary,
		SourceURLs:          urls,
		Region:              r.Region,
		Sector:              r.Sector,
		ListedFlag:          r.ListedFlag,
		Tags:                tags,
		Meta:                EventMeta{SourceDomain: r.SourceDomain},
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
