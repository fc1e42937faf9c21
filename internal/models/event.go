package models

// EventType classifies a workforce-reduction announcement.
type EventType string

const (
	EventVoluntaryRetirement EventType = "voluntary_retirement"
	EventLayoff              EventType = "layoff"
	EventRestructure         EventType = "restructure"
)

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	switch t {
	case EventVoluntaryRetirement, EventLayoff, EventRestructure:
		return true
	}
	return false
}

const (
	DefaultRegion = "JP"
	DefaultSector = "Unknown"

	// DateLayout is the calendar date format of Event.Date.
	DateLayout = "2006-01-02"
)

// EventMeta carries diagnostics that are not part of the event itself.
type EventMeta struct {
	SourceDomain string `json:"source_domain"`
}

// Event is one detected layoff / retirement-program announcement as persisted
// in the rolling JSON dataset.
type Event struct {
	ID                  string    `json:"id"`
	Date                string    `json:"date"`
	Company             string    `json:"company"`
	EventType           EventType `json:"event_type"`
	HeadcountAffected   int       `json:"headcount_affected"`
	HeadcountConfidence float64   `json:"headcount_confidence"`
	Summary             string    `json:"summary"`
	SourceURLs          []string  `json:"source_urls"`
	Region              string    `json:"region"`
	Sector              string    `json:"sector"`
	ListedFlag          bool      `json:"listed_flag"`
	Tags                []string  `json:"tags"`
	Meta                EventMeta `json:"_meta"`
}

// IsEmpty reports whether e carries no identifying data, as happens when a
// dataset file holds `{}` entries.
func (e Event) IsEmpty() bool {
	return e.ID == "" && e.Date == ""
}

// FirstSourceURL returns the first source URL or "" when there is none.
func (e Event) FirstSourceURL() string {
	if len(e.SourceURLs) == 0 {
		return ""
	}
	return e.SourceURLs[0]
}
