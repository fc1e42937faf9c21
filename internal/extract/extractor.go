package extract

import (
	"strings"
	"time"

	"layoff-watch/tracker/internal/detect"
	"layoff-watch/tracker/internal/models"
)

// Status describes what happened to a feed entry.
type Status int

const (
	// StatusFiltered means no detection keyword occurred; no record was built.
	StatusFiltered Status = iota
	// StatusExtracted means every field was derived from the entry itself.
	StatusExtracted
	// StatusDegraded means a record was built but some fields fell back to defaults.
	StatusDegraded
)

func (s Status) String() string {
	switch s {
	case StatusFiltered:
		return "filtered"
	case StatusExtracted:
		return "extracted"
	case StatusDegraded:
		return "degraded"
	}
	return "unknown"
}

// Degradation names a field that fell back to its default.
type Degradation string

const (
	DateFallback          Degradation = "date_fallback"
	CompanyDomainFallback Degradation = "company_domain_fallback"
	HeadcountUnknown      Degradation = "headcount_unknown"
)

// Result is the outcome of extracting one entry. Event is nil when Status is
// StatusFiltered.
type Result struct {
	Event    *models.Event
	Status   Status
	Degraded []Degradation
}

// Has reports whether d is among the result's degradations.
func (r Result) Has(d Degradation) bool {
	for _, x := range r.Degraded {
		if x == d {
			return true
		}
	}
	return false
}

// Extractor turns feed entries into event records.
type Extractor struct {
	matcher *detect.Matcher
	region  string
	now     func() time.Time
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock overrides the processing-time source used when an entry carries no
// timestamp.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// WithRegion sets the region code stamped on every record.
func WithRegion(region string) Option {
	return func(e *Extractor) {
		if region != "" {
			e.region = region
		}
	}
}

// New creates an Extractor for the given rule table.
func New(table detect.Table, opts ...Option) *Extractor {
	e := &Extractor{
		matcher: detect.NewMatcher(table),
		region:  models.DefaultRegion,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Matcher exposes the keyword matcher the extractor filters with.
func (x *Extractor) Matcher() *detect.Matcher {
	return x.matcher
}

// Extract builds an event record from entry. Entries without any detection
// keyword are filtered before any field is derived. Field-level failures
// never abort the record; they are reported in Result.Degraded.
func (x *Extractor) Extract(entry models.Entry) Result {
	entry.Title = strings.TrimSpace(entry.Title)
	entry.Summary = strings.TrimSpace(entry.Summary)
	entry.Link = strings.TrimSpace(entry.Link)

	text := entry.Text()
	if !x.matcher.Match(text) {
		return Result{Status: StatusFiltered}
	}

	var degraded []Degradation

	ts, dateFallback := ResolveDate(entry.Published, entry.Updated, x.now())
	if dateFallback {
		degraded = append(degraded, DateFallback)
	}
	date := ts.Format(models.DateLayout)

	company, companyFallback := Company(entry.Title, entry.Link)
	if companyFallback {
		degraded = append(degraded, CompanyDomainFallback)
	}

	joined := entry.JoinedText()
	headcount, confidence := Headcount(joined)
	if headcount == 0 {
		degraded = append(degraded, HeadcountUnknown)
	}

	summary := entry.Summary
	if summary == "" {
		summary = entry.Title
	}

	sources := []string{}
	if entry.Link != "" {
		sources = append(sources, entry.Link)
	}

	ev := &models.Event{
		ID:                  EventID(date, company, headcount),
		Date:                date,
		Company:             company,
		EventType:           x.matcher.Classify(text),
		HeadcountAffected:   headcount,
		HeadcountConfidence: confidence,
		Summary:             truncateRunes(summary, maxSummaryRunes),
		SourceURLs:          sources,
		Region:              x.region,
		Sector:              models.DefaultSector,
		ListedFlag:          ListedFlag(entry.Link),
		Tags:                x.matcher.Tags(joined),
		Meta:                models.EventMeta{SourceDomain: Domain(entry.Link)},
	}

	status := StatusExtracted
	if len(degraded) > 0 {
		status = StatusDegraded
	}
	return Result{Event: ev, Status: status, Degraded: degraded}
}
